package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestRetryWithBackoff(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
		failures    int // attempts that fail before success; -1 fails forever
		permanent   bool
		wantErr     error
		wantCalls   int
	}{
		{"first try", 3, 0, false, nil, 1},
		{"eventual success", 5, 2, false, nil, 3},
		{"exhausted", 3, -1, false, errFlaky, 3},
		{"single attempt", 1, -1, false, errFlaky, 1},
		{"permanent error stops", 5, -1, true, errFlaky, 1},
		{"invalid attempts", 0, 0, false, ErrInvalidMaxAttempts, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(context.Background(), func() error {
				calls++
				if tt.failures >= 0 && calls > tt.failures {
					return nil
				}
				if tt.permanent {
					return backoff.Permanent(errFlaky)
				}
				return errFlaky
			}, tt.maxAttempts, time.Millisecond)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRetryWithBackoffDelaysDouble(t *testing.T) {
	start := time.Now()
	err := RetryWithBackoff(context.Background(), func() error { return errFlaky }, 3, 20*time.Millisecond)
	require.ErrorIs(t, err, errFlaky)

	// 20ms then 40ms between the three attempts.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestRetryWithBackoffContext(t *testing.T) {
	t.Run("canceled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := RetryWithBackoff(ctx, func() error { calls++; return nil }, 3, time.Millisecond)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls)
	})

	t.Run("canceled between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			if calls == 2 {
				cancel()
			}
			return errFlaky
		}, 10, time.Millisecond)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, calls)
	})

	t.Run("deadline cuts long schedule", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		start := time.Now()
		err := RetryWithBackoff(ctx, func() error { return errFlaky }, 10, 30*time.Millisecond)
		require.Error(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})
}
