package queue

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	assert.NoError(t, p.Validate())
	assert.Equal(t, 3, p.Tries)
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second}, p.Backoff)
	assert.Equal(t, 300*time.Second, p.Timeout)
	assert.Equal(t, uint32(10), p.MaxExceptions)
	assert.Equal(t, 5*time.Minute, p.ExceptionWindow)
	assert.GreaterOrEqual(t, p.Workers, 1)
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr bool
	}{
		{"default", func(p *Policy) {}, false},
		{"no workers", func(p *Policy) { p.Workers = 0 }, true},
		{"no tries", func(p *Policy) { p.Tries = 0 }, true},
		{"no timeout", func(p *Policy) { p.Timeout = 0 }, true},
		{"negative backoff", func(p *Policy) { p.Backoff = []time.Duration{-time.Second} }, true},
		{"throttle without window", func(p *Policy) { p.ExceptionWindow = 0 }, true},
		{"throttle disabled", func(p *Policy) { p.MaxExceptions = 0; p.ExceptionWindow = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPolicy)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicyBackOffSchedule(t *testing.T) {
	p := DefaultPolicy()
	p.Tries = 5
	b := p.newBackOff()

	var got []time.Duration
	for {
		d := b.NextBackOff()
		if d == backoff.Stop {
			break
		}
		got = append(got, d)
	}

	// Four retries; the last delay repeats
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second, 120 * time.Second}, got)

	b.Reset()
	assert.Equal(t, 30*time.Second, b.NextBackOff())
}
