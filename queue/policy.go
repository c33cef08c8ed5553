package queue

import (
	"fmt"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Queue names.
const (
	Default      = "default"
	Embeddings   = "embeddings"
	Translations = "translations"
	Indexing     = "indexing"
)

// Policy controls how a queue runs its jobs.
type Policy struct {
	// Workers is the number of jobs the queue runs concurrently.
	Workers int

	// Tries is the number of attempts a job gets before it fails.
	Tries int

	// Backoff lists the delays before each retry. The last delay repeats
	// when there are more retries than entries.
	Backoff []time.Duration

	// Timeout bounds a single attempt.
	Timeout time.Duration

	// RateLimit is the number of attempts started per second; rate.Inf disables it.
	RateLimit rate.Limit
	Burst     int

	// MaxExceptions failures within ExceptionWindow pause the queue for
	// ExceptionWindow. Zero disables throttling.
	MaxExceptions   uint32
	ExceptionWindow time.Duration
}

// DefaultPolicy returns the policy of the AI job queues: 3 tries backing
// off 30s, 60s then 120s, 5 minute attempts, at most 10 failures in 5 minutes.
func DefaultPolicy() Policy {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	return Policy{
		Workers:         workers,
		Tries:           3,
		Backoff:         []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second},
		Timeout:         300 * time.Second,
		RateLimit:       rate.Inf,
		Burst:           1,
		MaxExceptions:   10,
		ExceptionWindow: 5 * time.Minute,
	}
}

// Validate checks the policy is usable.
func (p Policy) Validate() error {
	if p.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidPolicy, p.Workers)
	}
	if p.Tries < 1 {
		return fmt.Errorf("%w: tries must be positive, got %d", ErrInvalidPolicy, p.Tries)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidPolicy)
	}
	for _, d := range p.Backoff {
		if d < 0 {
			return fmt.Errorf("%w: negative backoff %s", ErrInvalidPolicy, d)
		}
	}
	if p.MaxExceptions > 0 && p.ExceptionWindow <= 0 {
		return fmt.Errorf("%w: exception window required with max exceptions", ErrInvalidPolicy)
	}
	return nil
}

// scheduleBackOff is a backoff.BackOff walking a fixed list of delays.
type scheduleBackOff struct {
	delays []time.Duration
	next   int
}

var _ backoff.BackOff = (*scheduleBackOff)(nil)

func (s *scheduleBackOff) NextBackOff() time.Duration {
	if len(s.delays) == 0 {
		return 0
	}
	i := s.next
	if i >= len(s.delays) {
		i = len(s.delays) - 1
	}
	s.next++
	return s.delays[i]
}

func (s *scheduleBackOff) Reset() {
	s.next = 0
}

// newBackOff returns the retry schedule of p, stopping after Tries attempts.
func (p Policy) newBackOff() backoff.BackOff {
	return backoff.WithMaxRetries(&scheduleBackOff{delays: p.Backoff}, uint64(p.Tries-1))
}
