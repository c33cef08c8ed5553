package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Stats counts what a queue did.
type Stats struct {
	Dispatched uint64
	Succeeded  uint64
	Retried    uint64
	Failed     uint64
}

type queue struct {
	name    string
	policy  Policy
	pool    *ants.Pool
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger

	dispatched atomic.Uint64
	succeeded  atomic.Uint64
	retried    atomic.Uint64
	failed     atomic.Uint64
}

// Dispatcher runs jobs on named queues, each with its own worker pool and policy.
type Dispatcher struct {
	queues map[string]*queue
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	// mu guards pending and closed; idle is signalled when pending drops to 0.
	mu      sync.Mutex
	idle    *sync.Cond
	pending int
	closed  bool

	policies map[string]Policy
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithQueue sets the policy of a queue, creating it if needed.
func WithQueue(name string, policy Policy) Option {
	return func(d *Dispatcher) error {
		if name == "" {
			return fmt.Errorf("%w: queue name required", ErrInvalidPolicy)
		}
		if err := policy.Validate(); err != nil {
			return fmt.Errorf("queue %s: %w", name, err)
		}
		d.policies[name] = policy
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// New creates a dispatcher with the default, embeddings, translations and
// indexing queues, all on DefaultPolicy unless overridden.
func New(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		queues:   make(map[string]*queue),
		policies: make(map[string]Policy),
		logger:   slog.Default(),
	}
	d.idle = sync.NewCond(&d.mu)
	for _, name := range []string{Default, Embeddings, Translations, Indexing} {
		d.policies[name] = DefaultPolicy()
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	d.logger = d.logger.With("component", "queue")
	d.ctx, d.cancel = context.WithCancel(context.Background())

	for name, policy := range d.policies {
		q, err := d.newQueue(name, policy)
		if err != nil {
			d.release()
			return nil, err
		}
		d.queues[name] = q
	}
	return d, nil
}

func (d *Dispatcher) newQueue(name string, policy Policy) (*queue, error) {
	pool, err := ants.NewPool(policy.Workers)
	if err != nil {
		return nil, err
	}

	burst := policy.Burst
	if burst < 1 {
		burst = 1
	}

	logger := d.logger.With("queue", name)
	q := &queue{
		name:    name,
		policy:  policy,
		pool:    pool,
		limiter: rate.NewLimiter(policy.RateLimit, burst),
		logger:  logger,
	}

	if policy.MaxExceptions > 0 {
		q.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    policy.ExceptionWindow,
			Timeout:     policy.ExceptionWindow,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.TotalFailures >= policy.MaxExceptions
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("queue throttle changed state", "from", from.String(), "to", to.String())
			},
		})
	}
	return q, nil
}

func (d *Dispatcher) queueFor(job Job) *queue {
	if q, ok := d.queues[job.Queue()]; ok {
		return q
	}
	return d.queues[Default]
}

// Dispatch enqueues job and returns its ID. The job runs detached from ctx,
// which only bounds the wait for a free worker slot.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) (string, error) {
	if job == nil {
		return "", ErrNilJob
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return "", ErrQueueClosed
	}
	d.pending++
	d.mu.Unlock()

	q := d.queueFor(job)
	id := uuid.NewString()
	err := q.pool.Submit(func() {
		defer d.done()
		d.run(q, id, job)
	})
	if err != nil {
		d.done()
		if errors.Is(err, ants.ErrPoolClosed) {
			return "", ErrQueueClosed
		}
		return "", err
	}
	q.dispatched.Add(1)
	q.logger.Debug("job dispatched", "job", job.Name(), "id", id)
	return id, nil
}

// DispatchSync runs job inline once with the queue's timeout, without
// retries, throttling or the failure hook.
func (d *Dispatcher) DispatchSync(ctx context.Context, job Job) error {
	if job == nil {
		return ErrNilJob
	}
	q := d.queueFor(job)
	ctx, cancel := context.WithTimeout(ctx, q.policy.Timeout)
	defer cancel()
	return job.Handle(ctx)
}

func (d *Dispatcher) run(q *queue, id string, job Job) {
	logger := q.logger.With("job", job.Name(), "id", id)
	attempt := 0

	operation := func() error {
		attempt++
		if err := q.limiter.Wait(d.ctx); err != nil {
			return backoff.Permanent(err)
		}
		err := q.attempt(d.ctx, job)
		if err != nil && d.ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		q.retried.Add(1)
		logger.Warn("job attempt failed, retrying", "attempt", attempt, "delay", delay, "error", err)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(q.policy.newBackOff(), d.ctx), notify)
	if err == nil {
		q.succeeded.Add(1)
		logger.Debug("job completed", "attempts", attempt)
		return
	}

	q.failed.Add(1)
	logger.Error("job failed", "attempts", attempt, "error", err)
	if h, ok := job.(FailureHandler); ok {
		// The dispatcher may be closing; give the hook its own deadline.
		ctx, cancel := context.WithTimeout(context.Background(), q.policy.Timeout)
		defer cancel()
		h.Failed(ctx, err)
	}
}

func (q *queue) attempt(parent context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(parent, q.policy.Timeout)
	defer cancel()

	if q.breaker == nil {
		return job.Handle(ctx)
	}
	_, err := q.breaker.Execute(func() (interface{}, error) {
		return nil, job.Handle(ctx)
	})
	return err
}

// Stats returns the counters of a queue.
func (d *Dispatcher) Stats(name string) Stats {
	q, ok := d.queues[name]
	if !ok {
		return Stats{}
	}
	return Stats{
		Dispatched: q.dispatched.Load(),
		Succeeded:  q.succeeded.Load(),
		Retried:    q.retried.Load(),
		Failed:     q.failed.Load(),
	}
}

// Queues returns the configured queue names.
func (d *Dispatcher) Queues() []string {
	names := make([]string, 0, len(d.queues))
	for name := range d.queues {
		names = append(names, name)
	}
	return names
}

func (d *Dispatcher) done() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending--
	if d.pending == 0 {
		d.idle.Broadcast()
	}
}

// Wait blocks until every dispatched job, including jobs dispatched by
// running jobs, has finished. Jobs dispatched while waiting are waited for too.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.pending > 0 {
		d.idle.Wait()
	}
}

// Close stops accepting jobs, cancels pending retries and running attempts,
// waits for the jobs to return and releases the worker pools.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.Wait()
	d.release()
	return nil
}

func (d *Dispatcher) release() {
	if d.cancel != nil {
		d.cancel()
	}
	for _, q := range d.queues {
		q.pool.Release()
	}
}
