package queue

import "context"

// Job is a unit of queued work.
type Job interface {
	// Name labels the job in logs.
	Name() string

	// Queue names the queue the job runs on. Unknown queues fall back to Default.
	Queue() string

	// Handle runs one attempt. Returning an error schedules a retry.
	Handle(ctx context.Context) error
}

// FailureHandler is implemented by jobs that react to exhausting their attempts.
type FailureHandler interface {
	Failed(ctx context.Context, err error)
}

// Func adapts a function to a Job.
type Func struct {
	JobName  string
	JobQueue string
	Fn       func(ctx context.Context) error
	OnFailed func(ctx context.Context, err error)
}

func (f *Func) Name() string { return f.JobName }

func (f *Func) Queue() string { return f.JobQueue }

func (f *Func) Handle(ctx context.Context) error { return f.Fn(ctx) }

func (f *Func) Failed(ctx context.Context, err error) {
	if f.OnFailed != nil {
		f.OnFailed(ctx, err)
	}
}
