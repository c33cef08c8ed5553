package queue

import "errors"

var (
	// ErrQueueClosed is returned when dispatching to a closed dispatcher.
	ErrQueueClosed = errors.New("queue closed")

	// ErrInvalidPolicy is returned when a queue policy is not usable.
	ErrInvalidPolicy = errors.New("invalid queue policy")

	// ErrNilJob is returned when dispatching a nil job.
	ErrNilJob = errors.New("nil job")
)
