package core

import (
	"slices"
	"time"
)

// Step names an asynchronous pre-processing step a record may require
// before it is indexed.
type Step string

const (
	StepEmbeddings  Step = "embeddings"
	StepTranslation Step = "translation"
)

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s == StepEmbeddings || s == StepTranslation
}

// IndexingState tracks the pre-processing a record still needs before it
// can be pushed into the search index. It lives in the cache under
// Ref.CacheKey() with a bounded TTL.
type IndexingState struct {
	Ref       Ref
	Sync      bool
	Required  []Step
	Completed []Step
	Failed    []Step
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewIndexingState creates an empty state for ref.
func NewIndexingState(ref Ref, sync bool) *IndexingState {
	now := time.Now()
	return &IndexingState{Ref: ref, Sync: sync, CreatedAt: now, UpdatedAt: now}
}

// AddRequired adds step to the required set. Adding a step twice is a no-op.
func (s *IndexingState) AddRequired(step Step) {
	if !slices.Contains(s.Required, step) {
		s.Required = append(s.Required, step)
	}
	s.UpdatedAt = time.Now()
}

// MarkCompleted records that step finished. A failed step still counts as
// completed so indexing is not held back by it.
func (s *IndexingState) MarkCompleted(step Step, failed bool) {
	if !slices.Contains(s.Completed, step) {
		s.Completed = append(s.Completed, step)
	}
	if failed && !slices.Contains(s.Failed, step) {
		s.Failed = append(s.Failed, step)
	}
	s.UpdatedAt = time.Now()
}

// Pending returns the required steps that have not completed.
func (s *IndexingState) Pending() []Step {
	var pending []Step
	for _, step := range s.Required {
		if !slices.Contains(s.Completed, step) {
			pending = append(pending, step)
		}
	}
	return pending
}

// Ready reports whether every required step has completed.
func (s *IndexingState) Ready() bool {
	return len(s.Pending()) == 0
}
