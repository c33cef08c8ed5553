package indexing

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/embedding"
	"github.com/poiesic/enricher/events"
	"github.com/poiesic/enricher/queue"
	"github.com/poiesic/enricher/storage"
	"github.com/poiesic/enricher/translation"
)

// StateTTL is how long a pending indexing state lives without being touched.
const StateTTL = 10 * time.Minute

// Dispatcher queues jobs or runs them inline.
type Dispatcher interface {
	Dispatch(ctx context.Context, job queue.Job) (string, error)
	DispatchSync(ctx context.Context, job queue.Job) error
}

// Features switches the AI enrichments on and off.
type Features struct {
	Embeddings  bool `mapstructure:"embeddings"`
	Translation bool `mapstructure:"translation"`
}

// Coordinator owns the listeners of the pre-processing protocol.
type Coordinator struct {
	Features    Features
	Registry    *core.Registry
	States      storage.IndexingStateStore
	Dispatcher  Dispatcher
	Embedding   *embedding.Jobs
	Translation *translation.Jobs
	Indexer     *Indexer
	TTL         time.Duration
	Logger      *slog.Logger
}

func (c *Coordinator) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return StateTTL
}

func (c *Coordinator) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// RegisterAI subscribes the AI listeners. They must be registered before
// the fallback indexer so they can take events over first.
func (c *Coordinator) RegisterAI(bus *events.Bus) {
	events.On(bus, events.NameModelRequiresIndexing, "embeddings", c.HandleModelIndexing)
	events.On(bus, events.NameTranslatedModelSaved, "translation", c.HandleModelTranslation)
	events.On(bus, events.NameModelPreProcessingCompleted, "finalize", c.HandlePreProcessingCompleted)
}

// RegisterFallback subscribes the fallback indexer.
func (c *Coordinator) RegisterFallback(bus *events.Bus) {
	events.On(bus, events.NameModelRequiresIndexing, "fallback_indexer", c.HandleFallbackIndexing)
}

// Register subscribes every listener in the required order.
func (c *Coordinator) Register(bus *events.Bus) {
	c.RegisterAI(bus)
	c.RegisterFallback(bus)
}

// HandleModelIndexing takes indexing over for records that need embeddings.
// The step is registered and stored before the job is queued so its
// completion always finds it.
func (c *Coordinator) HandleModelIndexing(ctx context.Context, e *events.ModelRequiresIndexing) error {
	if !c.Features.Embeddings || !e.Def.SupportsEmbeddings() {
		return nil
	}
	ref := e.Record.Ref()
	logger := c.logger().With("listener", "embeddings", "model", e.Def.Name, "model_id", ref.Key)

	e.AddRequiredPreProcessing(core.StepEmbeddings)

	job := c.Embedding.GenerateEmbeddings(ref, e.Def, e.Sync)
	if e.Sync {
		// Pre-processing runs inline; the fallback indexer indexes afterwards.
		if err := c.Dispatcher.DispatchSync(ctx, job); err != nil {
			logger.Error("inline embedding failed", "error", err)
		}
		e.MarkAsHandled()
		return nil
	}

	_, err := c.States.Update(ctx, ref, c.ttl(), func(current *core.IndexingState) (*core.IndexingState, error) {
		if current == nil {
			return e.State(), nil
		}
		return requireSteps(current, ref, e.RequiredPreProcessing()), nil
	})
	if err != nil {
		return err
	}

	if _, err := c.Dispatcher.Dispatch(ctx, job); err != nil {
		return err
	}
	logger.Debug("embedding job queued")
	e.MarkAsHandled()
	return nil
}

// HandleModelTranslation queues translation of a translatable record. For
// searchable records an existing pending state is amended with the
// translation step so indexing waits for it. Without a pending state the
// translation proceeds on its own and re-indexes when it completes.
func (c *Coordinator) HandleModelTranslation(ctx context.Context, e *events.TranslatedModelSaved) error {
	if !c.Features.Translation || !e.Def.Translatable() {
		return nil
	}
	ref := e.Record.Ref()
	logger := c.logger().With("listener", "translation", "model", e.Def.Name, "model_id", ref.Key)

	if e.Def.Searchable {
		state, err := c.States.Update(ctx, ref, c.ttl(), func(current *core.IndexingState) (*core.IndexingState, error) {
			if current == nil {
				return nil, nil
			}
			return requireSteps(current, ref, []core.Step{core.StepTranslation}), nil
		})
		if err != nil {
			return err
		}
		if state != nil {
			logger.Debug("translation registered with pending indexing", "pending", state.Pending())
		}
	}

	job := c.Translation.TranslateModel(ref, e.Def, e.Locales, e.Force, false)
	if _, err := c.Dispatcher.Dispatch(ctx, job); err != nil {
		return err
	}
	logger.Debug("translation job queued")
	e.MarkAsHandled()
	return nil
}

// HandlePreProcessingCompleted marks a step done and queues indexing once
// no step is pending. Inline embeddings are left to the fallback indexer,
// which runs after them on the same event; any other inline step is
// indexed inline here.
func (c *Coordinator) HandlePreProcessingCompleted(ctx context.Context, e *events.ModelPreProcessingCompleted) error {
	if e.Sync && e.Step == core.StepEmbeddings {
		return nil
	}
	logger := c.logger().With("listener", "finalize", "table", e.Ref.Table, "model_id", e.Ref.Key, "step", e.Step)
	if e.Failed {
		logger.Warn("pre-processing step failed, indexing without it")
	}

	var found, ready bool
	_, err := c.States.Update(ctx, e.Ref, c.ttl(), func(current *core.IndexingState) (*core.IndexingState, error) {
		found, ready = current != nil, false
		if current == nil {
			return nil, nil
		}
		current.MarkCompleted(e.Step, e.Failed)
		if current.Ready() {
			ready = true
			return nil, nil
		}
		return current, nil
	})
	if err != nil {
		return err
	}

	def, err := c.Registry.ByTable(e.Ref.Table)
	if err != nil {
		logger.Warn("completion for unregistered model", "error", err)
		return nil
	}

	switch {
	case ready:
		logger.Debug("pre-processing complete, indexing")
	case !found && def.Searchable:
		// The step finished after the record was indexed.
		logger.Debug("no pending indexing, re-indexing")
	default:
		return nil
	}
	job := c.Indexer.IndexInSearch(e.Ref, def)
	if e.Sync {
		return c.Dispatcher.DispatchSync(ctx, job)
	}
	_, err = c.Dispatcher.Dispatch(ctx, job)
	return err
}

// HandleFallbackIndexing indexes records no listener took over, and records
// whose pre-processing ran inline.
func (c *Coordinator) HandleFallbackIndexing(ctx context.Context, e *events.ModelRequiresIndexing) error {
	if !e.Def.Searchable {
		return nil
	}
	if e.Handled() && !e.Sync {
		return nil
	}
	job := c.Indexer.IndexInSearch(e.Record.Ref(), e.Def)
	if e.Sync {
		return c.Dispatcher.DispatchSync(ctx, job)
	}
	_, err := c.Dispatcher.Dispatch(ctx, job)
	return err
}

// Status returns the pending pre-processing of a record, or nil when none is pending.
func (c *Coordinator) Status(ctx context.Context, ref core.Ref) (*core.IndexingState, error) {
	state, err := c.States.Get(ctx, ref)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return state, err
}

// requireSteps adds steps to current, or to a new state when current is
// nil. A step that is required again is no longer completed.
func requireSteps(current *core.IndexingState, ref core.Ref, steps []core.Step) *core.IndexingState {
	if current == nil {
		current = core.NewIndexingState(ref, false)
	}
	for _, step := range steps {
		current.AddRequired(step)
	}
	current.Completed = slices.DeleteFunc(current.Completed, func(s core.Step) bool {
		return slices.Contains(steps, s)
	})
	current.Failed = slices.DeleteFunc(current.Failed, func(s core.Step) bool {
		return slices.Contains(steps, s)
	})
	return current
}
