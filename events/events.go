// Package events defines the record lifecycle events and the synchronous
// in-process bus that delivers them to listeners in registration order.
package events

import (
	"github.com/poiesic/enricher/core"
)

// Event names.
const (
	NameModelRequiresIndexing       = "model.requires_indexing"
	NameTranslatedModelSaved        = "model.translated_saved"
	NameModelPreProcessingCompleted = "model.preprocessing_completed"
	NameModelIndexed                = "model.indexed"
)

// Event is anything the bus can deliver.
type Event interface {
	Name() string
}

// ModelRequiresIndexing is fired when a searchable record was saved and must
// be pushed into the search index. Listeners that need asynchronous work done
// first register it with AddRequiredPreProcessing and mark the event handled,
// which tells the fallback indexer to leave indexing to whoever finishes last.
type ModelRequiresIndexing struct {
	Record *core.Record
	Def    *core.ModelDef

	// Sync requests pre-processing to run inline instead of being queued.
	Sync bool

	required []core.Step
	handled  bool
}

func (e *ModelRequiresIndexing) Name() string { return NameModelRequiresIndexing }

// AddRequiredPreProcessing adds step to the steps indexing must wait for.
func (e *ModelRequiresIndexing) AddRequiredPreProcessing(step core.Step) {
	for _, s := range e.required {
		if s == step {
			return
		}
	}
	e.required = append(e.required, step)
}

// RequiredPreProcessing returns the registered steps.
func (e *ModelRequiresIndexing) RequiredPreProcessing() []core.Step {
	return append([]core.Step(nil), e.required...)
}

// MarkAsHandled records that a listener took over indexing.
func (e *ModelRequiresIndexing) MarkAsHandled() { e.handled = true }

// Handled reports whether a listener took over indexing.
func (e *ModelRequiresIndexing) Handled() bool { return e.handled }

// State returns the pending indexing state the event describes.
func (e *ModelRequiresIndexing) State() *core.IndexingState {
	state := core.NewIndexingState(e.Record.Ref(), e.Sync)
	for _, step := range e.required {
		state.AddRequired(step)
	}
	return state
}

// TranslatedModelSaved is fired when a record with translatable fields was saved.
type TranslatedModelSaved struct {
	Record *core.Record
	Def    *core.ModelDef

	// Locales restricts the target locales; empty means every available locale.
	Locales []string

	// Force retranslates locales whose translation is current.
	Force bool

	handled bool
}

func (e *TranslatedModelSaved) Name() string { return NameTranslatedModelSaved }

// MarkAsHandled records that a listener took over translation.
func (e *TranslatedModelSaved) MarkAsHandled() { e.handled = true }

// Handled reports whether a listener took over translation.
func (e *TranslatedModelSaved) Handled() bool { return e.handled }

// ModelPreProcessingCompleted is fired by a job when its step finished,
// successfully or not.
type ModelPreProcessingCompleted struct {
	Ref    core.Ref
	Step   core.Step
	Failed bool

	// Sync marks a completion of inline pre-processing; the indexer that
	// triggered it indexes the record itself.
	Sync bool
}

func (e *ModelPreProcessingCompleted) Name() string { return NameModelPreProcessingCompleted }

// ModelIndexed is fired after a record's document was written to the search index.
type ModelIndexed struct {
	Ref      core.Ref
	Document *core.SearchDocument
}

func (e *ModelIndexed) Name() string { return NameModelIndexed }
