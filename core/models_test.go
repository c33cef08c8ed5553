package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	assert.Equal(t, IDFromContent("hello"), IDFromContent("hello"))
	assert.NotEqual(t, IDFromContent("hello"), IDFromContent("world"))
}

func TestRefCacheKey(t *testing.T) {
	ref := Ref{Table: "articles", Key: "42"}
	assert.Equal(t, "model_indexing:articles:42", ref.CacheKey())
	assert.Equal(t, "articles:42", ref.String())
}

func TestModelDefCapabilities(t *testing.T) {
	tests := []struct {
		name         string
		def          ModelDef
		embeddings   bool
		translatable bool
	}{
		{
			name:       "searchable with vectors",
			def:        ModelDef{Searchable: true, VectorSearch: true, EmbedFields: []string{"body"}},
			embeddings: true,
		},
		{
			name: "vector search disabled",
			def:  ModelDef{Searchable: true, EmbedFields: []string{"body"}},
		},
		{
			name: "no embed fields",
			def:  ModelDef{Searchable: true, VectorSearch: true},
		},
		{
			name: "not searchable",
			def:  ModelDef{VectorSearch: true, EmbedFields: []string{"body"}},
		},
		{
			name:         "translatable only",
			def:          ModelDef{TranslatableFields: []string{"title"}},
			translatable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.embeddings, tt.def.SupportsEmbeddings())
			assert.Equal(t, tt.translatable, tt.def.Translatable())
		})
	}
}

func TestRecordDataToEmbed(t *testing.T) {
	def := &ModelDef{EmbedFields: []string{"title", "summary", "body"}}
	rec := &Record{Fields: map[string]string{
		"title":   "  Title ",
		"summary": "",
		"body":    "Body text",
		"other":   "ignored",
	}}

	assert.Equal(t, "Title\nBody text", rec.DataToEmbed(def))

	empty := &Record{Fields: map[string]string{"title": "   "}}
	assert.Empty(t, empty.DataToEmbed(def))
}

func TestRecordTranslations(t *testing.T) {
	fields := []string{"title"}
	rec := &Record{Fields: map[string]string{"title": "Hello"}}

	assert.False(t, rec.HasTranslation("fr"))
	assert.False(t, rec.TranslationCurrent("fr", fields))

	rec.SetTranslation("fr", map[string]string{"title": "Bonjour"}, rec.SourceHash(fields))
	rec.SetTranslation("de", map[string]string{"title": "Hallo"}, rec.SourceHash(fields))
	require.True(t, rec.HasTranslation("fr"))
	assert.True(t, rec.TranslationCurrent("fr", fields))
	assert.Equal(t, []string{"de", "fr"}, rec.Locales())

	// Changing the source makes existing translations stale.
	rec.Fields["title"] = "Hello there"
	assert.True(t, rec.HasTranslation("fr"))
	assert.False(t, rec.TranslationCurrent("fr", fields))
}

func TestIndexingState(t *testing.T) {
	state := NewIndexingState(Ref{Table: "articles", Key: "1"}, false)
	assert.True(t, state.Ready())

	state.AddRequired(StepEmbeddings)
	state.AddRequired(StepEmbeddings)
	state.AddRequired(StepTranslation)
	assert.Equal(t, []Step{StepEmbeddings, StepTranslation}, state.Required)
	assert.False(t, state.Ready())

	state.MarkCompleted(StepTranslation, false)
	assert.Equal(t, []Step{StepEmbeddings}, state.Pending())
	assert.Contains(t, state.Required, StepTranslation)

	state.MarkCompleted(StepEmbeddings, true)
	assert.True(t, state.Ready())
	assert.Equal(t, []Step{StepEmbeddings}, state.Failed)
}

func TestIndexingStateCompletionBeforeRequirement(t *testing.T) {
	// A step may complete before another listener registers it.
	state := NewIndexingState(Ref{Table: "articles", Key: "1"}, false)
	state.MarkCompleted(StepTranslation, false)
	state.AddRequired(StepTranslation)
	assert.True(t, state.Ready())
}
