package core

import (
	"encoding/binary"
	"sort"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// IndexingKeyPrefix prefixes every pending-indexing cache key.
const IndexingKeyPrefix = "model_indexing"

// Ref identifies a record by its table and primary key.
type Ref struct {
	Table string
	Key   string
}

// String returns "table:key".
func (r Ref) String() string {
	return r.Table + ":" + r.Key
}

// CacheKey returns the key under which pending pre-processing for the
// record is tracked: model_indexing:{table}:{key}.
func (r Ref) CacheKey() string {
	return IndexingKeyPrefix + ":" + r.Table + ":" + r.Key
}

// ModelDef describes a registered model type and which enrichments it takes part in.
type ModelDef struct {
	// Name is the model's type name, e.g. "Article" or "App\\Models\\Article".
	Name string `mapstructure:"name" yaml:"name" validate:"required"`

	// Table is the storage table the model's records live in.
	Table string `mapstructure:"table" yaml:"table" validate:"required"`

	// Searchable models are pushed into the search index.
	Searchable bool `mapstructure:"searchable" yaml:"searchable"`

	// VectorSearch enables embeddings for a searchable model.
	VectorSearch bool `mapstructure:"vector_search" yaml:"vector_search"`

	// EmbedFields lists the fields whose text is embedded, in order.
	EmbedFields []string `mapstructure:"embed" yaml:"embed"`

	// TranslatableFields lists the fields that are translated into other locales.
	TranslatableFields []string `mapstructure:"translatable" yaml:"translatable"`
}

// SupportsEmbeddings reports whether records of this model get vector embeddings.
func (d *ModelDef) SupportsEmbeddings() bool {
	return d.Searchable && d.VectorSearch && len(d.EmbedFields) > 0
}

// Translatable reports whether records of this model carry translations.
func (d *ModelDef) Translatable() bool {
	return len(d.TranslatableFields) > 0
}

// Record is a stored model instance. Fields hold the source-locale content;
// Translations holds the translated fields per target locale.
type Record struct {
	Table  string
	Key    string
	Locale string // source locale; empty means the configured default
	Fields map[string]string

	// Translations maps locale -> field -> translated text.
	Translations map[string]map[string]string

	// TranslationSources maps locale -> hash of the source fields the
	// translation was produced from. A mismatch marks the translation stale.
	TranslationSources map[string]ID

	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Ref returns the record's reference.
func (r *Record) Ref() Ref {
	return Ref{Table: r.Table, Key: r.Key}
}

// DataToEmbed joins the non-empty embed fields with newlines.
func (r *Record) DataToEmbed(def *ModelDef) string {
	parts := make([]string, 0, len(def.EmbedFields))
	for _, f := range def.EmbedFields {
		if v := strings.TrimSpace(r.Fields[f]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}

// SourceHash hashes the given fields of the source content so translations
// can be checked against the content they were produced from.
func (r *Record) SourceHash(fields []string) ID {
	var sb strings.Builder
	for _, f := range fields {
		sb.WriteString(f)
		sb.WriteByte(0)
		sb.WriteString(r.Fields[f])
		sb.WriteByte(0)
	}
	return IDFromContent(sb.String())
}

// HasTranslation reports whether a non-empty translation exists for locale.
func (r *Record) HasTranslation(locale string) bool {
	return len(r.Translations[locale]) > 0
}

// TranslationCurrent reports whether the locale's translation was produced
// from the current source content of fields.
func (r *Record) TranslationCurrent(locale string, fields []string) bool {
	if !r.HasTranslation(locale) {
		return false
	}
	src, ok := r.TranslationSources[locale]
	return ok && src == r.SourceHash(fields)
}

// SetTranslation stores translated fields for locale along with the source hash.
func (r *Record) SetTranslation(locale string, fields map[string]string, source ID) {
	if r.Translations == nil {
		r.Translations = make(map[string]map[string]string)
	}
	if r.TranslationSources == nil {
		r.TranslationSources = make(map[string]ID)
	}
	r.Translations[locale] = fields
	r.TranslationSources[locale] = source
}

// Locales returns the translated locales in sorted order.
func (r *Record) Locales() []string {
	locales := make([]string, 0, len(r.Translations))
	for l := range r.Translations {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return locales
}

// Embedding is the vector of one chunk of a record's embeddable text.
type Embedding struct {
	ID        string // table:key:chunk
	Table     string
	Key       string
	Chunk     int
	Content   string
	Vector    []float32
	Model     string
	CreatedAt time.Time
}

// SearchDocument is what the search index holds for a record.
type SearchDocument struct {
	ID         string // table:key
	Table      string
	Key        string
	Locale     string
	Text       map[string]string // locale -> searchable text
	HasVectors bool
	IndexedAt  time.Time
}

// Ref returns the document's record reference.
func (d *SearchDocument) Ref() Ref {
	return Ref{Table: d.Table, Key: d.Key}
}

// SimilarityMatch is a record hit from vector similarity search, scored by
// its best matching chunk.
type SimilarityMatch struct {
	Ref   Ref
	Chunk int
	Score float32
}

// SearchResult represents a search result with the indexed document and relevance score.
type SearchResult struct {
	Document *SearchDocument
	Score    float32
}
