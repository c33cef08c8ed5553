package badger

import (
	"fmt"

	"github.com/poiesic/enricher/core"
)

// Raw keys written next to the badgerhold types.
const (
	messageSeq = "msgseq"
)

// recordKey is the badgerhold key of a record and of its search document.
// Format: table:key
func recordKey(ref core.Ref) string {
	return ref.String()
}

// embeddingKey is the badgerhold key of one chunk embedding.
// Format: table:key:chunk
func embeddingKey(ref core.Ref, chunk int) string {
	return fmt.Sprintf("%s:%06d", ref.String(), chunk)
}

// stateKey is the raw TTL key of a record's pending indexing state.
// Format: model_indexing:table:key
func stateKey(ref core.Ref) []byte {
	return []byte(ref.CacheKey())
}
