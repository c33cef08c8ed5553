package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/poiesic/enricher/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexingStateSerialization(t *testing.T) {
	state := core.NewIndexingState(core.Ref{Table: "articles", Key: "7"}, true)
	state.AddRequired(core.StepEmbeddings)
	state.AddRequired(core.StepTranslation)
	state.MarkCompleted(core.StepTranslation, true)

	data, err := MarshalIndexingState(state)
	require.NoError(t, err)

	got, err := UnmarshalIndexingState(data)
	require.NoError(t, err)
	assert.Equal(t, state.Ref, got.Ref)
	assert.True(t, got.Sync)
	assert.Equal(t, state.Required, got.Required)
	assert.Equal(t, state.Completed, got.Completed)
	assert.Equal(t, state.Failed, got.Failed)
	assert.WithinDuration(t, state.CreatedAt, got.CreatedAt, time.Microsecond)
}

func TestIndexingStateWireFormat(t *testing.T) {
	// Entries written by other processes use this shape.
	data := []byte(`{"table":"pages","key":"home","required":["embeddings"],"created_at":0,"updated_at":0}`)
	got, err := UnmarshalIndexingState(data)
	require.NoError(t, err)
	assert.Equal(t, core.Ref{Table: "pages", Key: "home"}, got.Ref)
	assert.Equal(t, []core.Step{core.StepEmbeddings}, got.Pending())
}

func TestIndexingStateSerializationErrors(t *testing.T) {
	_, err := MarshalIndexingState(nil)
	assert.True(t, errors.Is(err, ErrSerializationFailed))

	_, err = UnmarshalIndexingState([]byte("{not json"))
	assert.True(t, errors.Is(err, ErrSerializationFailed))

	_, err = UnmarshalIndexingState([]byte(`{"required":["thumbnails"]}`))
	assert.True(t, errors.Is(err, ErrSerializationFailed))
}
