package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/enricher/ai"
	"github.com/poiesic/enricher/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello", "hello"},
		{"  hello\n\tworld  ", "hello world"},
		{"a\n\n\nb", "a b"},
		{"\t\n ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeText(tt.in))
	}
}

func TestEmbedDocument(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.Dim = 8
	svc := NewService(embedder, WithModel("test-model"))

	chunks, err := svc.EmbedDocument(context.Background(), "Hello\n\tworld")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello world", chunks[0].Content)
	assert.Len(t, chunks[0].Vector, 8)
	assert.Equal(t, "test-model", svc.Model())
	assert.True(t, svc.Enabled())
}

func TestEmbedDocument_SplitsLongText(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	svc := NewService(embedder, WithChunkSize(50))

	text := strings.Repeat("word ", 60)
	chunks, err := svc.EmbedDocument(context.Background(), text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 50)
		assert.NotEmpty(t, c.Vector)
	}
	assert.Equal(t, 1, embedder.CallCount())
}

func TestEmbedDocument_NoEmbedder(t *testing.T) {
	svc := NewService(nil)

	chunks, err := svc.EmbedDocument(context.Background(), "text")
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.False(t, svc.Enabled())

	vector, err := svc.EmbedText(context.Background(), "text")
	require.NoError(t, err)
	assert.Nil(t, vector)
}

func TestEmbedDocument_EmptyInput(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	svc := NewService(embedder)

	chunks, err := svc.EmbedDocument(context.Background(), " \n\t ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Zero(t, embedder.CallCount())
}

func TestEmbedDocument_Errors(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	svc := NewService(embedder)

	boom := errors.New("boom")
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}
	_, err := svc.EmbedDocument(context.Background(), "text")
	assert.ErrorIs(t, err, boom)

	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{}, nil
	}
	_, err = svc.EmbedDocument(context.Background(), "text")
	assert.ErrorIs(t, err, ai.ErrCountMismatch)
}

func TestEmbedText(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	svc := NewService(embedder)

	vector, err := svc.EmbedText(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, mock.GenerateDeterministicVector("query", 384), vector)
}
