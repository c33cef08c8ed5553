package translation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/enricher/ai"
	"github.com/poiesic/enricher/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateBatch(t *testing.T) {
	translator := mock.NewMockTranslator()
	svc := NewService(translator)

	out, err := svc.TranslateBatch(context.Background(), []string{"Hello", "", "  ", "World"}, "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, []string{"[fr] Hello", "", "  ", "[fr] World"}, out)

	calls := translator.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"Hello", "World"}, calls[0].Texts)
	assert.Equal(t, "en", calls[0].From)
	assert.Equal(t, "fr", calls[0].To)
}

func TestTranslateBatch_Memoizes(t *testing.T) {
	translator := mock.NewMockTranslator()
	svc := NewService(translator)
	ctx := context.Background()

	_, err := svc.TranslateBatch(ctx, []string{"Hello"}, "en", "fr")
	require.NoError(t, err)

	out, err := svc.TranslateBatch(ctx, []string{"Hello", "Bye"}, "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, []string{"[fr] Hello", "[fr] Bye"}, out)

	calls := translator.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"Bye"}, calls[1].Texts)

	// Another target locale is a different entry
	_, err = svc.Translate(ctx, "Hello", "en", "de")
	require.NoError(t, err)
	assert.Equal(t, 3, translator.CallCount())
}

func TestTranslateBatch_CacheDisabled(t *testing.T) {
	translator := mock.NewMockTranslator()
	svc := NewService(translator, WithCache(0, time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Translate(ctx, "Hello", "en", "fr")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, translator.CallCount())
}

func TestTranslate_SameLocaleAndBlank(t *testing.T) {
	translator := mock.NewMockTranslator()
	svc := NewService(translator)
	ctx := context.Background()

	out, err := svc.Translate(ctx, "Hello", "en", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)

	out, err = svc.Translate(ctx, " ", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, " ", out)

	assert.Zero(t, translator.CallCount())
}

func TestTranslate_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewService(nil).Translate(ctx, "Hello", "en", "fr")
	assert.ErrorIs(t, err, ErrNoTranslator)
	assert.False(t, NewService(nil).Enabled())

	translator := mock.NewMockTranslator()
	svc := NewService(translator)

	boom := errors.New("boom")
	translator.TranslateBatchFunc = func(ctx context.Context, texts []string, from, to string) ([]string, error) {
		return nil, boom
	}
	_, err = svc.Translate(ctx, "Hello", "en", "fr")
	assert.ErrorIs(t, err, boom)

	translator.TranslateBatchFunc = func(ctx context.Context, texts []string, from, to string) ([]string, error) {
		return []string{}, nil
	}
	_, err = svc.Translate(ctx, "Hello", "en", "fr")
	assert.ErrorIs(t, err, ai.ErrCountMismatch)
}

func TestLocales(t *testing.T) {
	l := Locales{Default: "en", Available: []string{"en", "fr", "de"}}

	assert.Equal(t, "en", l.SourceOf(""))
	assert.Equal(t, "fr", l.SourceOf("fr"))

	assert.Equal(t, []string{"fr", "de"}, l.Targets("en", nil))
	assert.Equal(t, []string{"en", "de"}, l.Targets("fr", nil))
	assert.Equal(t, []string{"it"}, l.Targets("en", []string{"it", "en", "it"}))
}
