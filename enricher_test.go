package enricher

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/enricher/ai/mock"
	"github.com/poiesic/enricher/config"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/queue"
	"github.com/poiesic/enricher/search"
	"github.com/poiesic/enricher/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, embeddings, translation bool) *config.Config {
	t.Helper()
	cfg, err := config.Load(config.WithEnvFile(""))
	require.NoError(t, err)
	cfg.Storage.InMemory = true
	cfg.Features.Embeddings = embeddings
	cfg.Features.Translation = translation
	cfg.Locales.Default = "en"
	cfg.Locales.Available = []string{"en", "fr"}
	cfg.Models = []*core.ModelDef{
		{
			Name:               "App\\Models\\Article",
			Table:              "articles",
			Searchable:         true,
			VectorSearch:       true,
			EmbedFields:        []string{"title", "body"},
			TranslatableFields: []string{"title"},
		},
		{Name: "App\\Models\\Tag", Table: "tags"},
	}
	return cfg
}

func openTest(t *testing.T, embeddings, translation bool) (*Enricher, *mock.MockProvider) {
	t.Helper()
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), mock.NewMockTranslator(), mock.NewMockChat())
	e, err := Open(context.Background(), testConfig(t, embeddings, translation), WithProvider(provider))
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e, provider
}

func article(key string) *core.Record {
	return &core.Record{
		Table:  "articles",
		Key:    key,
		Fields: map[string]string{"title": "Quarterly report", "body": "Revenue grew strongly"},
	}
}

func TestSaveRecordSync(t *testing.T) {
	e, provider := openTest(t, true, true)
	ctx := context.Background()

	saved, err := e.SaveRecord(ctx, article("1"), SaveOptions{Sync: true})
	require.NoError(t, err)

	doc, err := e.repos.Index.GetDocument(ctx, saved.Ref())
	require.NoError(t, err)
	assert.True(t, doc.HasVectors)
	assert.Equal(t, "Revenue grew strongly\nQuarterly report", doc.Text["en"])
	assert.Equal(t, 1, provider.GetMockEmbedder().CallCount())

	status, err := e.IndexingStatus(ctx, saved.Ref())
	require.NoError(t, err)
	assert.Nil(t, status)

	// Translation always runs on the queue.
	e.Wait()
	record, err := e.GetRecord(ctx, saved.Ref())
	require.NoError(t, err)
	assert.Equal(t, "[fr] Quarterly report", record.Translations["fr"]["title"])

	doc, err = e.repos.Index.GetDocument(ctx, saved.Ref())
	require.NoError(t, err)
	assert.Equal(t, "[fr] Quarterly report", doc.Text["fr"])
}

func TestSaveRecordAsync(t *testing.T) {
	e, _ := openTest(t, true, true)
	ctx := context.Background()

	saved, err := e.SaveRecord(ctx, article("1"), SaveOptions{})
	require.NoError(t, err)
	e.Wait()

	doc, err := e.repos.Index.GetDocument(ctx, saved.Ref())
	require.NoError(t, err)
	assert.True(t, doc.HasVectors)
	assert.Equal(t, "[fr] Quarterly report", doc.Text["fr"])

	status, err := e.IndexingStatus(ctx, saved.Ref())
	require.NoError(t, err)
	assert.Nil(t, status)

	stats := e.QueueStats()
	assert.Equal(t, uint64(1), stats[queue.Embeddings].Succeeded)
	assert.Equal(t, uint64(1), stats[queue.Translations].Succeeded)
}

func TestSaveRecordWithoutAI(t *testing.T) {
	e, provider := openTest(t, false, false)
	ctx := context.Background()

	saved, err := e.SaveRecord(ctx, article("1"), SaveOptions{})
	require.NoError(t, err)
	e.Wait()

	doc, err := e.repos.Index.GetDocument(ctx, saved.Ref())
	require.NoError(t, err)
	assert.False(t, doc.HasVectors)
	assert.Empty(t, doc.Text["fr"])
	assert.Equal(t, 0, provider.GetMockEmbedder().CallCount())

	_, err = e.Embed(ctx, "hello")
	assert.Error(t, err)
}

func TestSaveRecordUnknownTable(t *testing.T) {
	e, _ := openTest(t, false, false)
	_, err := e.SaveRecord(context.Background(), &core.Record{Table: "users", Key: "1"}, SaveOptions{})
	assert.ErrorIs(t, err, core.ErrUnknownModel)
}

func TestSaveRecordNotSearchable(t *testing.T) {
	e, _ := openTest(t, true, true)
	ctx := context.Background()

	saved, err := e.SaveRecord(ctx, &core.Record{Table: "tags", Key: "1", Fields: map[string]string{"name": "go"}}, SaveOptions{})
	require.NoError(t, err)
	e.Wait()

	_, err = e.repos.Index.GetDocument(ctx, saved.Ref())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Error(t, e.RequestIndexing(ctx, saved.Ref(), true))
}

func TestDeleteRecord(t *testing.T) {
	e, _ := openTest(t, true, false)
	ctx := context.Background()

	saved, err := e.SaveRecord(ctx, article("1"), SaveOptions{Sync: true})
	require.NoError(t, err)
	require.NoError(t, e.DeleteRecord(ctx, saved.Ref()))

	_, err = e.GetRecord(ctx, saved.Ref())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = e.repos.Index.GetDocument(ctx, saved.Ref())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	embeddings, err := e.repos.Embeddings.GetEmbeddings(ctx, saved.Ref())
	require.NoError(t, err)
	assert.Empty(t, embeddings)
}

func TestRequestTranslation(t *testing.T) {
	e, provider := openTest(t, false, true)
	ctx := context.Background()

	saved, err := e.repos.Records.SaveRecord(ctx, article("1"))
	require.NoError(t, err)

	missing, err := e.FindMissingTranslations(ctx, e.Registry().All()[0], nil)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, []string{"fr"}, missing[0].Locales)

	require.NoError(t, e.RequestTranslation(ctx, saved.Ref(), nil, false, true))
	record, err := e.GetRecord(ctx, saved.Ref())
	require.NoError(t, err)
	assert.Equal(t, "[fr] Quarterly report", record.Translations["fr"]["title"])

	calls := provider.GetMockTranslator().CallCount()
	require.NoError(t, e.RequestTranslation(ctx, saved.Ref(), nil, false, true))
	assert.Equal(t, calls, provider.GetMockTranslator().CallCount(), "current translations are kept")

	missing, err = e.FindMissingTranslations(ctx, e.Registry().All()[0], nil)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSearchAfterSave(t *testing.T) {
	e, _ := openTest(t, true, false)
	ctx := context.Background()

	_, err := e.SaveRecord(ctx, article("1"), SaveOptions{Sync: true})
	require.NoError(t, err)
	_, err = e.SaveRecord(ctx, &core.Record{
		Table:  "articles",
		Key:    "2",
		Fields: map[string]string{"title": "Team offsite", "body": "Hiking trip"},
	}, SaveOptions{Sync: true})
	require.NoError(t, err)

	results, err := e.Searcher().Search(ctx, &search.Query{Text: "revenue", MinSimilarity: 0.99})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "1", results[0].Document.Key)
}

func TestReembedder(t *testing.T) {
	e, provider := openTest(t, true, false)
	ctx := context.Background()

	for _, key := range []string{"1", "2", "3"} {
		_, err := e.repos.Records.SaveRecord(ctx, article(key))
		require.NoError(t, err)
	}

	var out bytes.Buffer
	count, err := e.NewReembedder(&out).Run(ctx, e.Registry().All()[0])
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, provider.GetMockEmbedder().CallCount())

	e.Wait()
	doc, err := e.repos.Index.GetDocument(ctx, core.Ref{Table: "articles", Key: "2"})
	require.NoError(t, err)
	assert.True(t, doc.HasVectors)
}

func TestConversationsReply(t *testing.T) {
	e, _ := openTest(t, false, false)
	ctx := context.Background()

	conv, err := e.Conversations().Create(ctx, "user-1", "Support", "Be brief.", nil)
	require.NoError(t, err)
	reply, err := e.Conversations().Reply(ctx, conv.ID, "hello there")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello there", reply.Content)
}

func TestRequestTranslationSyncReindexes(t *testing.T) {
	e, _ := openTest(t, false, true)
	ctx := context.Background()

	saved, err := e.repos.Records.SaveRecord(ctx, article("1"))
	require.NoError(t, err)
	require.NoError(t, e.RequestIndexing(ctx, saved.Ref(), true))

	doc, err := e.repos.Index.GetDocument(ctx, saved.Ref())
	require.NoError(t, err)
	require.Empty(t, doc.Text["fr"])

	require.NoError(t, e.RequestTranslation(ctx, saved.Ref(), []string{"fr"}, true, true))

	doc, err = e.repos.Index.GetDocument(ctx, saved.Ref())
	require.NoError(t, err)
	assert.Equal(t, "[fr] Quarterly report", doc.Text["fr"])
}

func TestCloseCancelsPendingRetries(t *testing.T) {
	e, _ := openTest(t, true, false)

	attempted := make(chan struct{}, 1)
	_, err := e.dispatcher.Dispatch(context.Background(), &queue.Func{
		JobName:  "always-failing",
		JobQueue: queue.Embeddings,
		Fn: func(ctx context.Context) error {
			select {
			case attempted <- struct{}{}:
			default:
			}
			return errors.New("provider down")
		},
	})
	require.NoError(t, err)
	<-attempted

	closed := make(chan error, 1)
	go func() { closed <- e.Close() }()

	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close waited out the retry backoff")
	}
}
