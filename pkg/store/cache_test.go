package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/models"
	"pdfchat/pkg/store"
)

const testModel = "text-embedding-3-small"

func newTestStore(t *testing.T, dir string) *store.CacheStore {
	t.Helper()
	cs, err := store.NewCacheWithConfig(store.CacheConfig{
		Dir:   dir,
		Model: testModel,
	})
	require.NoError(t, err)
	return cs
}

func testDoc(id string, checksum uint32) models.Document {
	return models.Document{
		ID:       id,
		Path:     "data/pdf/" + id + ".pdf",
		Checksum: checksum,
	}
}

func testChunks(docID string, embeddings ...[]float32) []models.Chunk {
	chunks := make([]models.Chunk, len(embeddings))
	for i, emb := range embeddings {
		chunks[i] = models.Chunk{
			ID:         docID + "_0",
			DocumentID: docID,
			Index:      i,
			Text:       "chunk text",
			Embedding:  emb,
		}
	}
	return chunks
}

func TestCacheStore_StoreAndSearch(t *testing.T) {
	cs := newTestStore(t, t.TempDir())
	ctx := context.Background()

	doc := testDoc("manual", 42)
	chunks := []models.Chunk{
		{ID: "manual_0", DocumentID: "manual", Index: 0, Text: "about cats", Embedding: []float32{1, 0, 0}},
		{ID: "manual_1", DocumentID: "manual", Index: 1, Text: "about dogs", Embedding: []float32{0, 1, 0}},
		{ID: "manual_2", DocumentID: "manual", Index: 2, Text: "about fish", Embedding: []float32{0, 0, 1}},
	}
	require.NoError(t, cs.Store(ctx, doc, chunks))

	results, err := cs.Search(ctx, []float32{0.9, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "about cats", results[0].Chunk.Text)
	assert.Equal(t, "about dogs", results[1].Chunk.Text)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, "data/pdf/manual.pdf", results[0].Chunk.Source)
}

func TestCacheStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cs := newTestStore(t, dir)
	require.NoError(t, cs.Store(ctx, testDoc("manual", 42), testChunks("manual", []float32{1, 0})))
	require.NoError(t, cs.Close())

	// A fresh instance reads the same cache directory
	reopened := newTestStore(t, dir)

	docs, err := reopened.Documents(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint32{"manual": 42}, docs)

	results, err := reopened.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
}

func TestCacheStore_ModelChangeInvalidates(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cs := newTestStore(t, dir)
	require.NoError(t, cs.Store(ctx, testDoc("manual", 42), testChunks("manual", []float32{1, 0})))

	// Entries written with another model are ignored on load
	other, err := store.NewCacheWithConfig(store.CacheConfig{
		Dir:   dir,
		Model: "text-embedding-3-large",
	})
	require.NoError(t, err)

	docs, err := other.Documents(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCacheStore_Forget(t *testing.T) {
	cs := newTestStore(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, cs.Store(ctx, testDoc("a", 1), testChunks("a", []float32{1, 0})))
	require.NoError(t, cs.Store(ctx, testDoc("b", 2), testChunks("b", []float32{0, 1})))

	require.NoError(t, cs.Forget(ctx, "a"))

	docs, err := cs.Documents(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint32{"b": 2}, docs)

	// Forgetting a document that is not stored is not an error
	require.NoError(t, cs.Forget(ctx, "missing"))
}

func TestCacheStore_Clear(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cs := newTestStore(t, dir)
	require.NoError(t, cs.Store(ctx, testDoc("a", 1), testChunks("a", []float32{1, 0})))
	require.NoError(t, cs.Clear(ctx))

	docs, err := cs.Documents(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	results, err := cs.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	// The directory is recreated and usable after Clear
	require.NoError(t, cs.Store(ctx, testDoc("b", 2), testChunks("b", []float32{0, 1})))
}

func TestCacheStore_SearchEmpty(t *testing.T) {
	cs := newTestStore(t, t.TempDir())

	results, err := cs.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCacheStore_RejectsChunksWithoutEmbeddings(t *testing.T) {
	cs := newTestStore(t, t.TempDir())

	chunks := []models.Chunk{{ID: "a_0", DocumentID: "a", Text: "no vector"}}
	err := cs.Store(context.Background(), testDoc("a", 1), chunks)
	assert.Error(t, err)
}

func TestCacheStore_RejectsForeignChunks(t *testing.T) {
	cs := newTestStore(t, t.TempDir())

	chunks := testChunks("other", []float32{1, 0})
	err := cs.Store(context.Background(), testDoc("a", 1), chunks)
	assert.Error(t, err)
}
