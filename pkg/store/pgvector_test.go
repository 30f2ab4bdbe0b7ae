package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/models"
	"pdfchat/pkg/store"
)

// Integration test, needs a PostgreSQL instance with the pgvector extension.
func TestPGVectorStore(t *testing.T) {
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	s, err := store.NewPGVectorWithConfig(store.PGVectorConfig{
		ConnString: connString,
		TableName:  "test_chunks",
		Model:      "test-model",
		VectorDim:  3,
	})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Clear(ctx))

	doc := models.Document{ID: "manual", Path: "data/pdf/manual.pdf", Checksum: 42}
	chunks := []models.Chunk{
		{ID: "manual_0", DocumentID: "manual", Index: 0, Text: "about cats", Embedding: []float32{1, 0, 0}},
		{ID: "manual_1", DocumentID: "manual", Index: 1, Text: "about dogs", Embedding: []float32{0, 1, 0}},
	}
	require.NoError(t, s.Store(ctx, doc, chunks))

	docs, err := s.Documents(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint32{"manual": 42}, docs)

	results, err := s.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "about cats", results[0].Chunk.Text)
	assert.Equal(t, "data/pdf/manual.pdf", results[0].Chunk.Source)

	// Re-storing replaces the previous chunks
	require.NoError(t, s.Store(ctx, doc, chunks[:1]))
	results, err = s.Search(ctx, []float32{0, 1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// Rows written with another model are invisible, so a model switch makes
	// the sync diff re-ingest the document
	other, err := store.NewPGVectorWithConfig(store.PGVectorConfig{
		ConnString: connString,
		TableName:  "test_chunks",
		Model:      "other-model",
		VectorDim:  3,
	})
	require.NoError(t, err)
	defer other.Close()

	docs, err = other.Documents(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	results, err = other.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, s.Forget(ctx, "manual"))
	docs, err = s.Documents(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
