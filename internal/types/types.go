package types

import (
	"context"

	"pdfchat/internal/models"
)

// Core interfaces

type Loader interface {
	Load() ([]models.Document, error)
}

type Processor interface {
	Process(docs []models.Document) ([]models.Chunk, error)
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists chunk embeddings and answers top-k similarity queries.
// Documents reports what is already stored as a documentID -> checksum map, so
// callers can skip re-embedding unchanged content.
type VectorStore interface {
	Store(ctx context.Context, doc models.Document, chunks []models.Chunk) error
	Search(ctx context.Context, embedding []float32, limit int) ([]models.SearchResult, error)
	Forget(ctx context.Context, documentID string) error
	Documents(ctx context.Context) (map[string]uint32, error)
	Clear(ctx context.Context) error
	Close() error
}
