// Package library keeps the vector store in sync with the documents folder
// and answers retrieval queries over it.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pdfchat/internal/models"
	"pdfchat/internal/types"
)

type Config struct {
	DocsDir       string
	WatchDebounce time.Duration
	Logger        *slog.Logger
	// OnProgress is called once per ingested document. The CLI hangs its
	// progress bar on it.
	OnProgress func(documentID string)
}

type Library struct {
	config    Config
	loader    types.Loader
	processor types.Processor
	embedder  types.Embedder
	store     types.VectorStore
}

// SyncStats summarizes what one Sync pass did.
type SyncStats struct {
	Ingested  int
	Unchanged int
	Forgotten int
	Chunks    int
}

func NewWithConfig(config Config, loader types.Loader, processor types.Processor, embedder types.Embedder, store types.VectorStore) (*Library, error) {
	if config.DocsDir == "" {
		return nil, fmt.Errorf("documents directory is required")
	}
	if config.WatchDebounce == 0 {
		config.WatchDebounce = 500 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Library{
		config:    config,
		loader:    loader,
		processor: processor,
		embedder:  embedder,
		store:     store,
	}, nil
}

// Sync diffs the documents folder against the store. New and changed
// documents are chunked, embedded and stored; removed ones are forgotten.
// Documents whose checksum matches the stored one are left alone, so an
// unchanged corpus costs no embedding calls.
func (l *Library) Sync(ctx context.Context) (SyncStats, error) {
	var stats SyncStats

	docs, err := l.loader.Load()
	if err != nil {
		return stats, fmt.Errorf("failed to load documents: %w", err)
	}

	stored, err := l.store.Documents(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list stored documents: %w", err)
	}

	onDisk := make(map[string]models.Document, len(docs))
	for _, doc := range docs {
		onDisk[doc.ID] = doc
	}

	// Forget removed and changed documents first so their stale chunks never
	// mix into retrieval
	for id, checksum := range stored {
		if doc, ok := onDisk[id]; ok && doc.Checksum == checksum {
			continue
		}

		if err := l.store.Forget(ctx, id); err != nil {
			return stats, fmt.Errorf("failed to forget document %s: %w", id, err)
		}
		l.config.Logger.Info("forgot document", "id", id)
		stats.Forgotten++
	}

	for _, doc := range docs {
		if checksum, ok := stored[doc.ID]; ok && checksum == doc.Checksum {
			stats.Unchanged++
			continue
		}

		chunks, err := l.ingest(ctx, doc)
		if err != nil {
			return stats, err
		}

		l.config.Logger.Info("ingested document", "id", doc.ID, "chunks", chunks)
		stats.Ingested++
		stats.Chunks += chunks

		if l.config.OnProgress != nil {
			l.config.OnProgress(doc.ID)
		}
	}

	return stats, nil
}

func (l *Library) ingest(ctx context.Context, doc models.Document) (int, error) {
	chunks, err := l.processor.Process([]models.Document{doc})
	if err != nil {
		return 0, fmt.Errorf("failed to process document %s: %w", doc.ID, err)
	}
	if len(chunks) == 0 {
		l.config.Logger.Warn("document produced no chunks", "id", doc.ID)
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := l.embedder.CreateEmbedding(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := l.store.Store(ctx, doc, chunks); err != nil {
		return 0, fmt.Errorf("failed to store document %s: %w", doc.ID, err)
	}

	return len(chunks), nil
}

// Reset clears the store and re-ingests the whole folder.
func (l *Library) Reset(ctx context.Context) (SyncStats, error) {
	if err := l.store.Clear(ctx); err != nil {
		return SyncStats{}, fmt.Errorf("failed to clear store: %w", err)
	}

	return l.Sync(ctx)
}

// Retrieve embeds the query and returns the top-k most similar chunks.
func (l *Library) Retrieve(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	embeddings, err := l.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}

	return l.store.Search(ctx, embeddings[0], topK)
}
