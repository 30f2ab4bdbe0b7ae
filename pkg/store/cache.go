package store

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"pdfchat/internal/models"
)

const cacheFileExt = ".gob"

type CacheConfig struct {
	// Dir is where one cache file per document lives.
	Dir string
	// Model is the embedding model name. Entries written with a different
	// model are stale and ignored on load.
	Model string
}

// CacheStore keeps chunk embeddings in per-document files under a cache
// directory and answers queries with brute-force cosine similarity over an
// in-memory index.
type CacheStore struct {
	config  CacheConfig
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

// cacheEntry is the on-disk format, one file per document.
type cacheEntry struct {
	DocumentID string
	Source     string
	Checksum   uint32
	Model      string
	Chunks     []cachedChunk
}

type cachedChunk struct {
	Index     int
	Text      string
	Embedding []float32
}

func NewCacheWithConfig(config CacheConfig) (*CacheStore, error) {
	if config.Dir == "" {
		config.Dir = "data/cache"
	}

	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cs := &CacheStore{
		config:  config,
		entries: make(map[string]*cacheEntry),
	}

	if err := cs.loadAll(); err != nil {
		return nil, err
	}

	return cs, nil
}

func (cs *CacheStore) loadAll() error {
	files, err := os.ReadDir(cs.config.Dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), cacheFileExt) {
			continue
		}

		entry, err := cs.readEntry(filepath.Join(cs.config.Dir, f.Name()))
		if err != nil {
			return err
		}

		// Entries embedded with another model cannot be compared against
		// query vectors from the current one
		if cs.config.Model != "" && entry.Model != cs.config.Model {
			continue
		}

		cs.entries[entry.DocumentID] = entry
	}

	return nil
}

func (cs *CacheStore) readEntry(path string) (*cacheEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file %s: %w", path, err)
	}
	defer f.Close()

	var entry cacheEntry
	if err := gob.NewDecoder(f).Decode(&entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache file %s: %w", path, err)
	}

	return &entry, nil
}

func (cs *CacheStore) entryPath(documentID string) string {
	return filepath.Join(cs.config.Dir, documentID+cacheFileExt)
}

// Store persists the chunks of a single document, replacing any previous
// entry for it.
func (cs *CacheStore) Store(_ context.Context, doc models.Document, chunks []models.Chunk) error {
	entry := &cacheEntry{
		DocumentID: doc.ID,
		Source:     doc.Path,
		Checksum:   doc.Checksum,
		Model:      cs.config.Model,
		Chunks:     make([]cachedChunk, 0, len(chunks)),
	}

	for _, chunk := range chunks {
		if chunk.DocumentID != doc.ID {
			return fmt.Errorf("chunk %s does not belong to document %s", chunk.ID, doc.ID)
		}
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}
		entry.Chunks = append(entry.Chunks, cachedChunk{
			Index:     chunk.Index,
			Text:      chunk.Text,
			Embedding: chunk.Embedding,
		})
	}

	f, err := os.Create(cs.entryPath(doc.ID))
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}

	cs.mu.Lock()
	cs.entries[doc.ID] = entry
	cs.mu.Unlock()

	return nil
}

// Search returns the top-k chunks by cosine similarity to the query vector.
func (cs *CacheStore) Search(_ context.Context, embedding []float32, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 3
	}

	cs.mu.RLock()
	defer cs.mu.RUnlock()

	var results []models.SearchResult
	for _, entry := range cs.entries {
		for _, chunk := range entry.Chunks {
			results = append(results, models.SearchResult{
				Chunk: models.Chunk{
					ID:         fmt.Sprintf("%s_%d", entry.DocumentID, chunk.Index),
					DocumentID: entry.DocumentID,
					Source:     entry.Source,
					Index:      chunk.Index,
					Text:       chunk.Text,
					Embedding:  chunk.Embedding,
				},
				Score: cosineSimilarity(embedding, chunk.Embedding),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > len(results) {
		limit = len(results)
	}

	return results[:limit], nil
}

// Forget removes a document's cache entry from disk and memory.
func (cs *CacheStore) Forget(_ context.Context, documentID string) error {
	if err := os.Remove(cs.entryPath(documentID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}

	cs.mu.Lock()
	delete(cs.entries, documentID)
	cs.mu.Unlock()

	return nil
}

// Documents reports the stored documents and their checksums.
func (cs *CacheStore) Documents(_ context.Context) (map[string]uint32, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	docs := make(map[string]uint32, len(cs.entries))
	for id, entry := range cs.entries {
		docs[id] = entry.Checksum
	}

	return docs, nil
}

// Clear wipes the cache directory and the in-memory index.
func (cs *CacheStore) Clear(_ context.Context) error {
	if err := os.RemoveAll(cs.config.Dir); err != nil {
		return fmt.Errorf("failed to clear cache directory: %w", err)
	}
	if err := os.MkdirAll(cs.config.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to recreate cache directory: %w", err)
	}

	cs.mu.Lock()
	cs.entries = make(map[string]*cacheEntry)
	cs.mu.Unlock()

	return nil
}

func (cs *CacheStore) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
