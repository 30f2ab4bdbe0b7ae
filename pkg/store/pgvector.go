package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"pdfchat/internal/models"
)

type PGVectorConfig struct {
	ConnString string
	TableName  string
	// Model is the embedding model name. Rows written with a different model
	// are invisible to Documents, so a model switch re-ingests everything.
	Model     string
	VectorDim int
	BatchSize int
}

// PGVectorStore keeps chunk embeddings in a PostgreSQL table with a pgvector
// column. It is the alternative to the on-disk cache for corpora too large to
// hold in memory.
type PGVectorStore struct {
	config PGVectorConfig
	pool   *pgxpool.Pool
}

func NewPGVectorWithConfig(config PGVectorConfig) (*PGVectorStore, error) {
	if config.TableName == "" {
		config.TableName = "documents"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 1536
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	vs := &PGVectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *PGVectorStore) initialize() error {
	ctx := context.Background()

	// Enable pgvector extension
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			source TEXT,
			chunk_index INTEGER,
			content TEXT,
			checksum BIGINT,
			model TEXT,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	// Tables created before the model column existed
	addModel := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS model TEXT", vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, addModel); err != nil {
		return fmt.Errorf("failed to add model column: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)

	_, err = vs.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	createDocIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_document_id_idx
		ON %s (document_id)`,
		vs.config.TableName, vs.config.TableName)

	_, err = vs.pool.Exec(ctx, createDocIndex)
	if err != nil {
		return fmt.Errorf("failed to create document index: %v", err)
	}

	return nil
}

// Store upserts every chunk of a document in one transaction. Chunks must
// already carry their embeddings.
func (vs *PGVectorStore) Store(ctx context.Context, doc models.Document, chunks []models.Chunk) error {
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	// Drop rows from a previous version of the document so stale chunks do
	// not survive a shrink
	deleteStmt := fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", vs.config.TableName)
	if _, err := tx.Exec(ctx, deleteStmt, doc.ID); err != nil {
		return fmt.Errorf("failed to delete previous chunks: %v", err)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, source, chunk_index, content, checksum, model, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		vs.config.TableName)

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}

		_, err = tx.Exec(ctx, stmt,
			chunk.ID,
			doc.ID,
			doc.Path,
			chunk.Index,
			sanitizeUTF8(chunk.Text),
			int64(doc.Checksum),
			vs.config.Model,
			pgvector.NewVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// Search returns the top-k chunks by cosine similarity to the query vector.
func (vs *PGVectorStore) Search(ctx context.Context, queryEmbedding []float32, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 3
	}

	where := ""
	args := []any{pgvector.NewVector(queryEmbedding), limit}
	if vs.config.Model != "" {
		where = "WHERE model = $3"
		args = append(args, vs.config.Model)
	}

	query := fmt.Sprintf(`
		SELECT id, document_id, source, chunk_index, content, 1 - (embedding <=> $1)
		FROM %s
		%s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		vs.config.TableName, where)

	rows, err := vs.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %v", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var res models.SearchResult
		err := rows.Scan(
			&res.Chunk.ID,
			&res.Chunk.DocumentID,
			&res.Chunk.Source,
			&res.Chunk.Index,
			&res.Chunk.Text,
			&res.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// Forget removes every chunk of a document.
func (vs *PGVectorStore) Forget(ctx context.Context, documentID string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, stmt, documentID); err != nil {
		return fmt.Errorf("failed to forget document: %v", err)
	}

	return nil
}

// Documents reports the stored documents and their checksums. Rows embedded
// with another model are left out so the sync diff re-ingests them.
func (vs *PGVectorStore) Documents(ctx context.Context) (map[string]uint32, error) {
	query := fmt.Sprintf("SELECT DISTINCT document_id, checksum FROM %s", vs.config.TableName)

	var args []any
	if vs.config.Model != "" {
		query += " WHERE model = $1"
		args = append(args, vs.config.Model)
	}

	rows, err := vs.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %v", err)
	}
	defer rows.Close()

	docs := make(map[string]uint32)
	for rows.Next() {
		var id string
		var checksum int64
		if err := rows.Scan(&id, &checksum); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		docs[id] = uint32(checksum)
	}

	return docs, rows.Err()
}

// Clear removes every stored chunk.
func (vs *PGVectorStore) Clear(ctx context.Context) error {
	stmt := fmt.Sprintf("DELETE FROM %s", vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to clear store: %v", err)
	}

	return nil
}

func (vs *PGVectorStore) Close() error {
	if vs.pool != nil {
		vs.pool.Close()
	}
	return nil
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
