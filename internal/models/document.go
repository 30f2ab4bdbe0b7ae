package models

// Document is one file from the documents folder with its extracted text.
type Document struct {
	ID       string
	Path     string
	Title    string
	Content  string
	Checksum uint32
}

// Chunk is a contiguous span of a document's text, the unit of retrieval.
// Embedding is populated by the embedder before the chunk reaches a store.
type Chunk struct {
	ID         string
	DocumentID string
	Source     string
	Index      int
	Text       string
	Embedding  []float32
}

// SearchResult is a retrieved chunk with its similarity score, higher is better.
type SearchResult struct {
	Chunk Chunk
	Score float32
}
