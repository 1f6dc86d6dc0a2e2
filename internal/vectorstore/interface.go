// Package vectorstore provides the persistent vector index behind the
// knowledge base.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")
)

// Document is a unit of knowledge stored in the index.
type Document struct {
	// ID uniquely identifies the document. Immutable once created.
	ID string `json:"id"`

	// Content is the text blob that gets embedded and retrieved.
	Content string `json:"content"`

	// Metadata carries category/source/severity/service/tags/created_at.
	Metadata map[string]string `json:"metadata"`
}

// SearchResult is a single nearest-neighbor hit.
type SearchResult struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// Embedder generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic
// meaning, enabling similarity search. Implementations can use local models
// (TEI) or cloud APIs.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for vector index operations.
//
// The interface covers exactly what the triage pipeline needs: inserting
// embedded documents, nearest-neighbor retrieval, and wholesale replacement
// during bulk ingestion. Implementations must be safe for concurrent reads;
// callers serialize writes against reads (the knowledge service holds a
// read-write lock around this store).
type Store interface {
	// AddDocuments embeds and stores documents.
	// Returns the IDs of added documents.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search returns up to k documents nearest to the query, ordered by
	// similarity (highest first). Deterministic for a fixed index snapshot
	// and embedding model.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// Reset drops all stored documents, leaving an empty index. Used by bulk
	// ingestion to rebuild the index from the full corpus.
	Reset(ctx context.Context) error

	// Count returns the number of stored documents.
	Count() int

	// Close releases store resources.
	Close() error
}
