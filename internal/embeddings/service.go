// Package embeddings provides embedding generation via langchaingo.
//
// It wraps langchaingo's embedding support to turn text into vectors for the
// knowledge index. Any OpenAI-compatible embedding endpoint works, including
// local TEI (Text Embeddings Inference) servers.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fyrsmithlabs/incidentd/internal/config"
	"github.com/fyrsmithlabs/incidentd/internal/vectorstore"
)

// ErrEmptyInput indicates empty or nil input texts.
var ErrEmptyInput = errors.New("empty or nil input texts")

// Service generates embeddings for queries and documents.
// It implements vectorstore.Embedder.
type Service struct {
	embedder *embeddings.EmbedderImpl
	model    string
}

// NewService creates an embedding service from configuration.
func NewService(cfg config.EmbeddingsConfig) (*Service, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("embeddings base URL required")
	}
	if cfg.Model == "" {
		return nil, errors.New("embeddings model required")
	}

	// langchaingo requires a token; TEI ignores it.
	apiKey := cfg.APIKey.Value()
	if apiKey == "" {
		apiKey = "placeholder"
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithEmbeddingModel(cfg.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &Service{embedder: embedder, model: cfg.Model}, nil
}

// Model returns the configured embedding model name.
func (s *Service) Model() string {
	return s.model
}

// EmbedDocuments generates embeddings for the given texts, one vector per
// input. Returns ErrEmptyInput if texts is empty.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a single query string.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return vector, nil
}

var _ vectorstore.Embedder = (*Service)(nil)
