package embeddings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/incidentd/internal/config"
	"github.com/fyrsmithlabs/incidentd/internal/embeddings"
)

func TestNewService_Validation(t *testing.T) {
	_, err := embeddings.NewService(config.EmbeddingsConfig{Model: "BAAI/bge-small-en-v1.5"})
	assert.Error(t, err)

	_, err = embeddings.NewService(config.EmbeddingsConfig{BaseURL: "http://localhost:8080/v1"})
	assert.Error(t, err)
}

func TestNewService(t *testing.T) {
	svc, err := embeddings.NewService(config.EmbeddingsConfig{
		BaseURL: "http://localhost:8080/v1",
		Model:   "BAAI/bge-small-en-v1.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", svc.Model())
}

func TestEmbedDocuments_EmptyInput(t *testing.T) {
	svc, err := embeddings.NewService(config.EmbeddingsConfig{
		BaseURL: "http://localhost:8080/v1",
		Model:   "BAAI/bge-small-en-v1.5",
	})
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, embeddings.ErrEmptyInput)
}
