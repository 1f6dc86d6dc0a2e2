package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/incidentd/internal/config"
)

func newTestClient(t *testing.T, baseURL string) Client {
	t.Helper()
	client, err := NewClient(config.GenerationConfig{
		BaseURL:     baseURL,
		Model:       "gpt-4o-mini",
		APIKey:      config.Secret("sk-test"),
		Temperature: 0.2,
		MaxTokens:   256,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(config.GenerationConfig{Model: "gpt-4o-mini"})
	assert.Error(t, err)

	_, err = NewClient(config.GenerationConfig{APIKey: config.Secret("sk-test")})
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"severity": "High"}`}},
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	output, err := client.Complete(context.Background(), "analyze this incident")
	require.NoError(t, err)
	assert.Equal(t, `{"severity": "High"}`, output)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	assert.Equal(t, 256, gotReq.MaxTokens)
	assert.InDelta(t, 0.2, gotReq.Temperature, 0.001)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "analyze this incident", gotReq.Messages[0].Content)
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "rate_limit", "message": "quota exceeded"},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestComplete_SingleAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
