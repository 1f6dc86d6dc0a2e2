package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/incidentd/internal/analyzer"
	"github.com/fyrsmithlabs/incidentd/internal/config"
	"github.com/fyrsmithlabs/incidentd/internal/knowledge"
)

type stubAnalyzer struct {
	analyzeOutput   string
	analyzeErr      error
	gotIncident     string
	followUpAnswer  string
	followUpErr     error
	gotAnalysisJSON string
	gotQuestion     string
}

func (s *stubAnalyzer) Analyze(ctx context.Context, incidentText, traceID string) (string, error) {
	s.gotIncident = incidentText
	return s.analyzeOutput, s.analyzeErr
}

func (s *stubAnalyzer) FollowUp(ctx context.Context, incidentText, analysisJSON, question string, history []analyzer.ChatMessage, traceID string) (string, error) {
	s.gotIncident = incidentText
	s.gotAnalysisJSON = analysisJSON
	s.gotQuestion = question
	return s.followUpAnswer, s.followUpErr
}

type stubKnowledge struct {
	result   *knowledge.SaveResult
	err      error
	gotEntry knowledge.Entry
}

func (s *stubKnowledge) SaveEntry(ctx context.Context, entry knowledge.Entry) (*knowledge.SaveResult, error) {
	s.gotEntry = entry
	return s.result, s.err
}

func newTestServer(t *testing.T, a *stubAnalyzer, kb *stubKnowledge) *Server {
	t.Helper()
	srv, err := NewServer(a, kb, zap.NewNop(), config.ServerConfig{
		Host:        "localhost",
		Port:        8000,
		CORSOrigins: "http://localhost:5173",
	})
	require.NoError(t, err)
	return srv
}

func doJSON(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(nil, &stubKnowledge{}, zap.NewNop(), config.ServerConfig{})
	assert.Error(t, err)

	_, err = NewServer(&stubAnalyzer{}, nil, zap.NewNop(), config.ServerConfig{})
	assert.Error(t, err)

	_, err = NewServer(&stubAnalyzer{}, &stubKnowledge{}, nil, config.ServerConfig{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{}, &stubKnowledge{})

	rec := doJSON(srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestAnalyze(t *testing.T) {
	a := &stubAnalyzer{analyzeOutput: `{"severity": "High", "confidence_score": 0.7}`}
	srv := newTestServer(t, a, &stubKnowledge{})

	rec := doJSON(srv, http.MethodPost, "/analyze",
		`{"description": "API errors", "log_line": "dial tcp: i/o timeout"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, a.analyzeOutput, resp.RawOutput)
	require.NotNil(t, resp.ParsedOutput)
	assert.Equal(t, "High", resp.ParsedOutput["severity"])

	// Description and logs composed into one labeled text.
	assert.Equal(t, "Description:\nAPI errors\n\nLogs:\ndial tcp: i/o timeout", a.gotIncident)
}

func TestAnalyze_NonJSONOutputReturnsNullParsed(t *testing.T) {
	a := &stubAnalyzer{analyzeOutput: "free-form prose"}
	srv := newTestServer(t, a, &stubKnowledge{})

	rec := doJSON(srv, http.MethodPost, "/analyze", `{"incident_text": "kafka lag"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "free-form prose", resp.RawOutput)
	assert.Nil(t, resp.ParsedOutput)
}

func TestAnalyze_EmptyInputRejected(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{}, &stubKnowledge{})

	rec := doJSON(srv, http.MethodPost, "/analyze", `{"description": "   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Provide at least one of: incident_text, description, log_line.")
}

func TestAnalyze_FailureReturns500(t *testing.T) {
	a := &stubAnalyzer{analyzeErr: errors.New("generation failed: upstream 500")}
	srv := newTestServer(t, a, &stubKnowledge{})

	rec := doJSON(srv, http.MethodPost, "/analyze", `{"incident_text": "db timeout"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Analysis failed: generation failed: upstream 500")
}

func TestFollowUp(t *testing.T) {
	a := &stubAnalyzer{followUpAnswer: "Check the connection pool settings."}
	srv := newTestServer(t, a, &stubKnowledge{})

	rec := doJSON(srv, http.MethodPost, "/followup", `{
		"question": "what should we check first?",
		"incident_text": "HTTP 503, db timeouts",
		"parsed_output": {"severity": "High"},
		"chat_history": [{"role": "user", "content": "earlier question"}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FollowUpResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Check the connection pool settings.", resp.Answer)

	assert.Equal(t, "what should we check first?", a.gotQuestion)
	assert.JSONEq(t, `{"severity": "High"}`, a.gotAnalysisJSON)
}

func TestFollowUp_FallsBackToRawOutput(t *testing.T) {
	a := &stubAnalyzer{followUpAnswer: "ok"}
	srv := newTestServer(t, a, &stubKnowledge{})

	rec := doJSON(srv, http.MethodPost, "/followup", `{
		"question": "why?",
		"incident_text": "HTTP 503",
		"raw_output": "prior raw analysis"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "prior raw analysis", a.gotAnalysisJSON)
}

func TestFollowUp_Validation(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{}, &stubKnowledge{})

	rec := doJSON(srv, http.MethodPost, "/followup", `{"incident_text": "HTTP 503"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "question is required.")

	rec = doJSON(srv, http.MethodPost, "/followup", `{"question": "why?"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Provide at least one of")
}

func TestSaveKnowledge(t *testing.T) {
	kb := &stubKnowledge{result: &knowledge.SaveResult{
		ID:       "DOC-LEARN-AB12CD34",
		FilePath: "/data/learned/DOC-LEARN-AB12CD34.json",
	}}
	srv := newTestServer(t, &stubAnalyzer{}, kb)

	rec := doJSON(srv, http.MethodPost, "/knowledge/save", `{
		"description": "disk full on node-3",
		"parsed_output": {"severity": "Medium", "root_cause": "log rotation disabled"},
		"notes": "verified by on-call"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SaveKnowledgeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "DOC-LEARN-AB12CD34", resp.ID)
	assert.Equal(t, "/data/learned/DOC-LEARN-AB12CD34.json", resp.FilePath)
	assert.Equal(t, "Knowledge saved and indexed successfully.", resp.Message)

	assert.Equal(t, "disk full on node-3", kb.gotEntry.Description)
	assert.Equal(t, "Medium", kb.gotEntry.Severity)
	assert.Equal(t, "verified by on-call", kb.gotEntry.OperatorNotes)
}

func TestSaveKnowledge_EmptyRejected(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{}, &stubKnowledge{})

	rec := doJSON(srv, http.MethodPost, "/knowledge/save", `{"notes": "just a note"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Provide at least one of: description, log_line, parsed_output.")
}

func TestSaveKnowledge_NoIndexableContentReturns400(t *testing.T) {
	kb := &stubKnowledge{err: knowledge.ErrEmptyEntry}
	srv := newTestServer(t, &stubAnalyzer{}, kb)

	rec := doJSON(srv, http.MethodPost, "/knowledge/save", `{"parsed_output": {"unrelated": true}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Knowledge save failed: entry has no content to index")
}

func TestSaveKnowledge_FailureReturns500(t *testing.T) {
	kb := &stubKnowledge{err: errors.New("embedding service down")}
	srv := newTestServer(t, &stubAnalyzer{}, kb)

	rec := doJSON(srv, http.MethodPost, "/knowledge/save", `{"description": "disk full"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Knowledge save failed: embedding service down")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{}, &stubKnowledge{})

	// Generate one request so counters exist.
	doJSON(srv, http.MethodGet, "/health", "")

	rec := doJSON(srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "incidentd_http_requests_total")
}
