// Package analyzer runs the incident analysis pipeline: input validation,
// knowledge retrieval, optional web enrichment, prompt composition, and a
// single model call producing structured output.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/incidentd/internal/enrichment"
	"github.com/fyrsmithlabs/incidentd/internal/llm"
	"github.com/fyrsmithlabs/incidentd/internal/sanitize"
)

// retrieveK is the number of knowledge documents pulled per analysis.
const retrieveK = 4

// Retriever returns the contents of the documents most similar to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// Enricher searches an external source for incident-related context.
// Implementations are best-effort and return nothing on failure.
type Enricher interface {
	Search(ctx context.Context, query string, pagesize int) []enrichment.Result
}

// ChatMessage is one turn of a follow-up conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Service orchestrates the analysis pipeline.
type Service struct {
	retriever  Retriever
	enricher   Enricher
	llm        llm.Client
	logger     *zap.Logger
	enrichment bool
	webResults int
}

// NewService creates the analysis service. enricher may be nil when web
// enrichment is disabled.
func NewService(retriever Retriever, enricher Enricher, client llm.Client, webResults int, logger *zap.Logger) (*Service, error) {
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if webResults <= 0 {
		webResults = 3
	}
	return &Service{
		retriever:  retriever,
		enricher:   enricher,
		llm:        client,
		logger:     logger,
		enrichment: enricher != nil,
		webResults: webResults,
	}, nil
}

// ComposeIncidentText combines the request fields into the single text the
// pipeline analyzes. incidentText wins when set; otherwise description and
// logs are stitched into labeled sections.
func ComposeIncidentText(incidentText, description, logLine string) string {
	if trimmed := strings.TrimSpace(incidentText); trimmed != "" {
		return trimmed
	}

	var parts []string
	if d := strings.TrimSpace(description); d != "" {
		parts = append(parts, "Description:\n"+d)
	}
	if l := strings.TrimSpace(logLine); l != "" {
		parts = append(parts, "Logs:\n"+l)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// Analyze runs the full pipeline over incidentText and returns the raw model
// output, expected to be a JSON object. Invalid input short-circuits to a
// canned low-confidence response without calling the model.
func (s *Service) Analyze(ctx context.Context, incidentText, traceID string) (string, error) {
	log := s.logger.With(zap.String("trace_id", traceID))
	log.Info("analysis started", zap.Int("input_len", len(incidentText)))

	if valid, reason := ValidateInput(incidentText); !valid {
		log.Info("input rejected by validator", zap.String("reason", reason))
		return rejectionResponse(reason), nil
	}

	docs, err := s.retriever.Retrieve(ctx, incidentText, retrieveK)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}
	log.Info("retrieval completed", zap.Int("docs", len(docs)))

	contextText := strings.Join(docs, "\n\n")
	if external := s.externalContext(ctx, incidentText, log); external != "" {
		contextText = contextText + "\n\n" + external
	}

	contextText = sanitize.Terminology(contextText)
	question := sanitize.Terminology(incidentText)

	prompt := renderPrompt(incidentAnalysisPrompt, map[string]string{
		"context":  contextText,
		"question": question,
	})
	log.Info("prompt prepared",
		zap.Int("context_chars", len(contextText)),
		zap.Int("question_chars", len(question)),
	)

	output, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	log.Info("model response received", zap.Int("output_len", len(output)))
	return output, nil
}

// FollowUp answers a conversational question about a previously analyzed
// incident in plain text.
func (s *Service) FollowUp(ctx context.Context, incidentText, analysisJSON, question string, history []ChatMessage, traceID string) (string, error) {
	log := s.logger.With(zap.String("trace_id", traceID))

	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is required")
	}
	if strings.TrimSpace(incidentText) == "" {
		return "", fmt.Errorf("incident context is required")
	}

	// Context is retrieved for the incident, not the question: follow-ups
	// stay grounded in the same documents the analysis saw.
	docs, err := s.retriever.Retrieve(ctx, incidentText, retrieveK)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}
	log.Info("follow-up retrieval completed", zap.Int("docs", len(docs)))

	if analysisJSON == "" {
		analysisJSON = "{}"
	}

	prompt := renderPrompt(followUpPrompt, map[string]string{
		"incident_text": sanitize.Terminology(strings.TrimSpace(incidentText)),
		"analysis_json": analysisJSON,
		"context":       sanitize.Terminology(strings.Join(docs, "\n\n")),
		"chat_history":  formatHistory(history),
		"question":      sanitize.Terminology(question),
	})

	output, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	log.Info("follow-up response received", zap.Int("output_len", len(output)))
	return output, nil
}

// externalContext fetches web enrichment and renders it as a labeled block.
// Always returns "" when enrichment is disabled or nothing was found.
func (s *Service) externalContext(ctx context.Context, incidentText string, log *zap.Logger) string {
	if !s.enrichment {
		log.Info("web enrichment disabled")
		return ""
	}

	results := s.enricher.Search(ctx, incidentText, s.webResults)
	if len(results) == 0 {
		log.Info("web enrichment returned no results")
		return ""
	}

	log.Info("web enrichment results added", zap.Int("count", len(results)))
	return enrichment.ContextBlock(results)
}

func formatHistory(history []ChatMessage) string {
	if len(history) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		role := msg.Role
		if role == "" {
			role = "user"
		}
		lines = append(lines, role+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}
