// Package http provides the HTTP API for incidentd.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/incidentd/internal/analyzer"
	"github.com/fyrsmithlabs/incidentd/internal/config"
	"github.com/fyrsmithlabs/incidentd/internal/knowledge"
)

// Analyzer runs incident analysis and follow-up discussion.
type Analyzer interface {
	Analyze(ctx context.Context, incidentText, traceID string) (string, error)
	FollowUp(ctx context.Context, incidentText, analysisJSON, question string, history []analyzer.ChatMessage, traceID string) (string, error)
}

// Knowledge persists operator feedback into the knowledge base.
type Knowledge interface {
	SaveEntry(ctx context.Context, entry knowledge.Entry) (*knowledge.SaveResult, error)
}

// Server provides HTTP endpoints for incidentd.
type Server struct {
	echo      *echo.Echo
	analyzer  Analyzer
	knowledge Knowledge
	logger    *zap.Logger
	config    config.ServerConfig
}

// NewServer creates a new HTTP server.
func NewServer(a Analyzer, kb Knowledge, logger *zap.Logger, cfg config.ServerConfig) (*Server, error) {
	if a == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if kb == nil {
		return nil, fmt.Errorf("knowledge service is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Origins(),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	metrics := newMetrics()
	e.Use(metrics.middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:      e,
		analyzer:  a,
		knowledge: kb,
		logger:    logger,
		config:    cfg,
	}

	// Register routes
	s.registerRoutes(metrics)

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes(m *metrics) {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", m.handler())

	s.echo.POST("/analyze", s.handleAnalyze)
	s.echo.POST("/followup", s.handleFollowUp)
	s.echo.POST("/knowledge/save", s.handleSaveKnowledge)
}

// AnalyzeRequest is the request body for POST /analyze.
type AnalyzeRequest struct {
	Description  string `json:"description"`
	LogLine      string `json:"log_line"`
	IncidentText string `json:"incident_text"`
}

// AnalyzeResponse is the response body for POST /analyze.
type AnalyzeResponse struct {
	RawOutput    string         `json:"raw_output"`
	ParsedOutput map[string]any `json:"parsed_output"`
}

// FollowUpRequest is the request body for POST /followup.
type FollowUpRequest struct {
	Question     string                 `json:"question"`
	Description  string                 `json:"description"`
	LogLine      string                 `json:"log_line"`
	IncidentText string                 `json:"incident_text"`
	ParsedOutput map[string]any         `json:"parsed_output"`
	RawOutput    string                 `json:"raw_output"`
	ChatHistory  []analyzer.ChatMessage `json:"chat_history"`
}

// FollowUpResponse is the response body for POST /followup.
type FollowUpResponse struct {
	Answer string `json:"answer"`
}

// SaveKnowledgeRequest is the request body for POST /knowledge/save.
type SaveKnowledgeRequest struct {
	Description  string         `json:"description"`
	LogLine      string         `json:"log_line"`
	ParsedOutput map[string]any `json:"parsed_output"`
	Notes        string         `json:"notes"`
}

// SaveKnowledgeResponse is the response body for POST /knowledge/save.
type SaveKnowledgeResponse struct {
	ID       string `json:"id"`
	FilePath string `json:"file_path"`
	Message  string `json:"message"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleAnalyze runs the analysis pipeline over the composed incident text.
func (s *Server) handleAnalyze(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid analyze request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	incidentText := analyzer.ComposeIncidentText(req.IncidentText, req.Description, req.LogLine)
	if incidentText == "" {
		return echo.NewHTTPError(http.StatusBadRequest,
			"Provide at least one of: incident_text, description, log_line.")
	}

	traceID := uuid.New().String()
	s.logger.Info("analyze request received",
		zap.String("trace_id", traceID),
		zap.Int("incident_len", len(incidentText)),
	)

	raw, err := s.analyzer.Analyze(c.Request().Context(), incidentText, traceID)
	if err != nil {
		s.logger.Error("analyze request failed",
			zap.String("trace_id", traceID),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError,
			fmt.Sprintf("Analysis failed: %v", err))
	}

	parsed := analyzer.ParseStructured(raw)
	s.logger.Info("analyze request completed",
		zap.String("trace_id", traceID),
		zap.Bool("parsed", parsed != nil),
		zap.Int("output_len", len(raw)),
	)

	return c.JSON(http.StatusOK, AnalyzeResponse{RawOutput: raw, ParsedOutput: parsed})
}

// handleFollowUp answers a conversational question about a prior analysis.
func (s *Server) handleFollowUp(c echo.Context) error {
	var req FollowUpRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid followup request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required.")
	}

	incidentText := analyzer.ComposeIncidentText(req.IncidentText, req.Description, req.LogLine)
	if incidentText == "" {
		return echo.NewHTTPError(http.StatusBadRequest,
			"Provide at least one of: incident_text, description, log_line.")
	}

	analysisJSON := req.RawOutput
	if req.ParsedOutput != nil {
		if data, err := json.Marshal(req.ParsedOutput); err == nil {
			analysisJSON = string(data)
		}
	}

	traceID := uuid.New().String()
	answer, err := s.analyzer.FollowUp(c.Request().Context(),
		incidentText, analysisJSON, req.Question, req.ChatHistory, traceID)
	if err != nil {
		s.logger.Error("followup request failed",
			zap.String("trace_id", traceID),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError,
			fmt.Sprintf("Follow-up failed: %v", err))
	}

	return c.JSON(http.StatusOK, FollowUpResponse{Answer: answer})
}

// handleSaveKnowledge folds operator feedback into the knowledge base.
func (s *Server) handleSaveKnowledge(c echo.Context) error {
	var req SaveKnowledgeRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid save request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Description == "" && req.LogLine == "" && req.ParsedOutput == nil {
		return echo.NewHTTPError(http.StatusBadRequest,
			"Provide at least one of: description, log_line, parsed_output.")
	}

	entry := knowledge.EntryFromParsed(req.Description, req.LogLine, req.Notes, req.ParsedOutput)
	result, err := s.knowledge.SaveEntry(c.Request().Context(), entry)
	if err != nil {
		if errors.Is(err, knowledge.ErrEmptyEntry) {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("Knowledge save failed: %v", err))
		}
		s.logger.Error("knowledge save failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError,
			fmt.Sprintf("Knowledge save failed: %v", err))
	}

	return c.JSON(http.StatusOK, SaveKnowledgeResponse{
		ID:       result.ID,
		FilePath: result.FilePath,
		Message:  "Knowledge saved and indexed successfully.",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
