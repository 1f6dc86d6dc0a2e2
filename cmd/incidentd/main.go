// Incidentd is a retrieval-augmented incident analysis server.
//
// The server exposes an HTTP API for analyzing incident reports against a
// local knowledge base, holding follow-up discussions, and folding operator
// feedback back into the index.
//
// Configuration is loaded from an optional YAML file plus environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	incidentd
//
//	# Configure via environment
//	SERVER_PORT=9000 GENERATION_API_KEY=sk-... incidentd
//
//	# Configure via file
//	incidentd -config /etc/incidentd/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/incidentd/internal/analyzer"
	"github.com/fyrsmithlabs/incidentd/internal/config"
	"github.com/fyrsmithlabs/incidentd/internal/embeddings"
	"github.com/fyrsmithlabs/incidentd/internal/enrichment"
	"github.com/fyrsmithlabs/incidentd/internal/http"
	"github.com/fyrsmithlabs/incidentd/internal/knowledge"
	"github.com/fyrsmithlabs/incidentd/internal/llm"
	"github.com/fyrsmithlabs/incidentd/internal/logging"
	"github.com/fyrsmithlabs/incidentd/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("incidentd\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
		os.Exit(0)
	}

	// Optional .env for local development
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// run starts the incidentd server and blocks until the context is cancelled.
//
// Initialization order:
//  1. Load and validate configuration
//  2. Initialize logger
//  3. Create embedding service and vector store
//  4. Create knowledge, enrichment, and generation services
//  5. Wire the analysis orchestrator and HTTP server
//  6. Perform graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting incidentd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	embeddingSvc, err := embeddings.NewService(cfg.Embeddings)
	if err != nil {
		return fmt.Errorf("failed to create embedding service: %w", err)
	}

	logger.Info("Embedding service initialized",
		zap.String("base_url", cfg.Embeddings.BaseURL),
		zap.String("model", cfg.Embeddings.Model))

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:       cfg.Knowledge.IndexPath,
		Collection: cfg.Knowledge.Collection,
		VectorSize: cfg.Knowledge.VectorSize,
	}, embeddingSvc, logger)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}

	kb, err := knowledge.NewService(store, cfg.Knowledge, logger)
	if err != nil {
		return fmt.Errorf("failed to create knowledge service: %w", err)
	}
	defer func() {
		_ = kb.Close()
	}()

	logger.Info("Knowledge base opened",
		zap.String("path", cfg.Knowledge.IndexPath),
		zap.Int("documents", kb.Count()))

	client, err := llm.NewClient(cfg.Generation)
	if err != nil {
		return fmt.Errorf("failed to create generation client: %w", err)
	}

	var enricher analyzer.Enricher
	if cfg.Enrichment.Enabled {
		enricher = enrichment.NewClient(cfg.Enrichment, logger)
		logger.Info("Web enrichment enabled", zap.Int("results", cfg.Enrichment.Results))
	} else {
		logger.Info("Web enrichment disabled")
	}

	analysisSvc, err := analyzer.NewService(kb, enricher, client, cfg.Enrichment.Results, logger)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}

	srv, err := http.NewServer(analysisSvc, kb, logger, cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
