package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/incidentd/internal/config"
	"github.com/fyrsmithlabs/incidentd/internal/embeddings"
	"github.com/fyrsmithlabs/incidentd/internal/knowledge"
	"github.com/fyrsmithlabs/incidentd/internal/logging"
	"github.com/fyrsmithlabs/incidentd/internal/vectorstore"
)

var (
	ingestConfigPath string
	ingestTimeout    time.Duration
)

// ingestCmd rebuilds the knowledge index from a corpus directory. This is a
// local administrative operation working directly against the index files,
// not an HTTP call; the server should not be running against the same index.
var ingestCmd = &cobra.Command{
	Use:   "ingest [corpus-dir]",
	Short: "Rebuild the knowledge index from a corpus directory",
	Long: `Rebuild the vector index wholesale from JSON corpus files.

Each .json file under the corpus directory holds one document object or an
array of them, shaped {id, content, metadata}. The existing index is replaced
only after the corpus parses to at least one document.

Examples:
  # Ingest the configured corpus directory
  inctl ingest

  # Ingest a specific directory
  inctl ingest ./data/incidents

  # Use a specific configuration file
  inctl ingest --config /etc/incidentd/config.yaml ./data/incidents`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestConfigPath, "config", "", "path to YAML configuration file")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute, "overall ingestion timeout")
}

// runIngest handles the ingest command
func runIngest(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(ingestConfigPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	corpusDir := cfg.Knowledge.CorpusPath
	if len(args) > 0 {
		corpusDir = args[0]
	}
	if _, err := os.Stat(corpusDir); err != nil {
		return fmt.Errorf("corpus directory %s: %w", corpusDir, err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	embeddingSvc, err := embeddings.NewService(cfg.Embeddings)
	if err != nil {
		return fmt.Errorf("failed to create embedding service: %w", err)
	}

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

	ctx, cancel := context.WithTimeout(cmd.Context(), ingestTimeout)
	defer cancel()

	start := time.Now()
	count, err := kb.BulkIngest(ctx, corpusDir)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	logger.Info("ingestion complete",
		zap.Int("documents", count),
		zap.Duration("elapsed", time.Since(start)))
	fmt.Printf("Ingested %d documents from %s in %s\n", count, corpusDir, time.Since(start).Round(time.Millisecond))
	return nil
}
