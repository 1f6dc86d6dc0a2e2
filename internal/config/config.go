// Package config provides configuration loading for incidentd.
//
// Configuration is loaded from an optional YAML file, then overridden by
// environment variables. All knobs have sensible defaults so the server can
// start with nothing but API credentials set.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the complete incidentd configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Knowledge  KnowledgeConfig  `koanf:"knowledge"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Generation GenerationConfig `koanf:"generation"`
	Enrichment EnrichmentConfig `koanf:"enrichment"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins is a comma-separated list of allowed browser origins.
	CORSOrigins string `koanf:"cors_origins"`
}

// Origins returns the parsed CORS origin list, skipping empty entries.
func (s ServerConfig) Origins() []string {
	parts := strings.Split(s.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"

	// File enables mirrored log output to a rotating file when non-empty.
	File          string `koanf:"file"`
	FileMaxSizeMB int    `koanf:"file_max_size_mb"`
	FileBackups   int    `koanf:"file_max_backups"`
}

// KnowledgeConfig holds knowledge store and ingestion configuration.
type KnowledgeConfig struct {
	// IndexPath is the directory for the persistent vector index.
	IndexPath string `koanf:"index_path"`

	// CorpusPath is the root directory scanned by bulk ingestion.
	CorpusPath string `koanf:"corpus_path"`

	// LearnedPath is where feedback-saved documents are written.
	LearnedPath string `koanf:"learned_path"`

	Collection string `koanf:"collection"`
	RetrieveK  int    `koanf:"retrieve_k"`
	VectorSize int    `koanf:"vector_size"`
}

// EmbeddingsConfig holds embedding gateway configuration.
type EmbeddingsConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`
}

// GenerationConfig holds generation gateway configuration.
type GenerationConfig struct {
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	APIKey      Secret        `koanf:"api_key"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`
	Timeout     time.Duration `koanf:"timeout"`
}

// EnrichmentConfig holds external enrichment (Q&A search) configuration.
type EnrichmentConfig struct {
	Enabled bool          `koanf:"enabled"`
	Results int           `koanf:"results"`
	BaseURL string        `koanf:"base_url"`
	APIKey  Secret        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Knowledge.IndexPath == "" {
		return errors.New("knowledge index path is required")
	}
	if c.Knowledge.RetrieveK <= 0 {
		return fmt.Errorf("retrieve_k must be positive, got %d", c.Knowledge.RetrieveK)
	}
	if c.Knowledge.VectorSize <= 0 {
		return fmt.Errorf("vector size must be positive, got %d", c.Knowledge.VectorSize)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation temperature out of range: %v", c.Generation.Temperature)
	}
	if c.Enrichment.Results < 1 {
		return fmt.Errorf("enrichment results must be positive, got %d", c.Enrichment.Results)
	}
	return nil
}
