package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Load loads configuration from an optional YAML file, then overrides with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (SERVER_PORT, GENERATION_API_KEY, ...)
//  2. YAML config file (configPath, skipped when empty or missing)
//  3. Hardcoded defaults
//
// Environment variables map to config keys by splitting on the first
// underscore: SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			content, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)

	// Enabled defaults to true, which the zero value cannot express.
	if !k.Exists("enrichment.enabled") {
		cfg.Enrichment.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envToKey maps environment variable names to dotted config keys.
// The section is everything before the first underscore; the rest is the
// field name with underscores preserved: ENRICHMENT_BASE_URL -> enrichment.base_url.
func envToKey(s string) string {
	lower := strings.ToLower(s)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.CORSOrigins == "" {
		cfg.Server.CORSOrigins = "http://localhost:5173,http://127.0.0.1:5173"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.FileMaxSizeMB == 0 {
		cfg.Logging.FileMaxSizeMB = 50
	}
	if cfg.Logging.FileBackups == 0 {
		cfg.Logging.FileBackups = 3
	}

	if cfg.Knowledge.IndexPath == "" {
		cfg.Knowledge.IndexPath = "~/.local/share/incidentd/index"
	}
	if cfg.Knowledge.CorpusPath == "" {
		cfg.Knowledge.CorpusPath = "data"
	}
	if cfg.Knowledge.LearnedPath == "" {
		cfg.Knowledge.LearnedPath = "data/learned"
	}
	if cfg.Knowledge.Collection == "" {
		cfg.Knowledge.Collection = "incident_kb"
	}
	if cfg.Knowledge.RetrieveK == 0 {
		cfg.Knowledge.RetrieveK = 4
	}
	if cfg.Knowledge.VectorSize == 0 {
		cfg.Knowledge.VectorSize = 384 // bge-small-en-v1.5 dimensions
	}

	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:8080/v1"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}

	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = "https://api.openai.com"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gpt-4o-mini"
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.2
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 1024
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = 60 * time.Second
	}

	if cfg.Enrichment.Results == 0 {
		cfg.Enrichment.Results = 3
	}
	if cfg.Enrichment.BaseURL == "" {
		cfg.Enrichment.BaseURL = "https://api.stackexchange.com/2.3"
	}
	if cfg.Enrichment.Timeout == 0 {
		cfg.Enrichment.Timeout = 10 * time.Second
	}
}
