// Package knowledge manages the incident knowledge base: retrieval for the
// analysis pipeline, the operator feedback loop that folds confirmed analyses
// back into the index, and wholesale corpus ingestion.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/incidentd/internal/config"
	"github.com/fyrsmithlabs/incidentd/internal/vectorstore"
)

var (
	// ErrEmptyEntry indicates a save request with no usable content.
	ErrEmptyEntry = errors.New("entry has no content to index")

	// ErrEmptyCorpus indicates a bulk ingest that found zero documents.
	// Reingestion replaces the index wholesale, so an empty corpus must
	// fail loudly rather than silently wipe the knowledge base.
	ErrEmptyCorpus = errors.New("corpus contains no documents")
)

// Service coordinates reads and writes against the vector store. Writes are
// serialized with a mutex so a feedback save and a bulk reingest cannot
// interleave.
type Service struct {
	store  vectorstore.Store
	cfg    config.KnowledgeConfig
	logger *zap.Logger
	now    func() time.Time
	mu     sync.RWMutex
}

// NewService creates a knowledge service over the given store.
func NewService(store vectorstore.Store, cfg config.KnowledgeConfig, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Retrieve returns the contents of the top-k documents most similar to the
// query. k <= 0 falls back to the configured default.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = s.cfg.RetrieveK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results, err := s.store.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("knowledge retrieval failed: %w", err)
	}

	contents := make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Content
	}

	s.logger.Debug("knowledge retrieved",
		zap.Int("requested", k),
		zap.Int("returned", len(contents)),
	)
	return contents, nil
}

// SaveEntry persists an operator-confirmed analysis as a learned document:
// a JSON file on disk plus a live insert into the vector index. The new
// document is retrievable as soon as SaveEntry returns.
func (s *Service) SaveEntry(ctx context.Context, entry Entry) (*SaveResult, error) {
	if entry.isEmpty() {
		return nil, ErrEmptyEntry
	}

	id := newLearnedID()
	createdAt := s.now().UTC()
	content := entry.contentBlock()
	metadata := entry.metadata(createdAt)

	filePath, err := s.writeLearnedFile(id, content, metadata)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.store.AddDocuments(ctx, []vectorstore.Document{{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to index learned entry: %w", err)
	}

	s.logger.Info("knowledge entry saved",
		zap.String("id", id),
		zap.String("file", filePath),
		zap.String("severity", entry.Severity),
	)

	return &SaveResult{ID: id, FilePath: filePath, CreatedAt: createdAt}, nil
}

// BulkIngest rebuilds the index from every corpus JSON file under root.
// Files contain a single document object or an array of them. The existing
// index is replaced only after the corpus parses to at least one document.
func (s *Service) BulkIngest(ctx context.Context, root string) (int, error) {
	docs, err := loadCorpus(root)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyCorpus, root)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return 0, fmt.Errorf("failed to reset index: %w", err)
	}
	if _, err := s.store.AddDocuments(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to index corpus: %w", err)
	}

	s.logger.Info("corpus ingested",
		zap.String("root", root),
		zap.Int("documents", len(docs)),
	)
	return len(docs), nil
}

// Count reports the number of indexed documents.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Count()
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) writeLearnedFile(id, content string, metadata map[string]string) (string, error) {
	dir := s.cfg.LearnedPath
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create learned directory: %w", err)
	}

	doc := learnedDocument{ID: id, Content: content, Metadata: metadata}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode learned entry: %w", err)
	}

	filePath := filepath.Join(dir, id+".json")
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write learned entry: %w", err)
	}
	return filePath, nil
}

// newLearnedID returns a DOC-LEARN-XXXXXXXX identifier with a random
// uppercase hex suffix.
func newLearnedID() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "DOC-LEARN-" + hex[:8]
}

// loadCorpus walks root and parses every .json file into documents.
func loadCorpus(root string) ([]vectorstore.Document, error) {
	var docs []vectorstore.Document

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		parsed, err := parseCorpusFile(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		docs = append(docs, parsed...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func parseCorpusFile(data []byte) ([]vectorstore.Document, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}

	var raw []corpusDocument
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	} else {
		var single corpusDocument
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, err
		}
		raw = []corpusDocument{single}
	}

	var docs []vectorstore.Document
	for _, cd := range raw {
		if strings.TrimSpace(cd.Content) == "" {
			continue
		}
		id := cd.ID
		if id == "" {
			id = uuid.New().String()
		}
		docs = append(docs, vectorstore.Document{
			ID:       id,
			Content:  cd.Content,
			Metadata: cd.Metadata,
		})
	}
	return docs, nil
}

// contentBlock renders the entry as the canonical learned-incident text that
// gets embedded and retrieved. Fields without evidence read "unknown" so the
// block always has the same shape.
func (e Entry) contentBlock() string {
	lines := []string{
		"Learned Incident Entry",
		"Description: " + orUnknown(e.Description),
		"Logs: " + orUnknown(e.Logs),
		"Executive Summary: " + orUnknown(e.ExecutiveSummary),
		"Root Cause: " + orUnknown(e.RootCause),
		"Severity: " + orUnknown(e.Severity),
		"Impacted Services: " + strings.Join(cleanList(e.ImpactedServices), ", "),
		"Indicators Detected: " + strings.Join(cleanList(e.Indicators), ", "),
		"Resolution Steps: " + strings.Join(cleanList(e.ResolutionSteps), " | "),
		"Preventive Actions: " + strings.Join(cleanList(e.PreventiveActions), " | "),
		"Confidence Score: " + confidenceString(e.Confidence),
	}
	if notes := strings.TrimSpace(e.OperatorNotes); notes != "" {
		lines = append(lines, "Operator Notes: "+notes)
	}
	return strings.Join(lines, "\n")
}

func (e Entry) metadata(createdAt time.Time) map[string]string {
	service := strings.Join(cleanList(e.ImpactedServices), ", ")
	if e.Service != "" {
		service = e.Service
	}
	return map[string]string{
		"category":   "learned_incident",
		"source":     "ui_feedback",
		"created_at": createdAt.Format(time.RFC3339),
		"severity":   orUnknown(e.Severity),
		"service":    orUnknown(service),
		"tags":       strings.Join(cleanList(tagsOrIndicators(e)), ","),
	}
}

func tagsOrIndicators(e Entry) []string {
	if len(e.Tags) > 0 {
		return e.Tags
	}
	return e.Indicators
}

// confidenceString echoes the score as supplied (0.9 stays "0.9") and reads
// "unknown" when the analysis carried no score at all.
func confidenceString(score *float64) string {
	if score == nil {
		return "unknown"
	}
	return strconv.FormatFloat(*score, 'g', -1, 64)
}

func orUnknown(s string) string {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return "unknown"
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
