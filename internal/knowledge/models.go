package knowledge

import (
	"fmt"
	"strings"
	"time"
)

// Entry is an operator-confirmed incident analysis submitted back into the
// knowledge base.
type Entry struct {
	Description       string   `json:"description"`
	Logs              string   `json:"logs"`
	ExecutiveSummary  string   `json:"executive_summary"`
	RootCause         string   `json:"root_cause"`
	Severity          string   `json:"severity"`
	ImpactedServices  []string `json:"impacted_services"`
	Indicators        []string `json:"indicators_detected"`
	ResolutionSteps   []string `json:"resolution_steps"`
	PreventiveActions []string `json:"preventive_actions"`
	Confidence        *float64 `json:"confidence_score,omitempty"`
	OperatorNotes     string   `json:"operator_notes,omitempty"`
	Service           string   `json:"service,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

// isEmpty reports whether the entry carries no usable signal at all:
// no free text and nothing extracted from the structured analysis.
func (e Entry) isEmpty() bool {
	for _, s := range []string{e.Description, e.Logs, e.ExecutiveSummary, e.RootCause, e.Severity} {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	if e.Confidence != nil {
		return false
	}
	return len(e.ImpactedServices)+len(e.Indicators)+len(e.ResolutionSteps)+len(e.PreventiveActions) == 0
}

// learnedDocument is the JSON shape persisted per saved entry.
type learnedDocument struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// corpusDocument is one document in a bulk-ingest corpus file. Corpus files
// contain either a single document object or an array of them.
type corpusDocument struct {
	ID       string            `json:"id,omitempty"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EntryFromParsed builds an Entry from the free-form structured analysis a
// client sends back with its feedback. Unknown or mistyped fields are
// dropped rather than rejected.
func EntryFromParsed(description, logLine, notes string, parsed map[string]any) Entry {
	entry := Entry{
		Description:   description,
		Logs:          logLine,
		OperatorNotes: notes,
	}
	if parsed == nil {
		return entry
	}

	entry.ExecutiveSummary = stringField(parsed, "executive_summary")
	entry.RootCause = stringField(parsed, "root_cause")
	entry.Severity = stringField(parsed, "severity")
	entry.ImpactedServices = listField(parsed, "impacted_services")
	entry.Indicators = listField(parsed, "indicators_detected")
	entry.ResolutionSteps = listField(parsed, "resolution_steps")
	entry.PreventiveActions = listField(parsed, "preventive_actions")
	if score, ok := parsed["confidence_score"].(float64); ok {
		entry.Confidence = &score
	}
	return entry
}

func stringField(parsed map[string]any, key string) string {
	if s, ok := parsed[key].(string); ok {
		return s
	}
	return ""
}

func listField(parsed map[string]any, key string) []string {
	raw, ok := parsed[key].([]any)
	if !ok {
		return nil
	}
	var items []string
	for _, item := range raw {
		text := strings.TrimSpace(fmt.Sprint(item))
		if text != "" {
			items = append(items, text)
		}
	}
	return items
}

// SaveResult reports where a saved entry landed.
type SaveResult struct {
	ID        string
	FilePath  string
	CreatedAt time.Time
}
