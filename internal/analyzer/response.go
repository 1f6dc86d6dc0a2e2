package analyzer

import "encoding/json"

// rejection is the canned structured response returned without a model call
// when input validation fails.
type rejection struct {
	ExecutiveSummary    string   `json:"executive_summary"`
	RootCause           string   `json:"root_cause"`
	ImpactedServices    []string `json:"impacted_services"`
	IndicatorsDetected  []string `json:"indicators_detected"`
	Severity            string   `json:"severity"`
	ResolutionSteps     []string `json:"resolution_steps"`
	PreventiveActions   []string `json:"preventive_actions"`
	ConfidenceScore     float64  `json:"confidence_score"`
	InputValidationNote string   `json:"input_validation_note"`
}

// rejectionResponse builds the fixed low-confidence JSON returned for
// unanalyzable input.
func rejectionResponse(reason string) string {
	payload := rejection{
		ExecutiveSummary:   "Insufficient incident details to analyze.",
		RootCause:          "unknown",
		ImpactedServices:   []string{},
		IndicatorsDetected: []string{},
		Severity:           "Low",
		ResolutionSteps: []string{
			"Provide clear incident details (error type, service, timeframe, and observed indicators).",
		},
		PreventiveActions: []string{
			"Use a structured incident template with symptoms, logs, metrics, and impact.",
		},
		ConfidenceScore:     0.0,
		InputValidationNote: reason,
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

// ParseStructured attempts to decode raw model output as a JSON object.
// Returns nil when the output is not a JSON object; the caller still has the
// raw text in that case.
func ParseStructured(raw string) map[string]any {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}
	return parsed
}
