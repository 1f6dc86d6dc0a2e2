package analyzer

import (
	"regexp"
	"strings"
)

var (
	wordPattern  = regexp.MustCompile(`\w+`)
	digitPattern = regexp.MustCompile(`\d`)
)

// technicalKeywords marks input as operationally meaningful. A match on any
// keyword (or any digit in the text) is enough to pass the signal check.
var technicalKeywords = []string{
	"error", "errors", "incident", "failure", "failed", "timeout", "latency",
	"cpu", "memory", "oom", "pod", "service", "api", "http", "5xx", "4xx",
	"database", "db", "crash", "restart", "unavailable", "exception", "alert",
	"degraded", "slow", "spike", "connection", "kafka", "queue",
}

// ValidateInput checks whether text carries enough signal to analyze. It
// returns false with a human-readable reason when the input is too short,
// too few words, or has no technical signal.
func ValidateInput(text string) (bool, string) {
	cleaned := strings.TrimSpace(text)
	if len(cleaned) < 20 {
		return false, "Input is too short."
	}
	if len(wordPattern.FindAllString(cleaned, -1)) < 4 {
		return false, "Input must contain at least 4 words."
	}

	lowered := strings.ToLower(cleaned)
	hasKeyword := false
	for _, keyword := range technicalKeywords {
		if strings.Contains(lowered, keyword) {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword && !digitPattern.MatchString(cleaned) {
		return false, "Input has insufficient technical signal."
	}
	return true, ""
}
