package enrichment

import (
	"fmt"
	"strings"
)

// ContextBlock renders search results as a labeled plain-text block suitable
// for inclusion in a model prompt. Returns "" when there are no results.
func ContextBlock(results []Result) string {
	if len(results) == 0 {
		return ""
	}

	lines := make([]string, 0, len(results)+1)
	lines = append(lines, "External Context:")
	for i, r := range results {
		lines = append(lines, fmt.Sprintf(
			"[StackOverflow %d] Title: %s; Answered: %t; Score: %d; Tags: %s; Link: %s",
			i+1, r.Title, r.IsAnswered, r.Score, strings.Join(r.Tags, ", "), r.Link,
		))
	}
	return strings.Join(lines, "\n")
}
