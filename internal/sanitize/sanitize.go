// Package sanitize applies the operational terminology filter.
//
// Retrieved context and incident text pass through this filter before prompt
// rendering so that generated output stays within operational vocabulary.
// The substitution table is intentionally narrow: it canonicalizes
// clinical-sounding terms to their operational synonyms rather than
// attempting general content moderation.
package sanitize

import "strings"

// replacements maps blocked terms to their operational synonyms.
// Both cased forms are listed so headings survive with their casing intact.
var replacements = [][2]string{
	{"symptoms", "indicators"},
	{"Symptoms", "Indicators"},
}

// Terminology replaces every blocked term in text with its operational
// synonym. The function is pure: same input, same output.
func Terminology(text string) string {
	for _, r := range replacements {
		text = strings.ReplaceAll(text, r[0], r[1])
	}
	return text
}
