package sanitize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/incidentd/internal/sanitize"
)

func TestTerminology(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercase term",
			input: "observed symptoms include high latency",
			want:  "observed indicators include high latency",
		},
		{
			name:  "capitalized term keeps casing",
			input: "Symptoms: pod restarts",
			want:  "Indicators: pod restarts",
		},
		{
			name:  "multiple occurrences",
			input: "symptoms here, Symptoms there, more symptoms",
			want:  "indicators here, Indicators there, more indicators",
		},
		{
			name:  "no blocked terms",
			input: "database connection pool exhausted",
			want:  "database connection pool exhausted",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitize.Terminology(tt.input))
		})
	}
}

func TestTerminology_Pure(t *testing.T) {
	input := "Symptoms and symptoms"
	first := sanitize.Terminology(input)
	second := sanitize.Terminology(input)
	assert.Equal(t, first, second)
}
