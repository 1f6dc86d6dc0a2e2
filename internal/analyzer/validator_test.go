package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantValid  bool
		wantReason string
	}{
		{
			name:       "too short",
			input:      "db down",
			wantValid:  false,
			wantReason: "Input is too short.",
		},
		{
			name:       "too short after trimming",
			input:      "   short text    ",
			wantValid:  false,
			wantReason: "Input is too short.",
		},
		{
			name:       "too few words",
			input:      "aaaaaaaaaaaaaaaaaaaaaaaaa bb",
			wantValid:  false,
			wantReason: "Input must contain at least 4 words.",
		},
		{
			name:       "no technical signal",
			input:      "the weather today looks really quite nice outside",
			wantValid:  false,
			wantReason: "Input has insufficient technical signal.",
		},
		{
			name:      "keyword match passes",
			input:     "users report the payment service is unavailable",
			wantValid: true,
		},
		{
			name:      "digits alone count as signal",
			input:     "observed a jump from ten to ninety 7 percent",
			wantValid: true,
		},
		{
			name:      "typical incident text",
			input:     "Users experiencing HTTP 503 errors. Logs show database connection timeout.",
			wantValid: true,
		},
		{
			name:      "keyword match is case-insensitive",
			input:     "KAFKA consumer lag growing across all partitions",
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, reason := ValidateInput(tt.input)
			assert.Equal(t, tt.wantValid, valid)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}
