package analyzer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectionResponse(t *testing.T) {
	raw := rejectionResponse("Input is too short.")

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &parsed))

	assert.Equal(t, "Insufficient incident details to analyze.", parsed["executive_summary"])
	assert.Equal(t, "unknown", parsed["root_cause"])
	assert.Equal(t, "Low", parsed["severity"])
	assert.Equal(t, 0.0, parsed["confidence_score"])
	assert.Equal(t, "Input is too short.", parsed["input_validation_note"])
	assert.Empty(t, parsed["impacted_services"])
	assert.Empty(t, parsed["indicators_detected"])
	assert.NotEmpty(t, parsed["resolution_steps"])
	assert.NotEmpty(t, parsed["preventive_actions"])
}

func TestParseStructured(t *testing.T) {
	t.Run("valid object", func(t *testing.T) {
		parsed := ParseStructured(`{"severity": "High", "confidence_score": 0.8}`)
		require.NotNil(t, parsed)
		assert.Equal(t, "High", parsed["severity"])
		assert.Equal(t, 0.8, parsed["confidence_score"])
	})

	t.Run("not json", func(t *testing.T) {
		assert.Nil(t, ParseStructured("the model rambled in prose"))
	})

	t.Run("json but not an object", func(t *testing.T) {
		assert.Nil(t, ParseStructured(`["a", "b"]`))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, ParseStructured(""))
	})
}
