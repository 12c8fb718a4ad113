package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawPrediction_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantLabel     string
		wantField     LabelField
		wantConf      float64
		hasConfidence bool
	}{
		{
			name:          "category wins over label",
			input:         `{"category":"cat","label":"dog","confidence":0.8}`,
			wantLabel:     "cat",
			wantField:     LabelFieldCategory,
			wantConf:      0.8,
			hasConfidence: true,
		},
		{
			name:          "empty category falls through to label",
			input:         `{"category":"","label":"dog","confidence":0.5}`,
			wantLabel:     "dog",
			wantField:     LabelFieldLabel,
			wantConf:      0.5,
			hasConfidence: true,
		},
		{
			name:      "non-numeric confidence is absent",
			input:     `{"label":"sun","confidence":"high"}`,
			wantLabel: "sun",
			wantField: LabelFieldLabel,
		},
		{
			name:  "string entry",
			input: `"junk"`,
		},
		{
			name:  "number entry",
			input: `42`,
		},
		{
			name:  "array entry",
			input: `[1,2]`,
		},
		{
			name:  "null entry",
			input: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r RawPrediction
			require.NoError(t, json.Unmarshal([]byte(tt.input), &r))

			label, field := r.ResolvedLabel()
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.hasConfidence, r.HasConfidence)
			assert.Equal(t, tt.wantConf, r.Confidence)
		})
	}
}

func TestRawPrediction_MixedList(t *testing.T) {
	var list []RawPrediction
	require.NoError(t, json.Unmarshal([]byte(`[{"category":"cat","confidence":0.9},"junk",{"label":"dog"}]`), &list))
	require.Len(t, list, 3)

	label, _ := list[0].ResolvedLabel()
	assert.Equal(t, "cat", label)
	assert.Equal(t, RawPrediction{}, list[1])
	label, _ = list[2].ResolvedLabel()
	assert.Equal(t, "dog", label)
}

func TestNewClassificationRequest_LowercasesTarget(t *testing.T) {
	req := NewClassificationRequest("AAA", "  Cat ", 5)
	assert.Equal(t, ClassificationRequest{Image: "AAA", TopK: 5, TargetWord: "cat"}, req)
}

func TestPredictionResult_Top(t *testing.T) {
	var nilResult *PredictionResult
	_, ok := nilResult.Top()
	assert.False(t, ok)

	top, ok := (&PredictionResult{Predictions: []Prediction{{Label: "cat", Confidence: 0.9}}}).Top()
	require.True(t, ok)
	assert.Equal(t, "cat", top.Label)
}
