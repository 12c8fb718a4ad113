// internal/models/prediction.go
package models

import (
	"encoding/json"
	"strings"
)

// Prediction is one ranked guess for a drawing. Confidence is on the 0-1 scale.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ClassificationRequest is built per user action and never persisted.
type ClassificationRequest struct {
	Image      string `json:"image"`
	TopK       int    `json:"topK"`
	TargetWord string `json:"targetWord,omitempty"`
}

// NewClassificationRequest lowercases the target word hint.
func NewClassificationRequest(payload, targetWord string, topK int) ClassificationRequest {
	return ClassificationRequest{
		Image:      payload,
		TopK:       topK,
		TargetWord: strings.ToLower(strings.TrimSpace(targetWord)),
	}
}

// BackendEndpoint identifies one remote classification service instance.
type BackendEndpoint struct {
	Name       string `json:"name"`
	BaseURL    string `json:"baseUrl"`
	IsFallback bool   `json:"isFallback"`
}

// JobHandle is the opaque id returned by a submit call. It is only valid for
// the attempt that produced it.
type JobHandle string

// LabelField records which field a raw prediction carried its label in.
type LabelField int

const (
	LabelFieldNone LabelField = iota
	LabelFieldCategory
	LabelFieldLabel
)

// RawPrediction is a prediction entry as the backend sent it. Backends have
// used both "category" and "label" for the class name, and the confidence may
// be absent or not a number. Label resolution order is category, then label;
// empty strings count as absent.
type RawPrediction struct {
	Category      string
	Label         string
	Confidence    float64
	HasCategory   bool
	HasLabel      bool
	HasConfidence bool
}

// ResolvedLabel returns the label and the field it came from.
func (r RawPrediction) ResolvedLabel() (string, LabelField) {
	if r.HasCategory && r.Category != "" {
		return r.Category, LabelFieldCategory
	}
	if r.HasLabel && r.Label != "" {
		return r.Label, LabelFieldLabel
	}
	return "", LabelFieldNone
}

// UnmarshalJSON records which known fields held values of the expected type.
// Fields of the wrong type are treated as absent, and an entry that is not an
// object at all decodes as an empty prediction so the normalizer can drop it
// without losing its siblings.
func (r *RawPrediction) UnmarshalJSON(data []byte) error {
	*r = RawPrediction{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	if raw, ok := fields["category"]; ok {
		r.HasCategory = json.Unmarshal(raw, &r.Category) == nil
	}
	if raw, ok := fields["label"]; ok {
		r.HasLabel = json.Unmarshal(raw, &r.Label) == nil
	}
	if raw, ok := fields["confidence"]; ok {
		r.HasConfidence = json.Unmarshal(raw, &r.Confidence) == nil
		if !r.HasConfidence {
			r.Confidence = 0
		}
	}
	return nil
}

// MarshalJSON writes back only the fields that were present.
func (r RawPrediction) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 3)
	if r.HasCategory {
		out["category"] = r.Category
	}
	if r.HasLabel {
		out["label"] = r.Label
	}
	if r.HasConfidence {
		out["confidence"] = r.Confidence
	}
	return json.Marshal(out)
}

// RawFromPrediction wraps an already canonical prediction.
func RawFromPrediction(p Prediction) RawPrediction {
	return RawPrediction{
		Label:         p.Label,
		Confidence:    p.Confidence,
		HasLabel:      true,
		HasConfidence: true,
	}
}

// PredictionSource says which producer a ranked list came from.
type PredictionSource string

const (
	SourceRemote     PredictionSource = "remote"
	SourceSubstitute PredictionSource = "substitute"
)

// PredictionResult is the orchestrator's output.
type PredictionResult struct {
	Predictions []Prediction     `json:"predictions"`
	Source      PredictionSource `json:"source"`
	Backend     string           `json:"backend,omitempty"`
}

// Top returns the highest ranked prediction, if any.
func (r *PredictionResult) Top() (Prediction, bool) {
	if r == nil || len(r.Predictions) == 0 {
		return Prediction{}, false
	}
	return r.Predictions[0], true
}
