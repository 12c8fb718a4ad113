// Package normalize enforces the ranked-list contract every producer's output
// goes through before it leaves the core.
package normalize

import (
	"sort"

	"sketch-predictor/internal/common/errors"
	"sketch-predictor/internal/models"
)

// UnknownLabel is the sentinel for entries with no usable label. It is always
// filtered out.
const UnknownLabel = "Unknown"

// Normalize resolves labels and confidences, drops unlabelled entries, sorts
// by confidence descending and truncates to topK. topK <= 0 keeps everything.
// An empty result is an ErrNoValidPredictions, never an empty list.
func Normalize(raw []models.RawPrediction, topK int) ([]models.Prediction, error) {
	out := make([]models.Prediction, 0, len(raw))
	for _, r := range raw {
		label, _ := r.ResolvedLabel()
		if label == "" {
			label = UnknownLabel
		}
		if label == UnknownLabel {
			continue
		}

		confidence := 0.0
		if r.HasConfidence {
			confidence = r.Confidence
		}
		out = append(out, models.Prediction{Label: label, Confidence: confidence})
	}

	if len(out) == 0 {
		return nil, errors.NewNoValidPredictionsError(len(raw))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// FromPredictions lifts canonical predictions back into raw form so that
// already-shaped lists can pass through Normalize.
func FromPredictions(preds []models.Prediction) []models.RawPrediction {
	raw := make([]models.RawPrediction, len(preds))
	for i, p := range preds {
		raw[i] = models.RawFromPrediction(p)
	}
	return raw
}
