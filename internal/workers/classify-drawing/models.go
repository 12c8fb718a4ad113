// internal/workers/classify-drawing/models.go
package classifydrawing

import "sketch-predictor/internal/models"

type Input struct {
	Image      string `json:"image"`
	TargetWord string `json:"targetWord"`
}

type Output struct {
	Predictions   []models.Prediction `json:"predictions"`
	TopLabel      string              `json:"topLabel"`
	TopConfidence float64             `json:"topConfidence"`
	Source        string              `json:"source"`
	Backend       string              `json:"backend,omitempty"`
	Correct       *bool               `json:"correct,omitempty"`
}
