package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Envelope schemas for the classification backend and the HTTP surface.
const (
	submitResponseSchema = `{
		"type": "object",
		"required": ["event_id"],
		"properties": {
			"event_id": {"type": "string", "minLength": 1}
		}
	}`

	completionErrorSchema = `{
		"type": "array",
		"minItems": 1,
		"items": [{
			"type": "object",
			"required": ["error"],
			"properties": {"error": {"type": "string"}}
		}]
	}`

	completionSuccessSchema = `{
		"type": "array",
		"minItems": 1,
		"items": [{
			"type": "object",
			"required": ["success", "predictions"],
			"properties": {
				"success": {"enum": [true]},
				"predictions": {"type": "array"}
			}
		}]
	}`

	predictRequestSchema = `{
		"type": "object",
		"required": ["image"],
		"properties": {
			"image": {"type": "string", "minLength": 1},
			"targetWord": {"type": "string", "maxLength": 64}
		}
	}`
)

var (
	submitResponse    = mustSchema(submitResponseSchema)
	completionError   = mustSchema(completionErrorSchema)
	completionSuccess = mustSchema(completionSuccessSchema)
	predictRequest    = mustSchema(predictRequestSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("validation: bad schema: %v", err))
	}
	return s
}

// ValidationError lists every schema violation found in a document.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "schema validation failed: " + strings.Join(e.Violations, "; ")
}

func validate(schema *gojsonschema.Schema, doc []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return &ValidationError{Violations: violations}
}

// ValidateSubmitResponse checks that a submit response carries a job handle.
func ValidateSubmitResponse(body []byte) error {
	return validate(submitResponse, body)
}

// ValidatePredictRequest checks an inbound HTTP predict request body.
func ValidatePredictRequest(body []byte) error {
	return validate(predictRequest, body)
}

// CompletionShape is the recognised form of a completion event payload.
type CompletionShape int

const (
	ShapeUnrecognised CompletionShape = iota
	ShapeError
	ShapeSuccess
)

func (s CompletionShape) String() string {
	switch s {
	case ShapeError:
		return "error"
	case ShapeSuccess:
		return "success"
	default:
		return "unrecognised"
	}
}

// ClassifyCompletion reports which shape a completion payload has. A payload
// that is not JSON at all returns an error.
func ClassifyCompletion(payload []byte) (CompletionShape, error) {
	if err := validate(completionError, payload); err == nil {
		return ShapeError, nil
	} else if _, ok := err.(*ValidationError); !ok {
		return ShapeUnrecognised, err
	}
	if validate(completionSuccess, payload) == nil {
		return ShapeSuccess, nil
	}
	return ShapeUnrecognised, nil
}
