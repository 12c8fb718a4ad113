package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSubmitResponse(t *testing.T) {
	assert.NoError(t, ValidateSubmitResponse([]byte(`{"event_id":"e1"}`)))

	err := ValidateSubmitResponse([]byte(`{"event":"e1"}`))
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.NotEmpty(t, vErr.Violations)

	assert.Error(t, ValidateSubmitResponse([]byte(`{"event_id":""}`)))
	assert.Error(t, ValidateSubmitResponse([]byte(`not json`)))
}

func TestClassifyCompletion(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    CompletionShape
		wantErr bool
	}{
		{
			name:    "success with category",
			payload: `[{"success":true,"predictions":[{"category":"cat","confidence":0.9}]}]`,
			want:    ShapeSuccess,
		},
		{
			name:    "success with empty list",
			payload: `[{"success":true,"predictions":[]}]`,
			want:    ShapeSuccess,
		},
		{
			name:    "success with malformed entries",
			payload: `[{"success":true,"predictions":[{"category":"cat","confidence":0.9},"junk",7]}]`,
			want:    ShapeSuccess,
		},
		{
			name:    "remote error",
			payload: `[{"error":"model crashed"}]`,
			want:    ShapeError,
		},
		{
			name:    "success false",
			payload: `[{"success":false,"predictions":[]}]`,
			want:    ShapeUnrecognised,
		},
		{
			name:    "null error",
			payload: `[{"error":null}]`,
			want:    ShapeUnrecognised,
		},
		{
			name:    "empty array",
			payload: `[]`,
			want:    ShapeUnrecognised,
		},
		{
			name:    "object instead of array",
			payload: `{"success":true,"predictions":[]}`,
			want:    ShapeUnrecognised,
		},
		{
			name:    "not json",
			payload: `[{"success":`,
			want:    ShapeUnrecognised,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyCompletion([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePredictRequest(t *testing.T) {
	assert.NoError(t, ValidatePredictRequest([]byte(`{"image":"data:image/png;base64,AAA","targetWord":"cat"}`)))
	assert.Error(t, ValidatePredictRequest([]byte(`{"targetWord":"cat"}`)))
	assert.Error(t, ValidatePredictRequest([]byte(`{"image":""}`)))
	assert.Error(t, ValidatePredictRequest([]byte(`{"image":42}`)))
}
