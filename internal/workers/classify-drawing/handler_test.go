// internal/workers/classify-drawing/handler_test.go
package classifydrawing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sketch-predictor/internal/common/config"
	"sketch-predictor/internal/common/errors"
	"sketch-predictor/internal/common/httpclient"
	"sketch-predictor/internal/common/logger"
	"sketch-predictor/internal/models"
	"sketch-predictor/internal/prediction/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(ctx context.Context, image, target string) (*models.PredictionResult, error) {
	args := m.Called(ctx, image, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PredictionResult), args.Error(1)
}

func createTestConfig() *Config {
	return &Config{Timeout: 3 * time.Second, MaxJobsActive: 1}
}

func TestHandler_Execute_Success(t *testing.T) {
	predictor := new(MockPredictor)
	predictor.On("Predict", mock.Anything, "data:image/png;base64,AAA", "Cat").Return(&models.PredictionResult{
		Predictions: []models.Prediction{{Label: "cat", Confidence: 0.9}, {Label: "dog", Confidence: 0.2}},
		Source:      models.SourceRemote,
		Backend:     "primary",
	}, nil)
	h := NewHandler(createTestConfig(), predictor, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Image: "data:image/png;base64,AAA", TargetWord: "Cat"})
	require.NoError(t, err)
	assert.Equal(t, "cat", out.TopLabel)
	assert.Equal(t, 0.9, out.TopConfidence)
	assert.Equal(t, "remote", out.Source)
	assert.Equal(t, "primary", out.Backend)
	assert.Len(t, out.Predictions, 2)
	require.NotNil(t, out.Correct)
	assert.True(t, *out.Correct)
	predictor.AssertExpectations(t)
}

func TestHandler_Execute_SubstituteWithoutTarget(t *testing.T) {
	predictor := new(MockPredictor)
	predictor.On("Predict", mock.Anything, "AAA", "").Return(&models.PredictionResult{
		Predictions: []models.Prediction{{Label: "dog", Confidence: 0.7}},
		Source:      models.SourceSubstitute,
	}, nil)
	h := NewHandler(createTestConfig(), predictor, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{Image: "AAA"})
	require.NoError(t, err)
	assert.Equal(t, "substitute", out.Source)
	assert.Nil(t, out.Correct)
}

func TestHandler_Execute_Error(t *testing.T) {
	predictor := new(MockPredictor)
	predictor.On("Predict", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.NewInvalidInputError("empty image payload"))
	h := NewHandler(createTestConfig(), predictor, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{Image: "data:image/png;base64,"})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestParseInput(t *testing.T) {
	in, err := parseInput(`{"image":"AAA","targetWord":"sun"}`)
	require.NoError(t, err)
	assert.Equal(t, &Input{Image: "AAA", TargetWord: "sun"}, in)

	for _, vars := range []string{`{`, `{}`, `{"image":"  "}`, `{"image":5}`} {
		_, err := parseInput(vars)
		assert.ErrorIs(t, err, errors.ErrInvalidInput, vars)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := config.Defaults()
	require.NoError(t, err)

	c := LoadConfig(cfg)
	assert.Equal(t, cfg.Camunda.MaxJobsActive, c.MaxJobsActive)
	assert.Equal(t, time.Duration(cfg.Camunda.Timeout)*time.Millisecond, c.Timeout)
	assert.Greater(t, c.JobTimeout, c.Timeout)

	w := c.Worker()
	assert.Equal(t, TaskType, w.TaskType)
	assert.Equal(t, cfg.Camunda.WorkerName, w.Name)
	assert.Equal(t, c.JobTimeout, w.JobTimeout)
	assert.Equal(t, []string{"image", "targetWord"}, w.Variables)
}

// hangingSpace accepts submits and never answers until the client gives up.
func hangingSpace(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestHandler_Execute_SubstituteSurvivesJobDeadline(t *testing.T) {
	cfg, err := config.Defaults()
	require.NoError(t, err)
	cfg.Backends.Primary.URL = hangingSpace(t)
	cfg.Backends.Fallback.URL = hangingSpace(t)
	cfg.Prediction.Timeout = 150
	cfg.Prediction.SubstituteDelay = 300

	predictor := orchestrator.NewFromConfig(cfg, httpclient.NewClient(), nil, nil, nil)
	wcfg := &Config{Timeout: 400 * time.Millisecond, MaxJobsActive: 1}
	h := NewHandler(wcfg, predictor, logger.NewTestLogger(t))

	// Same deadline Handle puts on a job; it runs out inside the substitute delay.
	ctx, cancel := context.WithTimeout(context.Background(), wcfg.Timeout)
	defer cancel()

	out, err := h.Execute(ctx, &Input{Image: "data:image/png;base64,iVBORw0KGgo=", TargetWord: "cat"})
	require.NoError(t, err)
	assert.Equal(t, string(models.SourceSubstitute), out.Source)
	assert.Len(t, out.Predictions, 5)
	assert.NotEmpty(t, out.TopLabel)
	require.NotNil(t, out.Correct)
}
