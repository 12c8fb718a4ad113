// internal/workers/classify-drawing/handler.go
package classifydrawing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sketch-predictor/internal/common/errors"
	"sketch-predictor/internal/common/logger"
	"sketch-predictor/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "classify-drawing"

	// commandTimeout bounds the complete/throw call sent after the prediction,
	// independent of the prediction deadline.
	commandTimeout = 10 * time.Second
)

type Predictor interface {
	Predict(ctx context.Context, rawImage, targetWord string) (*models.PredictionResult, error)
}

type Handler struct {
	config       *Config
	predictor    Predictor
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, predictor Predictor, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		predictor:    predictor,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := parseInput(job.Variables)
	if err != nil {
		h.failJob(client, job, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	output, err := h.execute(ctx, input)
	cancel()
	if err != nil {
		h.failJob(client, job, err)
		return err
	}

	cmdCtx, cancelCmd := context.WithTimeout(context.Background(), commandTimeout)
	defer cancelCmd()
	return h.completeJob(cmdCtx, client, job, output)
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func parseInput(variables string) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	if strings.TrimSpace(input.Image) == "" {
		return nil, errors.NewInvalidInputError("image variable is required")
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.predictor.Predict(ctx, input.Image, input.TargetWord)
	if err != nil {
		return nil, err
	}

	output := &Output{
		Predictions: result.Predictions,
		Source:      string(result.Source),
		Backend:     result.Backend,
	}
	if top, ok := result.Top(); ok {
		output.TopLabel = top.Label
		output.TopConfidence = top.Confidence
		if input.TargetWord != "" {
			correct := strings.EqualFold(top.Label, strings.TrimSpace(input.TargetWord))
			output.Correct = &correct
		}
	}

	h.logger.Info("classification completed", map[string]interface{}{
		"source":   output.Source,
		"topLabel": output.TopLabel,
		"count":    len(output.Predictions),
	})
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to send complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
