// Package remote implements the two-phase submit/stream protocol against one
// classification backend.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sketch-predictor/internal/common/errors"
	"sketch-predictor/internal/common/httpclient"
	"sketch-predictor/internal/common/validation"
	"sketch-predictor/internal/models"
)

const (
	DefaultCallPath = "/gradio_api/call/classify_image_api"
	DefaultTimeout  = 300 * time.Second

	maxErrorBody = 1024
)

type Config struct {
	SubmitPath string
	ResultPath string
	Timeout    time.Duration
}

// Client is stateless between calls; every Classify is one isolated attempt.
// It never retries.
type Client struct {
	http       *httpclient.Client
	submitPath string
	resultPath string
	timeout    time.Duration
}

func NewClient(hc *httpclient.Client, cfg Config) *Client {
	if hc == nil {
		hc = httpclient.NewClient()
	}
	if cfg.SubmitPath == "" {
		cfg.SubmitPath = DefaultCallPath
	}
	if cfg.ResultPath == "" {
		cfg.ResultPath = cfg.SubmitPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		http:       hc,
		submitPath: cfg.SubmitPath,
		resultPath: cfg.ResultPath,
		timeout:    cfg.Timeout,
	}
}

type submitBody struct {
	Data []interface{} `json:"data"`
}

type submitResponse struct {
	EventID string `json:"event_id"`
}

// Classify submits req to endpoint and reads the completion event from the
// result stream. Both phases share one deadline; when it elapses the attempt
// fails with a timeout error. Confidences are returned on the 0-1 scale.
func (c *Client) Classify(ctx context.Context, endpoint models.BackendEndpoint, req models.ClassificationRequest) ([]models.RawPrediction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	handle, err := c.submit(ctx, endpoint, req)
	if err != nil {
		return nil, c.mapErr(ctx, "submit", err)
	}

	raw, err := c.result(ctx, endpoint, handle)
	if err != nil {
		return nil, c.mapErr(ctx, "result", err)
	}
	return Rescale(raw), nil
}

func (c *Client) submit(ctx context.Context, endpoint models.BackendEndpoint, req models.ClassificationRequest) (models.JobHandle, error) {
	body, err := json.Marshal(submitBody{Data: []interface{}{req.Image, req.TopK, req.TargetWord}})
	if err != nil {
		return "", errors.NewInternalError(err)
	}

	httpReq, err := c.http.NewRequest(ctx, http.MethodPost, join(endpoint.BaseURL, c.submitPath), bytes.NewReader(body))
	if err != nil {
		return "", errors.NewInvalidInputError(fmt.Sprintf("bad endpoint %q: %v", endpoint.BaseURL, err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.NewRemoteProtocolError(
			"submit failed",
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncateBody(respBody)),
		)
	}

	if err := validation.ValidateSubmitResponse(respBody); err != nil {
		return "", errors.NewRemoteProtocolError("malformed submit response", err.Error())
	}

	var parsed submitResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", errors.NewRemoteProtocolError("malformed submit response", err.Error())
	}
	return models.JobHandle(parsed.EventID), nil
}

func (c *Client) result(ctx context.Context, endpoint models.BackendEndpoint, handle models.JobHandle) ([]models.RawPrediction, error) {
	target := join(endpoint.BaseURL, c.resultPath) + "/" + url.PathEscape(string(handle))

	httpReq, err := c.http.NewRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errors.NewRemoteProtocolError(
			"result stream failed",
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncateBody(body)),
		)
	}

	return NewStreamDecoder(resp.Body).Decode()
}

// mapErr turns transport failures into the error taxonomy. Once the attempt
// deadline has passed every failure is reported as a timeout, since a
// cancelled read surfaces with transport-specific errors.
func (c *Client) mapErr(ctx context.Context, phase string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.NewTimeoutError(phase, err)
	}
	return errors.Classify(phase, err)
}

// Rescale converts a percentage-scale list (any confidence above 1) to the
// 0-1 scale. Lists already on 0-1 are returned unchanged.
func Rescale(raw []models.RawPrediction) []models.RawPrediction {
	top := 0.0
	for _, r := range raw {
		if r.HasConfidence && r.Confidence > top {
			top = r.Confidence
		}
	}
	if top <= 1 {
		return raw
	}
	for i := range raw {
		if raw[i].HasConfidence {
			raw[i].Confidence /= 100
		}
	}
	return raw
}

func join(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
