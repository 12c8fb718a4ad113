// Package api exposes the prediction core and the learner session over HTTP.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"sketch-predictor/internal/common/errors"
	"sketch-predictor/internal/common/logger"
	"sketch-predictor/internal/common/validation"
	"sketch-predictor/internal/learning/progression"
	"sketch-predictor/internal/models"
	"sketch-predictor/internal/prediction/availability"
	"sketch-predictor/internal/prediction/codec"
	"sketch-predictor/internal/prediction/failover"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Predictor interface {
	Predict(ctx context.Context, rawImage, targetWord string) (*models.PredictionResult, error)
	CheckAvailability(ctx context.Context) bool
	Availability(ctx context.Context) availability.State
	BackendStatus() failover.Status
	ResetToPrimary(ctx context.Context)
}

type Handler struct {
	predictor Predictor
	session   *progression.Session
	log       logger.Logger
	imageSize uint
	maxUpload int64
}

type Options struct {
	ImageSize      uint
	MaxUploadBytes int64
}

func NewHandler(predictor Predictor, session *progression.Session, opts Options, log logger.Logger) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		predictor: predictor,
		session:   session,
		log:       log,
		imageSize: opts.ImageSize,
		maxUpload: opts.MaxUploadBytes,
	}
}

// Routes registers every endpoint behind the CORS wrapper.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /predict", h.Predict)
	mux.HandleFunc("POST /predict/image", h.PredictFromImage)
	mux.HandleFunc("GET /availability", h.Availability)
	mux.HandleFunc("POST /availability/check", h.CheckAvailability)
	mux.HandleFunc("GET /backend", h.Backend)
	mux.HandleFunc("POST /backend/reset", h.ResetBackend)
	if h.session != nil {
		mux.HandleFunc("GET /session", h.Session)
		mux.HandleFunc("POST /session/attempt", h.SessionAttempt)
		mux.HandleFunc("POST /session/next", h.SessionNext)
	}
	return enableCORS(mux)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type predictRequest struct {
	Image      string `json:"image"`
	TargetWord string `json:"targetWord"`
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUpload))
	if err != nil {
		h.writeError(w, errors.NewInvalidInputError("failed to read request body"))
		return
	}
	if err := validation.ValidatePredictRequest(body); err != nil {
		h.writeError(w, errors.NewInvalidInputError(err.Error()))
		return
	}

	var req predictRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, errors.NewInvalidInputError("invalid JSON"))
		return
	}

	h.predict(w, r, req.Image, req.TargetWord)
}

func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.writeError(w, errors.NewInvalidInputError("failed to parse form"))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, errors.NewInvalidInputError("no image file provided, use 'image' as the form field name"))
		return
	}
	defer file.Close()

	dataURI, err := codec.RasterizeReader(file, h.imageSize)
	if err != nil {
		h.writeError(w, errors.NewInvalidInputError("invalid image format, supported: JPEG, PNG"))
		return
	}

	h.predict(w, r, dataURI, r.FormValue("targetWord"))
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request, image, targetWord string) {
	if targetWord == "" {
		targetWord = h.currentWord()
	}

	result, err := h.predictor.Predict(r.Context(), image, targetWord)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Availability reports the advisory flag without touching the network.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"state": h.predictor.Availability(r.Context()).String()})
}

// CheckAvailability probes the current backend and refreshes the flag.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"available": h.predictor.CheckAvailability(r.Context())})
}

func (h *Handler) Backend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.predictor.BackendStatus())
}

func (h *Handler) ResetBackend(w http.ResponseWriter, r *http.Request) {
	h.predictor.ResetToPrimary(r.Context())
	writeJSON(w, http.StatusOK, h.predictor.BackendStatus())
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Current())
}

type attemptRequest struct {
	Predictions []models.Prediction `json:"predictions"`
	Image       string              `json:"image"`
}

type attemptResponse struct {
	Outcome    progression.Outcome      `json:"outcome"`
	Transition *progression.Transition  `json:"transition,omitempty"`
	Position   progression.Position     `json:"position"`
	Result     *models.PredictionResult `json:"result,omitempty"`
}

// SessionAttempt judges a drawing against the current word. The body carries
// either a ranked list or an image to classify first.
func (h *Handler) SessionAttempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUpload)).Decode(&req); err != nil {
		h.writeError(w, errors.NewInvalidInputError("invalid JSON"))
		return
	}

	var resp attemptResponse
	preds := req.Predictions
	if len(preds) == 0 && req.Image != "" {
		result, err := h.predictor.Predict(r.Context(), req.Image, h.currentWord())
		if err != nil {
			h.writeError(w, err)
			return
		}
		resp.Result = result
		preds = result.Predictions
	}

	outcome, transition, err := h.session.Attempt(preds)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	resp.Outcome = outcome
	resp.Transition = transition
	resp.Position = h.session.Current()
	writeJSON(w, http.StatusOK, resp)
}

// SessionNext skips to the next word regardless of the last result.
func (h *Handler) SessionNext(w http.ResponseWriter, r *http.Request) {
	transition, err := h.session.Advance()
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transition)
}

func (h *Handler) currentWord() string {
	if h.session == nil {
		return ""
	}
	return h.session.Current().Word
}

func (h *Handler) writeSessionError(w http.ResponseWriter, err error) {
	if stderrors.Is(err, progression.ErrFinished) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "All pages completed"})
		return
	}
	h.writeError(w, err)
}

// writeError maps the error taxonomy onto status codes and always answers
// with a single human-readable message.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	std := errors.Classify("api", err)

	status := http.StatusInternalServerError
	switch std.Code {
	case errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	case errors.ErrCodeConnectivity, errors.ErrCodeRemoteProtocol, errors.ErrCodeRemoteReported,
		errors.ErrCodeBothEndpointsFailed:
		status = http.StatusBadGateway
	}

	if status >= 500 {
		h.log.Error("Request failed", map[string]interface{}{"code": string(std.Code), "error": err})
	} else {
		h.log.Debug("Rejected request", map[string]interface{}{"code": string(std.Code), "details": std.Details})
	}

	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(std),
		"code":  string(std.Code),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
