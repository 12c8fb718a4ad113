// Package errors provides the standardized error taxonomy for the prediction path.
package errors

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeTimeout             ErrorCode = "PREDICTION_TIMEOUT"
	ErrCodeConnectivity        ErrorCode = "BACKEND_UNREACHABLE"
	ErrCodeRemoteProtocol      ErrorCode = "REMOTE_PROTOCOL_ERROR"
	ErrCodeRemoteReported      ErrorCode = "REMOTE_REPORTED_ERROR"
	ErrCodeNoValidPredictions  ErrorCode = "NO_VALID_PREDICTIONS"
	ErrCodeBothEndpointsFailed ErrorCode = "BOTH_ENDPOINTS_FAILED"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
//
// Kind is only set on composed errors (BOTH_ENDPOINTS_FAILED) and holds the
// classification of the last underlying failure.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Kind      ErrorCode              `json:"kind,omitempty"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Err       error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Err
}

// Is matches another StandardError by code, so errors.Is(err, ErrTimeout) works
// on wrapped values.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrTimeout             = &StandardError{Code: ErrCodeTimeout}
	ErrConnectivity        = &StandardError{Code: ErrCodeConnectivity}
	ErrRemoteProtocol      = &StandardError{Code: ErrCodeRemoteProtocol}
	ErrRemoteReported      = &StandardError{Code: ErrCodeRemoteReported}
	ErrNoValidPredictions  = &StandardError{Code: ErrCodeNoValidPredictions}
	ErrBothEndpointsFailed = &StandardError{Code: ErrCodeBothEndpointsFailed}
	ErrInvalidInput        = &StandardError{Code: ErrCodeInvalidInput}
)

// ==========================
// 2. Error Constructors
// ==========================

// NewTimeoutError creates a retryable timeout error for one remote phase.
func NewTimeoutError(phase string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   "Request timeout",
		Details:   fmt.Sprintf("phase: %s, error: %s", phase, errString(err)),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewConnectivityError creates a retryable network-level error.
func NewConnectivityError(phase string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConnectivity,
		Message:   "Unable to reach prediction backend",
		Details:   fmt.Sprintf("phase: %s, error: %s", phase, errString(err)),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewRemoteProtocolError creates an error for malformed or unexpected responses.
func NewRemoteProtocolError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteProtocol,
		Message:   message,
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteReportedError wraps an error payload sent back by the backend.
func NewRemoteReportedError(remoteMessage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteReported,
		Message:   "Remote reported error",
		Details:   remoteMessage,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoValidPredictionsError is raised when normalization filters out every entry.
func NewNoValidPredictionsError(received int) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoValidPredictions,
		Message:   "No valid predictions",
		Details:   fmt.Sprintf("received %d entries, none with a usable label", received),
		Retryable: true,
		Metadata:  map[string]interface{}{"received": received},
		Timestamp: time.Now().UTC(),
	}
}

// NewBothEndpointsFailedError composes the primary and fallback failures. The
// kind follows the fallback failure.
func NewBothEndpointsFailedError(primaryErr, fallbackErr error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBothEndpointsFailed,
		Kind:      KindOf(fallbackErr),
		Message:   "Prediction failed on both endpoints",
		Details:   fmt.Sprintf("primary: %s; fallback: %s", errString(primaryErr), errString(fallbackErr)),
		Retryable: true,
		Metadata: map[string]interface{}{
			"primaryError":  errString(primaryErr),
			"fallbackError": errString(fallbackErr),
		},
		Timestamp: time.Now().UTC(),
		Err:       fallbackErr,
	}
}

// NewInvalidInputError flags caller misuse.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps anything that fits no other code.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// ==========================
// 3. Classification
// ==========================

// Classify maps any error onto the taxonomy. Existing StandardErrors pass
// through untouched.
func Classify(phase string, err error) *StandardError {
	if err == nil {
		return nil
	}

	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(phase, err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(phase, err)
	}

	var (
		urlErr  *url.Error
		opErr   *net.OpError
		dnsErr  *net.DNSError
		certErr *tls.CertificateVerificationError
	)
	switch {
	case stderrors.As(err, &dnsErr),
		stderrors.As(err, &opErr),
		stderrors.As(err, &certErr),
		stderrors.As(err, &urlErr):
		return NewConnectivityError(phase, err)
	}

	return NewInternalError(err)
}

// KindOf returns the effective classification of err. For composed errors it
// is the kind of the last underlying failure.
func KindOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if !stderrors.As(err, &stdErr) {
		return Classify("", err).Code
	}
	if stdErr.Code == ErrCodeBothEndpointsFailed && stdErr.Kind != "" {
		return stdErr.Kind
	}
	return stdErr.Code
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// UserMessage renders err as the single human-readable string shown to users.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case ErrCodeTimeout:
		return "Request timeout - please try again"
	case ErrCodeConnectivity:
		return "Unable to connect to prediction service. Please check your internet connection."
	case ErrCodeRemoteProtocol:
		return "Invalid response format from prediction service"
	case ErrCodeRemoteReported:
		return "Prediction service reported an error - please try again"
	case ErrCodeNoValidPredictions:
		return "No valid predictions received - try drawing again"
	case ErrCodeInvalidInput:
		return "Invalid drawing - please draw something and try again"
	default:
		return "Prediction failed - please try again"
	}
}

func errString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
