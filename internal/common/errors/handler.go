// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler turns prediction errors into Camunda job outcomes.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError throws a BPMN error carrying the error code so the process
// model can branch on it. Prediction errors are already past failover and
// substitution, so the job is never retried.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := Classify("job", err)

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"errorKind":        string(KindOf(stdErr)),
		"details":          stdErr.Details,
		"workflowInstance": job.ProcessInstanceKey,
	})

	vars := ToJobVariables(stdErr)
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(string(stdErr.Code)).
		ErrorMessage(UserMessage(stdErr))

	if varsJSON, marshalErr := json.Marshal(vars); marshalErr == nil {
		if withVars, varsErr := cmd.VariablesFromString(string(varsJSON)); varsErr == nil {
			_, _ = withVars.Send(ctx)
			return
		}
	}
	_, _ = cmd.Send(ctx)
}

// ToJobVariables returns process variables describing the error.
func ToJobVariables(e *StandardError) map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    string(e.Code),
		"errorKind":    string(KindOf(e)),
		"errorMessage": UserMessage(e),
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.Metadata {
		vars[k] = v
	}
	return vars
}
