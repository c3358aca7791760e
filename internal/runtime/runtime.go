// Package runtime adapts the notification handler to its execution
// environments: an AWS Lambda invoked with EventBridge events, and a
// plain HTTP service for standalone or local runs.
package runtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stackwatch/resource-notifier/internal/handler"
	"github.com/stackwatch/resource-notifier/internal/helpers"
	"github.com/stackwatch/resource-notifier/internal/models"
)

// Option defines a function type used to configure a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithInvocationTimeout bounds one whole invocation; an overrun surfaces
// to the routing layer as a retryable failure.
func WithInvocationTimeout(timeout time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = timeout
	}
}

// Runtime wraps a handler with environment adapters.
type Runtime struct {
	*handler.Handler
	logger  *slog.Logger
	timeout time.Duration
}

// NewRuntime creates a new runtime instance.
func NewRuntime(hdl *handler.Handler, opts ...Option) *Runtime {
	_inst := &Runtime{Handler: hdl}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.timeout == 0 {
		_inst.timeout = 30 * time.Second
	}
	return _inst
}

// LambdaForEvent is the Lambda handler for EventBridge invocations. A
// retryable failure is returned as an error so the routing layer's own
// retry policy re-invokes; everything else acknowledges the event.
func (r *Runtime) LambdaForEvent(ctx context.Context, evt models.Event) (models.Result, error) {
	r.logger.Info("received event", slog.String("id", evt.ID), slog.String("detailType", evt.DetailType))

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.Handler.Process(ctx, &evt)
	r.logger.Info("handled event", slog.Any("result", result), slog.Any("error", err))
	if result.Retryable() {
		return *result, err
	}
	return *result, nil
}

// ServeHTTP is the HTTP handler for the runtime.
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.logger.Debug("rejecting HTTP request...", slog.Any("requestor", req.RemoteAddr), "reason", "method not allowed", slog.Any("method", req.Method))
		helpers.RespondHTTP(resp, http.StatusMethodNotAllowed, nil, nil)
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		r.logger.Error("failed to read request body", slog.Any("error", err))
		helpers.RespondHTTP(resp, http.StatusInternalServerError, nil, err)
		return
	}

	var evt models.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		r.logger.Warn("failed to decode event payload", slog.Any("error", err))
		helpers.RespondHTTP(resp, http.StatusUnprocessableEntity, nil, err)
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), r.timeout)
	defer cancel()

	result, err := r.Handler.Process(ctx, &evt)
	helpers.RespondHTTP(resp, statusFor(result), result, err)
}

// statusFor maps terminal outcomes onto HTTP status codes for service mode.
func statusFor(result *models.Result) int {
	switch result.Outcome {
	case models.OutcomeDelivered:
		return http.StatusOK
	case models.OutcomeIgnored:
		return http.StatusAccepted
	case models.OutcomeFailedRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
