// Package delivery posts rendered notification documents to the webhook
// destination, retrying transient failures within a bounded exponential
// backoff policy and classifying everything else for the caller.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	pkgerrors "github.com/pkg/errors"

	"github.com/stackwatch/resource-notifier/internal/destination"
	"github.com/stackwatch/resource-notifier/internal/helpers"
	"github.com/stackwatch/resource-notifier/internal/render"
)

// ErrDestinationInvalid reports that the endpoint rejected the webhook
// URL itself (gone or never existed). The caller should force a secret
// refresh and retry delivery exactly once.
var ErrDestinationInvalid = errors.New("webhook destination invalid")

// RejectedError reports a non-transient rejection of the payload. It is
// never retried; a malformed payload will not be fixed by retrying.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("webhook rejected payload: status %d: %s", e.StatusCode, helpers.Truncate(e.Body, 256))
}

// ExhaustedError reports that all delivery attempts failed transiently.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("delivery exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// transientError marks a failure worth retrying within the backoff policy.
type transientError struct {
	error
}

// Option defines a function type used to configure an Engine.
type Option func(*Engine)

// Engine delivers notification documents over HTTP.
type Engine struct {
	logger      *slog.Logger
	client      *http.Client
	attempts    int
	backoffBase time.Duration
	timeout     time.Duration
}

// NewEngine creates a delivery engine with bounded retries.
func NewEngine(opts ...Option) *Engine {
	_inst := &Engine{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.timeout <= 0 {
		_inst.timeout = 5 * time.Second
	}
	if _inst.client == nil {
		_inst.client = &http.Client{Timeout: _inst.timeout}
	}
	if _inst.attempts <= 0 {
		_inst.attempts = 3
	}
	if _inst.backoffBase <= 0 {
		_inst.backoffBase = 500 * time.Millisecond
	}
	return _inst
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHTTPClient sets the HTTP client used for webhook POSTs.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		e.client = client
	}
}

// WithAttempts sets the total attempt budget for transient failures.
func WithAttempts(attempts int) Option {
	return func(e *Engine) {
		e.attempts = attempts
	}
}

// WithBackoffBase sets the initial retry delay.
func WithBackoffBase(base time.Duration) Option {
	return func(e *Engine) {
		e.backoffBase = base
	}
}

// WithTimeout bounds a single webhook round trip. Ignored when a custom
// HTTP client is supplied.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.timeout = timeout
	}
}

// Deliver serializes the document and posts it to the destination,
// retrying transient failures up to the configured attempt budget.
func (e *Engine) Deliver(ctx context.Context, card *render.MessageCard, dest *destination.Destination) error {
	payload, err := json.Marshal(card)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to serialize notification document")
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.backoffBase
	policy.RandomizationFactor = 0

	attempt := 0
	op := func() error {
		attempt++
		err := e.post(ctx, dest.WebhookURL, payload)
		if err == nil {
			return nil
		}
		var transient *transientError
		if errors.As(err, &transient) {
			e.logger.Warn("transient delivery failure",
				slog.Int("attempt", attempt), slog.Any("error", err))
			return err
		}
		return backoff.Permanent(err)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(e.attempts-1)), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		var transient *transientError
		if errors.As(err, &transient) {
			return &ExhaustedError{Attempts: attempt, Last: transient.error}
		}
		return err
	}
	return nil
}

// DeliverOnce issues a single POST with no retries. It backs the
// invalid-destination recovery path, which allows exactly one more
// attempt after a forced secret refresh.
func (e *Engine) DeliverOnce(ctx context.Context, card *render.MessageCard, dest *destination.Destination) error {
	payload, err := json.Marshal(card)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to serialize notification document")
	}
	if err := e.post(ctx, dest.WebhookURL, payload); err != nil {
		var transient *transientError
		if errors.As(err, &transient) {
			return &ExhaustedError{Attempts: 1, Last: transient.error}
		}
		return err
	}
	return nil
}

// post issues one HTTP POST and classifies the response.
func (e *Engine) post(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(err, "failed to build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		// Connection failures and timeouts are transient.
		return &transientError{pkgerrors.Wrap(err, "webhook request failed")}
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrDestinationInvalid
	case resp.StatusCode == http.StatusRequestTimeout ||
		resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode >= 500:
		return &transientError{fmt.Errorf("webhook returned status %d", resp.StatusCode)}
	default:
		return &RejectedError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}
