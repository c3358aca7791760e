// Package destination resolves the webhook URL from the external secret
// store and caches it for the life of the process. A refresh can be
// forced when delivery rejects the cached destination as invalid.
package destination

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/stackwatch/resource-notifier/internal/controllers/aws"
	"github.com/stackwatch/resource-notifier/internal/helpers"
)

// ErrSecretUnavailable reports that the store has no usable webhook URL
// configured. This is a configuration state, not a transient fault, and
// is not retried.
var ErrSecretUnavailable = errors.New("webhook secret unavailable")

// ErrStoreFailure reports an I/O fault talking to the secret store. The
// caller may retry the whole invocation.
var ErrStoreFailure = errors.New("secret store failure")

// SecretFetcher fetches a named secret from an external store.
type SecretFetcher interface {
	FetchSecret(ctx context.Context, name string) (string, error)
}

// Destination is a resolved webhook endpoint.
type Destination struct {
	WebhookURL string
	FetchedAt  time.Time
}

// secretPayload is the JSON shape of the stored secret.
type secretPayload struct {
	WebhookURL string `json:"webhookUrl"`
}

// Option defines a function type used to configure a Resolver.
type Option func(*Resolver)

// Resolver caches the webhook URL fetched from the secret store. It is
// safe for concurrent use; a refresh race converges to the last writer's
// value, which is idempotent.
type Resolver struct {
	logger     *slog.Logger
	fetcher    SecretFetcher
	secretName string
	ttl        time.Duration
	timeout    time.Duration

	mu     sync.Mutex
	cached *Destination
}

// NewResolver creates a resolver for the named secret.
func NewResolver(fetcher SecretFetcher, secretName string, opts ...Option) *Resolver {
	_inst := &Resolver{fetcher: fetcher, secretName: secretName}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.timeout == 0 {
		_inst.timeout = 3 * time.Second
	}
	return _inst
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithCacheTTL bounds the cached value's lifetime. Zero keeps it for the
// life of the process.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		r.ttl = ttl
	}
}

// WithFetchTimeout bounds a single secret store round trip.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = timeout
	}
}

// Resolve returns the current destination, fetching it from the secret
// store on first use, on expiry, or when forceRefresh is set.
func (r *Resolver) Resolve(ctx context.Context, forceRefresh bool) (*Destination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !forceRefresh && r.cached != nil && !r.expired() {
		return r.cached, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Debug("fetching webhook destination...", slog.String("secret", r.secretName), slog.Bool("force", forceRefresh))
	raw, err := r.fetcher.FetchSecret(fetchCtx, r.secretName)
	if err != nil {
		if errors.Is(err, aws.ErrSecretNotFound) {
			return nil, ErrSecretUnavailable
		}
		return nil, pkgerrors.Wrapf(ErrStoreFailure, "fetching %s: %v", r.secretName, err)
	}

	var payload secretPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		// A malformed secret needs an operator fix; retrying cannot help.
		return nil, pkgerrors.Wrapf(ErrSecretUnavailable, "malformed secret %s: %v", r.secretName, err)
	}
	if payload.WebhookURL == "" {
		return nil, ErrSecretUnavailable
	}

	r.cached = &Destination{WebhookURL: payload.WebhookURL, FetchedAt: time.Now()}
	return r.cached, nil
}

func (r *Resolver) expired() bool {
	return r.ttl > 0 && time.Since(r.cached.FetchedAt) > r.ttl
}
