package handler

import (
	"context"
	"log/slog"

	"github.com/stackwatch/resource-notifier/internal/controllers/aws"
	"github.com/stackwatch/resource-notifier/internal/delivery"
	"github.com/stackwatch/resource-notifier/internal/destination"
)

// WithLogger sets the logger instance for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithContext sets the context used while building the handler's collaborators.
func WithContext(ctx context.Context) Option {
	return func(h *Handler) {
		h.ctx = ctx
	}
}

// WithSecretName sets the name of the secret holding the webhook URL.
func WithSecretName(name string) Option {
	return func(h *Handler) {
		h.secretName = name
	}
}

// WithSecretBackend selects the secret store backend.
func WithSecretBackend(backend string) Option {
	return func(h *Handler) {
		h.secretBackend = backend
	}
}

// WithArchiveBucket sets the S3 bucket for raw event archival.
func WithArchiveBucket(bucket string) Option {
	return func(h *Handler) {
		h.archiveBucket = bucket
	}
}

// WithAWSController injects a pre-built AWS controller.
func WithAWSController(ctl *aws.Controller) Option {
	return func(h *Handler) {
		h.awsController = ctl
	}
}

// WithResolver injects a pre-built destination resolver.
func WithResolver(resolver *destination.Resolver) Option {
	return func(h *Handler) {
		h.resolver = resolver
	}
}

// WithDeliveryEngine injects a pre-built delivery engine.
func WithDeliveryEngine(engine *delivery.Engine) Option {
	return func(h *Handler) {
		h.engine = engine
	}
}
