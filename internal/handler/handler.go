// Package handler implements the invocation entry point: one audit event
// in, one terminal result out. The pipeline runs
// Received -> Routed -> {Ignored | Extracted} -> Rendered -> Delivered | Failed
// and holds no state across invocations beyond the destination cache.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	pkgerrors "github.com/pkg/errors"

	"github.com/stackwatch/resource-notifier/internal/config"
	"github.com/stackwatch/resource-notifier/internal/controllers/aws"
	"github.com/stackwatch/resource-notifier/internal/delivery"
	"github.com/stackwatch/resource-notifier/internal/destination"
	"github.com/stackwatch/resource-notifier/internal/extract"
	"github.com/stackwatch/resource-notifier/internal/helpers"
	"github.com/stackwatch/resource-notifier/internal/models"
	"github.com/stackwatch/resource-notifier/internal/registry"
	"github.com/stackwatch/resource-notifier/internal/render"
)

// Option defines a function type used to configure a Handler.
type Option func(*Handler)

// Handler orchestrates the notification pipeline for single events.
type Handler struct {
	ctx    context.Context
	logger *slog.Logger

	awsController *aws.Controller
	resolver      *destination.Resolver
	engine        *delivery.Engine

	secretName    string
	secretBackend string
	archiveBucket string
}

// NewHandler creates a notification handler. Collaborators not supplied
// via options are built from the package configuration.
func NewHandler(options ...Option) (*Handler, error) {
	_inst := &Handler{}
	for _, opt := range options {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.ctx == nil {
		_inst.ctx = context.Background()
	}
	if _inst.secretName == "" {
		_inst.secretName = config.Webhook.SecretName
	}
	if _inst.secretBackend == "" {
		_inst.secretBackend = config.Webhook.Backend
	}

	if _inst.resolver == nil {
		if _inst.awsController == nil {
			awsCtl, err := aws.NewController(
				aws.WithLogger(_inst.logger.With("component", "aws-controller")),
				aws.WithContext(_inst.ctx),
				aws.WithSecretBackend(_inst.secretBackend))
			if err != nil {
				return nil, pkgerrors.Wrap(err, "failed to create AWS controller")
			}
			_inst.awsController = awsCtl
		}
		_inst.resolver = destination.NewResolver(_inst.awsController, _inst.secretName,
			destination.WithLogger(_inst.logger.With("component", "destination-resolver")),
			destination.WithCacheTTL(config.Webhook.CacheTTL),
			destination.WithFetchTimeout(config.Webhook.FetchTimeout))
	}
	if _inst.engine == nil {
		_inst.engine = delivery.NewEngine(
			delivery.WithLogger(_inst.logger.With("component", "delivery-engine")),
			delivery.WithAttempts(config.Delivery.Attempts),
			delivery.WithBackoffBase(config.Delivery.BackoffBase),
			delivery.WithTimeout(config.Delivery.Timeout))
	}

	return _inst, nil
}

// Process runs one event through the pipeline and returns its terminal
// result. The returned result is always non-nil.
func (h *Handler) Process(ctx context.Context, evt *models.Event) (*models.Result, error) {
	logger := h.logger

	source, name := evt.EventSource(), evt.EventName()
	if source == "" || name == "" {
		// A misrouted non-CloudTrail event is outside the supported set,
		// not a fault worth alarming on.
		logger.Warn("not a CloudTrail event, ignoring", slog.String("detailType", evt.DetailType))
		return &models.Result{Outcome: models.OutcomeIgnored}, nil
	}
	logger = logger.With(slog.String("eventSource", source), slog.String("eventName", name))

	desc, found := registry.Lookup(source, name)
	if !found {
		// A resource type outside the supported set must not raise an alarm.
		logger.Info("event outside the supported set, ignoring")
		return &models.Result{Outcome: models.OutcomeIgnored}, nil
	}

	normalized, err := extract.Extract(evt, desc)
	if err != nil {
		var notApplicable *extract.NotApplicableError
		if errors.As(err, &notApplicable) {
			logger.Info("event not applicable, ignoring", slog.Any("reason", err))
			return &models.Result{Outcome: models.OutcomeIgnored}, nil
		}
		logger.Error("extraction failed", slog.Any("error", err))
		return h.failed(models.OutcomeFailedPermanent, err, desc, nil), nil
	}
	logger = logger.With(
		slog.String("kind", string(normalized.Kind)),
		slog.String("action", string(normalized.Action)),
		slog.String("resourceId", normalized.ResourceID))

	h.archive(ctx, logger, evt)

	card := render.Render(normalized)

	dest, err := h.resolver.Resolve(ctx, false)
	if err != nil {
		if errors.Is(err, destination.ErrSecretUnavailable) {
			logger.Error("webhook secret unavailable, skipping notification", slog.Any("error", err))
			return h.failed(models.OutcomeFailedPermanent, err, desc, normalized), nil
		}
		logger.Error("secret store failure", slog.Any("error", err))
		return h.failed(models.OutcomeFailedRetryable, err, desc, normalized), err
	}

	if err = h.engine.Deliver(ctx, card, dest); err != nil {
		if errors.Is(err, delivery.ErrDestinationInvalid) {
			logger.Warn("destination rejected as invalid, refreshing secret...")
			if dest, err = h.resolver.Resolve(ctx, true); err == nil {
				err = h.engine.DeliverOnce(ctx, card, dest)
			}
		}
	}
	if err != nil {
		var exhausted *delivery.ExhaustedError
		switch {
		case errors.As(err, &exhausted):
			logger.Error("delivery exhausted", slog.Any("error", err))
			return h.failed(models.OutcomeFailedRetryable, err, desc, normalized), err
		case errors.Is(err, destination.ErrSecretUnavailable),
			errors.Is(err, delivery.ErrDestinationInvalid):
			logger.Error("destination unrecoverable", slog.Any("error", err))
			return h.failed(models.OutcomeFailedPermanent, err, desc, normalized), nil
		case errors.Is(err, destination.ErrStoreFailure):
			logger.Error("secret store failure on refresh", slog.Any("error", err))
			return h.failed(models.OutcomeFailedRetryable, err, desc, normalized), err
		default:
			logger.Error("delivery rejected", slog.Any("error", err))
			return h.failed(models.OutcomeFailedPermanent, err, desc, normalized), nil
		}
	}

	logger.Info("notification delivered")
	return &models.Result{
		Outcome:    models.OutcomeDelivered,
		Kind:       string(normalized.Kind),
		Action:     string(normalized.Action),
		ResourceID: normalized.ResourceID,
	}, nil
}

// archive best-effort uploads the raw event when archival is configured.
func (h *Handler) archive(ctx context.Context, logger *slog.Logger, evt *models.Event) {
	if !config.Global.S3.Archive.Enabled || h.awsController == nil {
		return
	}
	bucket := h.archiveBucket
	if bucket == "" {
		bucket = config.Global.S3.Archive.BucketName
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := h.awsController.ArchiveEvent(ctx, evt.ID, bucket, body); err != nil {
		logger.Warn("failed to archive raw event", slog.Any("error", err))
	}
}

func (h *Handler) failed(outcome models.Outcome, err error, desc *registry.Descriptor, normalized *models.NormalizedEvent) *models.Result {
	result := &models.Result{
		Outcome: outcome,
		Reason:  err.Error(),
		Kind:    string(desc.Kind),
	}
	if normalized != nil {
		result.Action = string(normalized.Action)
		result.ResourceID = normalized.ResourceID
	}
	return result
}
