package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackwatch/resource-notifier/internal/controllers/aws"
	"github.com/stackwatch/resource-notifier/internal/delivery"
	"github.com/stackwatch/resource-notifier/internal/destination"
	"github.com/stackwatch/resource-notifier/internal/handler"
	"github.com/stackwatch/resource-notifier/internal/models"
)

type stubFetcher struct {
	payloads []string
	err      error
	calls    int
}

func (s *stubFetcher) FetchSecret(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	idx := s.calls - 1
	if idx >= len(s.payloads) {
		idx = len(s.payloads) - 1
	}
	return s.payloads[idx], nil
}

func secretPayload(url string) string {
	return fmt.Sprintf(`{"webhookUrl": %q}`, url)
}

func newHandler(t *testing.T, fetcher destination.SecretFetcher) *handler.Handler {
	t.Helper()
	h, err := handler.NewHandler(
		handler.WithResolver(destination.NewResolver(fetcher, "webhook")),
		handler.WithDeliveryEngine(delivery.NewEngine(
			delivery.WithAttempts(3),
			delivery.WithBackoffBase(time.Millisecond))))
	require.NoError(t, err)
	return h
}

func runInstancesEvent() *models.Event {
	return &models.Event{
		Region:  "eu-west-1",
		Account: "123456789012",
		Detail: map[string]any{
			"eventSource": "ec2.amazonaws.com",
			"eventName":   "RunInstances",
			"awsRegion":   "eu-west-1",
			"eventTime":   "2024-05-01T12:00:00Z",
			"userIdentity": map[string]any{
				"type":     "IAMUser",
				"userName": "alice",
			},
			"responseElements": map[string]any{
				"instancesSet": map[string]any{
					"items": []any{
						map[string]any{"instanceId": "i-0123"},
					},
				},
			},
		},
	}
}

func TestProcessDelivers(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h := newHandler(t, &stubFetcher{payloads: []string{secretPayload(server.URL)}})
	result, err := h.Process(context.Background(), runInstancesEvent())
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeDelivered, result.Outcome)
	assert.Equal(t, "EC2Instance", result.Kind)
	assert.Equal(t, "Created", result.Action)
	assert.Equal(t, "i-0123", result.ResourceID)
	assert.Equal(t, 1, requests)
}

func TestProcessRetriesTransientFailuresThenDelivers(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h := newHandler(t, &stubFetcher{payloads: []string{secretPayload(server.URL)}})
	result, err := h.Process(context.Background(), runInstancesEvent())
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeDelivered, result.Outcome)
	assert.Equal(t, 3, requests)
}

func TestProcessIgnoresUnsupportedOperations(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
	}))
	defer server.Close()

	fetcher := &stubFetcher{payloads: []string{secretPayload(server.URL)}}
	h := newHandler(t, fetcher)
	result, err := h.Process(context.Background(), &models.Event{
		Detail: map[string]any{
			"eventSource": "ec2.amazonaws.com",
			"eventName":   "DescribeInstances",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeIgnored, result.Outcome)
	assert.Zero(t, requests)
	assert.Zero(t, fetcher.calls)
}

func TestProcessIgnoresNonCreateDeleteRecordChanges(t *testing.T) {
	h := newHandler(t, &stubFetcher{err: aws.ErrSecretNotFound})
	result, err := h.Process(context.Background(), &models.Event{
		Detail: map[string]any{
			"eventSource": "route53.amazonaws.com",
			"eventName":   "ChangeResourceRecordSets",
			"requestParameters": map[string]any{
				"hostedZoneId": "/hostedzone/Z0123",
				"changeBatch": map[string]any{
					"changes": []any{
						map[string]any{
							"action": "UPSERT",
							"resourceRecordSet": map[string]any{
								"name": "app.example.com.",
								"type": "A",
							},
						},
					},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeIgnored, result.Outcome)
}

func TestProcessFailsPermanentlyOnMissingSecret(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
	}))
	defer server.Close()

	h := newHandler(t, &stubFetcher{err: aws.ErrSecretNotFound})
	result, err := h.Process(context.Background(), runInstancesEvent())
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeFailedPermanent, result.Outcome)
	assert.False(t, result.Retryable())
	assert.Zero(t, requests)
}

func TestProcessFailsRetryablyOnStoreFailure(t *testing.T) {
	h := newHandler(t, &stubFetcher{err: fmt.Errorf("connection reset")})
	result, err := h.Process(context.Background(), runInstancesEvent())

	require.Error(t, err)
	assert.Equal(t, models.OutcomeFailedRetryable, result.Outcome)
	assert.True(t, result.Retryable())
}

func TestProcessFailsRetryablyOnExhaustedDelivery(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	h := newHandler(t, &stubFetcher{payloads: []string{secretPayload(server.URL)}})
	result, err := h.Process(context.Background(), runInstancesEvent())

	require.Error(t, err)
	var exhausted *delivery.ExhaustedError
	assert.ErrorAs(t, err, &exhausted)
	assert.Equal(t, models.OutcomeFailedRetryable, result.Outcome)
	assert.Equal(t, 3, requests)
}

func TestProcessRefreshesInvalidDestination(t *testing.T) {
	var goodRequests int
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		goodRequests++
		w.WriteHeader(http.StatusOK)
	}))
	defer good.Close()

	var staleRequests int
	stale := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		staleRequests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer stale.Close()

	fetcher := &stubFetcher{payloads: []string{
		secretPayload(stale.URL),
		secretPayload(good.URL),
	}}
	h := newHandler(t, fetcher)
	result, err := h.Process(context.Background(), runInstancesEvent())
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeDelivered, result.Outcome)
	assert.Equal(t, 1, staleRequests)
	assert.Equal(t, 1, goodRequests)
	assert.Equal(t, 2, fetcher.calls)
}

func TestProcessFailsPermanentlyWhenRefreshedDestinationStillInvalid(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	fetcher := &stubFetcher{payloads: []string{secretPayload(server.URL)}}
	h := newHandler(t, fetcher)
	result, err := h.Process(context.Background(), runInstancesEvent())
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeFailedPermanent, result.Outcome)
	// One attempt against the cached destination, one against the refreshed one.
	assert.Equal(t, 2, requests)
	assert.Equal(t, 2, fetcher.calls)
}

func TestProcessFailsPermanentlyOnRejectedPayload(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	h := newHandler(t, &stubFetcher{payloads: []string{secretPayload(server.URL)}})
	result, err := h.Process(context.Background(), runInstancesEvent())
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeFailedPermanent, result.Outcome)
	assert.Equal(t, 1, requests)
}

func TestProcessIgnoresNonCloudTrailEvents(t *testing.T) {
	fetcher := &stubFetcher{err: aws.ErrSecretNotFound}
	h := newHandler(t, fetcher)
	result, err := h.Process(context.Background(), &models.Event{
		DetailType: "Scheduled Event",
		Detail:     map[string]any{},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeIgnored, result.Outcome)
	assert.Zero(t, fetcher.calls)
}
