package destination_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackwatch/resource-notifier/internal/controllers/aws"
	"github.com/stackwatch/resource-notifier/internal/destination"
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

func TestResolveCachesAcrossCalls(t *testing.T) {
	fetcher := &stubFetcher{payloads: []string{`{"webhookUrl": "https://hooks.example.com/a"}`}}
	resolver := destination.NewResolver(fetcher, "webhook")

	first, err := resolver.Resolve(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/a", first.WebhookURL)

	second, err := resolver.Resolve(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.calls)
}

func TestResolveForceRefresh(t *testing.T) {
	fetcher := &stubFetcher{payloads: []string{
		`{"webhookUrl": "https://hooks.example.com/old"}`,
		`{"webhookUrl": "https://hooks.example.com/new"}`,
	}}
	resolver := destination.NewResolver(fetcher, "webhook")

	first, err := resolver.Resolve(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/old", first.WebhookURL)

	refreshed, err := resolver.Resolve(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/new", refreshed.WebhookURL)
	assert.Equal(t, 2, fetcher.calls)
}

func TestResolveExpiredCacheRefetches(t *testing.T) {
	fetcher := &stubFetcher{payloads: []string{`{"webhookUrl": "https://hooks.example.com/a"}`}}
	resolver := destination.NewResolver(fetcher, "webhook",
		destination.WithCacheTTL(time.Nanosecond))

	_, err := resolver.Resolve(context.Background(), false)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = resolver.Resolve(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestResolveSecretUnavailable(t *testing.T) {
	testCases := []struct {
		Name    string
		Fetcher *stubFetcher
	}{
		{
			Name:    "secret_not_found",
			Fetcher: &stubFetcher{err: aws.ErrSecretNotFound},
		},
		{
			Name:    "malformed_payload",
			Fetcher: &stubFetcher{payloads: []string{`not json`}},
		},
		{
			Name:    "missing_webhook_key",
			Fetcher: &stubFetcher{payloads: []string{`{"other": "value"}`}},
		},
		{
			Name:    "empty_webhook_url",
			Fetcher: &stubFetcher{payloads: []string{`{"webhookUrl": ""}`}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			resolver := destination.NewResolver(tc.Fetcher, "webhook")
			_, err := resolver.Resolve(context.Background(), false)
			assert.ErrorIs(t, err, destination.ErrSecretUnavailable)
		})
	}
}

func TestResolveStoreFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection reset")}
	resolver := destination.NewResolver(fetcher, "webhook")

	_, err := resolver.Resolve(context.Background(), false)
	assert.ErrorIs(t, err, destination.ErrStoreFailure)
	assert.NotErrorIs(t, err, destination.ErrSecretUnavailable)
}
