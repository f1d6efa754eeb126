package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/common"
	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
)

// BacklinkClient is the per-provider client surface the gateway dispatches
// to. Both live clients satisfy it; tests substitute stubs.
type BacklinkClient interface {
	HasCredentials() bool
	FetchBacklinks(ctx context.Context, target string) ([]models.ProviderEntry, error)
}

// SerpClient fetches keyword positions; only DataForSEO provides SERP data.
type SerpClient interface {
	HasCredentials() bool
	FetchSerp(ctx context.Context, keyword string, topN int) ([]*models.SerpRanking, error)
}

// Gateway is the uniform interface over the external data sources. Each
// fetch snapshots the runtime mock toggle once; an admin flipping the
// toggle mid-task never switches an in-flight call.
type Gateway struct {
	clients    map[models.Provider]BacklinkClient
	serpClient SerpClient
	mock       *MockDataService
	runtime    interfaces.RuntimeService
	retry      common.RetryConfig
	logger     arbor.ILogger
}

// GatewayOption configures the Gateway.
type GatewayOption func(*Gateway)

// WithBacklinkClient overrides the client for one provider.
func WithBacklinkClient(provider models.Provider, client BacklinkClient) GatewayOption {
	return func(g *Gateway) {
		g.clients[provider] = client
	}
}

// WithSerpClient overrides the SERP client.
func WithSerpClient(client SerpClient) GatewayOption {
	return func(g *Gateway) {
		g.serpClient = client
	}
}

// NewGateway creates the provider gateway with live clients built from
// configuration.
func NewGateway(config *common.ProvidersConfig, runtime interfaces.RuntimeService, logger arbor.ILogger, opts ...GatewayOption) *Gateway {
	ahrefs := NewAhrefsClient(config.Ahrefs.APIKey,
		WithAhrefsBaseURL(config.Ahrefs.BaseURL),
		WithAhrefsHTTPClient(&http.Client{Timeout: config.Ahrefs.RequestTimeout}),
		WithAhrefsLogger(logger),
		WithAhrefsRateLimit(config.Ahrefs.RatePerMinute),
		WithAhrefsResultLimit(config.Ahrefs.ResultLimit),
	)
	dataforseo := NewDataForSEOClient(config.DataForSEO.Username, config.DataForSEO.Password,
		WithDataForSEOBaseURL(config.DataForSEO.BaseURL),
		WithDataForSEOHTTPClient(&http.Client{Timeout: config.DataForSEO.RequestTimeout}),
		WithDataForSEOLogger(logger),
		WithDataForSEORateLimit(config.DataForSEO.RatePerMinute),
		WithDataForSEOResultLimit(config.DataForSEO.ResultLimit),
	)

	g := &Gateway{
		clients: map[models.Provider]BacklinkClient{
			models.ProviderAhrefs:     ahrefs,
			models.ProviderDataForSEO: dataforseo,
		},
		serpClient: dataforseo,
		mock:       NewMockDataService(config.MockDataDir, logger),
		runtime:    runtime,
		retry:      config.Retry,
		logger:     logger,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// FetchBacklinks resolves one provider query. Dispatch order: mock-mode
// snapshot, credential check, rate budget, then the live call with retries
// on transient failures. Every live failure falls back to deterministic
// mock data and records a short error in the runtime state, so a single
// failing provider degrades the result instead of failing the task.
func (g *Gateway) FetchBacklinks(ctx context.Context, provider models.Provider, target string) models.ProviderQueryResult {
	client, ok := g.clients[provider]
	if !ok {
		return models.ProviderQueryResult{
			Provider: provider,
			Status:   models.QueryStatusEmpty,
			Err:      "unknown provider",
		}
	}

	if g.runtime.IsMockMode() {
		return models.ProviderQueryResult{
			Provider: provider,
			Status:   models.QueryStatusOK,
			Entries:  g.mock.Backlinks(provider, target),
			MockData: true,
		}
	}

	entries, err := g.fetchWithRetry(ctx, client, target)
	if err == nil {
		status := models.QueryStatusOK
		if len(entries) == 0 {
			status = models.QueryStatusEmpty
		}
		return models.ProviderQueryResult{
			Provider: provider,
			Status:   status,
			Entries:  entries,
		}
	}

	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		// Local budget exhausted: no call was made, surface immediately
		// and let the caller back off
		g.logger.Warn().
			Str("provider", string(provider)).
			Msg("Provider rate limited, returning without entries")
		return models.ProviderQueryResult{
			Provider: provider,
			Status:   models.QueryStatusRateLimited,
			Err:      "rate limit exceeded",
		}
	}

	status := models.QueryStatusOK
	var authErr *AuthError
	if errors.As(err, &authErr) {
		status = models.QueryStatusAuthError
	}

	g.runtime.SetProviderError(provider, shortError(err))
	g.logger.Warn().
		Str("provider", string(provider)).
		Str("error", shortError(err)).
		Msg("Provider call failed, using mock fallback")

	return models.ProviderQueryResult{
		Provider: provider,
		Status:   status,
		Entries:  g.mock.Backlinks(provider, target),
		MockData: true,
		Err:      shortError(err),
	}
}

// fetchWithRetry retries transient failures with exponential backoff, a
// small fixed attempt cap. Auth and rate-limit errors return immediately.
func (g *Gateway) fetchWithRetry(ctx context.Context, client BacklinkClient, target string) ([]models.ProviderEntry, error) {
	maxAttempts := g.retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := g.retry.BaseBackoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		entries, err := client.FetchBacklinks(ctx, target)
		if err == nil {
			return entries, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, lastErr
}

// FetchSerp resolves keyword positions, with the same mock-first dispatch
// as backlink queries.
func (g *Gateway) FetchSerp(ctx context.Context, keyword string, topN int) ([]*models.SerpRanking, error) {
	if g.runtime.IsMockMode() || !g.serpClient.HasCredentials() {
		return g.mock.Serp(keyword, topN), nil
	}

	rankings, err := g.serpClient.FetchSerp(ctx, keyword, topN)
	if err != nil {
		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			return nil, err
		}
		g.runtime.SetProviderError(models.ProviderDataForSEO, shortError(err))
		return g.mock.Serp(keyword, topN), nil
	}
	return rankings, nil
}

// shortError trims an error to a safe, single-line description. Raw bodies
// can be long; credentials never appear in client error strings.
func shortError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
