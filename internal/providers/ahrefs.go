package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/linklens/internal/models"
)

const (
	// DefaultAhrefsBaseURL is the base URL for the Ahrefs v3 API.
	DefaultAhrefsBaseURL = "https://api.ahrefs.com/v3"

	// DefaultAhrefsTimeout is the default HTTP timeout.
	DefaultAhrefsTimeout = 30 * time.Second

	// DefaultAhrefsRatePerMinute is the default per-minute token budget.
	DefaultAhrefsRatePerMinute = 30

	ahrefsBacklinksPath = "/site-explorer/all-backlinks"
)

// AhrefsClient is an Ahrefs v3 API client.
type AhrefsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	limit      int
}

// AhrefsOption configures the AhrefsClient.
type AhrefsOption func(*AhrefsClient)

// WithAhrefsBaseURL sets a custom base URL.
func WithAhrefsBaseURL(baseURL string) AhrefsOption {
	return func(c *AhrefsClient) {
		c.baseURL = baseURL
	}
}

// WithAhrefsHTTPClient sets a custom HTTP client.
func WithAhrefsHTTPClient(httpClient *http.Client) AhrefsOption {
	return func(c *AhrefsClient) {
		c.httpClient = httpClient
	}
}

// WithAhrefsLogger sets a logger.
func WithAhrefsLogger(logger arbor.ILogger) AhrefsOption {
	return func(c *AhrefsClient) {
		c.logger = logger
	}
}

// WithAhrefsRateLimit sets a custom per-minute token budget.
func WithAhrefsRateLimit(requestsPerMinute int) AhrefsOption {
	return func(c *AhrefsClient) {
		c.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute)
	}
}

// WithAhrefsResultLimit caps the backlink rows fetched per query.
func WithAhrefsResultLimit(limit int) AhrefsOption {
	return func(c *AhrefsClient) {
		c.limit = limit
	}
}

// NewAhrefsClient creates a new Ahrefs API client.
func NewAhrefsClient(apiKey string, opts ...AhrefsOption) *AhrefsClient {
	c := &AhrefsClient{
		baseURL: DefaultAhrefsBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultAhrefsTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(DefaultAhrefsRatePerMinute)/60.0), DefaultAhrefsRatePerMinute),
		limit:   100,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HasCredentials reports whether live calls are possible
func (c *AhrefsClient) HasCredentials() bool {
	return c.apiKey != ""
}

// ahrefsBacklinksResponse mirrors the v3 all-backlinks payload
type ahrefsBacklinksResponse struct {
	Error string              `json:"error,omitempty"`
	Data  []ahrefsBacklinkRow `json:"data"`
}

type ahrefsBacklinkRow struct {
	URLFrom            string `json:"url_from"`
	URLTo              string `json:"url_to"`
	Title              string `json:"title,omitempty"`
	Anchor             string `json:"anchor,omitempty"`
	FirstSeenLink      string `json:"first_seen_link,omitempty"`
	FirstSeen          string `json:"first_seen,omitempty"`
	DomainRatingSource int    `json:"domain_rating_source,omitempty"`
	DomainRating       int    `json:"domain_rating,omitempty"`
	URLRating          int    `json:"url_rating_source,omitempty"`
	IsContent          bool   `json:"is_content,omitempty"`
	IsRedirect         bool   `json:"is_redirect,omitempty"`
	IsCanonical        bool   `json:"is_canonical,omitempty"`
	IsNofollow         bool   `json:"is_nofollow,omitempty"`
}

// FetchBacklinks queries live backlinks pointing at the target URL or
// domain. The local token budget is checked non-blocking: an exhausted
// budget returns a RateLimitError immediately.
func (c *AhrefsClient) FetchBacklinks(ctx context.Context, target string) ([]models.ProviderEntry, error) {
	if !c.HasCredentials() {
		return nil, &AuthError{Provider: string(models.ProviderAhrefs), Message: "missing API key"}
	}

	if !c.limiter.Allow() {
		return nil, &RateLimitError{Provider: string(models.ProviderAhrefs), RetryAfter: time.Minute}
	}

	params := url.Values{}
	params.Set("target", target)
	params.Set("mode", "prefix")
	params.Set("limit", fmt.Sprintf("%d", c.limit))
	params.Set("history", "live")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, ahrefsBacklinksPath, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	if c.logger != nil {
		c.logger.Debug().
			Str("target", target).
			Msg("Ahrefs backlinks request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{
			Provider: string(models.ProviderAhrefs),
			Message:  fmt.Sprintf("HTTP %d on backlinks", resp.StatusCode),
		}
	}
	if resp.StatusCode != http.StatusOK {
		// Raw bodies stay in the debug log; error strings reach the
		// runtime state and the API surface
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if c.logger != nil {
			c.logger.Debug().
				Int("status", resp.StatusCode).
				Str("body", string(body)).
				Msg("Ahrefs error response")
		}
		return nil, &APIError{
			Provider:   string(models.ProviderAhrefs),
			StatusCode: resp.StatusCode,
			Message:    "unexpected response",
			Endpoint:   ahrefsBacklinksPath,
		}
	}

	var result ahrefsBacklinksResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Error payloads with a 200 status signal missing API scope
	if result.Error != "" {
		return nil, &AuthError{Provider: string(models.ProviderAhrefs), Message: result.Error}
	}

	entries := make([]models.ProviderEntry, 0, len(result.Data))
	for _, row := range result.Data {
		entry := models.ProviderEntry{
			SourceURL:      row.URLFrom,
			DestinationURL: row.URLTo,
			AnchorText:     row.Anchor,
			PageTitle:      row.Title,
			DomainRating:   firstNonZero(row.DomainRatingSource, row.DomainRating),
			URLRating:      row.URLRating,
			IsContent:      row.IsContent,
			IsRedirect:     row.IsRedirect,
			IsCanonical:    row.IsCanonical,
			LinkType:       linkTypeFromNofollow(row.IsNofollow),
		}
		if entry.DestinationURL == "" {
			entry.DestinationURL = target
		}
		if ts := parseProviderDate(row.FirstSeenLink, row.FirstSeen); ts != nil {
			entry.FirstSeen = ts
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func linkTypeFromNofollow(nofollow bool) string {
	if nofollow {
		return "nofollow"
	}
	return "dofollow"
}

// parseProviderDate tries the date formats providers use, first match wins
func parseProviderDate(candidates ...string) *time.Time {
	formats := []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		for _, format := range formats {
			if t, err := time.Parse(format, candidate); err == nil {
				return &t
			}
		}
	}
	return nil
}
