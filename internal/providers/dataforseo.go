package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/linklens/internal/models"
)

const (
	// DefaultDataForSEOBaseURL is the base URL for the DataForSEO v3 API.
	DefaultDataForSEOBaseURL = "https://api.dataforseo.com/v3"

	// DefaultDataForSEOTimeout is the default HTTP timeout.
	DefaultDataForSEOTimeout = 30 * time.Second

	// DefaultDataForSEORatePerMinute is the default per-minute token budget.
	DefaultDataForSEORatePerMinute = 30

	dataForSEOBacklinksPath = "/backlinks/backlinks/live"
	dataForSEOSerpPath      = "/serp/google/organic/live/regular"

	// DataForSEO signals access/subscription issues with task status codes
	// at or above this value
	dataForSEOAccessErrorCode = 40000
)

// DataForSEOClient is a DataForSEO v3 API client.
type DataForSEOClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	limit      int
}

// DataForSEOOption configures the DataForSEOClient.
type DataForSEOOption func(*DataForSEOClient)

// WithDataForSEOBaseURL sets a custom base URL.
func WithDataForSEOBaseURL(baseURL string) DataForSEOOption {
	return func(c *DataForSEOClient) {
		c.baseURL = baseURL
	}
}

// WithDataForSEOHTTPClient sets a custom HTTP client.
func WithDataForSEOHTTPClient(httpClient *http.Client) DataForSEOOption {
	return func(c *DataForSEOClient) {
		c.httpClient = httpClient
	}
}

// WithDataForSEOLogger sets a logger.
func WithDataForSEOLogger(logger arbor.ILogger) DataForSEOOption {
	return func(c *DataForSEOClient) {
		c.logger = logger
	}
}

// WithDataForSEORateLimit sets a custom per-minute token budget.
func WithDataForSEORateLimit(requestsPerMinute int) DataForSEOOption {
	return func(c *DataForSEOClient) {
		c.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute)
	}
}

// WithDataForSEOResultLimit caps the backlink rows fetched per query.
func WithDataForSEOResultLimit(limit int) DataForSEOOption {
	return func(c *DataForSEOClient) {
		c.limit = limit
	}
}

// NewDataForSEOClient creates a new DataForSEO API client.
func NewDataForSEOClient(username, password string, opts ...DataForSEOOption) *DataForSEOClient {
	c := &DataForSEOClient{
		baseURL:  DefaultDataForSEOBaseURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: DefaultDataForSEOTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(DefaultDataForSEORatePerMinute)/60.0), DefaultDataForSEORatePerMinute),
		limit:   50,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HasCredentials reports whether live calls are possible
func (c *DataForSEOClient) HasCredentials() bool {
	return c.username != "" && c.password != ""
}

func (c *DataForSEOClient) authHeader() string {
	token := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
	return "Basic " + token
}

// dataForSEOResponse mirrors the v3 envelope: tasks -> result -> items
type dataForSEOResponse struct {
	StatusCode int              `json:"status_code"`
	Tasks      []dataForSEOTask `json:"tasks"`
}

type dataForSEOTask struct {
	StatusCode int                     `json:"status_code"`
	Result     []dataForSEOResultBlock `json:"result"`
}

type dataForSEOResultBlock struct {
	Items []json.RawMessage `json:"items"`
}

type dataForSEOBacklinkItem struct {
	URLFrom      string `json:"url_from"`
	URLTo        string `json:"url_to"`
	Title        string `json:"title,omitempty"`
	Anchor       string `json:"anchor,omitempty"`
	FirstSeen    string `json:"first_seen,omitempty"`
	DomainRating int    `json:"domain_rating,omitempty"`
	PageRating   int    `json:"rank,omitempty"`
	Dofollow     bool   `json:"dofollow,omitempty"`
	IsBroken     bool   `json:"is_broken,omitempty"`
	Redirect     bool   `json:"redirect,omitempty"`
}

type dataForSEOSerpItem struct {
	URL      string `json:"url"`
	Rank     int    `json:"rank_absolute"`
	Position int    `json:"rank_group"`
	Title    string `json:"title,omitempty"`
}

// post issues one authenticated POST and decodes the v3 envelope,
// classifying access-issue status codes as auth errors.
func (c *DataForSEOClient) post(ctx context.Context, path string, payload interface{}) (*dataForSEOResponse, error) {
	if !c.HasCredentials() {
		return nil, &AuthError{Provider: string(models.ProviderDataForSEO), Message: "missing credentials"}
	}

	if !c.limiter.Allow() {
		return nil, &RateLimitError{Provider: string(models.ProviderDataForSEO), RetryAfter: time.Minute}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("Content-Type", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("endpoint", path).
			Msg("DataForSEO API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{
			Provider: string(models.ProviderDataForSEO),
			Message:  fmt.Sprintf("HTTP %d on %s", resp.StatusCode, path),
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
				Msg("DataForSEO error response")
		}
		return nil, &APIError{
			Provider:   string(models.ProviderDataForSEO),
			StatusCode: resp.StatusCode,
			Message:    "unexpected response",
			Endpoint:   path,
		}
	}

	var result dataForSEOResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.StatusCode >= dataForSEOAccessErrorCode {
		return nil, &AuthError{
			Provider: string(models.ProviderDataForSEO),
			Message:  fmt.Sprintf("access issue status_code=%d", result.StatusCode),
		}
	}
	for _, task := range result.Tasks {
		if task.StatusCode >= dataForSEOAccessErrorCode {
			return nil, &AuthError{
				Provider: string(models.ProviderDataForSEO),
				Message:  fmt.Sprintf("access issue status_code=%d", task.StatusCode),
			}
		}
	}

	return &result, nil
}

// FetchBacklinks queries live backlinks for the target URL or domain.
func (c *DataForSEOClient) FetchBacklinks(ctx context.Context, target string) ([]models.ProviderEntry, error) {
	payload := []map[string]interface{}{
		{"target": target, "limit": c.limit},
	}

	result, err := c.post(ctx, dataForSEOBacklinksPath, payload)
	if err != nil {
		return nil, err
	}

	var entries []models.ProviderEntry
	for _, task := range result.Tasks {
		for _, block := range task.Result {
			for _, raw := range block.Items {
				var item dataForSEOBacklinkItem
				if err := json.Unmarshal(raw, &item); err != nil {
					continue
				}

				entry := models.ProviderEntry{
					SourceURL:      item.URLFrom,
					DestinationURL: item.URLTo,
					AnchorText:     item.Anchor,
					PageTitle:      item.Title,
					DomainRating:   item.DomainRating,
					URLRating:      item.PageRating,
					IsRedirect:     item.Redirect,
					LinkType:       linkTypeFromNofollow(!item.Dofollow),
				}
				if entry.DestinationURL == "" {
					entry.DestinationURL = target
				}
				if ts := parseProviderDate(item.FirstSeen); ts != nil {
					entry.FirstSeen = ts
				}
				entries = append(entries, entry)
			}
		}
	}

	return entries, nil
}

// FetchSerp queries live Google organic positions for a keyword.
func (c *DataForSEOClient) FetchSerp(ctx context.Context, keyword string, topN int) ([]*models.SerpRanking, error) {
	payload := []map[string]interface{}{
		{"keyword": keyword, "limit": topN},
	}

	result, err := c.post(ctx, dataForSEOSerpPath, payload)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var rankings []*models.SerpRanking
	for _, task := range result.Tasks {
		for _, block := range task.Result {
			for _, raw := range block.Items {
				var item dataForSEOSerpItem
				if err := json.Unmarshal(raw, &item); err != nil {
					continue
				}
				position := item.Position
				if position == 0 {
					position = item.Rank
				}
				rankings = append(rankings, &models.SerpRanking{
					Keyword:   keyword,
					URL:       item.URL,
					Position:  position,
					PageTitle: item.Title,
					CheckDate: now,
				})
				if len(rankings) >= topN {
					return rankings, nil
				}
			}
		}
	}

	return rankings, nil
}
