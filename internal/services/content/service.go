// Package content fetches candidate source pages and verifies coverage by
// scanning the page text for campaign keywords and direct links.
package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/common"
)

// PageVerification is the outcome of scanning one source page
type PageVerification struct {
	SourceURL     string   `json:"source_url"`
	Fetched       bool     `json:"fetched"`
	DirectLink    bool     `json:"direct_link"`
	KeywordHits   []string `json:"keyword_hits,omitempty"`
	FetchError    string   `json:"fetch_error,omitempty"`
	TextExtracted bool     `json:"text_extracted"`
}

// Service fetches and analyzes source pages
type Service struct {
	httpClient *http.Client
	config     common.ContentConfig
	logger     arbor.ILogger
}

// NewService creates a content verification service
func NewService(config common.ContentConfig, logger arbor.ILogger) *Service {
	return &Service{
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		config:     config,
		logger:     logger,
	}
}

// VerifyPage fetches one source page and scans it for the verification
// keywords and for anchors linking at the campaign target. Fetch failures
// are reported in the result, not returned as errors, so one dead page
// never aborts a verification run.
func (s *Service) VerifyPage(ctx context.Context, sourceURL, targetURL string, keywords []string) PageVerification {
	result := PageVerification{SourceURL: sourceURL}

	html, err := s.fetchPage(ctx, sourceURL)
	if err != nil {
		result.FetchError = err.Error()
		s.logger.Debug().
			Str("url", sourceURL).
			Err(err).
			Msg("Source page fetch failed")
		return result
	}
	result.Fetched = true

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		result.FetchError = fmt.Sprintf("failed to parse page: %v", err)
		return result
	}

	result.DirectLink = hasDirectLink(doc, targetURL)

	text := extractText(doc, sourceURL)
	if text != "" {
		result.TextExtracted = true
		result.KeywordHits = matchKeywords(text, keywords)
	}

	return result
}

// fetchPage downloads a page with the configured timeout and body cap
func (s *Service) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(strings.ToLower(contentType), "text/html") {
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}

	maxBody := s.config.MaxBodySize
	if maxBody <= 0 {
		maxBody = 5 * 1024 * 1024
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBody)))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	return string(body), nil
}

// hasDirectLink reports whether any anchor on the page points at the target
func hasDirectLink(doc *goquery.Document, targetURL string) bool {
	found := false
	targetDomain := common.URLDomain(targetURL)

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}
		if common.SameURL(href, targetURL) || common.SameDomain(href, targetDomain) {
			found = true
			return false
		}
		return true
	})

	return found
}

// extractText strips boilerplate and converts the remaining HTML to plain
// markdown text.
func extractText(doc *goquery.Document, baseURL string) string {
	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		return ""
	}

	html, err := body.Html()
	if err != nil {
		return strings.TrimSpace(body.Text())
	}

	converter := md.NewConverter(baseURL, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return strings.TrimSpace(body.Text())
	}

	return strings.TrimSpace(markdown)
}

// matchKeywords returns the keywords found in the text, whole-word and
// case-insensitive.
func matchKeywords(text string, keywords []string) []string {
	var hits []string
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
		if err != nil {
			continue
		}
		if pattern.MatchString(text) {
			hits = append(hits, keyword)
		}
	}
	return hits
}
