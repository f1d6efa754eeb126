package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/common"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Acme Autumn Launch Review</title></head>
<body>
<nav>ignore this nav text launchpad</nav>
<article>
<h1>Acme releases the Autumn collection</h1>
<p>We took a close look at the new launch from <a href="https://acme.io/launch">Acme</a>.</p>
</article>
<footer>footer text</footer>
</body>
</html>`

func newTestService() *Service {
	return NewService(common.ContentConfig{
		UserAgent:      "linklens-test",
		RequestTimeout: 5 * time.Second,
		MaxBodySize:    1024 * 1024,
	}, arbor.NewLogger())
}

func TestVerifyPage_FindsDirectLinkAndKeywords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	svc := newTestService()
	result := svc.VerifyPage(context.Background(), server.URL, "https://acme.io/launch", []string{"acme", "autumn", "missing"})

	assert.True(t, result.Fetched)
	assert.True(t, result.DirectLink)
	assert.True(t, result.TextExtracted)
	assert.Contains(t, result.KeywordHits, "acme")
	assert.Contains(t, result.KeywordHits, "autumn")
	assert.NotContains(t, result.KeywordHits, "missing")
	assert.Empty(t, result.FetchError)
}

func TestVerifyPage_NoDirectLink(t *testing.T) {
	page := `<html><body><p>An article about something else entirely.
	<a href="https://elsewhere.example.com/page">link</a></p></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer server.Close()

	svc := newTestService()
	result := svc.VerifyPage(context.Background(), server.URL, "https://acme.io/launch", []string{"acme"})

	assert.True(t, result.Fetched)
	assert.False(t, result.DirectLink)
	assert.Empty(t, result.KeywordHits)
}

func TestVerifyPage_FetchFailureIsReportedNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := newTestService()
	result := svc.VerifyPage(context.Background(), server.URL, "https://acme.io", []string{"acme"})

	assert.False(t, result.Fetched)
	assert.NotEmpty(t, result.FetchError)
}

func TestVerifyPage_RejectsNonHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	svc := newTestService()
	result := svc.VerifyPage(context.Background(), server.URL, "https://acme.io", []string{"acme"})

	assert.False(t, result.Fetched)
	require.NotEmpty(t, result.FetchError)
	assert.Contains(t, result.FetchError, "content type")
}
