package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDataForSEOTestClient(serverURL string) *DataForSEOClient {
	return NewDataForSEOClient("user@example.com", "secret",
		WithDataForSEOBaseURL(serverURL),
		WithDataForSEORateLimit(600),
		WithDataForSEOResultLimit(50),
	)
}

func TestDataForSEOClient_HasCredentials(t *testing.T) {
	assert.True(t, NewDataForSEOClient("user", "pass").HasCredentials())
	assert.False(t, NewDataForSEOClient("user", "").HasCredentials())
	assert.False(t, NewDataForSEOClient("", "").HasCredentials())
}

func TestDataForSEOClient_FetchBacklinks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, dataForSEOBacklinksPath, r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status_code": 20000,
			"tasks": [{
				"status_code": 20000,
				"result": [{
					"items": [
						{"url_from": "https://news.example.net/story", "url_to": "https://chill.ie/", "anchor": "chill.ie", "title": "Story", "first_seen": "2025-09-03 10:00:00", "domain_rating": 55, "rank": 40, "dofollow": true},
						{"url_from": "https://blog.sample.io/post", "anchor": "source", "dofollow": false}
					]
				}]
			}]
		}`))
	}))
	defer server.Close()

	client := newDataForSEOTestClient(server.URL)
	entries, err := client.FetchBacklinks(context.Background(), "https://chill.ie")

	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "https://news.example.net/story", entries[0].SourceURL)
	assert.Equal(t, "https://chill.ie/", entries[0].DestinationURL)
	assert.Equal(t, 55, entries[0].DomainRating)
	assert.Equal(t, 40, entries[0].URLRating)
	assert.Equal(t, "dofollow", entries[0].LinkType)
	require.NotNil(t, entries[0].FirstSeen)

	// Missing destination defaults to the query target
	assert.Equal(t, "https://chill.ie", entries[1].DestinationURL)
	assert.Equal(t, "nofollow", entries[1].LinkType)
}

func TestDataForSEOClient_AccessStatusCodeIsAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status_code": 40100, "tasks": []}`))
	}))
	defer server.Close()

	client := newDataForSEOTestClient(server.URL)
	_, err := client.FetchBacklinks(context.Background(), "https://chill.ie")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Message, "40100")
}

func TestDataForSEOClient_TaskStatusCodeIsAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status_code": 20000, "tasks": [{"status_code": 40200, "result": []}]}`))
	}))
	defer server.Close()

	client := newDataForSEOTestClient(server.URL)
	_, err := client.FetchBacklinks(context.Background(), "https://chill.ie")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestDataForSEOClient_HTTPUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newDataForSEOTestClient(server.URL)
	_, err := client.FetchBacklinks(context.Background(), "https://chill.ie")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.False(t, IsTransient(err))
}

func TestDataForSEOClient_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"debug": "upstream trace with account id 99812"}`))
	}))
	defer server.Close()

	client := newDataForSEOTestClient(server.URL)
	_, err := client.FetchBacklinks(context.Background(), "https://chill.ie")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, IsTransient(err))

	// Response bodies never reach the error string
	assert.NotContains(t, err.Error(), "99812")
	assert.Contains(t, err.Error(), dataForSEOBacklinksPath)
}

func TestDataForSEOClient_MissingCredentials(t *testing.T) {
	client := NewDataForSEOClient("", "")
	_, err := client.FetchBacklinks(context.Background(), "https://chill.ie")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestDataForSEOClient_RateLimiterExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status_code": 20000, "tasks": []}`))
	}))
	defer server.Close()

	client := NewDataForSEOClient("user", "pass",
		WithDataForSEOBaseURL(server.URL),
		WithDataForSEORateLimit(1),
	)

	_, err := client.FetchBacklinks(context.Background(), "https://chill.ie")
	require.NoError(t, err)

	_, err = client.FetchBacklinks(context.Background(), "https://chill.ie")
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
}

func TestDataForSEOClient_FetchSerp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, dataForSEOSerpPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status_code": 20000,
			"tasks": [{
				"status_code": 20000,
				"result": [{
					"items": [
						{"url": "https://chill.ie/car-insurance", "rank_absolute": 3, "rank_group": 3, "title": "Car Insurance"},
						{"url": "https://competitor.ie/", "rank_absolute": 4, "rank_group": 4, "title": "Competitor"},
						{"url": "https://other.ie/", "rank_absolute": 5, "rank_group": 5, "title": "Other"}
					]
				}]
			}]
		}`))
	}))
	defer server.Close()

	client := newDataForSEOTestClient(server.URL)
	rankings, err := client.FetchSerp(context.Background(), "car insurance ireland", 2)

	require.NoError(t, err)
	// topN caps the result even when the API returns more
	require.Len(t, rankings, 2)
	assert.Equal(t, "car insurance ireland", rankings[0].Keyword)
	assert.Equal(t, "https://chill.ie/car-insurance", rankings[0].URL)
	assert.Equal(t, 3, rankings[0].Position)
	assert.False(t, rankings[0].CheckDate.IsZero())
}
