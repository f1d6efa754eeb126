package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireUser(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/campaigns", nil)
	req.Header.Set("X-User-Email", "  user@example.com  ")

	email, ok := RequireUser(rec, req)
	require.True(t, ok)
	assert.Equal(t, "user@example.com", email)
}

func TestRequireUser_MissingHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/campaigns", nil)

	_, ok := RequireUser(rec, req)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/tasks", nil)

	assert.True(t, RequireMethod(rec, req, "GET"))

	rec = httptest.NewRecorder()
	assert.False(t, RequireMethod(rec, req, "POST"))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name": "a", "extra": true}`))
	var p payload
	assert.Error(t, DecodeJSON(req, &p))

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"name": "a"}`))
	require.NoError(t, DecodeJSON(req, &p))
	assert.Equal(t, "a", p.Name)
}

func TestPathSegments(t *testing.T) {
	tests := []struct {
		path     string
		prefix   string
		expected []string
	}{
		{"/api/campaigns/camp_1/summary", "/api/campaigns/", []string{"camp_1", "summary"}},
		{"/api/tasks/task_1", "/api/tasks/", []string{"task_1"}},
		{"/api/tasks/task_1/cancel/", "/api/tasks/", []string{"task_1", "cancel"}},
		{"/api/tasks/", "/api/tasks/", nil},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", tt.path, nil)
		assert.Equal(t, tt.expected, PathSegments(req, tt.prefix), "path: %s", tt.path)
	}
}
