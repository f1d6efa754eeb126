package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func recordName(name string, hits *[]string) RouteHandler {
	return func(w http.ResponseWriter, r *http.Request) {
		*hits = append(*hits, name)
		w.WriteHeader(http.StatusOK)
	}
}

func TestRouteByMethod(t *testing.T) {
	var hits []string
	routes := MethodRouter{
		http.MethodGet:  recordName("get", &hits),
		http.MethodPost: recordName("post", &hits),
	}

	w := httptest.NewRecorder()
	RouteByMethod(w, httptest.NewRequest(http.MethodPost, "/api/tasks", nil), routes)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"post"}, hits)

	w = httptest.NewRecorder()
	RouteByMethod(w, httptest.NewRequest(http.MethodDelete, "/api/tasks", nil), routes)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, []string{"post"}, hits)
}

func TestRouteResourceCollection(t *testing.T) {
	var hits []string

	w := httptest.NewRecorder()
	RouteResourceCollection(w, httptest.NewRequest(http.MethodGet, "/api/campaigns", nil),
		recordName("list", &hits), recordName("create", &hits))
	assert.Equal(t, []string{"list"}, hits)

	// PUT has no handler on a collection
	w = httptest.NewRecorder()
	RouteResourceCollection(w, httptest.NewRequest(http.MethodPut, "/api/campaigns", nil),
		recordName("list", &hits), recordName("create", &hits))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouteResourceItem(t *testing.T) {
	var hits []string

	w := httptest.NewRecorder()
	RouteResourceItem(w, httptest.NewRequest(http.MethodDelete, "/api/campaigns/camp_1", nil),
		recordName("get", &hits), recordName("update", &hits), recordName("delete", &hits))
	assert.Equal(t, []string{"delete"}, hits)

	// POST belongs to the collection, not the item
	w = httptest.NewRecorder()
	RouteResourceItem(w, httptest.NewRequest(http.MethodPost, "/api/campaigns/camp_1", nil),
		recordName("get", &hits), recordName("update", &hits), recordName("delete", &hits))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
