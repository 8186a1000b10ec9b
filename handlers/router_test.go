package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"document-search/handlers/middleware"
	"document-search/stores/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	h := NewRouter(memory.NewDocumentStore(), nil, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "you are all set", w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v2/documents", bytes.NewBufferString(`{"title":"Intro","content":"hello world"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/documents?content=hello", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Intro"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterRateLimit(t *testing.T) {
	h := NewRouter(memory.NewDocumentStore(), middleware.NewRateLimiter(0.1, 1), nil)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v2/documents", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v2/documents", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// the landing page is not limited
	root := httptest.NewRecorder()
	h.ServeHTTP(root, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, root.Code)
}

func TestRouterRealtime(t *testing.T) {
	called := false
	rt := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := NewRouter(memory.NewDocumentStore(), nil, rt)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/socket.io/", nil))
	assert.True(t, called)
}
