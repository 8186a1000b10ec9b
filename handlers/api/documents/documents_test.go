package documents

import (
	"bytes"
	"context"
	"document-search/core"
	"document-search/stores/memory"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestSaveAndGet(t *testing.T) {
	h := Routes(memory.NewDocumentStore())

	w := do(t, h, http.MethodPost, "/", `{"title":"Intro","content":"hello world","author":{"id":"a1","name":"Ann"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	saved := decode[core.Document](t, w)
	assert.NotEmpty(t, saved.ID)
	assert.WithinDuration(t, time.Now(), saved.Created, time.Minute)

	w = do(t, h, http.MethodGet, "/"+saved.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[core.Document](t, w)
	assert.Equal(t, saved.ID, found.ID)
	assert.Equal(t, &core.Author{ID: "a1", Name: "Ann"}, found.Author)
	assert.True(t, saved.Created.Equal(found.Created))

	w = do(t, h, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Error, "not found")
}

func TestSaveKeepsCreated(t *testing.T) {
	h := Routes(memory.NewDocumentStore())

	w := do(t, h, http.MethodPost, "/", `{"id":"d1","title":"v1","created":"2024-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/", `{"id":"d1","title":"v2","created":"2025-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, w.Code)
	saved := decode[core.Document](t, w)
	assert.Equal(t, "v2", saved.Title)
	assert.Equal(t, 2024, saved.Created.Year())
}

func TestSaveRejectsInvalidJSON(t *testing.T) {
	h := Routes(memory.NewDocumentStore())

	w := do(t, h, http.MethodPost, "/", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Error, "invalid document")
}

func seed(t *testing.T) http.Handler {
	store := memory.NewDocumentStore()
	for _, d := range []core.Document{
		{ID: "foobar", Title: "FooBar", Content: "hello world", Author: &core.Author{ID: "a1"}, Created: time.Unix(100, 0).UTC()},
		{ID: "bar", Title: "Bar", Content: "goodbye", Created: time.Unix(200, 0).UTC()},
	} {
		_, err := store.Save(context.Background(), d)
		require.NoError(t, err)
	}
	return Routes(store)
}

func ids(docs []core.Document) []string {
	out := []string{}
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestSearch(t *testing.T) {
	h := seed(t)

	cases := []struct {
		name string
		body string
		want []string
	}{
		{"empty body", ``, []string{"foobar", "bar"}},
		{"empty object", `{}`, []string{"foobar", "bar"}},
		{"title prefix", `{"titlePrefixes":["Foo"]}`, []string{"foobar"}},
		{"author excludes missing author", `{"authorIds":["a1"]}`, []string{"foobar"}},
		{"inclusive bounds", `{"createdFrom":"1970-01-01T00:01:40Z","createdTo":"1970-01-01T00:03:20Z"}`, []string{"foobar", "bar"}},
		{"no match", `{"containsContents":["nothing"]}`, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/search", tc.body)
			require.Equal(t, http.StatusOK, w.Code)
			assert.ElementsMatch(t, tc.want, ids(decode[[]core.Document](t, w)))
		})
	}

	w := do(t, h, http.MethodPost, "/search", `{"titlePrefixes":"Foo"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEmptyResultIsArray(t *testing.T) {
	h := Routes(memory.NewDocumentStore())

	w := do(t, h, http.MethodPost, "/search", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestQuery(t *testing.T) {
	h := seed(t)

	w := do(t, h, http.MethodGet, "/?titlePrefix=Zed&titlePrefix=Ba", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"bar"}, ids(decode[[]core.Document](t, w)))

	w = do(t, h, http.MethodGet, "/?createdTo=1970-01-01T00:01:40Z", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"foobar"}, ids(decode[[]core.Document](t, w)))

	w = do(t, h, http.MethodGet, "/?createdFrom=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseQuery(t *testing.T) {
	request, err := ParseQuery(url.Values{
		"content":     {"a", "b"},
		"authorId":    {"x"},
		"createdFrom": {"2024-05-01T10:00:00.5Z"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, request.ContainsContents)
	assert.Equal(t, []string{"x"}, request.AuthorIDs)
	assert.Nil(t, request.TitlePrefixes)
	require.NotNil(t, request.CreatedFrom)
	assert.Equal(t, 500*time.Millisecond, time.Duration(request.CreatedFrom.Nanosecond()))
	assert.Nil(t, request.CreatedTo)

	empty, err := ParseQuery(url.Values{})
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

type failingStore struct{}

func (failingStore) Save(context.Context, core.Document) (core.Document, error) {
	return core.Document{}, errors.New("disk full")
}

func (failingStore) FindID(context.Context, string) (*core.Document, error) {
	return nil, errors.New("disk full")
}

func (failingStore) Search(context.Context, core.SearchRequest) ([]core.Document, error) {
	return nil, errors.New("disk full")
}

func TestStoreErrors(t *testing.T) {
	h := Routes(failingStore{})

	cases := []struct {
		method, target, body, want string
	}{
		{http.MethodPost, "/", `{}`, "failed to save"},
		{http.MethodGet, "/x", "", "failed to load"},
		{http.MethodPost, "/search", `{}`, "failed to search"},
		{http.MethodGet, "/?content=x", "", "failed to search"},
	}
	for _, tc := range cases {
		w := do(t, h, tc.method, tc.target, tc.body)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, tc.want, decode[ErrorResponse](t, w).Error)
	}
}
