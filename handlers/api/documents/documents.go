package documents

import (
	"document-search/core"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	ErrorResponse struct {
		Error string `json:"error"`
	}
)

func renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error()})
}

// Routes mounts the document API on a fresh router.
func Routes(documentStore core.DocumentStore) chi.Router {
	r := chi.NewRouter()
	r.Post("/", HandleSave(documentStore))
	r.Get("/", HandleQuery(documentStore))
	r.Post("/search", HandleSearch(documentStore))
	r.Get("/{id}", HandleGet(documentStore))
	return r
}

func HandleSave(documentStore core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var document core.Document
		if err := render.DecodeJSON(r.Body, &document); err != nil {
			renderError(w, r, http.StatusBadRequest, fmt.Errorf("invalid document: %w", err))
			return
		}
		saved, err := documentStore.Save(r.Context(), document)
		if err != nil {
			logrus.WithError(err).Error("Failed to save document")
			renderError(w, r, http.StatusInternalServerError, errors.New("failed to save"))
			return
		}

		render.JSON(w, r, saved)
	}
}

func HandleGet(documentStore core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		document, err := documentStore.FindID(r.Context(), id)
		if errors.Is(err, core.ErrNotFound) {
			renderError(w, r, http.StatusNotFound, err)
			return
		}
		if err != nil {
			logrus.WithError(err).Error("Failed to load document")
			renderError(w, r, http.StatusInternalServerError, errors.New("failed to load"))
			return
		}
		render.JSON(w, r, document)
	}
}

// HandleSearch takes a JSON SearchRequest body. An empty body matches every
// document.
func HandleSearch(documentStore core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request core.SearchRequest
		if err := render.DecodeJSON(r.Body, &request); err != nil && !errors.Is(err, io.EOF) {
			renderError(w, r, http.StatusBadRequest, fmt.Errorf("invalid search request: %w", err))
			return
		}
		search(w, r, documentStore, request)
	}
}

// HandleQuery reads the search criteria from repeated query parameters:
// titlePrefix, content, authorId, createdFrom and createdTo (RFC 3339).
func HandleQuery(documentStore core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request, err := ParseQuery(r.URL.Query())
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err)
			return
		}
		search(w, r, documentStore, request)
	}
}

func search(w http.ResponseWriter, r *http.Request, documentStore core.DocumentStore, request core.SearchRequest) {
	results, err := documentStore.Search(r.Context(), request)
	if err != nil {
		logrus.WithError(err).Error("Failed to search documents")
		renderError(w, r, http.StatusInternalServerError, errors.New("failed to search"))
		return
	}
	render.JSON(w, r, results)
}

func ParseQuery(query url.Values) (core.SearchRequest, error) {
	request := core.SearchRequest{
		TitlePrefixes:    query["titlePrefix"],
		ContainsContents: query["content"],
		AuthorIDs:        query["authorId"],
	}
	var err error
	if request.CreatedFrom, err = parseTime(query, "createdFrom"); err != nil {
		return core.SearchRequest{}, err
	}
	if request.CreatedTo, err = parseTime(query, "createdTo"); err != nil {
		return core.SearchRequest{}, err
	}
	return request, nil
}

func parseTime(query url.Values, key string) (*time.Time, error) {
	value := query.Get(key)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &t, nil
}
