package stores

import (
	"context"
	"document-search/core"
	"document-search/metrics"
	"errors"
	"time"
)

type instrumentedStore struct {
	next    core.DocumentStore
	backend string
}

// Instrument records operation counts, latencies and search result sizes for
// store under the given backend label.
func Instrument(store core.DocumentStore, backend string) core.DocumentStore {
	return &instrumentedStore{next: store, backend: backend}
}

func (s *instrumentedStore) observe(operation string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, core.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	metrics.StoreOperations.WithLabelValues(s.backend, operation, result).Inc()
	metrics.StoreOperationDuration.WithLabelValues(s.backend, operation).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) Save(ctx context.Context, document core.Document) (core.Document, error) {
	start := time.Now()
	saved, err := s.next.Save(ctx, document)
	s.observe("save", start, err)
	return saved, err
}

func (s *instrumentedStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	start := time.Now()
	document, err := s.next.FindID(ctx, id)
	s.observe("find", start, err)
	return document, err
}

func (s *instrumentedStore) Search(ctx context.Context, request core.SearchRequest) ([]core.Document, error) {
	start := time.Now()
	results, err := s.next.Search(ctx, request)
	s.observe("search", start, err)
	if err == nil {
		metrics.SearchResults.WithLabelValues(s.backend).Observe(float64(len(results)))
	}
	return results, err
}

type observedStore struct {
	core.DocumentStore
	onSave func(core.Document)
}

// OnSave calls fn with every document store saves successfully.
func OnSave(store core.DocumentStore, fn func(core.Document)) core.DocumentStore {
	return &observedStore{DocumentStore: store, onSave: fn}
}

func (s *observedStore) Save(ctx context.Context, document core.Document) (core.Document, error) {
	saved, err := s.DocumentStore.Save(ctx, document)
	if err == nil {
		s.onSave(saved.Clone())
	}
	return saved, err
}
