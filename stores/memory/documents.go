package memory

import (
	"context"
	"document-search/core"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type documentStore struct {
	mu        sync.RWMutex
	documents map[string]core.Document
	now       func() time.Time
}

type Option func(*documentStore)

// WithClock replaces the clock used to stamp new documents.
func WithClock(now func() time.Time) Option {
	return func(s *documentStore) {
		s.now = now
	}
}

func NewDocumentStore(opts ...Option) core.DocumentStore {
	s := &documentStore{
		documents: make(map[string]core.Document),
		now:       core.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentStore) Save(ctx context.Context, document core.Document) (core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *core.Document
	if val, ok := s.documents[document.ID]; ok {
		existing = &val
	}
	stored := core.Prepare(document, existing, s.now)
	s.documents[stored.ID] = stored

	logrus.WithFields(logrus.Fields{
		"document_id": stored.ID,
		"created":     stored.Created,
		"update":      existing != nil,
	}).Info("Document saved successfully")
	return stored.Clone(), nil
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if val, ok := s.documents[id]; ok {
		val = val.Clone()
		return &val, nil
	}
	return nil, fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
}

func (s *documentStore) Search(ctx context.Context, request core.SearchRequest) ([]core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]core.Document, 0)
	for _, document := range s.documents {
		if request.Matches(document) {
			results = append(results, document.Clone())
		}
	}
	return results, nil
}
