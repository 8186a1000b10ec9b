package filesystem

import (
	"context"
	"crypto/sha256"
	"document-search/core"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const fileExt = ".json"

type documentStore struct {
	basePath string // Directory where documents are stored.
	now      func() time.Time

	// Serializes the read-modify-write of Save.
	mu sync.Mutex
}

func NewDocumentStore(basePath string) (core.DocumentStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &documentStore{basePath: basePath, now: core.Now}, nil
}

// File names are the sha256 of the id, so any id maps to a single
// fixed-length name inside basePath. The id itself lives in the JSON.
func (s *documentStore) path(id string) string {
	sum := sha256.Sum256([]byte(id))
	return filepath.Join(s.basePath, hex.EncodeToString(sum[:])+fileExt)
}

func (s *documentStore) read(filePath string) (*core.Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var document core.Document
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filePath, err)
	}
	return &document, nil
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	filePath := s.path(id)
	log := logrus.WithField("document_id", id)

	log.WithField("file_path", filePath).Debug("Retrieving document by ID")
	document, err := s.read(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("Document with specified ID not found")
			return nil, fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
		}
		log.WithField("error", err).Error("Failed to retrieve document")
		return nil, err
	}
	return document, nil
}

func (s *documentStore) Save(ctx context.Context, document core.Document) (core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *core.Document
	if document.ID != "" {
		found, err := s.read(s.path(document.ID))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return core.Document{}, err
		}
		existing = found
	}
	stored := core.Prepare(document, existing, s.now)

	filePath := s.path(stored.ID)
	log := logrus.WithFields(logrus.Fields{
		"document_id": stored.ID,
		"file_path":   filePath,
	})

	data, err := json.Marshal(stored)
	if err != nil {
		return core.Document{}, err
	}
	tmp, err := os.CreateTemp(s.basePath, ".save-*")
	if err != nil {
		log.WithField("error", err).Error("Failed to save document")
		return core.Document{}, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		log.WithField("error", err).Error("Failed to save document")
		return core.Document{}, err
	}
	if err := tmp.Close(); err != nil {
		return core.Document{}, err
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		log.WithField("error", err).Error("Failed to save document")
		return core.Document{}, err
	}

	log.WithField("update", existing != nil).Info("Document saved successfully")
	return stored, nil
}

func (s *documentStore) Search(ctx context.Context, request core.SearchRequest) ([]core.Document, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}

	results := make([]core.Document, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		document, err := s.read(filepath.Join(s.basePath, entry.Name()))
		if err != nil {
			// Removed between ReadDir and ReadFile.
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if request.Matches(*document) {
			results = append(results, *document)
		}
	}
	logrus.WithField("results", len(results)).Debug("Searched documents")
	return results, nil
}
