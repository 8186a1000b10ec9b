package redis

import (
	"context"
	"document-search/core"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const maxSaveAttempts = 10

// documentStore keeps each document as JSON under "<prefix>doc:<id>" and the
// set of known ids under "<prefix>ids", a key no document id can produce.
type documentStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewDocumentStore(client *redis.Client, prefix string) core.DocumentStore {
	if prefix == "" {
		prefix = "document:"
	}
	return &documentStore{client: client, prefix: prefix, now: core.Now}
}

func (s *documentStore) key(id string) string {
	return s.prefix + "doc:" + id
}

func (s *documentStore) idsKey() string {
	return s.prefix + "ids"
}

func decode(data []byte) (*core.Document, error) {
	var document core.Document
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &document, nil
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)
	log.Debug("Retrieving document by ID")

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			log.Warn("Document with specified ID not found")
			return nil, fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
		}
		log.WithField("error", err).Error("Failed to retrieve document")
		return nil, err
	}
	return decode(data)
}

// Save watches the document key so a concurrent first save of the same id
// cannot overwrite the creation time chosen by the other writer.
func (s *documentStore) Save(ctx context.Context, document core.Document) (core.Document, error) {
	if document.ID == "" {
		document.ID = core.NewID()
	}
	key := s.key(document.ID)
	log := logrus.WithField("document_id", document.ID)

	var stored core.Document
	txf := func(tx *redis.Tx) error {
		var existing *core.Document
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if existing, err = decode(data); err != nil {
				return err
			}
		}

		stored = core.Prepare(document, existing, s.now)
		payload, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.SAdd(ctx, s.idsKey(), stored.ID)
			return nil
		})
		return err
	}

	for i := 0; i < maxSaveAttempts; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			log.WithField("error", err).Error("Failed to save document")
			return core.Document{}, err
		}
		log.Info("Document saved successfully")
		return stored, nil
	}
	return core.Document{}, fmt.Errorf("document with id %s: too many concurrent writers", document.ID)
}

func (s *documentStore) Search(ctx context.Context, request core.SearchRequest) ([]core.Document, error) {
	ids, err := s.client.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		return nil, err
	}
	results := make([]core.Document, 0)
	if len(ids) == 0 {
		return results, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Key expired or was removed outside the store.
			continue
		}
		document, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		if request.Matches(*document) {
			results = append(results, *document)
		}
	}
	logrus.WithField("results", len(results)).Debug("Searched documents")
	return results, nil
}
