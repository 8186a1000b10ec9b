package aws

import (
	"bytes"
	"context"
	"document-search/core"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

const objectExt = ".json"

// s3API is the part of *s3.Client the store uses.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	s3.ListObjectsV2APIClient
}

type documentStore struct {
	s3Client s3API
	bucket   string // Name of the S3 bucket
	prefix   string // Key prefix of every document object
	now      func() time.Time

	// S3 has no compare-and-set here; saves are serialized per process.
	mu sync.Mutex
}

func NewDocumentStore(ctx context.Context, bucketName, prefix string) (core.DocumentStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return newDocumentStore(s3.NewFromConfig(cfg), bucketName, prefix), nil
}

func newDocumentStore(client s3API, bucketName, prefix string) *documentStore {
	return &documentStore{
		s3Client: client,
		bucket:   bucketName,
		prefix:   prefix,
		now:      core.Now,
	}
}

func (s *documentStore) key(id string) string {
	return s.prefix + id + objectExt
}

func (s *documentStore) get(ctx context.Context, key string) (*core.Document, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document data: %w", err)
	}
	var document core.Document
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to decode object %s: %w", key, err)
	}
	return &document, nil
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)
	log.Debug("Retrieving document by ID")

	document, err := s.get(ctx, s.key(id))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
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
		found, err := s.get(ctx, s.key(document.ID))
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return core.Document{}, err
		}
		existing = found
	}
	stored := core.Prepare(document, existing, s.now)
	log := logrus.WithFields(logrus.Fields{
		"document_id": stored.ID,
		"bucket":      s.bucket,
	})

	data, err := json.Marshal(stored)
	if err != nil {
		return core.Document{}, err
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(stored.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		log.WithField("error", err).Error("Failed to upload document")
		return core.Document{}, fmt.Errorf("failed to upload document: %w", err)
	}

	log.Info("Document saved successfully")
	return stored, nil
}

func (s *documentStore) Search(ctx context.Context, request core.SearchRequest) ([]core.Document, error) {
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	results := make([]core.Document, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if !strings.HasSuffix(key, objectExt) {
				continue
			}
			document, err := s.get(ctx, key)
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if request.Matches(*document) {
				results = append(results, *document)
			}
		}
	}
	logrus.WithField("results", len(results)).Debug("Searched documents")
	return results, nil
}
