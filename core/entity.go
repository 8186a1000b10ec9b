package core

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

var ErrNotFound = errors.New("document not found")

type (
	Author struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// Document is keyed by ID. An empty ID or a zero Created means the
	// value has not been assigned yet; DocumentStore.Save fills both in.
	Document struct {
		ID      string    `json:"id"`
		Title   string    `json:"title"`
		Content string    `json:"content"`
		Author  *Author   `json:"author,omitempty"`
		Created time.Time `json:"created"`
	}

	// SearchRequest bundles optional criteria. A nil or empty field puts
	// no constraint on its dimension, so the zero value matches everything.
	SearchRequest struct {
		TitlePrefixes    []string   `json:"titlePrefixes,omitempty"`
		ContainsContents []string   `json:"containsContents,omitempty"`
		AuthorIDs        []string   `json:"authorIds,omitempty"`
		CreatedFrom      *time.Time `json:"createdFrom,omitempty"`
		CreatedTo        *time.Time `json:"createdTo,omitempty"`
	}

	DocumentStore interface {
		// Save inserts or replaces the document under its ID, assigning an ID
		// and a creation time when they are missing. A document already
		// stored under the same ID keeps its original creation time.
		Save(ctx context.Context, document Document) (Document, error)
		// FindID returns an error wrapping ErrNotFound when no document is
		// stored under id.
		FindID(ctx context.Context, id string) (*Document, error)
		Search(ctx context.Context, request SearchRequest) ([]Document, error)
	}
)

// NewID returns a fresh, lexically sortable document identifier.
func NewID() string {
	return ulid.Make().String()
}

// Clone returns a copy of d that shares no memory with it.
func (d Document) Clone() Document {
	if d.Author != nil {
		author := *d.Author
		d.Author = &author
	}
	return d
}

// Prepare fills in the identity fields of d before it is stored. existing is
// the document currently stored under d.ID, or nil. now is only consulted
// when d needs a creation time.
func Prepare(d Document, existing *Document, now func() time.Time) Document {
	d = d.Clone()
	if d.ID == "" {
		d.ID = NewID()
	}
	switch {
	case existing != nil:
		d.Created = existing.Created
	case d.Created.IsZero():
		d.Created = now()
	}
	return d
}

// Now is the default clock of the stores. The monotonic reading is dropped
// so stored values compare equal after a round trip through any backend.
func Now() time.Time {
	return time.Now().UTC()
}
