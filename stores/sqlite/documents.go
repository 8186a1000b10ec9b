package sqlite

import (
	"context"
	"database/sql"
	"document-search/core"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	content     TEXT NOT NULL,
	author_id   TEXT,
	author_name TEXT,
	created     INTEGER NOT NULL
);`

// created is not in the update list, so an existing row keeps it.
const upsert = `INSERT INTO documents (id, title, content, author_id, author_name, created)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	content = excluded.content,
	author_id = excluded.author_id,
	author_name = excluded.author_name
RETURNING created`

const selectColumns = `SELECT id, title, content, author_id, author_name, created FROM documents`

// created holds Unix nanoseconds, so only this range can be stored or compared.
var (
	minCreated = time.Unix(0, math.MinInt64)
	maxCreated = time.Unix(0, math.MaxInt64)
)

type documentStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewDocumentStore(dataSourceName string) (core.DocumentStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: opens a separate database.
	if strings.Contains(dataSourceName, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &documentStore{db: db, now: core.Now}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*core.Document, error) {
	var (
		document   core.Document
		authorID   sql.NullString
		authorName sql.NullString
		created    int64
	)
	if err := row.Scan(&document.ID, &document.Title, &document.Content, &authorID, &authorName, &created); err != nil {
		return nil, err
	}
	if authorID.Valid {
		document.Author = &core.Author{ID: authorID.String, Name: authorName.String}
	}
	document.Created = time.Unix(0, created).UTC()
	return &document, nil
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)
	log.Debug("Retrieving document by ID")

	document, err := scanDocument(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Document with specified ID not found")
			return nil, fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
		}
		log.WithField("error", err).Error("Failed to retrieve document")
		return nil, err
	}
	return document, nil
}

func (s *documentStore) Save(ctx context.Context, document core.Document) (core.Document, error) {
	stored := core.Prepare(document, nil, s.now)

	var authorID, authorName sql.NullString
	if stored.Author != nil {
		authorID = sql.NullString{String: stored.Author.ID, Valid: true}
		authorName = sql.NullString{String: stored.Author.Name, Valid: true}
	}
	log := logrus.WithField("document_id", stored.ID)

	var created int64
	err := s.db.QueryRowContext(ctx, upsert,
		stored.ID, stored.Title, stored.Content, authorID, authorName, stored.Created.UnixNano(),
	).Scan(&created)
	if err != nil {
		log.WithField("error", err).Error("Failed to save document")
		return core.Document{}, err
	}
	stored.Created = time.Unix(0, created).UTC()

	log.Info("Document saved successfully")
	return stored, nil
}

// buildSearch turns request into a WHERE clause. Prefix and substring tests
// use substr/instr, which are case-sensitive and treat % and _ literally.
func buildSearch(request core.SearchRequest) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	anyOf := func(values []string, clause func(v string) string) {
		parts := make([]string, 0, len(values))
		for _, v := range values {
			parts = append(parts, clause(v))
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}

	if len(request.TitlePrefixes) > 0 {
		anyOf(request.TitlePrefixes, func(v string) string {
			args = append(args, v, v)
			return "substr(title, 1, length(?)) = ?"
		})
	}
	if len(request.ContainsContents) > 0 {
		anyOf(request.ContainsContents, func(v string) string {
			args = append(args, v)
			return "instr(content, ?) > 0"
		})
	}
	if len(request.AuthorIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(request.AuthorIDs)), ", ")
		clauses = append(clauses, "author_id IN ("+placeholders+")")
		for _, id := range request.AuthorIDs {
			args = append(args, id)
		}
	}
	// Bounds outside the representable range are either no-ops or exclude
	// everything; UnixNano is undefined for them.
	if from := request.CreatedFrom; from != nil && !from.Before(minCreated) {
		if from.After(maxCreated) {
			clauses = append(clauses, "0 = 1")
		} else {
			clauses = append(clauses, "created >= ?")
			args = append(args, from.UnixNano())
		}
	}
	if to := request.CreatedTo; to != nil && !to.After(maxCreated) {
		if to.Before(minCreated) {
			clauses = append(clauses, "0 = 1")
		} else {
			clauses = append(clauses, "created <= ?")
			args = append(args, to.UnixNano())
		}
	}

	if len(clauses) == 0 {
		return selectColumns, nil
	}
	return selectColumns + " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *documentStore) Search(ctx context.Context, request core.SearchRequest) ([]core.Document, error) {
	query, args := buildSearch(request)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logrus.WithField("error", err).Error("Failed to search documents")
		return nil, err
	}
	defer rows.Close()

	results := make([]core.Document, 0)
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *document)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logrus.WithField("results", len(results)).Debug("Searched documents")
	return results, nil
}
