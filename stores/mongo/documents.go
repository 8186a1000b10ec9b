package mongo

import (
	"context"
	"document-search/core"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	authorRecord struct {
		ID   string `bson:"id"`
		Name string `bson:"name"`
	}

	documentRecord struct {
		ID      string        `bson:"_id"`
		Title   string        `bson:"title"`
		Content string        `bson:"content"`
		Author  *authorRecord `bson:"author"`
		Created time.Time     `bson:"created"`
	}
)

func (r documentRecord) document() core.Document {
	d := core.Document{
		ID:      r.ID,
		Title:   r.Title,
		Content: r.Content,
		Created: r.Created.UTC(),
	}
	if r.Author != nil {
		d.Author = &core.Author{ID: r.Author.ID, Name: r.Author.Name}
	}
	return d
}

type documentStore struct {
	col *mongo.Collection
	now func() time.Time
}

// Connect dials uri and returns a store over database.collection.
func Connect(ctx context.Context, uri, database, collection string, timeout time.Duration) (core.DocumentStore, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongodb: %w", err)
	}
	return NewDocumentStore(client.Database(database).Collection(collection)), nil
}

func NewDocumentStore(col *mongo.Collection) core.DocumentStore {
	// BSON dates carry milliseconds; stamp new documents at that precision
	// so the value handed back by Save equals the stored one.
	now := func() time.Time { return core.Now().Truncate(time.Millisecond) }
	return &documentStore{col: col, now: now}
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)
	log.Debug("Retrieving document by ID")

	var record documentRecord
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Warn("Document with specified ID not found")
			return nil, fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
		}
		log.WithField("error", err).Error("Failed to retrieve document")
		return nil, err
	}
	document := record.document()
	return &document, nil
}

// Save is a single upsert: created is only written by $setOnInsert, so an
// existing document keeps its value and the returned record carries it.
func (s *documentStore) Save(ctx context.Context, document core.Document) (core.Document, error) {
	stored := core.Prepare(document, nil, s.now)
	log := logrus.WithField("document_id", stored.ID)

	var author *authorRecord
	if stored.Author != nil {
		author = &authorRecord{ID: stored.Author.ID, Name: stored.Author.Name}
	}
	update := bson.M{
		"$set": bson.M{
			"title":   stored.Title,
			"content": stored.Content,
			"author":  author,
		},
		"$setOnInsert": bson.M{"created": stored.Created},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var record documentRecord
	if err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": stored.ID}, update, opts).Decode(&record); err != nil {
		log.WithField("error", err).Error("Failed to save document")
		return core.Document{}, err
	}

	log.Info("Document saved successfully")
	return record.document(), nil
}

// buildFilter translates request into a query document. Prefixes and
// substrings are quoted so they match literally and case-sensitively.
func buildFilter(request core.SearchRequest) bson.M {
	var and bson.A

	if len(request.TitlePrefixes) > 0 {
		or := bson.A{}
		for _, p := range request.TitlePrefixes {
			or = append(or, bson.M{"title": bson.M{"$regex": "^" + regexp.QuoteMeta(p)}})
		}
		and = append(and, bson.M{"$or": or})
	}
	if len(request.ContainsContents) > 0 {
		or := bson.A{}
		for _, c := range request.ContainsContents {
			or = append(or, bson.M{"content": bson.M{"$regex": regexp.QuoteMeta(c)}})
		}
		and = append(and, bson.M{"$or": or})
	}
	if len(request.AuthorIDs) > 0 {
		and = append(and, bson.M{"author.id": bson.M{"$in": request.AuthorIDs}})
	}
	if request.CreatedFrom != nil || request.CreatedTo != nil {
		created := bson.M{}
		if request.CreatedFrom != nil {
			created["$gte"] = *request.CreatedFrom
		}
		if request.CreatedTo != nil {
			created["$lte"] = *request.CreatedTo
		}
		and = append(and, bson.M{"created": created})
	}

	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

func (s *documentStore) Search(ctx context.Context, request core.SearchRequest) ([]core.Document, error) {
	cur, err := s.col.Find(ctx, buildFilter(request))
	if err != nil {
		logrus.WithField("error", err).Error("Failed to search documents")
		return nil, err
	}
	defer cur.Close(ctx)

	results := make([]core.Document, 0)
	for cur.Next(ctx) {
		var record documentRecord
		if err := cur.Decode(&record); err != nil {
			return nil, err
		}
		results = append(results, record.document())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	logrus.WithField("results", len(results)).Debug("Searched documents")
	return results, nil
}
