// Package mongodb serves documents from MongoDB through the official driver.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kailas-cloud/minicompass/internal/db"
	"github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/oid"
	"github.com/kailas-cloud/minicompass/internal/domain/document/patch"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// codePathNotViable is the server error for $set through a non-object value.
const codePathNotViable = 28

// Config holds connection parameters for a MongoDB store.
type Config struct {
	URI            string
	ConnectTimeout time.Duration
}

// Store implements db.Store on a shared *mongo.Client.
type Store struct {
	client *mongo.Client
}

// NewStore connects a client. The driver dials lazily; use WaitForReady to
// block until the deployment answers.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("uri is required")
	}
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{client: client}, nil
}

// Ping checks connectivity against the primary.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Store) coll(ns db.Namespace) *mongo.Collection {
	return s.client.Database(ns.Database).Collection(ns.Collection)
}

// ListCollections returns the collection names of database in sorted order.
func (s *Store) ListCollections(ctx context.Context, database string) ([]string, error) {
	names, err := s.client.Database(database).ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, &db.Error{Op: db.OpListCollections, Err: err}
	}
	sort.Strings(names)
	return names, nil
}

// Find returns the documents matching f within page p, in natural order.
func (s *Store) Find(ctx context.Context, ns db.Namespace, f filter.Filter, p page.Page) ([]document.Document, error) {
	opts := options.Find().SetSkip(int64(p.Skip())).SetLimit(int64(p.Limit()))
	cur, err := s.coll(ns).Find(ctx, toBSON(f), opts)
	if err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}
	docs := make([]document.Document, len(raw))
	for i, m := range raw {
		docs[i] = fromBSON(m)
	}
	return docs, nil
}

// FindOne returns the first document matching f.
func (s *Store) FindOne(ctx context.Context, ns db.Namespace, f filter.Filter) (document.Document, error) {
	var m bson.M
	err := s.coll(ns).FindOne(ctx, toBSON(f)).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, db.ErrNoDocuments
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpFindOne, Err: err}
	}
	return fromBSON(m), nil
}

// Count returns the number of documents matching f.
func (s *Store) Count(ctx context.Context, ns db.Namespace, f filter.Filter) (int64, error) {
	n, err := s.coll(ns).CountDocuments(ctx, toBSON(f))
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return n, nil
}

// InsertOne stores doc under a fresh ObjectID.
func (s *Store) InsertOne(ctx context.Context, ns db.Namespace, doc document.Document) (string, error) {
	id := oid.New()
	body := bson.M(doc.Clone())
	if body == nil {
		body = bson.M{}
	}
	body[document.IDField] = id.ObjectID()

	if _, err := s.coll(ns).InsertOne(ctx, body); err != nil {
		return "", &db.Error{Op: db.OpInsertOne, Err: err}
	}
	return id.String(), nil
}

// DeleteOne removes the document with id.
func (s *Store) DeleteOne(ctx context.Context, ns db.Namespace, id string) (bool, error) {
	res, err := s.coll(ns).DeleteOne(ctx, byID(id))
	if err != nil {
		return false, &db.Error{Op: db.OpDeleteOne, Err: err}
	}
	return res.DeletedCount > 0, nil
}

// ReplaceOne swaps the body of the document with id.
func (s *Store) ReplaceOne(ctx context.Context, ns db.Namespace, id string, doc document.Document) (bool, error) {
	body := bson.M(doc.Clone())
	delete(body, document.IDField)

	res, err := s.coll(ns).ReplaceOne(ctx, byID(id), body)
	if err != nil {
		return false, &db.Error{Op: db.OpReplaceOne, Err: err}
	}
	return res.MatchedCount > 0, nil
}

// UpdateOne applies p as a $set of its dotted paths.
func (s *Store) UpdateOne(ctx context.Context, ns db.Namespace, id string, p patch.Patch) (bool, error) {
	res, err := s.coll(ns).UpdateOne(ctx, byID(id), bson.M{"$set": bson.M(p.Fields())})
	if err != nil {
		var se mongo.ServerError
		if errors.As(err, &se) && se.HasErrorCode(codePathNotViable) {
			// Server text quotes stored values; only the sentinel travels up.
			return false, &db.Error{Op: db.OpUpdateOne, Err: document.ErrPathConflict}
		}
		return false, &db.Error{Op: db.OpUpdateOne, Err: err}
	}
	return res.MatchedCount > 0, nil
}

func byID(id string) bson.M {
	return bson.M{document.IDField: oid.ID(id).ObjectID()}
}
