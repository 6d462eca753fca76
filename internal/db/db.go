package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/patch"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade; consumers depend on narrow sub-interfaces
type Store interface {
	Pinger
	CollectionLister
	DocumentReader
	DocumentWriter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Namespace addresses one collection inside one database.
type Namespace struct {
	Database   string
	Collection string
}

func (n Namespace) String() string { return n.Database + "." + n.Collection }

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CollectionLister enumerates the collections of a database.
type CollectionLister interface {
	ListCollections(ctx context.Context, database string) ([]string, error)
}

// DocumentReader provides read access to documents.
//
// Documents come back in store order: insertion order for the embedded
// backends, natural order for mongo.
type DocumentReader interface {
	Find(ctx context.Context, ns Namespace, f filter.Filter, p page.Page) ([]document.Document, error)
	// FindOne returns ErrNoDocuments when nothing matches.
	FindOne(ctx context.Context, ns Namespace, f filter.Filter) (document.Document, error)
	Count(ctx context.Context, ns Namespace, f filter.Filter) (int64, error)
}

// DocumentWriter provides single-document writes keyed by identifier.
// The bool results report whether a document with the identifier existed.
type DocumentWriter interface {
	InsertOne(ctx context.Context, ns Namespace, doc document.Document) (string, error)
	DeleteOne(ctx context.Context, ns Namespace, id string) (bool, error)
	ReplaceOne(ctx context.Context, ns Namespace, id string, doc document.Document) (bool, error)
	UpdateOne(ctx context.Context, ns Namespace, id string, p patch.Patch) (bool, error)
}
