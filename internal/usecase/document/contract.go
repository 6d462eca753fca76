package document

import (
	"context"

	"github.com/kailas-cloud/minicompass/internal/db"
	domdoc "github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/patch"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
)

// Store defines the storage contract for documents.
type Store interface {
	Find(ctx context.Context, ns db.Namespace, f filter.Filter, p page.Page) ([]domdoc.Document, error)
	FindOne(ctx context.Context, ns db.Namespace, f filter.Filter) (domdoc.Document, error)
	Count(ctx context.Context, ns db.Namespace, f filter.Filter) (int64, error)
	InsertOne(ctx context.Context, ns db.Namespace, doc domdoc.Document) (string, error)
	DeleteOne(ctx context.Context, ns db.Namespace, id string) (bool, error)
	ReplaceOne(ctx context.Context, ns db.Namespace, id string, doc domdoc.Document) (bool, error)
	UpdateOne(ctx context.Context, ns db.Namespace, id string, p patch.Patch) (bool, error)
}
