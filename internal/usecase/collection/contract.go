package collection

import "context"

// Lister enumerates the collections of a database.
type Lister interface {
	ListCollections(ctx context.Context, database string) ([]string, error)
}
