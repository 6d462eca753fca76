package collection

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/minicompass/internal/db"
	"github.com/kailas-cloud/minicompass/internal/domain"
	domcol "github.com/kailas-cloud/minicompass/internal/domain/collection"
)

// Service handles collection listing.
type Service struct {
	store           Lister
	defaultDatabase string
}

// New creates a collection service.
func New(store Lister) *Service {
	return &Service{store: store, defaultDatabase: domcol.DefaultDatabase}
}

// WithDefaultDatabase sets the database used when a request names none.
func (s *Service) WithDefaultDatabase(name string) *Service {
	if name != "" {
		s.defaultDatabase = name
	}
	return s
}

// List returns the collection names of database in sorted order.
// An empty database selects the default one.
func (s *Service) List(ctx context.Context, database string) ([]string, error) {
	if database == "" {
		database = s.defaultDatabase
	}
	if err := domcol.ValidateDatabase(database); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}

	names, err := s.store.ListCollections(ctx, database)
	if err != nil {
		if errors.Is(err, db.ErrNotConnected) {
			return nil, fmt.Errorf("list collections: %w: %w", domain.ErrStoreUnavailable, err)
		}
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	sort.Strings(names)
	return names, nil
}
