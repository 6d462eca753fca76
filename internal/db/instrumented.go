package db

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/patch"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
	"github.com/kailas-cloud/minicompass/internal/metrics"
)

// Compile-time check: InstrumentedStore implements Store.
var _ Store = (*InstrumentedStore)(nil)

// InstrumentedStore records per-operation metrics and debug logs around a Store.
// Call metrics.RegisterStoreMetrics once before serving traffic.
type InstrumentedStore struct {
	inner  Store
	driver string
	logger *zap.Logger
}

// NewInstrumentedStore wraps inner. driver labels every metric sample.
func NewInstrumentedStore(inner Store, driver string, logger *zap.Logger) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, driver: driver, logger: logger}
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	duration := time.Since(start)
	status := "ok"
	switch {
	case errors.Is(err, ErrNoDocuments):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	metrics.StoreOperationsTotal.WithLabelValues(s.driver, op, status).Inc()
	metrics.StoreOperationDuration.WithLabelValues(s.driver, op).Observe(duration.Seconds())

	if status == "error" {
		s.logger.Debug("Store operation failed",
			zap.String("driver", s.driver),
			zap.String("op", op),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	}
}

// Ping checks connectivity.
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.observe(OpPing, start, err)
	return err //nolint:wrapcheck // decorator
}

// Close closes the inner store.
func (s *InstrumentedStore) Close() { s.inner.Close() }

// WaitForReady delegates to the inner store.
func (s *InstrumentedStore) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return s.inner.WaitForReady(ctx, timeout) //nolint:wrapcheck // decorator
}

// ListCollections lists collection names in database.
func (s *InstrumentedStore) ListCollections(ctx context.Context, database string) ([]string, error) {
	start := time.Now()
	names, err := s.inner.ListCollections(ctx, database)
	s.observe(OpListCollections, start, err)
	return names, err //nolint:wrapcheck // decorator
}

// Find returns the documents matching f within page p.
func (s *InstrumentedStore) Find(
	ctx context.Context, ns Namespace, f filter.Filter, p page.Page,
) ([]document.Document, error) {
	start := time.Now()
	docs, err := s.inner.Find(ctx, ns, f, p)
	s.observe(OpFind, start, err)
	return docs, err //nolint:wrapcheck // decorator
}

// FindOne returns the first document matching f.
func (s *InstrumentedStore) FindOne(ctx context.Context, ns Namespace, f filter.Filter) (document.Document, error) {
	start := time.Now()
	doc, err := s.inner.FindOne(ctx, ns, f)
	s.observe(OpFindOne, start, err)
	return doc, err //nolint:wrapcheck // decorator
}

// Count returns the number of documents matching f.
func (s *InstrumentedStore) Count(ctx context.Context, ns Namespace, f filter.Filter) (int64, error) {
	start := time.Now()
	n, err := s.inner.Count(ctx, ns, f)
	s.observe(OpCount, start, err)
	return n, err //nolint:wrapcheck // decorator
}

// InsertOne stores doc under a new identifier.
func (s *InstrumentedStore) InsertOne(ctx context.Context, ns Namespace, doc document.Document) (string, error) {
	start := time.Now()
	id, err := s.inner.InsertOne(ctx, ns, doc)
	s.observe(OpInsertOne, start, err)
	return id, err //nolint:wrapcheck // decorator
}

// DeleteOne removes the document with id.
func (s *InstrumentedStore) DeleteOne(ctx context.Context, ns Namespace, id string) (bool, error) {
	start := time.Now()
	ok, err := s.inner.DeleteOne(ctx, ns, id)
	s.observe(OpDeleteOne, start, err)
	return ok, err //nolint:wrapcheck // decorator
}

// ReplaceOne swaps the body of the document with id.
func (s *InstrumentedStore) ReplaceOne(
	ctx context.Context, ns Namespace, id string, doc document.Document,
) (bool, error) {
	start := time.Now()
	ok, err := s.inner.ReplaceOne(ctx, ns, id, doc)
	s.observe(OpReplaceOne, start, err)
	return ok, err //nolint:wrapcheck // decorator
}

// UpdateOne applies p to the document with id.
func (s *InstrumentedStore) UpdateOne(ctx context.Context, ns Namespace, id string, p patch.Patch) (bool, error) {
	start := time.Now()
	ok, err := s.inner.UpdateOne(ctx, ns, id, p)
	s.observe(OpUpdateOne, start, err)
	return ok, err //nolint:wrapcheck // decorator
}
