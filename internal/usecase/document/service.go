package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/minicompass/internal/db"
	"github.com/kailas-cloud/minicompass/internal/domain"
	domcol "github.com/kailas-cloud/minicompass/internal/domain/collection"
	domdoc "github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/oid"
	"github.com/kailas-cloud/minicompass/internal/domain/document/patch"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
)

// Query selects documents for Service.Query. Field and Value filter together:
// both or neither. A nil Limit means the default page size; zero selects nothing.
type Query struct {
	Field *string
	Value *string
	Limit *int
	Skip  int
}

// Service handles document reads and single-document writes.
// Every input is validated before the store is touched.
type Service struct {
	store           Store
	defaultDatabase string
	defaultPageSize int
	maxPageSize     int
}

// New creates a document service.
func New(store Store) *Service {
	return &Service{
		store:           store,
		defaultDatabase: domcol.DefaultDatabase,
		defaultPageSize: page.DefaultLimit,
		maxPageSize:     1000,
	}
}

// WithDefaultDatabase sets the database used when a request names none.
func (s *Service) WithDefaultDatabase(name string) *Service {
	if name != "" {
		s.defaultDatabase = name
	}
	return s
}

// WithDefaultPageSize sets the limit applied when a query leaves it unset.
func (s *Service) WithDefaultPageSize(n int) *Service {
	if n > 0 {
		s.defaultPageSize = n
	}
	return s
}

// WithMaxPageSize caps Query limits.
func (s *Service) WithMaxPageSize(n int) *Service {
	if n > 0 {
		s.maxPageSize = n
	}
	return s
}

func (s *Service) namespace(database, collection string) (db.Namespace, error) {
	ref, err := domcol.NewRef(database, collection, s.defaultDatabase)
	if err != nil {
		return db.Namespace{}, invalid(err)
	}
	return db.Namespace{Database: ref.Database(), Collection: ref.Name()}, nil
}

// Query returns at most Limit documents after skipping Skip, optionally filtered
// by a single field equal to the coerced value.
func (s *Service) Query(ctx context.Context, database, collection string, q Query) ([]domdoc.Document, error) {
	ns, err := s.namespace(database, collection)
	if err != nil {
		return nil, err
	}
	limit := s.defaultPageSize
	if q.Limit != nil {
		limit = *q.Limit
	}
	p, err := page.New(limit, q.Skip, s.maxPageSize)
	if err != nil {
		return nil, fmt.Errorf("validate page: %w", err)
	}

	f := filter.All()
	switch {
	case q.Field != nil && q.Value != nil:
		if f, err = filter.FromQuery(*q.Field, *q.Value); err != nil {
			return nil, fmt.Errorf("build filter: %w", err)
		}
	case q.Field != nil || q.Value != nil:
		return nil, fmt.Errorf("field and value must be given together: %w", domain.ErrInvalidArgument)
	}
	// Stores read a zero limit as unbounded.
	if limit == 0 {
		return []domdoc.Document{}, nil
	}

	docs, err := s.store.Find(ctx, ns, f, p)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", storeErr(err))
	}
	return docs, nil
}

// FindOne returns the first document matching every condition.
func (s *Service) FindOne(ctx context.Context, database, collection string, conds map[string]any) (domdoc.Document, error) {
	ns, f, err := s.prepareFilter(database, collection, conds)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.FindOne(ctx, ns, f)
	if err != nil {
		return nil, fmt.Errorf("find document: %w", storeErr(err))
	}
	return doc, nil
}

// Exists reports whether any document matches every condition.
func (s *Service) Exists(ctx context.Context, database, collection string, conds map[string]any) (bool, error) {
	ns, f, err := s.prepareFilter(database, collection, conds)
	if err != nil {
		return false, err
	}
	_, err = s.store.FindOne(ctx, ns, f)
	if errors.Is(err, db.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find document: %w", storeErr(err))
	}
	return true, nil
}

// CountByValue counts documents whose field equals the coerced raw value.
// Callers treat a count of two or more as a duplicate.
func (s *Service) CountByValue(ctx context.Context, database, collection, field, raw string) (int64, error) {
	ns, err := s.namespace(database, collection)
	if err != nil {
		return 0, err
	}
	f, err := filter.FromQuery(field, raw)
	if err != nil {
		return 0, fmt.Errorf("build filter: %w", err)
	}
	n, err := s.store.Count(ctx, ns, f)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", storeErr(err))
	}
	return n, nil
}

// Insert stores body as a new document and returns its identifier.
func (s *Service) Insert(ctx context.Context, database, collection string, body map[string]any) (string, error) {
	ns, err := s.namespace(database, collection)
	if err != nil {
		return "", err
	}
	doc, err := domdoc.New(body)
	if err != nil {
		return "", invalid(err)
	}
	id, err := s.store.InsertOne(ctx, ns, doc)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", storeErr(err))
	}
	return id, nil
}

// Delete removes the document with id.
func (s *Service) Delete(ctx context.Context, database, collection, id string) error {
	ns, docID, err := s.target(database, collection, id)
	if err != nil {
		return err
	}
	found, err := s.store.DeleteOne(ctx, ns, docID.String())
	if err != nil {
		return fmt.Errorf("delete document: %w", storeErr(err))
	}
	if !found {
		return notFound(ns, docID)
	}
	return nil
}

// Replace swaps the whole body of the document with id. Fields absent from
// body are dropped; the identifier is kept.
func (s *Service) Replace(ctx context.Context, database, collection, id string, body map[string]any) error {
	ns, docID, err := s.target(database, collection, id)
	if err != nil {
		return err
	}
	doc, err := domdoc.NewReplacement(docID.String(), body)
	if err != nil {
		return invalid(err)
	}
	found, err := s.store.ReplaceOne(ctx, ns, docID.String(), doc)
	if err != nil {
		return fmt.Errorf("replace document: %w", storeErr(err))
	}
	if !found {
		return notFound(ns, docID)
	}
	return nil
}

// Update sets each field of partial on the document with id. Dotted keys
// address nested fields.
func (s *Service) Update(ctx context.Context, database, collection, id string, partial map[string]any) error {
	ns, docID, err := s.target(database, collection, id)
	if err != nil {
		return err
	}
	p, err := patch.New(partial)
	if err != nil {
		return invalid(err)
	}
	found, err := s.store.UpdateOne(ctx, ns, docID.String(), p)
	if err != nil {
		return fmt.Errorf("update document: %w", storeErr(err))
	}
	if !found {
		return notFound(ns, docID)
	}
	return nil
}

func (s *Service) prepareFilter(database, collection string, conds map[string]any) (db.Namespace, filter.Filter, error) {
	ns, err := s.namespace(database, collection)
	if err != nil {
		return db.Namespace{}, filter.Filter{}, err
	}
	f, err := filter.New(conds)
	if err != nil {
		return db.Namespace{}, filter.Filter{}, fmt.Errorf("build filter: %w", err)
	}
	return ns, f, nil
}

func (s *Service) target(database, collection, id string) (db.Namespace, oid.ID, error) {
	ns, err := s.namespace(database, collection)
	if err != nil {
		return db.Namespace{}, "", err
	}
	docID, ok := oid.Parse(id)
	if !ok {
		return db.Namespace{}, "", fmt.Errorf("malformed document id %q: %w", id, domain.ErrInvalidArgument)
	}
	return ns, docID, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
}

func notFound(ns db.Namespace, id oid.ID) error {
	return fmt.Errorf("%s in %s: %w", id, ns, domain.ErrDocumentNotFound)
}

// storeErr maps store sentinels onto domain errors.
func storeErr(err error) error {
	switch {
	case errors.Is(err, db.ErrNotConnected):
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	case errors.Is(err, db.ErrNoDocuments):
		return fmt.Errorf("%w: %w", domain.ErrDocumentNotFound, err)
	case errors.Is(err, domdoc.ErrPathConflict):
		return fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	default:
		return err
	}
}
