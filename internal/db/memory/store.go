// Package memory is an in-process document store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/minicompass/internal/db"
	"github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/oid"
	"github.com/kailas-cloud/minicompass/internal/domain/document/patch"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type collection struct {
	order []string
	docs  map[string]document.Document
}

// Store keeps documents in memory, in insertion order. Values are deep-copied on
// the way in and out.
type Store struct {
	mu        sync.RWMutex
	databases map[string]map[string]*collection
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{databases: make(map[string]map[string]*collection)}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op; contents stay readable.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// ListCollections returns the collection names of database in sorted order.
func (s *Store) ListCollections(_ context.Context, database string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.databases[database]))
	for name := range s.databases[database] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) lookup(ns db.Namespace) *collection {
	return s.databases[ns.Database][ns.Collection]
}

func (s *Store) ensure(ns db.Namespace) *collection {
	colls, ok := s.databases[ns.Database]
	if !ok {
		colls = make(map[string]*collection)
		s.databases[ns.Database] = colls
	}
	c, ok := colls[ns.Collection]
	if !ok {
		c = &collection{docs: make(map[string]document.Document)}
		colls[ns.Collection] = c
	}
	return c
}

func (c *collection) matching(f filter.Filter) []document.Document {
	var out []document.Document
	for _, id := range c.order {
		if doc := c.docs[id]; f.Match(doc) {
			out = append(out, doc)
		}
	}
	return out
}

// Find returns copies of the documents matching f within page p.
func (s *Store) Find(_ context.Context, ns db.Namespace, f filter.Filter, p page.Page) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.lookup(ns)
	if c == nil {
		return []document.Document{}, nil
	}
	window := page.Apply(p, c.matching(f))
	out := make([]document.Document, len(window))
	for i, doc := range window {
		out[i] = doc.Clone()
	}
	return out, nil
}

// FindOne returns a copy of the first document matching f.
func (s *Store) FindOne(_ context.Context, ns db.Namespace, f filter.Filter) (document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c := s.lookup(ns); c != nil {
		for _, id := range c.order {
			if doc := c.docs[id]; f.Match(doc) {
				return doc.Clone(), nil
			}
		}
	}
	return nil, db.ErrNoDocuments
}

// Count returns the number of documents matching f.
func (s *Store) Count(_ context.Context, ns db.Namespace, f filter.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.lookup(ns)
	if c == nil {
		return 0, nil
	}
	return int64(len(c.matching(f))), nil
}

// InsertOne stores a copy of doc under a fresh identifier.
func (s *Store) InsertOne(_ context.Context, ns db.Namespace, doc document.Document) (string, error) {
	id := oid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.ensure(ns)
	c.docs[id] = doc.WithID(id)
	c.order = append(c.order, id)
	return id, nil
}

// DeleteOne removes the document with id.
func (s *Store) DeleteOne(_ context.Context, ns db.Namespace, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.lookup(ns)
	if c == nil {
		return false, nil
	}
	if _, ok := c.docs[id]; !ok {
		return false, nil
	}
	delete(c.docs, id)
	for i, cur := range c.order {
		if cur == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// ReplaceOne swaps the body of the document with id, keeping its position.
func (s *Store) ReplaceOne(_ context.Context, ns db.Namespace, id string, doc document.Document) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.lookup(ns)
	if c == nil {
		return false, nil
	}
	if _, ok := c.docs[id]; !ok {
		return false, nil
	}
	c.docs[id] = doc.WithID(id)
	return true, nil
}

// UpdateOne applies p to the document with id.
func (s *Store) UpdateOne(_ context.Context, ns db.Namespace, id string, p patch.Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.lookup(ns)
	if c == nil {
		return false, nil
	}
	cur, ok := c.docs[id]
	if !ok {
		return false, nil
	}
	next, err := p.Apply(cur)
	if err != nil {
		return false, &db.Error{Op: db.OpUpdateOne, Err: err}
	}
	c.docs[id] = next
	return true, nil
}
