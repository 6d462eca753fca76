package db

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/patch"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
)

// Compile-time check: Conn implements Store.
var _ Store = (*Conn)(nil)

// Conn is the process-wide store handle.
//
// Every call fails with ErrNotConnected until Open succeeds and again after Close.
// Calls in flight when Close runs finish against the old store.
type Conn struct {
	mu    sync.RWMutex
	store Store
}

// NewConn returns a gate with no store attached.
func NewConn() *Conn {
	return &Conn{}
}

// Open attaches s. A previously attached store is closed.
func (c *Conn) Open(s Store) {
	c.mu.Lock()
	prev := c.store
	c.store = s
	c.mu.Unlock()
	if prev != nil && prev != s {
		prev.Close()
	}
}

// Connected reports whether a store is attached.
func (c *Conn) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store != nil
}

// Close detaches and closes the store. Safe to call more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	s := c.store
	c.store = nil
	c.mu.Unlock()
	if s != nil {
		s.Close()
	}
}

func (c *Conn) get() (Store, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.store == nil {
		return nil, ErrNotConnected
	}
	return c.store, nil
}

// WaitForReady delegates to the attached store.
func (c *Conn) WaitForReady(ctx context.Context, timeout time.Duration) error {
	s, err := c.get()
	if err != nil {
		return err
	}
	return s.WaitForReady(ctx, timeout) //nolint:wrapcheck // transparent gate
}

// Ping checks connectivity of the attached store.
func (c *Conn) Ping(ctx context.Context) error {
	s, err := c.get()
	if err != nil {
		return err
	}
	return s.Ping(ctx) //nolint:wrapcheck // transparent gate
}

// ListCollections lists collection names in database.
func (c *Conn) ListCollections(ctx context.Context, database string) ([]string, error) {
	s, err := c.get()
	if err != nil {
		return nil, err
	}
	return s.ListCollections(ctx, database) //nolint:wrapcheck // transparent gate
}

// Find returns the documents matching f within page p.
func (c *Conn) Find(ctx context.Context, ns Namespace, f filter.Filter, p page.Page) ([]document.Document, error) {
	s, err := c.get()
	if err != nil {
		return nil, err
	}
	return s.Find(ctx, ns, f, p) //nolint:wrapcheck // transparent gate
}

// FindOne returns the first document matching f.
func (c *Conn) FindOne(ctx context.Context, ns Namespace, f filter.Filter) (document.Document, error) {
	s, err := c.get()
	if err != nil {
		return nil, err
	}
	return s.FindOne(ctx, ns, f) //nolint:wrapcheck // transparent gate
}

// Count returns the number of documents matching f.
func (c *Conn) Count(ctx context.Context, ns Namespace, f filter.Filter) (int64, error) {
	s, err := c.get()
	if err != nil {
		return 0, err
	}
	return s.Count(ctx, ns, f) //nolint:wrapcheck // transparent gate
}

// InsertOne stores doc under a new identifier.
func (c *Conn) InsertOne(ctx context.Context, ns Namespace, doc document.Document) (string, error) {
	s, err := c.get()
	if err != nil {
		return "", err
	}
	return s.InsertOne(ctx, ns, doc) //nolint:wrapcheck // transparent gate
}

// DeleteOne removes the document with id.
func (c *Conn) DeleteOne(ctx context.Context, ns Namespace, id string) (bool, error) {
	s, err := c.get()
	if err != nil {
		return false, err
	}
	return s.DeleteOne(ctx, ns, id) //nolint:wrapcheck // transparent gate
}

// ReplaceOne swaps the body of the document with id.
func (c *Conn) ReplaceOne(ctx context.Context, ns Namespace, id string, doc document.Document) (bool, error) {
	s, err := c.get()
	if err != nil {
		return false, err
	}
	return s.ReplaceOne(ctx, ns, id, doc) //nolint:wrapcheck // transparent gate
}

// UpdateOne applies p to the document with id.
func (c *Conn) UpdateOne(ctx context.Context, ns Namespace, id string, p patch.Patch) (bool, error) {
	s, err := c.get()
	if err != nil {
		return false, err
	}
	return s.UpdateOne(ctx, ns, id, p) //nolint:wrapcheck // transparent gate
}
