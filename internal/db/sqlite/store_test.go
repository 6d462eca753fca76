package sqlite

import (
	"context"
	"path/filepath"
	"time"
	"testing"

	"github.com/kailas-cloud/minicompass/internal/db"
	"github.com/kailas-cloud/minicompass/internal/db/dbtest"
	"github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
)

func newMemoryStore(t *testing.T) db.Store {
	t.Helper()
	s, err := NewStore(Config{Path: MemoryPath})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestStore_Suite(t *testing.T) {
	dbtest.Run(t, newMemoryStore)
}

func TestNewStore_RequiresPath(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "compass.db")
	ns := db.Namespace{Database: "d", Collection: "c"}

	s, err := NewStore(Config{Path: path})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	id, err := s.InsertOne(ctx, ns, document.Document{"name": "Alice"})
	if err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	s.Close()

	s, err = NewStore(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	docs, err := s.Find(ctx, ns, filter.All(), page.Default())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 1 || docs[0].ID() != id {
		t.Errorf("after reopen: %v", docs)
	}
}

func TestStore_WaitForReady(t *testing.T) {
	s := newMemoryStore(t)
	defer s.Close()
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForReady: %v", err)
	}
}
