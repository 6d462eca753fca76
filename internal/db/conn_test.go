package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/patch"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
)

// stubStore is a hand-written Store returning canned results.
type stubStore struct {
	err    error
	closed int
	calls  []string
}

func (s *stubStore) record(op string) error {
	s.calls = append(s.calls, op)
	return s.err
}

func (s *stubStore) Ping(context.Context) error { return s.record(OpPing) }
func (s *stubStore) Close()                     { s.closed++ }
func (s *stubStore) WaitForReady(context.Context, time.Duration) error {
	return s.record("wait")
}

func (s *stubStore) ListCollections(context.Context, string) ([]string, error) {
	return []string{"a"}, s.record(OpListCollections)
}

func (s *stubStore) Find(context.Context, Namespace, filter.Filter, page.Page) ([]document.Document, error) {
	return []document.Document{{"x": int64(1)}}, s.record(OpFind)
}

func (s *stubStore) FindOne(context.Context, Namespace, filter.Filter) (document.Document, error) {
	return document.Document{"x": int64(1)}, s.record(OpFindOne)
}

func (s *stubStore) Count(context.Context, Namespace, filter.Filter) (int64, error) {
	return 3, s.record(OpCount)
}

func (s *stubStore) InsertOne(context.Context, Namespace, document.Document) (string, error) {
	return "id", s.record(OpInsertOne)
}

func (s *stubStore) DeleteOne(context.Context, Namespace, string) (bool, error) {
	return true, s.record(OpDeleteOne)
}

func (s *stubStore) ReplaceOne(context.Context, Namespace, string, document.Document) (bool, error) {
	return true, s.record(OpReplaceOne)
}

func (s *stubStore) UpdateOne(context.Context, Namespace, string, patch.Patch) (bool, error) {
	return true, s.record(OpUpdateOne)
}

// callAll invokes every data operation and returns their errors.
func callAll(s Store) []error {
	ctx := context.Background()
	ns := Namespace{Database: "d", Collection: "c"}
	_, e1 := s.ListCollections(ctx, "d")
	_, e2 := s.Find(ctx, ns, filter.All(), page.Default())
	_, e3 := s.FindOne(ctx, ns, filter.All())
	_, e4 := s.Count(ctx, ns, filter.All())
	_, e5 := s.InsertOne(ctx, ns, document.Document{"a": "b"})
	_, e6 := s.DeleteOne(ctx, ns, "id")
	_, e7 := s.ReplaceOne(ctx, ns, "id", document.Document{"a": "b"})
	_, e8 := s.UpdateOne(ctx, ns, "id", patch.Patch{})
	return []error{s.Ping(ctx), e1, e2, e3, e4, e5, e6, e7, e8}
}

func TestConn_NotConnectedBeforeOpen(t *testing.T) {
	c := NewConn()
	if c.Connected() {
		t.Fatal("new gate must not report connected")
	}
	for i, err := range callAll(c) {
		if !errors.Is(err, ErrNotConnected) {
			t.Errorf("call %d: expected ErrNotConnected, got %v", i, err)
		}
	}
	if err := c.WaitForReady(context.Background(), time.Millisecond); !errors.Is(err, ErrNotConnected) {
		t.Errorf("WaitForReady: expected ErrNotConnected, got %v", err)
	}
}

func TestConn_DelegatesAfterOpen(t *testing.T) {
	stub := &stubStore{}
	c := NewConn()
	c.Open(stub)

	for i, err := range callAll(c) {
		if err != nil {
			t.Errorf("call %d: unexpected error %v", i, err)
		}
	}
	if len(stub.calls) != 9 {
		t.Errorf("expected 9 delegated calls, got %v", stub.calls)
	}
	n, _ := c.Count(context.Background(), Namespace{}, filter.All())
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestConn_CloseDetaches(t *testing.T) {
	stub := &stubStore{}
	c := NewConn()
	c.Open(stub)
	c.Close()
	c.Close()

	if stub.closed != 1 {
		t.Errorf("store closed %d times, want 1", stub.closed)
	}
	if c.Connected() {
		t.Error("gate still connected after Close")
	}
	if err := c.Ping(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected after Close, got %v", err)
	}
}

func TestConn_ReopenClosesPrevious(t *testing.T) {
	first, second := &stubStore{}, &stubStore{}
	c := NewConn()
	c.Open(first)
	c.Open(second)

	if first.closed != 1 {
		t.Errorf("previous store closed %d times, want 1", first.closed)
	}
	_ = c.Ping(context.Background())
	if len(second.calls) != 1 {
		t.Errorf("expected call on the new store, got %v", second.calls)
	}
}

func TestError_Unwrap(t *testing.T) {
	err := &Error{Op: OpFind, Err: ErrNoDocuments}
	if !errors.Is(err, ErrNoDocuments) {
		t.Error("errors.Is must see the wrapped sentinel")
	}
	if err.Error() != "find: db: no documents in result" {
		t.Errorf("Error() = %q", err.Error())
	}
	if (Namespace{Database: "d", Collection: "c"}).String() != "d.c" {
		t.Error("unexpected namespace string")
	}
}
