// Package dbtest holds the behavioural suite every db.Store backend runs.
package dbtest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/minicompass/internal/db"
	"github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/oid"
	"github.com/kailas-cloud/minicompass/internal/domain/document/patch"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
	"github.com/kailas-cloud/minicompass/internal/domain/query/value"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) db.Store

var people = db.Namespace{Database: "school", Collection: "people"}

// Run exercises a backend against the shared document store contract.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s db.Store)
	}{
		{"InsertAndFind", testInsertAndFind},
		{"FindFilterCoercedNumber", testFindFilterCoercedNumber},
		{"FindPaging", testFindPaging},
		{"FindOneNoDocuments", testFindOneNoDocuments},
		{"FindByIdentifier", testFindByIdentifier},
		{"Count", testCount},
		{"ListCollections", testListCollections},
		{"DatabasesAreIsolated", testDatabasesAreIsolated},
		{"Delete", testDelete},
		{"Replace", testReplace},
		{"Update", testUpdate},
		{"UpdatePathConflict", testUpdatePathConflict},
		{"NestedAndArrays", testNestedAndArrays},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			tc.fn(t, s)
		})
	}
}

func mustInsert(t *testing.T, s db.Store, ns db.Namespace, doc document.Document) string {
	t.Helper()
	id, err := s.InsertOne(context.Background(), ns, doc)
	if err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	if !oid.Valid(id) {
		t.Fatalf("InsertOne returned malformed id %q", id)
	}
	return id
}

func mustFilter(t *testing.T, conds map[string]any) filter.Filter {
	t.Helper()
	f, err := filter.New(conds)
	if err != nil {
		t.Fatalf("filter.New: %v", err)
	}
	return f
}

func mustPage(t *testing.T, limit, skip int) page.Page {
	t.Helper()
	p, err := page.New(limit, skip, 0)
	if err != nil {
		t.Fatalf("page.New: %v", err)
	}
	return p
}

func testInsertAndFind(t *testing.T, s db.Store) {
	ctx := context.Background()
	id := mustInsert(t, s, people, document.Document{"name": "Alice", "age": int64(20), "score": 9.5})

	docs, err := s.Find(ctx, people, filter.All(), page.Default())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := []document.Document{{"_id": id, "name": "Alice", "age": int64(20), "score": 9.5}}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Errorf("Find mismatch (-want +got):\n%s", diff)
	}
}

func testFindFilterCoercedNumber(t *testing.T, s db.Store) {
	ctx := context.Background()
	mustInsert(t, s, people, document.Document{"name": "Alice", "age": int64(20)})
	mustInsert(t, s, people, document.Document{"name": "Bob", "age": "20"})

	f, err := filter.Build("age", value.Coerce("20"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	docs, err := s.Find(ctx, people, f, page.Default())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 1 || docs[0]["name"] != "Alice" {
		t.Errorf("numeric filter matched %v", docs)
	}
}

func testFindPaging(t *testing.T, s db.Store) {
	ctx := context.Background()
	for i := range 7 {
		mustInsert(t, s, people, document.Document{"n": int64(i)})
	}

	docs, err := s.Find(ctx, people, filter.All(), mustPage(t, 3, 2))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	var got []int64
	for _, d := range docs {
		got = append(got, d["n"].(int64))
	}
	if diff := cmp.Diff([]int64{2, 3, 4}, got); diff != "" {
		t.Errorf("page mismatch (-want +got):\n%s", diff)
	}

	docs, err = s.Find(ctx, people, filter.All(), mustPage(t, 10, 100))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("skip past end returned %d docs", len(docs))
	}
}

func testFindOneNoDocuments(t *testing.T, s db.Store) {
	ctx := context.Background()
	_, err := s.FindOne(ctx, people, mustFilter(t, map[string]any{"name": "nobody"}))
	if !errors.Is(err, db.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments on missing collection, got %v", err)
	}

	mustInsert(t, s, people, document.Document{"name": "Alice"})
	_, err = s.FindOne(ctx, people, mustFilter(t, map[string]any{"name": "nobody"}))
	if !errors.Is(err, db.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
	doc, err := s.FindOne(ctx, people, mustFilter(t, map[string]any{"name": "Alice"}))
	if err != nil || doc["name"] != "Alice" {
		t.Errorf("FindOne = %v, %v", doc, err)
	}
}

func testFindByIdentifier(t *testing.T, s db.Store) {
	ctx := context.Background()
	mustInsert(t, s, people, document.Document{"name": "Alice"})
	id := mustInsert(t, s, people, document.Document{"name": "Bob"})

	f, err := filter.Build(document.IDField, value.String(id))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	doc, err := s.FindOne(ctx, people, f)
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if doc["name"] != "Bob" || doc.ID() != id {
		t.Errorf("FindOne by id = %v", doc)
	}
}

func testCount(t *testing.T, s db.Store) {
	ctx := context.Background()
	f := mustFilter(t, map[string]any{"email": "a@x.io"})

	n, err := s.Count(ctx, people, f)
	if err != nil || n != 0 {
		t.Fatalf("Count on empty = %d, %v", n, err)
	}
	mustInsert(t, s, people, document.Document{"email": "a@x.io"})
	mustInsert(t, s, people, document.Document{"email": "a@x.io"})
	mustInsert(t, s, people, document.Document{"email": "b@x.io"})

	n, err = s.Count(ctx, people, f)
	if err != nil || n != 2 {
		t.Errorf("Count = %d, %v; want 2", n, err)
	}
}

func testListCollections(t *testing.T, s db.Store) {
	ctx := context.Background()
	names, err := s.ListCollections(ctx, "empty")
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("empty database listed %v", names)
	}

	mustInsert(t, s, db.Namespace{Database: "school", Collection: "students"}, document.Document{"a": int64(1)})
	mustInsert(t, s, db.Namespace{Database: "school", Collection: "courses"}, document.Document{"a": int64(1)})
	mustInsert(t, s, db.Namespace{Database: "school", Collection: "courses"}, document.Document{"a": int64(2)})

	names, err = s.ListCollections(ctx, "school")
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if diff := cmp.Diff([]string{"courses", "students"}, names); diff != "" {
		t.Errorf("collections mismatch (-want +got):\n%s", diff)
	}
}

func testDatabasesAreIsolated(t *testing.T, s db.Store) {
	ctx := context.Background()
	other := db.Namespace{Database: "other", Collection: people.Collection}
	mustInsert(t, s, people, document.Document{"name": "Alice"})

	n, err := s.Count(ctx, other, filter.All())
	if err != nil || n != 0 {
		t.Errorf("other database count = %d, %v", n, err)
	}
}

func testDelete(t *testing.T, s db.Store) {
	ctx := context.Background()
	id := mustInsert(t, s, people, document.Document{"name": "Alice"})
	keep := mustInsert(t, s, people, document.Document{"name": "Bob"})

	ok, err := s.DeleteOne(ctx, people, id)
	if err != nil || !ok {
		t.Fatalf("DeleteOne = %v, %v", ok, err)
	}
	ok, err = s.DeleteOne(ctx, people, id)
	if err != nil || ok {
		t.Errorf("second DeleteOne = %v, %v; want false", ok, err)
	}
	ok, err = s.DeleteOne(ctx, db.Namespace{Database: "nope", Collection: "nope"}, id)
	if err != nil || ok {
		t.Errorf("DeleteOne on missing collection = %v, %v", ok, err)
	}

	docs, err := s.Find(ctx, people, filter.All(), page.Default())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 1 || docs[0].ID() != keep {
		t.Errorf("after delete: %v", docs)
	}
}

func testReplace(t *testing.T, s db.Store) {
	ctx := context.Background()
	id := mustInsert(t, s, people, document.Document{"name": "Alice", "age": int64(20)})

	ok, err := s.ReplaceOne(ctx, people, id, document.Document{"name": "Alicia"})
	if err != nil || !ok {
		t.Fatalf("ReplaceOne = %v, %v", ok, err)
	}
	doc, err := s.FindOne(ctx, people, mustFilter(t, map[string]any{"_id": id}))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if diff := cmp.Diff(document.Document{"_id": id, "name": "Alicia"}, doc); diff != "" {
		t.Errorf("replace mismatch (-want +got):\n%s", diff)
	}

	ok, err = s.ReplaceOne(ctx, people, oid.New().String(), document.Document{"name": "x"})
	if err != nil || ok {
		t.Errorf("ReplaceOne unknown id = %v, %v; want false", ok, err)
	}
}

func testUpdate(t *testing.T, s db.Store) {
	ctx := context.Background()
	id := mustInsert(t, s, people, document.Document{"name": "Alice", "age": int64(20)})

	p, err := patch.New(map[string]any{"age": int64(21), "address.city": "Laval"})
	if err != nil {
		t.Fatalf("patch.New: %v", err)
	}
	ok, err := s.UpdateOne(ctx, people, id, p)
	if err != nil || !ok {
		t.Fatalf("UpdateOne = %v, %v", ok, err)
	}
	doc, err := s.FindOne(ctx, people, mustFilter(t, map[string]any{"_id": id}))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	want := document.Document{
		"_id":     id,
		"name":    "Alice",
		"age":     int64(21),
		"address": map[string]any{"city": "Laval"},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("update mismatch (-want +got):\n%s", diff)
	}

	ok, err = s.UpdateOne(ctx, people, oid.New().String(), p)
	if err != nil || ok {
		t.Errorf("UpdateOne unknown id = %v, %v; want false", ok, err)
	}
}

func testUpdatePathConflict(t *testing.T, s db.Store) {
	ctx := context.Background()
	id := mustInsert(t, s, people, document.Document{"name": "Alice"})

	p, err := patch.New(map[string]any{"name.first": "A"})
	if err != nil {
		t.Fatalf("patch.New: %v", err)
	}
	_, err = s.UpdateOne(ctx, people, id, p)
	if !errors.Is(err, document.ErrPathConflict) {
		t.Errorf("expected ErrPathConflict, got %v", err)
	}
}

func testNestedAndArrays(t *testing.T, s db.Store) {
	ctx := context.Background()
	mustInsert(t, s, people, document.Document{
		"name":    "Alice",
		"tags":    []any{"admin", "dev"},
		"address": map[string]any{"city": "Laval", "zip": int64(7)},
		"active":  true,
		"note":    nil,
	})
	mustInsert(t, s, people, document.Document{"name": "Bob", "tags": []any{"dev"}})

	tests := []struct {
		conds map[string]any
		want  int64
	}{
		{map[string]any{"tags": "dev"}, 2},
		{map[string]any{"tags": "admin"}, 1},
		{map[string]any{"address.city": "Laval"}, 1},
		{map[string]any{"address.zip": int64(7)}, 1},
		{map[string]any{"active": true}, 1},
		{map[string]any{"note": nil}, 2},
	}
	for _, tc := range tests {
		n, err := s.Count(ctx, people, mustFilter(t, tc.conds))
		if err != nil {
			t.Fatalf("Count(%v): %v", tc.conds, err)
		}
		if n != tc.want {
			t.Errorf("Count(%v) = %d, want %d", tc.conds, n, tc.want)
		}
	}

	doc, err := s.FindOne(ctx, people, mustFilter(t, map[string]any{"name": "Alice"}))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if diff := cmp.Diff([]any{"admin", "dev"}, doc["tags"]); diff != "" {
		t.Errorf("tags round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"city": "Laval", "zip": int64(7)}, doc["address"]); diff != "" {
		t.Errorf("address round trip (-want +got):\n%s", diff)
	}
}
