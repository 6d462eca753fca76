package document

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/minicompass/internal/db"
	"github.com/kailas-cloud/minicompass/internal/domain"
	domdoc "github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/oid"
	"github.com/kailas-cloud/minicompass/internal/domain/document/patch"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
)

const validID = "507f1f77bcf86cd799439011"

// --- Mocks ---

type mockStore struct {
	calls int

	lastNS     db.Namespace
	lastFilter filter.Filter
	lastPage   page.Page
	lastID     string
	lastDoc    domdoc.Document
	lastPatch  patch.Patch

	findResult []domdoc.Document
	oneResult  domdoc.Document
	count      int64
	insertedID string
	found      bool
	err        error
}

func (m *mockStore) Find(_ context.Context, ns db.Namespace, f filter.Filter, p page.Page) ([]domdoc.Document, error) {
	m.calls++
	m.lastNS, m.lastFilter, m.lastPage = ns, f, p
	return m.findResult, m.err
}

func (m *mockStore) FindOne(_ context.Context, ns db.Namespace, f filter.Filter) (domdoc.Document, error) {
	m.calls++
	m.lastNS, m.lastFilter = ns, f
	return m.oneResult, m.err
}

func (m *mockStore) Count(_ context.Context, ns db.Namespace, f filter.Filter) (int64, error) {
	m.calls++
	m.lastNS, m.lastFilter = ns, f
	return m.count, m.err
}

func (m *mockStore) InsertOne(_ context.Context, ns db.Namespace, doc domdoc.Document) (string, error) {
	m.calls++
	m.lastNS, m.lastDoc = ns, doc
	return m.insertedID, m.err
}

func (m *mockStore) DeleteOne(_ context.Context, ns db.Namespace, id string) (bool, error) {
	m.calls++
	m.lastNS, m.lastID = ns, id
	return m.found, m.err
}

func (m *mockStore) ReplaceOne(_ context.Context, ns db.Namespace, id string, doc domdoc.Document) (bool, error) {
	m.calls++
	m.lastNS, m.lastID, m.lastDoc = ns, id, doc
	return m.found, m.err
}

func (m *mockStore) UpdateOne(_ context.Context, ns db.Namespace, id string, p patch.Patch) (bool, error) {
	m.calls++
	m.lastNS, m.lastID, m.lastPatch = ns, id, p
	return m.found, m.err
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

// --- Query ---

func TestQuery_Defaults(t *testing.T) {
	store := &mockStore{findResult: []domdoc.Document{{"a": int64(1)}}}
	svc := New(store)

	docs, err := svc.Query(context.Background(), "", "students", Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 doc, got %d", len(docs))
	}
	if store.lastNS != (db.Namespace{Database: "cegep_bd1", Collection: "students"}) {
		t.Errorf("namespace = %v", store.lastNS)
	}
	if store.lastPage.Limit() != page.DefaultLimit || store.lastPage.Skip() != 0 {
		t.Errorf("page = %d/%d", store.lastPage.Limit(), store.lastPage.Skip())
	}
	if !store.lastFilter.IsEmpty() {
		t.Errorf("expected empty filter, got %v", store.lastFilter.Conditions())
	}
}

func TestQuery_FilterAndPaging(t *testing.T) {
	store := &mockStore{}
	svc := New(store).WithDefaultDatabase("school").WithMaxPageSize(100)

	_, err := svc.Query(context.Background(), "", "students", Query{
		Field: strPtr("age"), Value: strPtr("20"), Limit: intPtr(500), Skip: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastNS.Database != "school" {
		t.Errorf("database = %q", store.lastNS.Database)
	}
	if store.lastFilter.Conditions()["age"] != int64(20) {
		t.Errorf("filter = %v", store.lastFilter.Conditions())
	}
	if store.lastPage.Limit() != 100 || store.lastPage.Skip() != 3 {
		t.Errorf("page = %d/%d", store.lastPage.Limit(), store.lastPage.Skip())
	}
}

func TestQuery_DefaultPageSize(t *testing.T) {
	store := &mockStore{}
	svc := New(store).WithDefaultPageSize(10)

	if _, err := svc.Query(context.Background(), "", "c", Query{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastPage.Limit() != 10 {
		t.Errorf("limit = %d, want 10", store.lastPage.Limit())
	}
}

func TestQuery_ZeroLimit(t *testing.T) {
	store := &mockStore{findResult: []domdoc.Document{{"a": int64(1)}}}

	docs, err := New(store).Query(context.Background(), "", "c", Query{Limit: intPtr(0), Skip: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("expected empty non-nil page, got %v", docs)
	}
	if store.calls != 0 {
		t.Errorf("store must not be touched for a zero limit, got %d calls", store.calls)
	}
}

func TestQuery_InvalidArguments(t *testing.T) {
	tests := []struct {
		name       string
		database   string
		collection string
		q          Query
	}{
		{"blank collection", "", " ", Query{}},
		{"blank database", "  ", "c", Query{}},
		{"negative limit", "", "c", Query{Limit: intPtr(-1)}},
		{"zero limit, blank collection", "", " ", Query{Limit: intPtr(0)}},
		{"negative skip", "", "c", Query{Skip: -5}},
		{"field without value", "", "c", Query{Field: strPtr("age")}},
		{"value without field", "", "c", Query{Value: strPtr("20")}},
		{"blank field", "", "c", Query{Field: strPtr(" "), Value: strPtr("20")}},
		{"operator field", "", "c", Query{Field: strPtr("$where"), Value: strPtr("true")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockStore{}
			_, err := New(store).Query(context.Background(), tc.database, tc.collection, tc.q)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if store.calls != 0 {
				t.Error("store must not be touched on invalid input")
			}
		})
	}
}

func TestQuery_StoreUnavailable(t *testing.T) {
	svc := New(&mockStore{err: db.ErrNotConnected})
	_, err := svc.Query(context.Background(), "", "c", Query{})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

// --- FindOne / Exists / CountByValue ---

func TestFindOne(t *testing.T) {
	store := &mockStore{oneResult: domdoc.Document{"name": "Alice"}}
	doc, err := New(store).FindOne(context.Background(), "", "c", map[string]any{"name": "Alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc["name"] != "Alice" {
		t.Errorf("doc = %v", doc)
	}
}

func TestFindOne_NotFound(t *testing.T) {
	store := &mockStore{err: db.ErrNoDocuments}
	_, err := New(store).FindOne(context.Background(), "", "c", map[string]any{"name": "x"})
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestFindOne_BlankKey(t *testing.T) {
	store := &mockStore{}
	_, err := New(store).FindOne(context.Background(), "", "c", map[string]any{"": "x"})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if store.calls != 0 {
		t.Error("store must not be touched")
	}
}

func TestExists(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"match", nil, true},
		{"no match", db.ErrNoDocuments, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockStore{oneResult: domdoc.Document{}, err: tc.err}
			got, err := New(store).Exists(context.Background(), "", "c", map[string]any{"email": "a@x.io"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Exists = %v, want %v", got, tc.want)
			}
		})
	}

	_, err := New(&mockStore{err: db.ErrNotConnected}).Exists(context.Background(), "", "c", nil)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestCountByValue(t *testing.T) {
	store := &mockStore{count: 2}
	n, err := New(store).CountByValue(context.Background(), "", "users", "email", "a@x.io")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	if store.lastFilter.Conditions()["email"] != "a@x.io" {
		t.Errorf("filter = %v", store.lastFilter.Conditions())
	}

	if _, err := New(&mockStore{}).CountByValue(context.Background(), "", "users", "", "x"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

// --- Insert ---

func TestFilters_OperatorFieldRejected(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	svc := New(store)

	if _, err := svc.CountByValue(ctx, "", "c", "$where", "true"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("CountByValue: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Exists(ctx, "", "c", map[string]any{"$where": "sleep(5000) || true"}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Exists: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.FindOne(ctx, "", "c", map[string]any{"address.$ne": 1}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("FindOne: expected ErrInvalidArgument, got %v", err)
	}
	if store.calls != 0 {
		t.Errorf("store must not be touched, got %d calls", store.calls)
	}
}

func TestInsert(t *testing.T) {
	store := &mockStore{insertedID: validID}
	id, err := New(store).Insert(context.Background(), "", "c", map[string]any{"name": "Alice", "age": 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != validID {
		t.Errorf("id = %q", id)
	}
	if store.lastDoc["age"] != int64(20) {
		t.Errorf("stored doc = %v", store.lastDoc)
	}
}

func TestInsert_Invalid(t *testing.T) {
	bodies := []map[string]any{
		nil,
		{},
		{"_id": "x", "a": 1},
		{"$set": 1},
		{" ": 1},
	}
	for _, body := range bodies {
		store := &mockStore{}
		_, err := New(store).Insert(context.Background(), "", "c", body)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("Insert(%v): expected ErrInvalidArgument, got %v", body, err)
		}
		if store.calls != 0 {
			t.Errorf("Insert(%v): store must not be touched", body)
		}
	}
}

// --- Delete / Replace / Update ---

func TestDelete(t *testing.T) {
	store := &mockStore{found: true}
	if err := New(store).Delete(context.Background(), "", "c", "507F1F77BCF86CD799439011"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastID != validID {
		t.Errorf("id passed to store = %q, want lower-case", store.lastID)
	}
}

func TestDelete_NotFound(t *testing.T) {
	err := New(&mockStore{found: false}).Delete(context.Background(), "", "c", validID)
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestWrites_MalformedID(t *testing.T) {
	ids := []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz", validID + "0"}
	for _, id := range ids {
		store := &mockStore{found: true}
		svc := New(store)
		ctx := context.Background()

		errs := []error{
			svc.Delete(ctx, "", "c", id),
			svc.Replace(ctx, "", "c", id, map[string]any{"a": 1}),
			svc.Update(ctx, "", "c", id, map[string]any{"a": 1}),
		}
		for i, err := range errs {
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("id %q op %d: expected ErrInvalidArgument, got %v", id, i, err)
			}
		}
		if store.calls != 0 {
			t.Errorf("id %q: store must not be touched", id)
		}
	}
}

func TestReplace(t *testing.T) {
	store := &mockStore{found: true}
	err := New(store).Replace(context.Background(), "", "c", validID, map[string]any{"_id": validID, "name": "Bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.lastDoc["_id"]; ok {
		t.Error("identifier should be dropped from the replacement body")
	}
	if store.lastDoc["name"] != "Bob" {
		t.Errorf("doc = %v", store.lastDoc)
	}
}

func TestReplace_Errors(t *testing.T) {
	svc := New(&mockStore{found: true})
	ctx := context.Background()

	if err := svc.Replace(ctx, "", "c", validID, map[string]any{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty body: expected ErrInvalidArgument, got %v", err)
	}
	other := oid.New().String()
	if err := svc.Replace(ctx, "", "c", validID, map[string]any{"_id": other, "a": 1}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("changed _id: expected ErrInvalidArgument, got %v", err)
	}
	if err := New(&mockStore{}).Replace(ctx, "", "c", validID, map[string]any{"a": 1}); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("missing: expected ErrDocumentNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	store := &mockStore{found: true}
	err := New(store).Update(context.Background(), "", "c", validID, map[string]any{"address.city": "Laval"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastPatch.Fields()["address.city"] != "Laval" {
		t.Errorf("patch = %v", store.lastPatch.Fields())
	}
}

func TestUpdate_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		store   *mockStore
		partial map[string]any
		want    error
	}{
		{"empty", &mockStore{found: true}, map[string]any{}, domain.ErrInvalidArgument},
		{"identifier", &mockStore{found: true}, map[string]any{"_id": validID}, domain.ErrInvalidArgument},
		{"nested identifier", &mockStore{found: true}, map[string]any{"_id.x": 1}, domain.ErrInvalidArgument},
		{"not found", &mockStore{found: false}, map[string]any{"a": 1}, domain.ErrDocumentNotFound},
		{"path conflict", &mockStore{err: &db.Error{Op: db.OpUpdateOne, Err: domdoc.ErrPathConflict}},
			map[string]any{"a.b": 1}, domain.ErrInvalidArgument},
		{"not connected", &mockStore{err: db.ErrNotConnected}, map[string]any{"a": 1}, domain.ErrStoreUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := New(tc.store).Update(ctx, "", "c", validID, tc.partial)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestStoreErr_PassesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	err := New(&mockStore{err: boom}).Delete(context.Background(), "", "c", validID)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	for _, sentinel := range []error{domain.ErrInvalidArgument, domain.ErrDocumentNotFound, domain.ErrStoreUnavailable} {
		if errors.Is(err, sentinel) {
			t.Errorf("unexpected sentinel %v in %v", sentinel, err)
		}
	}
}
