package document

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		t.Fatalf("decode %s: %v", s, err)
	}
	return m
}

func TestNew_NormalizesNumbers(t *testing.T) {
	doc, err := New(decode(t, `{"name":"Alice","age":20,"score":9.5,"tags":["a",1],"meta":{"n":3}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Document{
		"name":  "Alice",
		"age":   int64(20),
		"score": 9.5,
		"tags":  []any{"a", int64(1)},
		"meta":  map[string]any{"n": int64(3)},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"nil", nil},
		{"empty", map[string]any{}},
		{"identifier", map[string]any{"_id": "507f1f77bcf86cd799439011", "a": 1}},
		{"blank key", map[string]any{" ": 1}},
		{"operator key", map[string]any{"$set": map[string]any{}}},
		{"unsupported value", map[string]any{"f": func() {}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.fields); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewReplacement(t *testing.T) {
	const id = "507f1f77bcf86cd799439011"

	doc, err := NewReplacement(id, map[string]any{"_id": id, "name": "Bob"})
	if err != nil {
		t.Fatalf("matching _id should be tolerated: %v", err)
	}
	if _, ok := doc[IDField]; ok {
		t.Error("identifier must be dropped from the replacement")
	}

	if _, err := NewReplacement(id, map[string]any{"_id": "507f1f77bcf86cd799439012", "name": "Bob"}); err == nil {
		t.Error("expected error for a different _id")
	}
	if _, err := NewReplacement(id, map[string]any{"_id": id}); err == nil {
		t.Error("expected error for identifier-only body")
	}
	if _, err := NewReplacement(id, nil); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestLookup(t *testing.T) {
	doc := Document{
		"name":    "Alice",
		"address": map[string]any{"city": "Laval"},
		"tags":    []any{"x", "y"},
	}
	tests := []struct {
		path string
		want any
		ok   bool
	}{
		{"name", "Alice", true},
		{"address.city", "Laval", true},
		{"tags.1", "y", true},
		{"tags.5", nil, false},
		{"address.zip", nil, false},
		{"name.first", nil, false},
		{"missing", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			got, ok := doc.Lookup(tc.path)
			if ok != tc.ok || got != tc.want {
				t.Errorf("Lookup(%q) = (%v, %v), want (%v, %v)", tc.path, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestSet(t *testing.T) {
	doc := Document{"a": int64(1)}
	if err := doc.Set("b.c.d", "x"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, _ := doc.Lookup("b.c.d"); v != "x" {
		t.Errorf("b.c.d = %v", v)
	}
	if err := doc.Set("a.b", 1); !errors.Is(err, ErrPathConflict) {
		t.Errorf("expected ErrPathConflict, got %v", err)
	}
}

func TestClone_IsDeep(t *testing.T) {
	doc := Document{"meta": map[string]any{"n": int64(1)}, "list": []any{int64(1)}}
	c := doc.Clone()
	c["meta"].(map[string]any)["n"] = int64(2)
	c["list"].([]any)[0] = int64(2)
	if doc["meta"].(map[string]any)["n"] != int64(1) || doc["list"].([]any)[0] != int64(1) {
		t.Error("Clone shares nested state with the original")
	}
}

func TestWithIDAndID(t *testing.T) {
	doc := Document{"a": int64(1)}.WithID("507f1f77bcf86cd799439011")
	if doc.ID() != "507f1f77bcf86cd799439011" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if (Document{}).ID() != "" {
		t.Error("ID() of a document without identifier should be empty")
	}
}

func TestNormalize_Uint64Overflow(t *testing.T) {
	v, err := Normalize(uint64(1 << 63))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := v.(float64); !ok {
		t.Errorf("expected float64, got %T", v)
	}
}
