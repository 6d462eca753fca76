package patch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/minicompass/internal/domain/document"
)

// Patch is a partial update with set semantics.
// Keys are dotted paths; each one overwrites or creates the addressed field.
type Patch struct {
	fields map[string]any
}

// New validates and creates a Patch. At least one field must be provided and the
// identifier field cannot be touched.
func New(fields map[string]any) (Patch, error) {
	if len(fields) == 0 {
		return Patch{}, errors.New("at least one field must be provided")
	}

	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if err := document.ValidateKey(k); err != nil {
			return Patch{}, err
		}
		if k == document.IDField || strings.HasPrefix(k, document.IDField+".") {
			return Patch{}, fmt.Errorf("field %q cannot be modified", document.IDField)
		}
		for _, seg := range strings.Split(k, ".") {
			if seg == "" {
				return Patch{}, fmt.Errorf("field path %q has an empty segment", k)
			}
		}
		nv, err := document.Normalize(v)
		if err != nil {
			return Patch{}, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = nv
	}

	for _, k := range sortedKeys(out) {
		segs := strings.Split(k, ".")
		for i := 1; i < len(segs); i++ {
			prefix := strings.Join(segs[:i], ".")
			if _, ok := out[prefix]; ok {
				return Patch{}, fmt.Errorf("field paths %q and %q conflict", prefix, k)
			}
		}
	}

	return Patch{fields: out}, nil
}

// Fields returns the path -> value assignments.
func (p Patch) Fields() map[string]any { return p.fields }

// Paths returns the assigned paths in sorted order.
func (p Patch) Paths() []string { return sortedKeys(p.fields) }

// Apply returns a copy of doc with every assignment applied.
func (p Patch) Apply(doc document.Document) (document.Document, error) {
	out := doc.Clone()
	if out == nil {
		out = document.Document{}
	}
	for _, path := range p.Paths() {
		if err := out.Set(path, p.fields[path]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
