// Package filter builds equality filters and evaluates them against documents.
package filter

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/minicompass/internal/domain"
	"github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/oid"
	"github.com/kailas-cloud/minicompass/internal/domain/query/value"
)

// Filter is a set of field -> exact value constraints, all of which must hold.
// Field names may be dotted paths into nested objects.
type Filter struct {
	conds map[string]any
}

// Build creates a single-field filter {field: v}.
func Build(field string, v value.Value) (Filter, error) {
	if err := validateField(field); err != nil {
		return Filter{}, err
	}
	return Filter{conds: map[string]any{field: condValue(field, v.Any())}}, nil
}

// New creates a filter from an arbitrary mapping. An empty mapping matches everything.
func New(conds map[string]any) (Filter, error) {
	out := make(map[string]any, len(conds))
	for k, v := range conds {
		if err := validateField(k); err != nil {
			return Filter{}, err
		}
		nv, err := document.Normalize(v)
		if err != nil {
			return Filter{}, fmt.Errorf("filter field %q: %v: %w", k, err, domain.ErrInvalidArgument)
		}
		out[k] = condValue(k, nv)
	}
	return Filter{conds: out}, nil
}

// validateField requires every dotted segment to be a plain field name, so a
// condition can never be read as a query operator.
func validateField(field string) error {
	if strings.TrimSpace(field) == "" {
		return fmt.Errorf("filter field must not be blank: %w", domain.ErrInvalidArgument)
	}
	for _, seg := range strings.Split(field, ".") {
		if err := document.ValidateKey(seg); err != nil {
			return fmt.Errorf("filter field %q: %v: %w", field, err, domain.ErrInvalidArgument)
		}
	}
	return nil
}

// All returns a filter that matches every document.
func All() Filter { return Filter{} }

// condValue promotes well-formed identifier strings on the identifier field.
func condValue(field string, v any) any {
	if field != document.IDField {
		return v
	}
	if s, ok := v.(string); ok {
		if id, valid := oid.Parse(s); valid {
			return id
		}
	}
	return v
}

// Conditions returns the field -> value constraints.
func (f Filter) Conditions() map[string]any { return f.conds }

// Fields returns the constrained fields in sorted order.
func (f Filter) Fields() []string {
	keys := make([]string, 0, len(f.conds))
	for k := range f.conds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether the filter has no constraints.
func (f Filter) IsEmpty() bool { return len(f.conds) == 0 }

// Match reports whether doc satisfies every constraint.
//
// Semantics follow document stores: a sequence matches when any element equals the
// value, paths traverse sequences of objects, and a nil value matches a missing field.
// Numbers compare by value regardless of int or float representation.
func (f Filter) Match(doc document.Document) bool {
	for path, want := range f.conds {
		if !matchPath(map[string]any(doc), strings.Split(path, "."), want) {
			return false
		}
	}
	return true
}

func matchPath(node any, segs []string, want any) bool {
	if len(segs) == 0 {
		return matchValue(node, want)
	}
	seg, rest := segs[0], segs[1:]

	switch n := node.(type) {
	case map[string]any:
		child, ok := n[seg]
		if !ok {
			return want == nil
		}
		return matchPath(child, rest, want)
	case []any:
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 && i < len(n) {
			if matchPath(n[i], rest, want) {
				return true
			}
		}
		for _, e := range n {
			if _, isMap := e.(map[string]any); isMap && matchPath(e, segs, want) {
				return true
			}
		}
		return false
	default:
		return want == nil
	}
}

func matchValue(got, want any) bool {
	if equal(got, want) {
		return true
	}
	if arr, ok := got.([]any); ok {
		for _, e := range arr {
			if equal(e, want) {
				return true
			}
		}
	}
	return false
}

func equal(got, want any) bool {
	if gf, ok := toFloat(got); ok {
		wf, ok := toFloat(want)
		return ok && gf == wf
	}
	switch w := want.(type) {
	case oid.ID:
		s, ok := got.(string)
		return ok && strings.EqualFold(s, w.String())
	case string:
		s, ok := got.(string)
		return ok && s == w
	case bool:
		b, ok := got.(bool)
		return ok && b == w
	case nil:
		return got == nil
	default:
		return reflect.DeepEqual(got, want)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// QueryValue interprets a raw query-string value for field. Values are coerced,
// except on the identifier field where they stay strings so hex identifiers that
// happen to look numeric are not mangled.
func QueryValue(field, raw string) value.Value {
	if field == document.IDField {
		return value.String(raw)
	}
	return value.Coerce(raw)
}

// FromQuery builds {field: QueryValue(field, raw)}.
func FromQuery(field, raw string) (Filter, error) {
	return Build(field, QueryValue(field, raw))
}
