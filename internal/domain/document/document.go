package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// IDField is the system-assigned identifier field.
const IDField = "_id"

// ErrPathConflict signals a dotted path that runs through a non-object value.
var ErrPathConflict = errors.New("path conflicts with an existing non-object value")

// Document is a schema-less record.
//
// Values are limited to string, int64, float64, bool, nil, map[string]any and []any.
// Use Normalize to bring decoded input into that set.
type Document map[string]any

// New validates a body for insertion and returns a normalized copy.
// The body must be a non-empty object without an identifier field.
func New(fields map[string]any) (Document, error) {
	if len(fields) == 0 {
		return nil, errors.New("document body must be a non-empty object")
	}
	if _, ok := fields[IDField]; ok {
		return nil, fmt.Errorf("field %q is assigned by the store", IDField)
	}
	return normalizeBody(fields)
}

// NewReplacement validates a full replacement body for the document id.
// An identifier field is tolerated only when it repeats id; it is dropped.
func NewReplacement(id string, fields map[string]any) (Document, error) {
	if len(fields) == 0 {
		return nil, errors.New("replacement body must be a non-empty object")
	}
	if raw, ok := fields[IDField]; ok {
		s, isStr := raw.(string)
		if !isStr || !strings.EqualFold(s, id) {
			return nil, fmt.Errorf("field %q cannot be changed", IDField)
		}
		trimmed := make(map[string]any, len(fields)-1)
		for k, v := range fields {
			if k != IDField {
				trimmed[k] = v
			}
		}
		if len(trimmed) == 0 {
			return nil, errors.New("replacement body must contain fields besides the identifier")
		}
		fields = trimmed
	}
	return normalizeBody(fields)
}

// ValidateKey rejects blank and operator-like field names.
func ValidateKey(k string) error {
	if strings.TrimSpace(k) == "" {
		return errors.New("field name must not be blank")
	}
	if strings.HasPrefix(k, "$") {
		return fmt.Errorf("field name %q must not start with '$'", k)
	}
	return nil
}

func normalizeBody(fields map[string]any) (Document, error) {
	doc := make(Document, len(fields))
	for k, v := range fields {
		if err := ValidateKey(k); err != nil {
			return nil, err
		}
		nv, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		doc[k] = nv
	}
	return doc, nil
}

// ID returns the identifier as a string, or "" if absent.
func (d Document) ID() string {
	switch v := d[IDField].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// WithID returns a copy carrying id in the identifier field.
func (d Document) WithID(id string) Document {
	out := d.Clone()
	if out == nil {
		out = Document{}
	}
	out[IDField] = id
	return out
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]any(d)).(map[string]any)
}

// Lookup resolves a dotted path. Sequences are indexed by numeric segments.
func (d Document) Lookup(path string) (any, bool) {
	var cur any = map[string]any(d)
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Set assigns v at a dotted path, creating intermediate objects.
func (d Document) Set(path string, v any) error {
	segs := strings.Split(path, ".")
	node := map[string]any(d)
	for _, seg := range segs[:len(segs)-1] {
		next, ok := node[seg]
		if !ok || next == nil {
			child := map[string]any{}
			node[seg] = child
			node = child
			continue
		}
		child, isMap := next.(map[string]any)
		if !isMap {
			return fmt.Errorf("%s: %w", path, ErrPathConflict)
		}
		node = child
	}
	node[segs[len(segs)-1]] = v
	return nil
}

// Keys returns the top-level field names in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Normalize converts a decoded value into the document value set.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return f, nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint:
		return normalizeUint(uint64(t)), nil
	case uint64:
		return normalizeUint(t), nil
	case float32:
		return float64(t), nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			ne, err := Normalize(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = ne
		}
		return out, nil
	case Document:
		return Normalize(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			ne, err := Normalize(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = ne
		}
		return out, nil
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func normalizeUint(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return float64(u)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case Document:
		return cloneValue(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return t
	}
}
