package minicompass

import (
	"net/url"
	"strconv"
)

// Document is a schema-less record. Numbers decode as int64 or float64 and
// the identifier is the hex string under "_id".
type Document = map[string]any

// IDField is the identifier field of every document.
const IDField = "_id"

// ListOptions selects documents for DocumentService.List. The zero value
// returns the first page of the server's default size.
type ListOptions struct {
	field, value *string
	limit        *int
	skip         int
}

// Where filters on field equal to value. The server coerces value to a
// number or boolean when it looks like one.
func Where(field, value string) ListOptions {
	return ListOptions{}.Where(field, value)
}

// Where returns a copy filtered on field == value.
func (o ListOptions) Where(field, value string) ListOptions {
	o.field, o.value = &field, &value
	return o
}

// Limit returns a copy capped at n documents. Limit(0) selects nothing.
func (o ListOptions) Limit(n int) ListOptions {
	o.limit = &n
	return o
}

// Skip returns a copy that skips the first n documents.
func (o ListOptions) Skip(n int) ListOptions {
	o.skip = n
	return o
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.field != nil {
		q.Set("field", *o.field)
	}
	if o.value != nil {
		q.Set("value", *o.value)
	}
	if o.limit != nil {
		q.Set("limit", strconv.Itoa(*o.limit))
	}
	if o.skip != 0 {
		q.Set("skip", strconv.Itoa(o.skip))
	}
	return q
}

// DuplicateResult reports how many documents share a value.
type DuplicateResult struct {
	Count     int64 `json:"count"`
	Duplicate bool  `json:"duplicate"`
}
