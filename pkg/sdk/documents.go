package minicompass

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DocumentService addresses the documents of one collection.
type DocumentService struct {
	c          *Client
	collection string
}

func (s *DocumentService) path(extra ...string) string {
	return s.c.path(append([]string{"collections", s.collection, "documents"}, extra...)...)
}

func fieldValueQuery(field, value string) url.Values {
	return url.Values{"field": {field}, "value": {value}}
}

// List returns documents in store order.
func (s *DocumentService) List(ctx context.Context, opts ListOptions) (docs []Document, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("list_documents", start, err) }()

	var resp struct {
		Documents []map[string]any `json:"documents"`
	}
	if err = s.c.do(ctx, http.MethodGet, s.path(), opts.query(), nil, &resp); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs = make([]Document, len(resp.Documents))
	for i, raw := range resp.Documents {
		if docs[i], err = normalize(raw); err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
	}
	return docs, nil
}

// Find returns the first document whose field equals value.
// It fails with ErrDocumentNotFound when none does.
func (s *DocumentService) Find(ctx context.Context, field, value string) (doc Document, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("find_document", start, err) }()

	var resp struct {
		Document map[string]any `json:"document"`
	}
	if err = s.c.do(ctx, http.MethodGet, s.path("find"), fieldValueQuery(field, value), nil, &resp); err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	if doc, err = normalize(resp.Document); err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

// Get returns the document with id.
func (s *DocumentService) Get(ctx context.Context, id string) (Document, error) {
	return s.Find(ctx, IDField, id)
}

// Exists reports whether any document has field equal to value.
func (s *DocumentService) Exists(ctx context.Context, field, value string) (ok bool, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("exists", start, err) }()

	var resp struct {
		Exists bool `json:"exists"`
	}
	if err = s.c.do(ctx, http.MethodGet, s.path("exists"), fieldValueQuery(field, value), nil, &resp); err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return resp.Exists, nil
}

// HasDuplicate counts documents whose field equals value.
func (s *DocumentService) HasDuplicate(ctx context.Context, field, value string) (res DuplicateResult, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("has_duplicate", start, err) }()

	if err = s.c.do(ctx, http.MethodGet, s.path("has-duplicate"), fieldValueQuery(field, value), nil, &res); err != nil {
		return DuplicateResult{}, fmt.Errorf("has duplicate: %w", err)
	}
	return res, nil
}

// Insert stores doc and returns the new identifier. doc must not carry "_id".
func (s *DocumentService) Insert(ctx context.Context, doc Document) (id string, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("insert", start, err) }()

	var resp struct {
		InsertedID string `json:"insertedId"`
	}
	if err = s.c.do(ctx, http.MethodPost, s.path(), nil, doc, &resp); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return resp.InsertedID, nil
}

// Delete removes the document with id.
func (s *DocumentService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("delete", start, err) }()

	if err = s.c.do(ctx, http.MethodDelete, s.path(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Replace swaps the whole body of the document with id.
func (s *DocumentService) Replace(ctx context.Context, id string, doc Document) (err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("replace", start, err) }()

	if err = s.c.do(ctx, http.MethodPut, s.path(id), nil, doc, nil); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// Update sets each field of fields on the document with id. Dotted keys
// address nested fields.
func (s *DocumentService) Update(ctx context.Context, id string, fields Document) (err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("update", start, err) }()

	if err = s.c.do(ctx, http.MethodPatch, s.path(id), nil, fields, nil); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}
