package valkey

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/minicompass/internal/db"
	"github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/oid"
	"github.com/kailas-cloud/minicompass/internal/domain/document/patch"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
)

// Op names for rueidis commands.
const (
	opSmembers = "SMEMBERS"
	opZrange   = "ZRANGE"
	opZcard    = "ZCARD"
	opMget     = "MGET"
	opGet      = "GET"
	opSet      = "SET"
	opEval     = "EVALSHA"
)

// mgetChunk bounds the number of keys per MGET.
const mgetChunk = 256

// maxCASAttempts bounds optimistic retries of UpdateOne under contention.
const maxCASAttempts = 8

// ListCollections returns the collection names of database in sorted order.
func (s *Store) ListCollections(ctx context.Context, database string) ([]string, error) {
	cmd := s.b().Smembers().Key(s.keys.collections(database)).Build()
	names, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: opSmembers, Err: err}
	}
	sort.Strings(names)
	return names, nil
}

// idRange returns ids in insertion order, positions start..stop inclusive (-1 = end).
func (s *Store) idRange(ctx context.Context, ns db.Namespace, start, stop int64) ([]string, error) {
	cmd := s.b().Zrange().Key(s.keys.ids(ns)).
		Min(strconv.FormatInt(start, 10)).Max(strconv.FormatInt(stop, 10)).Build()
	ids, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: opZrange, Err: err}
	}
	return ids, nil
}

// load fetches the documents for ids, skipping ids deleted in between.
func (s *Store) load(ctx context.Context, ns db.Namespace, ids []string) ([]document.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cmd := s.b().Mget().Key(s.keys.docs(ns, ids)...).Build()
	msgs, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: opMget, Err: err}
	}

	docs := make([]document.Document, 0, len(msgs))
	for i := range msgs {
		if msgs[i].IsNil() {
			continue
		}
		raw, err := msgs[i].ToString()
		if err != nil {
			return nil, &db.Error{Op: opMget, Err: err}
		}
		doc, err := document.Unmarshal([]byte(raw))
		if err != nil {
			return nil, &db.Error{Op: opMget, Err: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// scan walks every document of ns in insertion order and evaluates f in Go,
// stopping when fn returns false.
func (s *Store) scan(ctx context.Context, ns db.Namespace, f filter.Filter, fn func(document.Document) bool) error {
	ids, err := s.idRange(ctx, ns, 0, -1)
	if err != nil {
		return err
	}
	for start := 0; start < len(ids); start += mgetChunk {
		end := min(start+mgetChunk, len(ids))
		docs, err := s.load(ctx, ns, ids[start:end])
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if f.Match(doc) && !fn(doc) {
				return nil
			}
		}
	}
	return nil
}

// Find returns the documents matching f within page p.
// Unfiltered reads page on the server; filtered reads scan the collection.
func (s *Store) Find(ctx context.Context, ns db.Namespace, f filter.Filter, p page.Page) ([]document.Document, error) {
	if f.IsEmpty() {
		start := int64(p.Skip())
		ids, err := s.idRange(ctx, ns, start, start+int64(p.Limit())-1)
		if err != nil {
			return nil, err
		}
		docs, err := s.load(ctx, ns, ids)
		if err != nil {
			return nil, err
		}
		if docs == nil {
			docs = []document.Document{}
		}
		return docs, nil
	}

	docs := []document.Document{}
	skipped := 0
	err := s.scan(ctx, ns, f, func(doc document.Document) bool {
		if skipped < p.Skip() {
			skipped++
			return true
		}
		docs = append(docs, doc)
		return len(docs) < p.Limit()
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// FindOne returns the first document matching f.
func (s *Store) FindOne(ctx context.Context, ns db.Namespace, f filter.Filter) (document.Document, error) {
	var found document.Document
	err := s.scan(ctx, ns, f, func(doc document.Document) bool {
		found = doc
		return false
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, db.ErrNoDocuments
	}
	return found, nil
}

// Count returns the number of documents matching f.
func (s *Store) Count(ctx context.Context, ns db.Namespace, f filter.Filter) (int64, error) {
	if f.IsEmpty() {
		n, err := s.do(ctx, s.b().Zcard().Key(s.keys.ids(ns)).Build()).AsInt64()
		if err != nil {
			return 0, &db.Error{Op: opZcard, Err: err}
		}
		return n, nil
	}

	var n int64
	err := s.scan(ctx, ns, f, func(document.Document) bool {
		n++
		return true
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// InsertOne stores doc under a fresh identifier and registers the collection.
func (s *Store) InsertOne(ctx context.Context, ns db.Namespace, doc document.Document) (string, error) {
	id := oid.New().String()
	data, err := document.Marshal(doc.WithID(id))
	if err != nil {
		return "", &db.Error{Op: db.OpInsertOne, Err: err}
	}

	keys := []string{s.keys.doc(ns, id), s.keys.ids(ns), s.keys.seq(ns), s.keys.collections(ns.Database)}
	n, err := insertScript.Exec(ctx, s.client, keys, []string{string(data), id, ns.Collection}).AsInt64()
	if err != nil {
		return "", &db.Error{Op: opEval, Err: err}
	}
	if n == 0 {
		return "", &db.Error{Op: db.OpInsertOne, Err: fmt.Errorf("identifier %s already taken", id)}
	}
	return id, nil
}

// DeleteOne removes the document with id.
func (s *Store) DeleteOne(ctx context.Context, ns db.Namespace, id string) (bool, error) {
	keys := []string{s.keys.doc(ns, id), s.keys.ids(ns)}
	n, err := deleteScript.Exec(ctx, s.client, keys, []string{id}).AsInt64()
	if err != nil {
		return false, &db.Error{Op: opEval, Err: err}
	}
	return n > 0, nil
}

// ReplaceOne swaps the body of the document with id (SET XX).
func (s *Store) ReplaceOne(ctx context.Context, ns db.Namespace, id string, doc document.Document) (bool, error) {
	data, err := document.Marshal(doc.WithID(id))
	if err != nil {
		return false, &db.Error{Op: db.OpReplaceOne, Err: err}
	}
	cmd := s.b().Set().Key(s.keys.doc(ns, id)).Value(string(data)).Xx().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return false, nil
		}
		return false, &db.Error{Op: opSet, Err: err}
	}
	return true, nil
}

// UpdateOne applies p with optimistic compare-and-set, retrying when another
// writer changed the document between read and swap.
func (s *Store) UpdateOne(ctx context.Context, ns db.Namespace, id string, p patch.Patch) (bool, error) {
	key := s.keys.doc(ns, id)
	for range maxCASAttempts {
		raw, err := s.do(ctx, s.b().Get().Key(key).Build()).ToString()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				return false, nil
			}
			return false, &db.Error{Op: opGet, Err: err}
		}

		cur, err := document.Unmarshal([]byte(raw))
		if err != nil {
			return false, &db.Error{Op: db.OpUpdateOne, Err: err}
		}
		next, err := p.Apply(cur)
		if err != nil {
			return false, &db.Error{Op: db.OpUpdateOne, Err: err}
		}
		data, err := document.Marshal(next)
		if err != nil {
			return false, &db.Error{Op: db.OpUpdateOne, Err: err}
		}

		swapped, err := casScript.Exec(ctx, s.client, []string{key}, []string{raw, string(data)}).AsInt64()
		if err != nil {
			return false, &db.Error{Op: opEval, Err: err}
		}
		if swapped == 1 {
			return true, nil
		}
	}
	return false, &db.Error{Op: db.OpUpdateOne, Err: db.ErrConflict}
}
