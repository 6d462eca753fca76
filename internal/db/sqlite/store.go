// Package sqlite stores documents as JSON rows in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/kailas-cloud/minicompass/internal/db"
	"github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/oid"
	"github.com/kailas-cloud/minicompass/internal/domain/document/patch"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
	"github.com/kailas-cloud/minicompass/internal/domain/query/page"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	db   TEXT NOT NULL,
	name TEXT NOT NULL,
	PRIMARY KEY (db, name)
);
CREATE TABLE IF NOT EXISTS documents (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	db         TEXT NOT NULL,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	UNIQUE (db, collection, id)
);`

// Config holds connection parameters for a SQLite store.
type Config struct {
	Path string
}

// Store implements db.Store on a single SQLite connection.
//
// Tables:
//
//	collections(db, name)                     PRIMARY KEY (db, name)
//	documents(seq, db, collection, id, data)  UNIQUE (db, collection, id)
//
// Documents come back in seq order. Filters are evaluated in Go on the decoded rows.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at cfg.Path and applies the schema.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("path is required")
	}
	if cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: serializes writers and keeps ":memory:" databases alive.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: conn}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// ListCollections returns the collection names of database in sorted order.
func (s *Store) ListCollections(ctx context.Context, database string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM collections WHERE db = ? ORDER BY name", database)
	if err != nil {
		return nil, &db.Error{Op: db.OpListCollections, Err: err}
	}
	defer func() { _ = rows.Close() }()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &db.Error{Op: db.OpListCollections, Err: err}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpListCollections, Err: err}
	}
	return names, nil
}

// scan streams the documents of ns in seq order, stopping when fn returns false.
func (s *Store) scan(
	ctx context.Context, op string, ns db.Namespace, f filter.Filter, fn func(document.Document) bool,
) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM documents WHERE db = ? AND collection = ? ORDER BY seq",
		ns.Database, ns.Collection,
	)
	if err != nil {
		return &db.Error{Op: op, Err: err}
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return &db.Error{Op: op, Err: err}
		}
		doc, err := document.Unmarshal([]byte(raw))
		if err != nil {
			return &db.Error{Op: op, Err: err}
		}
		if f.Match(doc) && !fn(doc) {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return &db.Error{Op: op, Err: err}
	}
	return nil
}

// Find returns the documents matching f within page p.
func (s *Store) Find(ctx context.Context, ns db.Namespace, f filter.Filter, p page.Page) ([]document.Document, error) {
	docs := []document.Document{}
	skipped := 0
	err := s.scan(ctx, db.OpFind, ns, f, func(doc document.Document) bool {
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
	err := s.scan(ctx, db.OpFindOne, ns, f, func(doc document.Document) bool {
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
		var n int64
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM documents WHERE db = ? AND collection = ?",
			ns.Database, ns.Collection,
		).Scan(&n)
		if err != nil {
			return 0, &db.Error{Op: db.OpCount, Err: err}
		}
		return n, nil
	}

	var n int64
	err := s.scan(ctx, db.OpCount, ns, f, func(document.Document) bool {
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

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO collections (db, name) VALUES (?, ?)",
			ns.Database, ns.Collection,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO documents (db, collection, id, data) VALUES (?, ?, ?, ?)",
			ns.Database, ns.Collection, id, string(data),
		)
		return err
	})
	if err != nil {
		return "", &db.Error{Op: db.OpInsertOne, Err: err}
	}
	return id, nil
}

// DeleteOne removes the document with id.
func (s *Store) DeleteOne(ctx context.Context, ns db.Namespace, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE db = ? AND collection = ? AND id = ?",
		ns.Database, ns.Collection, id,
	)
	if err != nil {
		return false, &db.Error{Op: db.OpDeleteOne, Err: err}
	}
	return affected(db.OpDeleteOne, res)
}

// ReplaceOne swaps the body of the document with id, keeping its position.
func (s *Store) ReplaceOne(ctx context.Context, ns db.Namespace, id string, doc document.Document) (bool, error) {
	data, err := document.Marshal(doc.WithID(id))
	if err != nil {
		return false, &db.Error{Op: db.OpReplaceOne, Err: err}
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET data = ? WHERE db = ? AND collection = ? AND id = ?",
		string(data), ns.Database, ns.Collection, id,
	)
	if err != nil {
		return false, &db.Error{Op: db.OpReplaceOne, Err: err}
	}
	return affected(db.OpReplaceOne, res)
}

// UpdateOne applies p to the document with id inside a transaction.
func (s *Store) UpdateOne(ctx context.Context, ns db.Namespace, id string, p patch.Patch) (bool, error) {
	found := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx,
			"SELECT data FROM documents WHERE db = ? AND collection = ? AND id = ?",
			ns.Database, ns.Collection, id,
		).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		cur, err := document.Unmarshal([]byte(raw))
		if err != nil {
			return err
		}
		next, err := p.Apply(cur)
		if err != nil {
			return err
		}
		data, err := document.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE documents SET data = ? WHERE db = ? AND collection = ? AND id = ?",
			string(data), ns.Database, ns.Collection, id,
		)
		return err
	})
	if err != nil {
		return false, &db.Error{Op: db.OpUpdateOne, Err: err}
	}
	return found, nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func affected(op string, res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, &db.Error{Op: op, Err: err}
	}
	return n > 0, nil
}
