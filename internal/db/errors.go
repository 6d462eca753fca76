package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrNotConnected = errors.New("db: not connected")
	ErrNoDocuments  = errors.New("db: no documents in result")
	ErrConflict     = errors.New("db: concurrent modification")
)

// Op constants name the store operation for error context and metrics.
const (
	OpPing            = "ping"
	OpListCollections = "list_collections"
	OpFind            = "find"
	OpFindOne         = "find_one"
	OpCount           = "count"
	OpInsertOne       = "insert_one"
	OpDeleteOne       = "delete_one"
	OpReplaceOne      = "replace_one"
	OpUpdateOne       = "update_one"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
