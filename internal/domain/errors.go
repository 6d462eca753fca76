package domain

import "errors"

var (
	// ErrInvalidArgument signals a request rejected before reaching the store.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDocumentNotFound signals that no document matched the target.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrStoreUnavailable signals that the document store is not connected.
	ErrStoreUnavailable = errors.New("document store unavailable")
)
