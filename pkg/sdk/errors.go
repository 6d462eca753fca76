package minicompass

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by *APIError. Use errors.Is() to check.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrDocumentNotFound = errors.New("document not found")
	ErrUnavailable      = errors.New("document store unavailable")
	ErrServer           = errors.New("server error")
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("minicompass: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Unwrap maps the status code onto a sentinel.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusRequestEntityTooLarge:
		return ErrInvalidArgument
	case e.StatusCode == http.StatusNotFound:
		return ErrDocumentNotFound
	case e.StatusCode == http.StatusServiceUnavailable:
		return ErrUnavailable
	case e.StatusCode >= http.StatusInternalServerError:
		return ErrServer
	default:
		return nil
	}
}
