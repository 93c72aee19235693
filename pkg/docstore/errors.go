package docstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrConflict indicates a write carried a stale revision and was
	// rejected by the store.
	ErrConflict = errors.New("document revision conflict")

	// ErrMalformedResponse indicates the store answered with a success
	// status but a body missing required fields.
	ErrMalformedResponse = errors.New("malformed store response")
)

// StatusError is returned for HTTP responses that are neither a success nor
// one of the expected signal statuses (404, 409). The response body is kept
// so callers can surface the backend's own failure message.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("store returned status %d", e.StatusCode)
	}

	return fmt.Sprintf("store returned status %d: %s", e.StatusCode, e.Body)
}
