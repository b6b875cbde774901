package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrTimedOut is the cancellation reason when the fixed deadline elapses.
	ErrTimedOut = errors.New("Request timed out")
	// ErrCancelled is the cancellation reason for a user-requested abort.
	ErrCancelled = errors.New("Upload cancelled.")
)

// unknownServerError is used when a logical failure carries no message.
const unknownServerError = "Unknown server error"

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("Server error: %d %s", e.StatusCode, e.Body)
}

// ServerError is a 2xx response whose body reported success=false.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}
