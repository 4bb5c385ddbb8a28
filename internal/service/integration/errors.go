package integration

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized covers a missing or expired token and any 401/403 on an
// authenticated call. Callers end the session and send the user to login.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer from the LMS API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("lms api returned status %d", e.Status)
	}
	return fmt.Sprintf("lms api returned status %d: %s", e.Status, e.Message)
}

func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// MessageOr returns the server-provided message carried by err, or fallback.
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
