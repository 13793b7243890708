package provision

import (
	"fmt"
	"strings"
)

// maxErrorBody caps how much of a rejection body is kept on a StatusError.
const maxErrorBody = 512

// StatusError is returned when the administrative endpoint rejects a creation request.
type StatusError struct {
	// URL is the request URL.
	URL string

	// StatusCode is the HTTP status code (>= 400).
	StatusCode int

	// Body is the trimmed response body, truncated to a few hundred bytes.
	Body string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("POST %s: status %d", e.URL, e.StatusCode)
	}

	return fmt.Sprintf("POST %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

func newStatusError(url string, code int, body []byte) *StatusError {
	return &StatusError{
		URL:        url,
		StatusCode: code,
		Body:       strings.TrimSpace(string(body)),
	}
}
