package backend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrCircuitOpen is returned while the backend circuit breaker rejects calls
var ErrCircuitOpen = errors.New("backend unavailable: circuit breaker open")

// ErrNoRecord is returned by Resource.Create when the backend confirmed the
// creation with a bare success flag and no record.
var ErrNoRecord = errors.New("backend confirmed without returning the record")

// NetworkError is a request that did not complete or that the backend failed
// to serve (5xx). Nothing was changed locally.
type NetworkError struct {
	Method string
	Path   string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s: backend returned status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError is a payload rejected by the backend or by local checks.
// Fields maps a payload field to its message and may be empty.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// NewValidationError creates a ValidationError with optional field messages
func NewValidationError(message string, fields map[string]string) *ValidationError {
	if message == "" {
		message = "données invalides"
	}
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + e.Joined()
}

// Joined renders the field messages as one sorted line.
func (e *ValidationError) Joined() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// NotFoundError is a mutation whose target no longer exists on the backend.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: record no longer exists", e.Path)
}

// IsNetworkClass reports whether err should be shown as a connectivity
// problem with a prompt to refresh the list.
func IsNetworkClass(err error) bool {
	var netErr *NetworkError
	var notFound *NotFoundError
	return errors.As(err, &netErr) || errors.As(err, &notFound) || errors.Is(err, ErrCircuitOpen)
}
