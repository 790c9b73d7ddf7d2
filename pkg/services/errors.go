package services

import (
	"errors"
	"fmt"
)

// ErrFilter marks a request whose filter parameters could not be normalized.
// Handlers map it to a 400 response.
var ErrFilter = errors.New("invalid filter")

// FilterError describes the offending field. It wraps ErrFilter so callers
// can match with errors.Is without depending on the concrete type.
type FilterError struct {
	Field  string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter: %s: %s", e.Field, e.Reason)
}

func (e *FilterError) Unwrap() error { return ErrFilter }
