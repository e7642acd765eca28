package remote

import (
	"errors"
	"fmt"
)

// ErrConfig is returned for invalid client configuration.
var ErrConfig = errors.New("invalid config")

// Error is a failure reported by the hosted backend.
//
// Code is the backend's stable machine code when present; Message is the
// backend's human-readable text. Callers classify on both (see auth/facade).
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("remote: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("remote: status %d (%s): %s", e.Status, e.Code, e.Message)
}

// AsError extracts a backend *Error from err, if err carries one.
func AsError(err error) (*Error, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
