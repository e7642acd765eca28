package facade

import "errors"

// Sentinel error kinds for classified credential failures
// (stable for errors.Is and for mapping to API status codes).
var (
	ErrAlreadyRegistered  = errors.New("already_registered")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrWeakPassword       = errors.New("weak_password")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailNotConfirmed  = errors.New("email_not_confirmed")
	ErrRateLimited        = errors.New("rate_limited")
	ErrProvider           = errors.New("provider_error")
	ErrUnknown            = errors.New("unknown")
)

// CredError is a classified credential failure.
//
// Message is the user-facing text and must be shown verbatim by callers.
// For ErrUnknown it carries the backend's original message.
type CredError struct {
	Kind    error
	Message string
}

func (e CredError) Error() string { return e.Message }

func (e CredError) Unwrap() error { return e.Kind }
