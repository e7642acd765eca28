package facade

import (
	"strings"

	"nimbus/cmd/internal/remote"
)

// User-facing messages for classified failures.
const (
	MsgInvalidCredentials = "Invalid email or password. Please try again."
	MsgEmailNotConfirmed  = "Please confirm your email address before signing in."
	MsgRateLimited        = "Too many attempts. Please wait a moment and try again."
	MsgAlreadyRegistered  = "This email is already registered. Try signing in instead."
	MsgInvalidEmail       = "Please enter a valid email address."
	MsgWeakPassword       = "Password should be at least 6 characters."
	MsgProviderFailed     = "Could not start the sign-in provider. Please try again."
)

// rule maps a backend error code or message substring to a classified kind.
// Codes are matched exactly and win over substrings; substring matching is
// case-insensitive. Unmatched errors become ErrUnknown carrying the backend's
// original text.
type rule struct {
	code    string
	substr  string
	kind    error
	message string
}

var signInRules = []rule{
	{code: "invalid_credentials", substr: "invalid login credentials", kind: ErrInvalidCredentials, message: MsgInvalidCredentials},
	{code: "email_not_confirmed", substr: "email not confirmed", kind: ErrEmailNotConfirmed, message: MsgEmailNotConfirmed},
	{code: "over_request_rate_limit", substr: "rate limit", kind: ErrRateLimited, message: MsgRateLimited},
}

var signUpRules = []rule{
	{code: "user_already_exists", substr: "already registered", kind: ErrAlreadyRegistered, message: MsgAlreadyRegistered},
	{code: "email_address_invalid", substr: "invalid format", kind: ErrInvalidEmail, message: MsgInvalidEmail},
	{code: "validation_failed", substr: "is invalid", kind: ErrInvalidEmail, message: MsgInvalidEmail},
	{code: "weak_password", substr: "at least 6 characters", kind: ErrWeakPassword, message: MsgWeakPassword},
	{code: "over_email_send_rate_limit", substr: "rate limit", kind: ErrRateLimited, message: MsgRateLimited},
}

func classify(err error, rules []rule) error {
	re, ok := remote.AsError(err)
	if !ok {
		return CredError{Kind: ErrUnknown, Message: err.Error()}
	}

	for _, r := range rules {
		if r.code != "" && re.Code == r.code {
			return CredError{Kind: r.kind, Message: r.message}
		}
	}
	lower := strings.ToLower(re.Message)
	for _, r := range rules {
		if r.substr != "" && strings.Contains(lower, r.substr) {
			return CredError{Kind: r.kind, Message: r.message}
		}
	}

	return CredError{Kind: ErrUnknown, Message: re.Message}
}
