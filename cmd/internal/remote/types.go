package remote

// User is the identity record embedded in a backend session.
// Metadata carries free-form sign-up fields (e.g. "username").
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata"`
}

// Session is the backend-issued proof of authentication.
// It is opaque to this application: mirrored, never authored, locally.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// EventType identifies a session-state transition on the change stream.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// AuthEvent is one change notification from the backend event stream.
// Session is nil for sign-out and session invalidation.
type AuthEvent struct {
	Type    EventType `json:"event"`
	Session *Session  `json:"session"`
}

// SignUpInput carries the fields forwarded to the backend sign-up endpoint.
type SignUpInput struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Metadata map[string]any `json:"data,omitempty"`

	// RedirectTo is where the confirmation email links back to.
	RedirectTo string `json:"redirect_to,omitempty"`
}

// SignUpResult is the backend response to sign-up.
// Session is nil while email confirmation is pending.
type SignUpResult struct {
	User    User     `json:"user"`
	Session *Session `json:"session"`
}

// OAuthOptions configures an OAuth initiation redirect.
type OAuthOptions struct {
	// RedirectTo is where the backend sends the browser after the
	// provider flow completes.
	RedirectTo string

	// State is the opaque CSRF nonce round-tripped through the provider.
	State string

	// Params are provider-specific query parameters
	// (e.g. access_type=offline, prompt=consent for Google).
	Params map[string]string
}
