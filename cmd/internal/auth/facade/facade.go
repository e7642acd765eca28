package facade

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"nimbus/cmd/internal/auth/mirror"
	"nimbus/cmd/internal/localstate"
	"nimbus/cmd/internal/metrics"
	"nimbus/cmd/internal/remote"
)

const (
	oauthStateKey = "oauth_state"
	oauthStateTTL = 10 * time.Minute
)

// Remote is the slice of the backend client the facade forwards to.
type Remote interface {
	SignUp(ctx context.Context, in remote.SignUpInput) (remote.SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*remote.Session, error)
	SignOut(ctx context.Context) error
	SignInWithOAuth(provider string, opts remote.OAuthOptions) (string, error)
}

// Config defines facade behavior shared across scopes.
type Config struct {
	// SiteOrigin is the application origin used as the redirect target for
	// email confirmation links and OAuth completion.
	SiteOrigin string

	// SignOutTimeout bounds the fire-and-forget remote sign-out call.
	SignOutTimeout time.Duration
}

// DefaultConfig returns defaults suitable for development.
func DefaultConfig() Config {
	return Config{
		SiteOrigin:     "http://localhost:8080",
		SignOutTimeout: 5 * time.Second,
	}
}

// Facade wires the credential operations for one visitor scope.
type Facade struct {
	log    *slog.Logger
	cfg    Config
	client Remote
	mirror *mirror.Mirror
	state  localstate.Store
	scope  string
}

// New constructs a Facade. mirror and state may be nil in reduced setups.
func New(log *slog.Logger, cfg Config, client Remote, m *mirror.Mirror, state localstate.Store, scope string) *Facade {
	if log == nil {
		log = slog.Default()
	}
	if cfg.SignOutTimeout <= 0 {
		cfg.SignOutTimeout = DefaultConfig().SignOutTimeout
	}
	return &Facade{
		log:    log,
		cfg:    cfg,
		client: client,
		mirror: m,
		state:  state,
		scope:  scope,
	}
}

// SignUp forwards a registration to the backend with the username stored as
// session metadata. The local projection is untouched: email confirmation may
// still be pending, and sign-in state always arrives via the change stream.
func (f *Facade) SignUp(ctx context.Context, email, password, username string) (remote.SignUpResult, error) {
	in := remote.SignUpInput{
		Email:      strings.TrimSpace(email),
		Password:   password,
		RedirectTo: f.cfg.SiteOrigin,
	}
	if name := strings.TrimSpace(username); name != "" {
		in.Metadata = map[string]any{"username": name}
	}

	res, err := f.client.SignUp(ctx, in)
	if err != nil {
		metrics.AuthOps.WithLabelValues("sign_up", "error").Inc()
		return remote.SignUpResult{}, classify(err, signUpRules)
	}
	metrics.AuthOps.WithLabelValues("sign_up", "ok").Inc()
	return res, nil
}

// SignIn forwards credentials to the backend.
//
// A nil error does NOT mean the local user projection is populated yet;
// it is set by the change-notification path. Callers must not assume
// immediate post-call state.
func (f *Facade) SignIn(ctx context.Context, email, password string) (*remote.Session, error) {
	s, err := f.client.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		metrics.AuthOps.WithLabelValues("sign_in", "error").Inc()
		return nil, classify(err, signInRules)
	}
	metrics.AuthOps.WithLabelValues("sign_in", "ok").Inc()
	return s, nil
}

// SignOut tears down the visitor's local state and redirects to the site
// root. The sequence always runs to completion: remote failure never blocks
// it, and calling with no active session is a no-op plus redirect.
func (f *Facade) SignOut(w http.ResponseWriter, r *http.Request) {
	metrics.AuthOps.WithLabelValues("sign_out", "ok").Inc()

	// Remote revocation is fire-and-forget: attempted, never awaited.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), f.cfg.SignOutTimeout)
		defer cancel()
		if err := f.client.SignOut(ctx); err != nil {
			f.log.Error("auth.signout.remote.fail", "err", err)
		}
	}()

	if f.state != nil && f.scope != "" {
		if err := f.state.ClearAll(r.Context(), f.scope); err != nil {
			f.log.Error("auth.signout.localstate.clear.fail", "err", err)
		}
	}

	expireAllCookies(w, r)

	if f.mirror != nil {
		f.mirror.ClearUser()
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SignInWithGoogle redirects the browser to the backend authorize endpoint
// for Google. After the redirect, control leaves the application; session
// state returns through the change stream once the backend completes the
// provider flow.
func (f *Facade) SignInWithGoogle(w http.ResponseWriter, r *http.Request) error {
	state := uuid.NewString()
	if f.state != nil && f.scope != "" {
		if err := f.state.Set(r.Context(), f.scope, oauthStateKey, state, oauthStateTTL); err != nil {
			// Best effort: the backend validates state end to end.
			f.log.Error("auth.oauth.state.persist.fail", "err", err)
		}
	}

	target, err := f.client.SignInWithOAuth("google", remote.OAuthOptions{
		RedirectTo: f.cfg.SiteOrigin,
		State:      state,
		Params: map[string]string{
			"access_type": "offline",
			"prompt":      "consent",
		},
	})
	if err != nil {
		metrics.AuthOps.WithLabelValues("oauth_google", "error").Inc()
		return CredError{Kind: ErrProvider, Message: MsgProviderFailed}
	}

	metrics.AuthOps.WithLabelValues("oauth_google", "ok").Inc()
	http.Redirect(w, r, target, http.StatusSeeOther)
	return nil
}

// expireAllCookies expires every cookie present on the request, mirroring a
// full client-side cookie wipe.
func expireAllCookies(w http.ResponseWriter, r *http.Request) {
	for _, c := range r.Cookies() {
		http.SetCookie(w, &http.Cookie{
			Name:     c.Name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0).UTC(),
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
}
