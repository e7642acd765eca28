package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"nimbus/cmd/internal/auth/facade"
	"nimbus/cmd/internal/auth/mirror"
)

// Handler wires HTTP credential endpoints to per-visitor facades.
type Handler struct {
	log    *slog.Logger
	cfg    Config
	scopes *Scopes

	signins *ipLimiter
}

// Retry-After hint when the backend throttles but does not say for how long.
const backendRetryAfterHint = 30 * time.Second

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, scopes *Scopes) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if scopes == nil {
		return nil, errors.New("auth: nil scopes hub")
	}
	return &Handler{
		log:     log,
		cfg:     cfg,
		scopes:  scopes,
		signins: newIPLimiter(cfg.SignInIPMax, cfg.SignInIPWindow),
	}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/signup", h.handleSignUp)
	mux.HandleFunc("/auth/signin", h.handleSignIn)
	mux.HandleFunc("/auth/signout", h.handleSignOut)
	mux.HandleFunc("/auth/google", h.handleGoogle)
	mux.HandleFunc("/me", h.handleMe)
}

// Viewer is the projection handed to page rendering: loading until the first
// session lookup resolves, then an optional signed-in user.
type Viewer struct {
	Loading bool
	User    *mirror.User
}

// ViewerFor resolves the request's visitor scope and returns its projection.
func (h *Handler) ViewerFor(w http.ResponseWriter, r *http.Request) (Viewer, error) {
	sc, err := h.scope(w, r)
	if err != nil {
		return Viewer{}, err
	}
	v := Viewer{Loading: sc.Mirror.Loading()}
	if u, ok := sc.Mirror.CurrentUser(); ok {
		v.User = &u
	}
	return v, nil
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (*Scope, error) {
	id := h.EnsureVisitor(w, r)
	return h.scopes.GetOrCreate(r.Context(), id)
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}
	if !h.signins.Allow(clientIP(r, h.cfg.TrustProxy), time.Now()) {
		writeRateLimited(w, h.cfg.SignInIPWindow, facade.MsgRateLimited)
		return
	}

	var req signUpRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "email and password are required")
		return
	}

	sc, err := h.scope(w, r)
	if err != nil {
		h.log.Error("auth.signup.scope.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	res, err := sc.Facade.SignUp(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		h.log.Info("auth.signup.fail", "err", err)
		writeCredError(w, err)
		return
	}

	h.log.Info("auth.signup.ok", "user_id", res.User.ID)
	writeJSON(w, http.StatusOK, signUpResponse{
		User:                toUserResponse(res.User.ID, res.User.Email, req.Username),
		ConfirmationPending: res.Session == nil,
	})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}
	if !h.signins.Allow(clientIP(r, h.cfg.TrustProxy), time.Now()) {
		writeRateLimited(w, h.cfg.SignInIPWindow, facade.MsgRateLimited)
		return
	}

	var req signInRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "email and password are required")
		return
	}

	sc, err := h.scope(w, r)
	if err != nil {
		h.log.Error("auth.signin.scope.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	if _, err := sc.Facade.SignIn(r.Context(), req.Email, req.Password); err != nil {
		h.log.Info("auth.signin.fail", "ip", clientIP(r, h.cfg.TrustProxy))
		writeCredError(w, err)
		return
	}

	// The user projection fills in via the change stream; the response only
	// acknowledges the submission.
	h.log.Info("auth.signin.ok")
	writeJSON(w, http.StatusOK, signInResponse{OK: true})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required")
		return
	}

	sc, err := h.scope(w, r)
	if err != nil {
		h.log.Error("auth.signout.scope.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	sc.Facade.SignOut(w, r)
}

func (h *Handler) handleGoogle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
		return
	}

	sc, err := h.scope(w, r)
	if err != nil {
		h.log.Error("auth.google.scope.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	if err := sc.Facade.SignInWithGoogle(w, r); err != nil {
		h.log.Info("auth.google.fail", "err", err)
		writeCredError(w, err)
	}
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required")
		return
	}

	v, err := h.ViewerFor(w, r)
	if err != nil {
		h.log.Error("auth.me.scope.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	resp := meResponse{Loading: v.Loading}
	if v.User != nil {
		u := toUserResponse(v.User.ID, v.User.Email, "")
		u.Username = v.User.Username
		resp.User = &u
	}
	writeJSON(w, http.StatusOK, resp)
}

func toUserResponse(id, email, username string) userResponse {
	u := userResponse{ID: id, Email: email}
	if name := strings.TrimSpace(username); name != "" {
		u.Username = &name
	}
	return u
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
}

// writeCredError maps a facade error kind to an HTTP status. The message is
// passed through verbatim so pages can show it directly.
func writeCredError(w http.ResponseWriter, err error) {
	var ce facade.CredError
	if !errors.As(err, &ce) {
		writeError(w, http.StatusBadGateway, "backend_error", "authentication backend failed")
		return
	}

	switch {
	case errors.Is(ce, facade.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "already_registered", ce.Message)
	case errors.Is(ce, facade.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "invalid_email", ce.Message)
	case errors.Is(ce, facade.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "weak_password", ce.Message)
	case errors.Is(ce, facade.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", ce.Message)
	case errors.Is(ce, facade.ErrEmailNotConfirmed):
		writeError(w, http.StatusForbidden, "email_not_confirmed", ce.Message)
	case errors.Is(ce, facade.ErrRateLimited):
		writeRateLimited(w, backendRetryAfterHint, ce.Message)
	case errors.Is(ce, facade.ErrProvider):
		writeError(w, http.StatusBadGateway, "provider_failed", ce.Message)
	default:
		writeError(w, http.StatusBadGateway, "backend_error", ce.Message)
	}
}
