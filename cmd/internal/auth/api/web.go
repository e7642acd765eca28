package authapi

import (
	"crypto/rand"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// EnsureVisitor returns the visitor id for the request, minting a new one
// (and setting the cookie) when the request carries none or an invalid one.
func (h *Handler) EnsureVisitor(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(h.cfg.VisitorCookieName); err == nil {
		if id := strings.TrimSpace(c.Value); validVisitorID(id) {
			return id
		}
	}

	id := newVisitorID()
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.VisitorCookieName,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.VisitorCookieTTL),
		MaxAge:   int(h.cfg.VisitorCookieTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func newVisitorID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func validVisitorID(s string) bool {
	if len(s) != ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(s)
	return err == nil
}
