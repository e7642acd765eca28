package authapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEnsureVisitorMintsAndReuses(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t, &stubRemote{}, nil, LoadConfigFromEnv())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	id := h.EnsureVisitor(rec, req)
	if !validVisitorID(id) {
		t.Fatalf("minted id %q is not a valid visitor id", id)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == h.cfg.VisitorCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("visitor cookie not set")
	}
	if cookie.Value != id {
		t.Fatalf("cookie value %q != returned id %q", cookie.Value, id)
	}
	if !cookie.HttpOnly {
		t.Fatal("visitor cookie must be HttpOnly")
	}

	// A request that carries the cookie keeps its id and gets no new cookie.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	if got := h.EnsureVisitor(rec2, req2); got != id {
		t.Fatalf("id changed across requests: %q != %q", got, id)
	}
	if len(rec2.Result().Cookies()) != 0 {
		t.Fatal("unexpected new cookie for a returning visitor")
	}
}

func TestEnsureVisitorRejectsGarbageCookie(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t, &stubRemote{}, nil, LoadConfigFromEnv())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: h.cfg.VisitorCookieName, Value: "not-a-ulid"})
	rec := httptest.NewRecorder()

	id := h.EnsureVisitor(rec, req)
	if !validVisitorID(id) {
		t.Fatalf("expected a fresh id, got %q", id)
	}
	if id == "not-a-ulid" {
		t.Fatal("garbage cookie value survived")
	}
}
