package remote

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.AnonKey = "anon-test-key"
	cfg.HTTPTimeout = 2 * time.Second
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSignInWithPassword_StoresToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("grant_type"); got != "password" {
			t.Errorf("grant_type=%q want password", got)
		}
		if got := r.Header.Get("apikey"); got != "anon-test-key" {
			t.Errorf("apikey header=%q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","user":{"id":"u1","email":"a@b.test"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	s, err := c.SignInWithPassword(context.Background(), "a@b.test", "pw")
	if err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}
	if s.User.ID != "u1" {
		t.Fatalf("user id=%q want u1", s.User.ID)
	}
	if got := c.AccessToken(); got != "tok-1" {
		t.Fatalf("AccessToken()=%q want tok-1", got)
	}
}

func TestSignInWithPassword_BackendError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_credentials","msg":"Invalid login credentials"}`))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.SignInWithPassword(context.Background(), "a@b.test", "nope")
	if err == nil {
		t.Fatalf("expected error")
	}
	re, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if re.Status != http.StatusBadRequest || re.Code != "invalid_credentials" {
		t.Fatalf("got %+v", re)
	}
	if re.Message != "Invalid login credentials" {
		t.Fatalf("message=%q", re.Message)
	}
}

func TestGetSession_SignedOutIsNil(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"no session"}`))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	s, err := c.GetSession(context.Background())
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s != nil {
		t.Fatalf("expected nil session, got %+v", s)
	}
}

func TestSignOut_DropsTokenEvenOnFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok-2","user":{"id":"u1","email":"a@b.test"}}`))
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"msg":"backend down"}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.SignInWithPassword(context.Background(), "a@b.test", "pw"); err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}

	if err := c.SignOut(context.Background()); err == nil {
		t.Fatalf("expected remote sign-out error")
	}
	if got := c.AccessToken(); got != "" {
		t.Fatalf("token not dropped after failed sign-out: %q", got)
	}
}

func TestSignUp_ForwardsMetadataAndRedirect(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		for _, want := range []string{`"username":"ada"`, `"redirect_to":"https://nimbus.test"`} {
			if !strings.Contains(string(body), want) {
				t.Errorf("body %s missing %s", body, want)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":"u9","email":"ada@nimbus.test"},"session":null}`))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	res, err := c.SignUp(context.Background(), SignUpInput{
		Email:      "ada@nimbus.test",
		Password:   "secret-pw",
		Metadata:   map[string]any{"username": "ada"},
		RedirectTo: "https://nimbus.test",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if res.User.ID != "u9" {
		t.Fatalf("user id=%q", res.User.ID)
	}
	if res.Session != nil {
		t.Fatalf("expected pending confirmation (nil session)")
	}
}

func TestSignInWithOAuth_URL(t *testing.T) {
	t.Parallel()

	c, err := NewClient(testConfig("https://backend.nimbus.test"), testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	raw, err := c.SignInWithOAuth("google", OAuthOptions{
		RedirectTo: "https://nimbus.test",
		State:      "nonce-123",
		Params: map[string]string{
			"access_type": "offline",
			"prompt":      "consent",
		},
	})
	if err != nil {
		t.Fatalf("SignInWithOAuth: %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	if u.Path != "/auth/v1/authorize" {
		t.Fatalf("path=%q", u.Path)
	}
	q := u.Query()
	for k, want := range map[string]string{
		"provider":     "google",
		"state":        "nonce-123",
		"redirect_uri": "https://nimbus.test",
		"access_type":  "offline",
		"prompt":       "consent",
	} {
		if got := q.Get(k); got != want {
			t.Fatalf("query %s=%q want %q", k, got, want)
		}
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("NIMBUS_BACKEND_URL", "https://backend.nimbus.test/")
	t.Setenv("NIMBUS_BACKEND_ANON_KEY", "anon")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.BaseURL != "https://backend.nimbus.test" {
		t.Fatalf("BaseURL=%q (trailing slash not trimmed)", cfg.BaseURL)
	}

	t.Setenv("NIMBUS_BACKEND_ANON_KEY", "")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatalf("expected ErrConfig for missing anon key")
	}
}
