package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// Client talks to the hosted auth backend for one visitor scope.
//
// It keeps the most recently issued session tokens so that authorized calls
// (session fetch, sign-out) can identify the scope to the backend. The token
// bundle is backend-owned state: the client stores and forwards it, nothing
// else.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger

	mu          sync.Mutex
	accessToken string
}

// NewClient constructs a backend client from config.
func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.EventReadLimit <= 0 {
		cfg.EventReadLimit = DefaultConfig().EventReadLimit
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.HTTPTimeout},
		log:  log,
	}, nil
}

// GetSession fetches the current session for this scope.
// A signed-out scope yields (nil, nil), not an error.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodGet, "/auth/v1/session", nil, nil, &s)
	if err != nil {
		if re, ok := AsError(err); ok && (re.Status == http.StatusUnauthorized || re.Status == http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	c.rememberSession(&s)
	return &s, nil
}

// GetUser fetches the user record behind the current session.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SignUp registers new credentials with the backend.
// The returned session is nil while email confirmation is pending.
func (c *Client) SignUp(ctx context.Context, in SignUpInput) (SignUpResult, error) {
	var res SignUpResult
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", nil, in, &res); err != nil {
		return SignUpResult{}, err
	}
	c.rememberSession(res.Session)
	return res, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	q := url.Values{"grant_type": []string{"password"}}

	var s Session
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token", q, body, &s); err != nil {
		return nil, err
	}
	c.rememberSession(&s)
	return &s, nil
}

// SignOut revokes the current session on the backend.
// The locally held token bundle is dropped even when the call fails.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil)
	c.rememberSession(nil)
	return err
}

// SignInWithOAuth builds the backend authorize URL for an OAuth provider.
// Navigating to the returned URL hands the browser to the provider; there is
// no local state change to make before that handoff.
func (c *Client) SignInWithOAuth(provider string, opts OAuthOptions) (string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "", errors.New("remote: empty oauth provider")
	}

	conf := &oauth2.Config{
		ClientID: c.cfg.AnonKey,
		Endpoint: oauth2.Endpoint{
			AuthURL: c.cfg.BaseURL + "/auth/v1/authorize",
		},
		RedirectURL: opts.RedirectTo,
	}

	authOpts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("provider", provider),
	}
	for k, v := range opts.Params {
		authOpts = append(authOpts, oauth2.SetAuthURLParam(k, v))
	}

	return conf.AuthCodeURL(opts.State, authOpts...), nil
}

// AccessToken returns the currently held access token ("" when signed out).
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) rememberSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.accessToken = ""
		return
	}
	c.accessToken = s.AccessToken
}

// do performs one backend round trip and decodes the response into out.
// Non-2xx responses become *Error with the backend's code and message.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.cfg.AnonKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}

// decodeError maps a backend error payload to *Error.
// The backend answers either {"code":..,"msg":..} or
// {"error":..,"error_description":..} depending on the endpoint.
func decodeError(resp *http.Response) error {
	var payload struct {
		Code             string `json:"code"`
		Msg              string `json:"msg"`
		ErrorCode        string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &payload)

	code := payload.Code
	if code == "" {
		code = payload.ErrorCode
	}
	msg := payload.Msg
	if msg == "" {
		msg = payload.ErrorDescription
	}
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &Error{Status: resp.StatusCode, Code: code, Message: msg}
}
