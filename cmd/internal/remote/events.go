package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
)

// EventHandler receives change notifications in arrival order.
type EventHandler func(AuthEvent)

// Subscription is one registration on the backend change-notification stream.
//
// Events are delivered serially from a single reader goroutine. Unsubscribe is
// idempotent and must be called exactly once per owning scope teardown; the
// stream is not re-dialed after a read failure (no retry policy by contract).
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Unsubscribe stops event delivery. Safe to call multiple times and from
// within a handler.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Done is closed when the reader goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	if s == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.done
}

// Subscribe registers handler on the backend change-notification stream.
//
// The stream lives until Unsubscribe, ctx cancellation, or a read failure.
// Malformed frames are logged and skipped; they never tear the stream down.
func (c *Client) Subscribe(ctx context.Context, handler EventHandler) (*Subscription, error) {
	if handler == nil {
		return nil, ErrConfig
	}

	ctx, cancel := context.WithCancel(ctx)

	hdr := http.Header{}
	hdr.Set("apikey", c.cfg.AnonKey)
	if tok := c.AccessToken(); tok != "" {
		hdr.Set("Authorization", "Bearer "+tok)
	}

	conn, _, err := websocket.Dial(ctx, c.eventsURL(), &websocket.DialOptions{
		HTTPHeader: hdr,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	conn.SetReadLimit(c.cfg.EventReadLimit)

	sub := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "unsubscribed") }()

		for {
			mt, data, err := conn.Read(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.log.Info("remote.events.closed",
					"close_status", websocket.CloseStatus(err),
					"err", err,
				)
				return
			}
			if mt != websocket.MessageText {
				continue
			}

			var ev AuthEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				c.log.Warn("remote.events.bad_frame", "err", err)
				continue
			}

			handler(ev)
		}
	}()

	return sub, nil
}

// eventsURL derives the websocket endpoint from the HTTP base URL.
func (c *Client) eventsURL() string {
	base := c.cfg.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/auth/v1/events"
}
