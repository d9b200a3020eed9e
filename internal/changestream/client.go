// Package changestream is the client-side WebSocket subscriber that keeps
// the attribute cache fresh when another client mutates the backing
// directory: C6.
package changestream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"github.com/restfuse-project/restfuse/internal/logger"
)

// Listener is invoked for every change notification whose originating
// client is not this one. path is the changed path; parent is its parent
// directory path (empty string for a top-level entry), since a change to
// an entry also invalidates the cached listing of its parent.
type Listener func(path, parent string)

// Client subscribes to the server's change stream and invalidates the
// local attribute cache on every remote mutation, skipping notifications
// this client's own writes produced (echo suppression).
type Client struct {
	url      string
	clientID string
	listener Listener

	backoff *backoff.Backoff
}

// New returns a Client that dials wsURL (e.g. "ws://127.0.0.1:8080/ws"),
// generating a random client ID to identify this process's own writes.
func New(wsURL string, listener Listener) *Client {
	return NewWithID(uuid.NewString(), wsURL, listener)
}

// NewWithID is like New but uses clientID instead of minting one, so a
// caller that also threads this ID into its own HTTP requests (via
// internal/httpapi.Client) can recognize and skip echoes of its own writes.
func NewWithID(clientID, wsURL string, listener Listener) *Client {
	return &Client{
		url:      wsURL,
		clientID: clientID,
		listener: listener,
		backoff: &backoff.Backoff{
			Min:    500 * time.Millisecond,
			Max:    10 * time.Second,
			Factor: 2,
			Jitter: true,
		},
	}
}

// ClientID is the identifier this client attaches to its own mutating HTTP
// requests, so the server can tag broadcast frames with it and this
// Client can recognize and discard its own echoes.
func (c *Client) ClientID() string {
	return c.clientID
}

// Run dials the change stream and reconnects with exponential backoff
// until ctx is cancelled. It never returns a non-nil error except when ctx
// is done, matching a long-lived background subscriber's contract.
func (c *Client) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := c.runOnce(ctx); err != nil {
			delay := c.backoff.Duration()
			logger.Warnf("changestream: connection lost: %v, reconnecting in %s", err, delay)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		c.backoff.Reset()
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		conn.Close()
		close(done)
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				return ctx.Err()
			default:
			}
			return err
		}

		if msgType != websocket.TextMessage {
			continue
		}

		c.handleFrame(string(data))
	}
}

// handleFrame parses a "CHANGE:<path>|BY:<client-id>" frame and, unless it
// originated from this client, invalidates the changed path and its
// parent directory's listing.
func (c *Client) handleFrame(frame string) {
	path, by, ok := parseFrame(frame)
	if !ok {
		logger.Warnf("changestream: discarding unparseable frame: %q", frame)
		return
	}

	if by == c.clientID {
		return
	}

	parent := ""
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		parent = path[:idx]
	}
	c.listener(path, parent)
}

func parseFrame(frame string) (path, by string, ok bool) {
	const changePrefix = "CHANGE:"
	const bySep = "|BY:"

	if !strings.HasPrefix(frame, changePrefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(frame, changePrefix)

	idx := strings.Index(rest, bySep)
	if idx < 0 {
		return "", "", false
	}

	return rest[:idx], rest[idx+len(bySep):], true
}
