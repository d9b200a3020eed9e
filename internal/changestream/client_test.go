package changestream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	path, by, ok := parseFrame("CHANGE:a/b.txt|BY:client-123")
	require.True(t, ok)
	assert.Equal(t, "a/b.txt", path)
	assert.Equal(t, "client-123", by)

	_, _, ok = parseFrame("garbage")
	assert.False(t, ok)
}

func newEchoServer(t *testing.T, frames []string) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Keep the connection open briefly so the client has time to read.
		time.Sleep(100 * time.Millisecond)
	}))
}

func TestClient_InvalidatesOnRemoteChangeButSkipsOwnEcho(t *testing.T) {
	srv := newEchoServer(t, []string{
		"CHANGE:dir/file.txt|BY:other-client",
		"CHANGE:dir/mine.txt|BY:self",
	})
	defer srv.Close()

	var mu sync.Mutex
	var seen []string

	c := New("ws"+strings.TrimPrefix(srv.URL, "http"), func(path, parent string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, path)
	})
	c.clientID = "self"

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_ = c.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"dir/file.txt"}, seen)
}
