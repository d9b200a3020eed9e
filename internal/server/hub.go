package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/restfuse-project/restfuse/internal/logger"
)

// subscriberQueueSize bounds how many undelivered change frames a single
// slow subscriber can accumulate; once its queue is full, further frames
// for that subscriber are dropped (the subscriber itself stays connected)
// rather than letting the hub's broadcast loop block on it.
const subscriberQueueSize = 256

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans a change notification out to every connected WebSocket
// subscriber: C8's broadcast half.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan string]struct{}
}

func newHub() *Hub {
	return &Hub{subscribers: make(map[chan string]struct{})}
}

// broadcast formats and fans out a single change notification.
func (h *Hub) broadcast(path, clientID string) {
	frame := fmt.Sprintf("CHANGE:%s|BY:%s", path, clientID)

	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- frame:
		default:
			logger.Warnf("server: subscriber queue full, dropping frame for %s", path)
		}
	}
}

func (h *Hub) subscribe() chan string {
	ch := make(chan string, subscriberQueueSize)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	return ch
}

func (h *Hub) unsubscribe(ch chan string) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()

	close(ch)
}

// ServeWS upgrades the request to a WebSocket and streams change frames to
// it until the connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("server: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	// Drain and discard any client-initiated frames so the connection's
	// read side stays serviced; this server only ever pushes.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for frame := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
	}
}
