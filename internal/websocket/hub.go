package websocket

import (
	"context"
	"sync"

	"github.com/ikkim/ridehail-backend/internal/events"
	"github.com/ikkim/ridehail-backend/pkg/logger"
)

const (
	clientSendBuffer = 256
	broadcastBuffer  = 1024
)

// Client is one reviewer session on the live verification feed.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte
}

func NewClient(hub *Hub, conn *Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, clientSendBuffer),
	}
}

// Hub fans committed verification events out to every connected reviewer.
// It implements events.Publisher.
type Hub struct {
	clients   map[*Client]struct{}
	broadcast chan []byte

	mu      sync.RWMutex
	stopped bool
}

var _ events.Publisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan []byte, broadcastBuffer),
	}
}

// Run serves broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case message := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				logger.Warn("Feed client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
				})
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.Send)
	}
	remaining := len(h.clients)
	h.mu.Unlock()

	if ok {
		logger.Info("Verification feed client unregistered", map[string]interface{}{
			"user_id":            client.UserID,
			"remaining_sessions": remaining,
		})
	}
}

// Register adds a session. After Run has returned the client's Send is
// closed immediately so its write pump hangs up, and false is returned.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		close(client.Send)
		return false
	}
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	logger.Info("Verification feed client registered", map[string]interface{}{
		"user_id":        client.UserID,
		"total_sessions": total,
	})
	return true
}

// Unregister is idempotent and safe after Run has returned.
func (h *Hub) Unregister(client *Client) {
	h.remove(client)
}

// ClientCount is the number of connected reviewer sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues the event for every session. A full queue drops the event
// rather than blocking the caller.
func (h *Hub) Publish(ctx context.Context, event events.VerificationStatusChanged) error {
	data, err := event.Marshal()
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- data:
	case <-ctx.Done():
		return ctx.Err()
	default:
		logger.Warn("Feed broadcast queue full, event dropped", map[string]interface{}{
			"verification_id": event.VerificationID,
		})
	}
	return nil
}
