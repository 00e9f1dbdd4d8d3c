package websocket

import (
	"context"
	"sync"
	"time"
	"yolonode/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const writeWait = 5 * time.Second

// ErrHubStopped is returned by Broadcast after Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// Client is one websocket connection registered with a hub.
type Client struct {
	ID   uuid.UUID
	conn *websocket.Conn
}

type message struct {
	messageType int
	data        []byte
}

// HubService fans messages out to every connected client of one topic.
// All writes to client connections happen on the Run goroutine.
type HubService struct {
	name       string
	clients    map[uuid.UUID]*Client
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewHubService creates a hub for the named topic.
func NewHubService(name string, logger *logger.Logger) *HubService {
	return &HubService{
		name:       name,
		clients:    make(map[uuid.UUID]*Client),
		broadcast:  make(chan message, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Name returns the topic served by the hub.
func (h *HubService) Name() string {
	return h.name
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every remaining connection.
func (h *HubService) Run(ctx context.Context) error {
	defer h.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client %s subscribed to %s. Total: %d", client.ID, h.name, count)

		case client := <-h.unregister:
			if h.drop(client) {
				h.logger.Info("Client %s left %s. Total: %d", client.ID, h.name, h.ClientCount())
			}

		case msg := <-h.broadcast:
			for _, client := range h.snapshot() {
				_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.conn.WriteMessage(msg.messageType, msg.data); err != nil {
					h.logger.Error("Error sending message on %s to %s: %v", h.name, client.ID, err)
					h.drop(client)
				}
			}
		}
	}
}

// Register adds a connection to the hub and returns its client handle.
func (h *HubService) Register(conn *websocket.Conn) (*Client, error) {
	client := &Client{ID: uuid.New(), conn: conn}
	select {
	case h.register <- client:
		return client, nil
	case <-h.done:
		return nil, ErrHubStopped
	}
}

// Unregister removes a client and closes its connection.
func (h *HubService) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues data for every client. messageType is
// websocket.TextMessage or websocket.BinaryMessage.
func (h *HubService) Broadcast(messageType int, data []byte) error {
	select {
	case h.broadcast <- message{messageType: messageType, data: data}:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// ClientCount returns the number of connected clients.
func (h *HubService) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *HubService) snapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

func (h *HubService) drop(client *Client) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return false
	}
	delete(h.clients, client.ID)
	client.conn.Close()
	return true
}

func (h *HubService) stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.mutex.Lock()
		for id, c := range h.clients {
			c.conn.Close()
			delete(h.clients, id)
		}
		h.mutex.Unlock()
		h.logger.Info("Hub %s stopped", h.name)
	})
}
