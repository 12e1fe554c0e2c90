package connection

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Client represents one connected websocket. Its ID doubles as the player id
// once the client joins a table.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	// Set by the command router once the client joins a table.
	Name      string
	TableCode string
}

// Manager tracks all live clients. Registration runs through channels so the
// bookkeeping happens on a single goroutine, the same one that closes Send
// channels on the way out.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
	logger     *log.Logger
}

// NewManager creates a new connection manager.
func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.WithPrefix("conns"),
	}
}

// Run processes registration events until the context is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case client := <-m.Register:
			m.mutex.Lock()
			m.clients[client.ID] = client
			m.mutex.Unlock()
			m.logger.Debug("client registered", "id", client.ID)
		case client := <-m.Unregister:
			m.mutex.Lock()
			if _, ok := m.clients[client.ID]; ok {
				delete(m.clients, client.ID)
				close(client.Send)
			}
			m.mutex.Unlock()
			m.logger.Debug("client unregistered", "id", client.ID)
		}
	}
}

// SendToClient queues a message for one client. Returns false if the client
// is gone or its send buffer is full.
func (m *Manager) SendToClient(clientID string, message []byte) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	client, ok := m.clients[clientID]
	if !ok {
		return false
	}

	select {
	case client.Send <- message:
		return true
	default:
		m.logger.Warn("dropping message, client send buffer full", "id", clientID)
		return false
	}
}

// Client returns the client with the given id, if connected.
func (m *Manager) Client(clientID string) (*Client, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	client, ok := m.clients[clientID]
	return client, ok
}
