// internal/api/sse.go
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Event is the push channel wire format. Every new detection is delivered
// as {"type":"update","data":<record>} to all currently connected
// subscribers. At most once, best effort, no replay for late subscribers.
type Event struct {
	Type string         `json:"type"`
	Data RecordResponse `json:"data"`
}

// heartbeatInterval paces keep-alive comments on the SSE stream.
const heartbeatInterval = 30 * time.Second

// SSEClient represents a connected subscriber.
type SSEClient struct {
	ID      string
	Channel chan Event
	Done    chan struct{}
}

// SSEManager maintains the registry of connected subscribers. The registry
// lives in process memory only, a restart starts empty.
type SSEManager struct {
	clients map[string]*SSEClient
	mutex   sync.RWMutex
	logger  *slog.Logger
}

// NewSSEManager creates a new SSE manager
func NewSSEManager(logger *slog.Logger) *SSEManager {
	return &SSEManager{
		clients: make(map[string]*SSEClient),
		logger:  logger,
	}
}

// AddClient registers a subscriber; the channel transitions to open.
func (m *SSEManager) AddClient(client *SSEClient) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.clients[client.ID] = client
	if m.logger != nil {
		m.logger.Info("subscriber connected", "client_id", client.ID, "total", len(m.clients))
	}
}

// RemoveClient deregisters a subscriber; the channel transitions to closed.
func (m *SSEManager) RemoveClient(clientID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if client, exists := m.clients[clientID]; exists {
		close(client.Done)
		delete(m.clients, clientID)
		if m.logger != nil {
			m.logger.Info("subscriber disconnected", "client_id", clientID, "total", len(m.clients))
		}
	}
}

// Broadcast delivers the event to every subscriber presently in the
// registry and reports how many deliveries succeeded and how many
// subscribers were detached. Sends never block: the per-client channel
// buffers 100 events, a subscriber that far behind is detached instead of
// stalling the caller, so ingestion latency is independent of slow
// dashboard connections.
func (m *SSEManager) Broadcast(event *Event) (delivered, detached int) {
	m.mutex.RLock()

	if len(m.clients) == 0 {
		m.mutex.RUnlock()
		return 0, 0
	}

	var blockedClients []string
	for clientID, client := range m.clients {
		select {
		case client.Channel <- *event:
			delivered++
		default:
			if m.logger != nil {
				m.logger.Warn("subscriber buffer full, detaching", "client_id", clientID)
			}
			blockedClients = append(blockedClients, clientID)
		}
	}

	m.mutex.RUnlock()

	// remove without holding the read lock to avoid deadlock
	for _, clientID := range blockedClients {
		m.RemoveClient(clientID)
	}

	return delivered, len(blockedClients)
}

// ClientCount returns the number of connected subscribers.
func (m *SSEManager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// CloseAll detaches every subscriber, used on shutdown.
func (m *SSEManager) CloseAll() {
	m.mutex.Lock()
	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	m.mutex.Unlock()

	for _, id := range ids {
		m.RemoveClient(id)
	}
}

// initSSERoutes registers the push channel endpoints
func (c *Controller) initSSERoutes() {
	c.Group.GET("/records/stream", c.StreamRecords)
	c.Group.GET("/sse/status", c.GetSSEStatus)
}

// StreamRecords handles the SSE connection for live detection updates.
func (c *Controller) StreamRecords(ctx echo.Context) error {
	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	client := &SSEClient{
		ID:      uuid.NewString(),
		Channel: make(chan Event, 100),
		Done:    make(chan struct{}),
	}
	c.sseManager.AddClient(client)
	defer c.sseManager.RemoveClient(client.ID)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-client.Channel:
			if err := writeSSEEvent(resp, &event); err != nil {
				return nil // subscriber went away
			}

		case <-ticker.C:
			// comment line keeps intermediaries from dropping the stream
			if _, err := fmt.Fprint(resp, ": heartbeat\n\n"); err != nil {
				return nil
			}
			resp.Flush()

		case <-ctx.Request().Context().Done():
			return nil

		case <-client.Done:
			return nil
		}
	}
}

// writeSSEEvent serializes one event onto the stream.
func writeSSEEvent(resp *echo.Response, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	resp.Flush()
	return nil
}

// GetSSEStatus reports the number of connected subscribers.
func (c *Controller) GetSSEStatus(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"connected_clients": c.sseManager.ClientCount(),
		"status":            "active",
	})
}
