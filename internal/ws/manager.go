// Package ws provides WebSocket-based state push for the dashboard views.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// broadcastWriteTimeout bounds each per-view write so one stalled view
// cannot hold up a broadcast for everyone else.
const broadcastWriteTimeout = 3 * time.Second

// ViewManager tracks active WebSocket connections, one per view instance.
// Both the floating chat widget and the full-page insights view register
// here; a broadcast reaches every open view.
type ViewManager struct {
	mu     sync.RWMutex
	active map[string]*websocket.Conn
}

// NewViewManager creates an empty manager.
func NewViewManager() *ViewManager {
	return &ViewManager{
		active: make(map[string]*websocket.Conn),
	}
}

// GetActive returns the active connection for a view, or nil.
func (m *ViewManager) GetActive(viewID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[viewID]
}

// Register adds a connection for a view. A previous connection under the
// same view ID is closed and replaced.
func (m *ViewManager) Register(viewID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.active[viewID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "view replaced")
	}

	m.active[viewID] = conn
	slog.Info("Dashboard view registered", "view_id", viewID)
}

// Unregister removes a connection for a view. A connection that has
// already been replaced is left alone.
func (m *ViewManager) Unregister(viewID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.active[viewID]; exists && current == conn {
		delete(m.active, viewID)
		slog.Info("Dashboard view unregistered", "view_id", viewID)
	}
}

// BroadcastJSON pushes one JSON payload to every registered view.
func (m *ViewManager) BroadcastJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode broadcast payload", "error", err)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for viewID, conn := range m.active {
		ctx, cancel := context.WithTimeout(context.Background(), broadcastWriteTimeout)
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("Broadcast write failed", "view_id", viewID, "error", err)
		}
		cancel()
	}
}

// CloseAll terminates every active connection.
func (m *ViewManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for viewID, conn := range m.active {
		_ = conn.Close(websocket.StatusNormalClosure, "server shutting down")
		slog.Info("Dashboard view closed", "view_id", viewID)
	}
	m.active = make(map[string]*websocket.Conn)
}
