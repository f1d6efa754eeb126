package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// clientSendBuffer bounds the per-client outbound queue. A client that
// cannot drain this many messages is disconnected rather than waited on.
const clientSendBuffer = 64

// WSMessage is the envelope for every websocket frame
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// LogEntry is one broadcastable log line
type LogEntry struct {
	Index     int    `json:"index,omitempty"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// wsClient is one connected websocket consumer with its outbound queue.
// The mutex serializes queueing against close: concurrent broadcasters may
// race a slow-client drop, and a send on a closed channel panics even inside
// a select with a default case.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend queues data for the write pump. Returns false only when the queue
// is full; a closed client swallows the message and reports success so the
// caller does not re-drop it.
func (c *wsClient) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return true
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WebSocketHandler broadcasts task lifecycle events and filtered log lines
// to connected clients. Sends are non-blocking; a client whose queue fills
// up is dropped so one slow consumer cannot stall task execution.
type WebSocketHandler struct {
	logger           arbor.ILogger
	mu               sync.RWMutex
	clients          map[*wsClient]bool
	serverInstanceID string // Unique ID generated on startup - clients use to detect server restart
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*wsClient]bool),
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().
		Str("server_instance_id", h.serverInstanceID).
		Msg("WebSocket handler initialized")

	return h
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	h.mu.Lock()
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	go h.writePump(client)

	h.sendHello(client)

	// Read loop keeps the connection alive and detects disconnects
	defer h.removeClient(client)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// PublishTaskEvent broadcasts a task lifecycle event to every client
func (h *WebSocketHandler) PublishTaskEvent(event models.TaskEvent) {
	h.broadcast(WSMessage{
		Type:    string(event.Type),
		Payload: event,
	})
}

// BroadcastLog sends one filtered log line to every client
func (h *WebSocketHandler) BroadcastLog(entry LogEntry) {
	h.broadcast(WSMessage{
		Type:    "log",
		Payload: entry,
	})
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast fans a message out to every client without blocking. Clients
// whose send queue is full are disconnected.
func (h *WebSocketHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("message_type", msg.Type).Msg("Failed to marshal websocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if !client.trySend(data) {
			h.logger.Warn().Msg("Dropping slow websocket client")
			h.removeClient(client)
		}
	}
}

// writePump drains one client's send queue onto the wire
func (h *WebSocketHandler) writePump(client *wsClient) {
	for data := range client.send {
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.removeClient(client)
			return
		}
	}
	client.conn.Close()
}

// removeClient unregisters a client and closes its queue exactly once
func (h *WebSocketHandler) removeClient(client *wsClient) {
	h.mu.Lock()
	if !h.clients[client] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mu.Unlock()

	client.close()
	h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", clientCount)
}

// sendHello pushes the server instance ID so clients can detect restarts
// and clear stale task state
func (h *WebSocketHandler) sendHello(client *wsClient) {
	msg := WSMessage{
		Type: "hello",
		Payload: map[string]string{
			"server_instance_id": h.serverInstanceID,
			"timestamp":          time.Now().UTC().Format(time.RFC3339),
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal hello message")
		return
	}

	client.trySend(data)
}

// GetRecentLogsHandler returns recent log lines from the memory writer as JSON
func (h *WebSocketHandler) GetRecentLogsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	memWriter := arbor.GetRegisteredMemoryWriter(arbor.WRITER_MEMORY)
	var logs []LogEntry

	if memWriter != nil {
		entries, err := memWriter.GetEntriesWithLimit(100)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to get log entries")
			WriteError(w, http.StatusInternalServerError, "Failed to retrieve logs")
			return
		}

		// Map keys are timestamps; sorting gives chronological order
		keys := make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			logLine := entries[key]
			if strings.Contains(logLine, "WebSocket client connected") ||
				strings.Contains(logLine, "WebSocket client disconnected") ||
				strings.Contains(logLine, "HTTP request") ||
				strings.Contains(logLine, "HTTP response") {
				continue
			}

			parts := strings.SplitN(logLine, "|", 3)
			if len(parts) != 3 {
				continue
			}

			levelStr := strings.TrimSpace(parts[0])
			dateTime := strings.TrimSpace(parts[1])
			message := strings.TrimSpace(parts[2])

			timeParts := strings.Fields(dateTime)
			var timestamp string
			if len(timeParts) >= 3 {
				timestamp = timeParts[len(timeParts)-1]
			} else {
				timestamp = time.Now().Format("15:04:05")
			}

			level := "INF"
			switch levelStr {
			case "ERR", "ERROR", "FATAL", "PANIC":
				level = "ERR"
			case "WRN", "WARN":
				level = "WRN"
			case "DBG", "DEBUG":
				level = "DBG"
			}

			logs = append(logs, LogEntry{
				Index:     len(logs),
				Timestamp: timestamp,
				Level:     level,
				Message:   message,
			})
		}
	}

	if logs == nil {
		logs = []LogEntry{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}
