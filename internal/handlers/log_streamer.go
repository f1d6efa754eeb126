package handlers

import (
	"context"
	"strings"

	plog "github.com/phuslu/log"
	"github.com/ternarybob/arbor/levels"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/linklens/internal/common"
)

const (
	// Buffered so a burst of log batches never blocks the logger
	logStreamBuffer = 100
)

// LogStreamer consumes arbor log batches and broadcasts the lines that pass
// the level and pattern filters to WebSocket clients. Wire its Channel()
// into the logger via SetChannel.
type LogStreamer struct {
	handler         *WebSocketHandler
	channel         chan []arbormodels.LogEvent
	minLevel        levels.LogLevel
	excludePatterns []string
}

// NewLogStreamer creates a log streamer configured from the websocket config
func NewLogStreamer(handler *WebSocketHandler, wsConfig *common.WebSocketConfig) *LogStreamer {
	minLevel := levels.InfoLevel
	excludePatterns := []string{
		"WebSocket client connected",
		"WebSocket client disconnected",
		"HTTP request",
		"HTTP response",
	}

	if wsConfig != nil {
		minLevel = parseLogLevel(wsConfig.MinLevel)
		if len(wsConfig.ExcludePatterns) > 0 {
			excludePatterns = wsConfig.ExcludePatterns
		}
	}

	return &LogStreamer{
		handler:         handler,
		channel:         make(chan []arbormodels.LogEvent, logStreamBuffer),
		minLevel:        minLevel,
		excludePatterns: excludePatterns,
	}
}

// Channel returns the channel arbor sends log batches to
func (s *LogStreamer) Channel() chan []arbormodels.LogEvent {
	return s.channel
}

// Start launches the consumer goroutine. It exits when the context is
// cancelled; the channel stays open so the logger never writes to a closed
// channel during shutdown.
func (s *LogStreamer) Start(ctx context.Context) {
	common.SafeGoWithContext(ctx, s.handler.logger, "logStreamer", func() {
		for {
			select {
			case <-ctx.Done():
				return
			case batch := <-s.channel:
				for _, event := range batch {
					s.broadcastEvent(event)
				}
			}
		}
	})
}

func (s *LogStreamer) broadcastEvent(event arbormodels.LogEvent) {
	arborLevel := plogToArborLevel(event.Level)
	if arborLevel < s.minLevel {
		return
	}

	for _, pattern := range s.excludePatterns {
		if strings.Contains(event.Message, pattern) {
			return
		}
	}

	s.handler.BroadcastLog(LogEntry{
		Timestamp: event.Timestamp.Format("15:04:05"),
		Level:     mapLevel(arborLevel),
		Message:   event.Message,
	})
}

// plogToArborLevel converts phuslu/log.Level to arbor levels.LogLevel
func plogToArborLevel(level plog.Level) levels.LogLevel {
	switch level {
	case plog.ErrorLevel:
		return levels.ErrorLevel
	case plog.WarnLevel:
		return levels.WarnLevel
	case plog.InfoLevel:
		return levels.InfoLevel
	case plog.DebugLevel:
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// parseLogLevel converts string log level to arbor levels.LogLevel
func parseLogLevel(level string) levels.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return levels.ErrorLevel
	case "warn", "warning":
		return levels.WarnLevel
	case "info":
		return levels.InfoLevel
	case "debug":
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// mapLevel maps arbor log levels to UI strings
func mapLevel(level levels.LogLevel) string {
	switch level {
	case levels.ErrorLevel:
		return "error"
	case levels.WarnLevel:
		return "warn"
	case levels.InfoLevel:
		return "info"
	case levels.DebugLevel:
		return "debug"
	default:
		return "info"
	}
}
