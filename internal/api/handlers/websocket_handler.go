package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/chemassist/backend/internal/answer"
	"github.com/chemassist/backend/pkg/logger"
)

type WebSocketHandler struct {
	orchestrator *answer.Orchestrator
}

func NewWebSocketHandler(orchestrator *answer.Orchestrator) *WebSocketHandler {
	return &WebSocketHandler{orchestrator: orchestrator}
}

// HandleConnection serves one client connection. Each incoming query message
// produces a full event stream on the socket; the stream's done event marks
// the boundary before the next query is read.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type string `json:"type"`
			queryRequest
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			return
		}

		if msg.Type != "query" || msg.Query == "" {
			continue
		}

		logger.Info("Processing streamed query",
			zap.String("mode", msg.Mode),
			zap.Int("query_length", len(msg.Query)),
		)

		if !h.streamQuery(c, msg.queryRequest) {
			return
		}
	}
}

// streamQuery forwards every pipeline event to the socket. Returns false when
// the client is gone and the connection loop should stop.
func (h *WebSocketHandler) streamQuery(c *websocket.Conn, req queryRequest) bool {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := h.orchestrator.Stream(ctx, req.toAnswerRequest())
	for ev := range events {
		if err := c.WriteJSON(ev); err != nil {
			logger.Warn("WebSocket write failed, cancelling stream", zap.Error(err))
			cancel()
			for range events {
			}
			return false
		}
	}
	return true
}
