package handler

import (
	"voice-faq-be/internal/pkg/logger"
	internalWS "voice-faq-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// MonitorHandler streams dispatch events to operators over a websocket.
type MonitorHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewMonitorHandler(hub *internalWS.Hub, log logger.ILogger) *MonitorHandler {
	return &MonitorHandler{hub: hub, logger: log}
}

func (h *MonitorHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("MonitorHandler", "Monitor session started", map[string]interface{}{"remote": conn.RemoteAddr().String()})
		id := internalWS.ServeWs(h.hub, conn)
		h.logger.Info("MonitorHandler", "Monitor session ended", map[string]interface{}{"client_id": id})
	})(c)
}

func (h *MonitorHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/monitor", h.ServeWs)
}
