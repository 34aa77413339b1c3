package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chemassist/backend/internal/audit"
	"github.com/chemassist/backend/pkg/logger"
)

type AuditHandler struct {
	audit audit.Logger
}

func NewAuditHandler(auditLog audit.Logger) *AuditHandler {
	return &AuditHandler{audit: auditLog}
}

func (h *AuditHandler) GetLog(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)

	events, err := h.audit.Events(c.Context(), limit)
	if err != nil {
		logger.Error("Failed to read audit log", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read audit log",
		})
	}

	if events == nil {
		events = []audit.Event{}
	}
	return c.JSON(fiber.Map{"events": events})
}

func (h *AuditHandler) ClearLog(c *fiber.Ctx) error {
	if err := h.audit.Clear(c.Context()); err != nil {
		logger.Error("Failed to clear audit log", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear audit log",
		})
	}

	return c.JSON(fiber.Map{"status": "cleared"})
}
