package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chemassist/backend/internal/answer"
)

type HealthHandler struct {
	corpus answer.CorpusCounter
}

func NewHealthHandler(corpus answer.CorpusCounter) *HealthHandler {
	return &HealthHandler{corpus: corpus}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := "healthy"
	index := fiber.Map{"status": "ok"}

	count, err := h.corpus.Count(c.Context())
	if err != nil {
		status = "degraded"
		index = fiber.Map{"status": "error", "error": err.Error()}
	} else {
		index["chunks"] = count
	}

	return c.JSON(fiber.Map{
		"status":       status,
		"vector_index": index,
		"time":         time.Now().Unix(),
	})
}
