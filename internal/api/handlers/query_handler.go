package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chemassist/backend/internal/answer"
	"github.com/chemassist/backend/internal/llm"
	"github.com/chemassist/backend/internal/retrieval"
	"github.com/chemassist/backend/pkg/logger"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type queryRequest struct {
	Query         string        `json:"query"`
	Mode          string        `json:"mode"`
	DocumentTypes []string      `json:"document_types"`
	Messages      []chatMessage `json:"messages"`
}

func (r queryRequest) toAnswerRequest() answer.Request {
	mode := r.Mode
	if mode == "" {
		mode = retrieval.ModeGeneral
	}
	history := make([]llm.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	return answer.Request{
		Query:         r.Query,
		Mode:          mode,
		DocumentTypes: r.DocumentTypes,
		History:       history,
	}
}

type QueryHandler struct {
	orchestrator *answer.Orchestrator
}

func NewQueryHandler(orchestrator *answer.Orchestrator) *QueryHandler {
	return &QueryHandler{orchestrator: orchestrator}
}

func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	var req queryRequest

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	result, err := h.orchestrator.Answer(c.Context(), req.toAnswerRequest())
	if err != nil {
		logger.Error("Failed to process query", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process query",
		})
	}

	return c.JSON(result)
}
