package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chemassist/backend/internal/audit"
	"github.com/chemassist/backend/internal/chemistry"
	"github.com/chemassist/backend/internal/coa"
	"github.com/chemassist/backend/internal/sds"
	"github.com/chemassist/backend/pkg/logger"
)

// AnalysisHandler serves the standalone extraction endpoints that work on
// caller-supplied text without touching the vector index.
type AnalysisHandler struct {
	audit audit.Logger
}

func NewAnalysisHandler(auditLog audit.Logger) *AnalysisHandler {
	return &AnalysisHandler{audit: auditLog}
}

func (h *AnalysisHandler) ExtractSDS(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	extraction := sds.Extract(req.Text)

	substance := extraction.SubstanceName
	if substance == "" {
		substance = "unknown"
	}
	if err := h.audit.LogEvent(c.Context(), "sds_extract", map[string]any{"substance": substance}); err != nil {
		logger.Warn("Audit write failed", zap.Error(err))
	}

	return c.JSON(extraction)
}

func (h *AnalysisHandler) CompareBatches(c *fiber.Ctx) error {
	var req struct {
		Text1     string  `json:"text1"`
		Text2     string  `json:"text2"`
		Threshold float64 `json:"threshold"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Text1 == "" || req.Text2 == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Both text1 and text2 are required",
		})
	}

	comparison := coa.Compare(req.Text1, req.Text2, req.Threshold)

	flagged := 0
	for _, p := range comparison.Parameters {
		if p.Flagged {
			flagged++
		}
	}
	if err := h.audit.LogEvent(c.Context(), "batch_compare", map[string]any{
		"parameters": len(comparison.Parameters),
		"flagged":    flagged,
	}); err != nil {
		logger.Warn("Audit write failed", zap.Error(err))
	}

	return c.JSON(comparison)
}

// ValidateChemical classifies an identifier and, for CAS numbers, verifies
// the checksum. A caller-declared type skips classification: "formula" inputs
// are checked against the molecular formula grammar even when they would
// otherwise classify as something else.
func (h *AnalysisHandler) ValidateChemical(c *fiber.Ctx) error {
	var req struct {
		Input string `json:"input"`
		Type  string `json:"type"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Input == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Input is required",
		})
	}

	if req.Type == chemistry.KindFormula {
		value := strings.TrimSpace(req.Input)
		resp := fiber.Map{"type": chemistry.KindFormula, "value": value, "valid": true}
		if !chemistry.ValidFormula(value) {
			resp["valid"] = false
			resp["error"] = "invalid molecular formula"
		}
		return c.JSON(resp)
	}

	kind, value := chemistry.ParseInput(req.Input)

	resp := fiber.Map{"type": kind, "value": value, "valid": true}
	if kind == chemistry.KindCAS {
		if err := chemistry.ValidateCAS(value); err != nil {
			resp["valid"] = false
			resp["error"] = err.Error()
		}
	}
	return c.JSON(resp)
}
