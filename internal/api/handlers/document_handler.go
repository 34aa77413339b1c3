package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chemassist/backend/internal/ingestion"
	"github.com/chemassist/backend/pkg/logger"
)

var (
	allowedDocumentTypes = map[string]bool{
		"SOP": true, "SDS": true, "REGULATION": true, "METHOD": true, "COA": true,
	}
	allowedMatrixTypes = map[string]bool{
		"cosmetic": true, "food": true, "solvent": true,
		"polymer": true, "pharma": true, "general": true,
	}
)

type DocumentHandler struct {
	processor *ingestion.Processor
}

func NewDocumentHandler(processor *ingestion.Processor) *DocumentHandler {
	return &DocumentHandler{processor: processor}
}

func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	var req struct {
		Name         string `json:"name"`
		Content      string `json:"content"`
		Markdown     bool   `json:"markdown"`
		DocumentType string `json:"document_type"`
		MatrixType   string `json:"matrix_type"`
		Revision     string `json:"revision"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name and content are required",
		})
	}
	if !allowedDocumentTypes[req.DocumentType] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "document_type must be one of SOP, SDS, REGULATION, METHOD, COA",
		})
	}
	if req.MatrixType == "" {
		req.MatrixType = "general"
	}
	if !allowedMatrixTypes[req.MatrixType] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid matrix_type",
		})
	}

	result, err := h.processor.Ingest(c.Context(), ingestion.Request{
		Name:         req.Name,
		Text:         req.Content,
		Markdown:     req.Markdown,
		DocumentType: req.DocumentType,
		MatrixType:   req.MatrixType,
		Revision:     req.Revision,
	})
	if err != nil {
		logger.Error("Failed to ingest document", zap.String("name", req.Name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to ingest document",
		})
	}

	return c.JSON(result)
}

func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	docs, err := h.processor.ListDocuments(c.Context())
	if err != nil {
		logger.Error("Failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	if docs == nil {
		docs = []ingestion.DocumentInfo{}
	}
	return c.JSON(fiber.Map{"documents": docs})
}

func (h *DocumentHandler) DeleteDocument(c *fiber.Ctx) error {
	docID := c.Params("doc_id")
	if docID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "doc_id is required",
		})
	}

	if err := h.processor.DeleteDocument(c.Context(), docID); err != nil {
		logger.Error("Failed to delete document", zap.String("doc_id", docID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete document",
		})
	}

	return c.JSON(fiber.Map{"status": "deleted", "doc_id": docID})
}

func (h *DocumentHandler) PreviewDocument(c *fiber.Ctx) error {
	docID := c.Params("doc_id")

	chunks, err := h.processor.Preview(c.Context(), docID, 0)
	if err != nil {
		logger.Error("Failed to load preview", zap.String("doc_id", docID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load preview",
		})
	}

	return c.JSON(fiber.Map{"doc_id": docID, "chunks": chunks})
}
