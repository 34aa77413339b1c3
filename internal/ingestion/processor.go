package ingestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chemassist/backend/internal/audit"
	"github.com/chemassist/backend/internal/chunker"
	"github.com/chemassist/backend/internal/metrics"
	"github.com/chemassist/backend/internal/vector/milvus"
	"github.com/chemassist/backend/pkg/logger"
)

const (
	scrollPageSize    = 100
	defaultPreviewMax = 15
)

type Embedder interface {
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the chunk persistence surface the processor needs.
type Store interface {
	Upsert(ctx context.Context, records []milvus.ChunkRecord) error
	DeleteByDoc(ctx context.Context, docID string) error
	ScrollByDoc(ctx context.Context, docID string, limit int) ([]milvus.ChunkRecord, error)
	Scroll(ctx context.Context, offset, limit int) ([]milvus.ChunkRecord, error)
}

// Request describes one document to ingest. Text must already be extracted;
// Markdown selects the layout-aware chunking variant.
type Request struct {
	Name         string
	Text         string
	Markdown     bool
	DocumentType string
	MatrixType   string
	Revision     string
}

type Result struct {
	DocID         string `json:"doc_id"`
	ChunksCreated int    `json:"chunks_created"`
	Status        string `json:"status"`
}

// DocumentInfo is one logical document, summarized from its chunk payloads.
type DocumentInfo struct {
	DocID        string `json:"doc_id"`
	Name         string `json:"name"`
	DocumentType string `json:"document_type"`
	MatrixType   string `json:"matrix_type"`
	Revision     string `json:"revision"`
	UploadDate   string `json:"upload_date"`
}

// Processor chunks, embeds, and stores documents. Documents are immutable
// once stored; re-ingesting creates a new doc_id.
type Processor struct {
	chunker  *chunker.Chunker
	embedder Embedder
	store    Store
	audit    audit.Logger
}

func NewProcessor(c *chunker.Chunker, embedder Embedder, store Store, auditLog audit.Logger) *Processor {
	return &Processor{chunker: c, embedder: embedder, store: store, audit: auditLog}
}

func (p *Processor) Ingest(ctx context.Context, req Request) (*Result, error) {
	var chunks []chunker.Chunk
	if req.Markdown {
		chunks = p.chunker.SplitMarkdown(req.Text)
	} else {
		chunks = p.chunker.Split(req.Text)
	}

	docID := uuid.New().String()
	uploadDate := time.Now().UTC().Format(time.RFC3339)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := p.embedder.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(embeddings))
	}

	records := make([]milvus.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = milvus.ChunkRecord{
			ChunkID:      uuid.New().String(),
			Embedding:    embeddings[i],
			Text:         c.Text,
			DocID:        docID,
			ChunkIndex:   i,
			SectionTitle: c.SectionTitle,
			DocumentType: req.DocumentType,
			MatrixType:   req.MatrixType,
			Revision:     req.Revision,
			SourceFile:   req.Name,
			UploadDate:   uploadDate,
		}
	}

	if err := p.store.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	metrics.DocumentsIngested.Inc()
	metrics.ChunksCreated.Add(float64(len(chunks)))

	if err := p.audit.LogEvent(ctx, "ingest", map[string]any{
		"doc_id":         docID,
		"name":           req.Name,
		"document_type":  req.DocumentType,
		"chunks_created": len(chunks),
	}); err != nil {
		logger.Warn("Audit write failed", zap.Error(err))
	}

	logger.Info("Document ingested",
		zap.String("doc_id", docID),
		zap.String("name", req.Name),
		zap.Int("chunks", len(chunks)),
	)

	return &Result{DocID: docID, ChunksCreated: len(chunks), Status: "ok"}, nil
}

// ListDocuments scrolls the whole index and returns one entry per doc_id.
func (p *Processor) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	seen := make(map[string]struct{})
	var docs []DocumentInfo

	for offset := 0; ; offset += scrollPageSize {
		records, err := p.store.Scroll(ctx, offset, scrollPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		for _, r := range records {
			if r.DocID == "" {
				continue
			}
			if _, ok := seen[r.DocID]; ok {
				continue
			}
			seen[r.DocID] = struct{}{}
			docs = append(docs, DocumentInfo{
				DocID:        r.DocID,
				Name:         r.SourceFile,
				DocumentType: r.DocumentType,
				MatrixType:   r.MatrixType,
				Revision:     r.Revision,
				UploadDate:   r.UploadDate,
			})
		}
		if len(records) < scrollPageSize {
			break
		}
	}

	return docs, nil
}

func (p *Processor) DeleteDocument(ctx context.Context, docID string) error {
	if err := p.store.DeleteByDoc(ctx, docID); err != nil {
		return err
	}

	if err := p.audit.LogEvent(ctx, "delete", map[string]any{"doc_id": docID}); err != nil {
		logger.Warn("Audit write failed", zap.Error(err))
	}

	return nil
}

// Preview returns up to maxChunks non-empty chunk texts for a document, in
// chunk order.
func (p *Processor) Preview(ctx context.Context, docID string, maxChunks int) ([]string, error) {
	if maxChunks <= 0 {
		maxChunks = defaultPreviewMax
	}

	records, err := p.store.ScrollByDoc(ctx, docID, maxChunks)
	if err != nil {
		return nil, fmt.Errorf("failed to load preview: %w", err)
	}

	texts := make([]string, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		texts = append(texts, r.Text)
	}
	return texts, nil
}
