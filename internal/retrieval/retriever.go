package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/chemassist/backend/internal/vector/milvus"
	"github.com/chemassist/backend/pkg/logger"
)

// Query modes. Regulatory and SDS extraction force a document type filter;
// the other modes search the whole corpus unless the caller narrows it.
const (
	ModeGeneral      = "general"
	ModeRegulatory   = "regulatory"
	ModeSDSExtract   = "sds_extract"
	ModeBatchCompare = "batch_compare"
)

// Document type values as stored in the chunk payload.
const (
	DocTypeSOP        = "SOP"
	DocTypeSDS        = "SDS"
	DocTypeRegulation = "REGULATION"
	DocTypeMethod     = "METHOD"
	DocTypeCOA        = "COA"
)

// Counting and listing questions need wider evidential coverage than a
// similarity top-k cut provides. English and Italian phrasings.
var countingPattern = regexp.MustCompile(`(?i)\b(how many|quante? volte|quanti|conta|count|occurrenc|elenca|list all|tutti|tutte)\b`)

// ScoredChunk is a retrieved chunk with its similarity score. Ephemeral,
// never persisted.
type ScoredChunk struct {
	ChunkID      string
	Text         string
	DocID        string
	SectionTitle string
	DocumentType string
	SourceFile   string
	Score        float64
}

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type Searcher interface {
	Search(ctx context.Context, queryEmbedding []float32, topK int, filter milvus.Filter) ([]milvus.SearchResult, error)
}

type Retriever struct {
	embedder     Embedder
	searcher     Searcher
	topK         int
	countingTopK int
	minScore     float64
}

func New(embedder Embedder, searcher Searcher, topK, countingTopK int, minScore float64) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if countingTopK <= 0 {
		countingTopK = 20
	}
	return &Retriever{
		embedder:     embedder,
		searcher:     searcher,
		topK:         topK,
		countingTopK: countingTopK,
		minScore:     minScore,
	}
}

// IsCountingQuery reports whether the query asks for a count or a full
// listing rather than a single fact.
func IsCountingQuery(query string) bool {
	return countingPattern.MatchString(query)
}

func filterForMode(mode string, documentTypes []string) milvus.Filter {
	switch mode {
	case ModeRegulatory:
		return milvus.Filter{DocumentType: DocTypeRegulation}
	case ModeSDSExtract:
		return milvus.Filter{DocumentType: DocTypeSDS}
	}
	if len(documentTypes) > 0 {
		return milvus.Filter{DocumentTypes: documentTypes}
	}
	return milvus.Filter{}
}

// Retrieve embeds the query and runs a filtered similarity search. Results
// are filtered to the minimum score, sorted descending, at most top-k long.
// Counting queries widen top-k regardless of the configured default.
func (r *Retriever) Retrieve(ctx context.Context, query, mode string, documentTypes []string) ([]ScoredChunk, error) {
	topK := r.topK
	if IsCountingQuery(query) {
		topK = r.countingTopK
	}

	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.searcher.Search(ctx, embedding, topK, filterForMode(mode, documentTypes))
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	chunks := make([]ScoredChunk, 0, len(results))
	for _, res := range results {
		score := float64(res.Score)
		if score < r.minScore {
			continue
		}
		chunks = append(chunks, ScoredChunk{
			ChunkID:      res.ChunkID,
			Text:         res.Text,
			DocID:        res.DocID,
			SectionTitle: res.SectionTitle,
			DocumentType: res.DocumentType,
			SourceFile:   res.SourceFile,
			Score:        score,
		})
	}

	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Score > chunks[j].Score })

	logger.Debug("Retrieval completed",
		zap.String("mode", mode),
		zap.Int("top_k", topK),
		zap.Int("chunks", len(chunks)),
	)

	return chunks, nil
}

// UniqueSourceFiles counts distinct source files among retrieved chunks.
func UniqueSourceFiles(chunks []ScoredChunk) int {
	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		seen[c.SourceFile] = struct{}{}
	}
	return len(seen)
}
