package answer

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/chemassist/backend/internal/audit"
	"github.com/chemassist/backend/internal/grounding"
	"github.com/chemassist/backend/internal/llm"
	"github.com/chemassist/backend/internal/metrics"
	"github.com/chemassist/backend/internal/retrieval"
	"github.com/chemassist/backend/pkg/logger"
)

const (
	onboardingMessage = "The knowledge base is empty. Upload documents in **Upload & Ingest** " +
		"to get started — try the sample SOP, SDS, or regulation files."

	notFoundMessage = "I could not find relevant information in the loaded documents " +
		"for this query.\n\n" +
		"Try uploading more specific documents, or rephrase using " +
		"technical terminology (substance names, CAS numbers, H/P codes)."

	snippetLength = 200
)

type Generator interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
	ChatStream(ctx context.Context, messages []llm.Message, fn func(token string) error) error
}

type ChunkRetriever interface {
	Retrieve(ctx context.Context, query, mode string, documentTypes []string) ([]retrieval.ScoredChunk, error)
}

// CorpusCounter reports how many chunk vectors the index holds.
type CorpusCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Request is one query against the corpus. History is the caller's prior
// conversation, oldest first, consumed read-only.
type Request struct {
	Query         string
	Mode          string
	DocumentTypes []string
	History       []llm.Message
}

// Result is the non-streaming response shape.
type Result struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Entities   Entities `json:"extracted_entities"`
	Confidence float64  `json:"confidence_score"`
}

// Orchestrator drives a query through corpus check, retrieval, prompt
// construction, generation, and finalization.
type Orchestrator struct {
	retriever ChunkRetriever
	generator Generator
	corpus    CorpusCounter
	audit     audit.Logger
}

func NewOrchestrator(retriever ChunkRetriever, generator Generator, corpus CorpusCounter, auditLog audit.Logger) *Orchestrator {
	return &Orchestrator{
		retriever: retriever,
		generator: generator,
		corpus:    corpus,
		audit:     auditLog,
	}
}

// Stream runs the query pipeline and emits events on the returned channel.
// The channel is closed after the terminal done event, or as soon as ctx is
// cancelled. A cancelled stream writes no audit event.
func (o *Orchestrator) Stream(ctx context.Context, req Request) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		o.run(ctx, req, out)
	}()
	return out
}

func (o *Orchestrator) run(ctx context.Context, req Request, out chan<- Event) {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.WithLabelValues(req.Mode).Observe(time.Since(start).Seconds())
	}()

	emit := func(ev Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	count, err := o.corpus.Count(ctx)
	if err != nil {
		metrics.QueryTotal.WithLabelValues("error").Inc()
		if emit(ErrorEvent(err.Error())) {
			emit(DoneEvent())
		}
		return
	}
	if count == 0 {
		metrics.QueryTotal.WithLabelValues("empty_corpus").Inc()
		if emit(TokenEvent(onboardingMessage)) && emit(MetaEvent(nil, 0.0, nil)) {
			emit(DoneEvent())
		}
		return
	}

	chunks, err := o.retriever.Retrieve(ctx, req.Query, req.Mode, req.DocumentTypes)
	if err != nil {
		metrics.QueryTotal.WithLabelValues("error").Inc()
		if emit(ErrorEvent(err.Error())) {
			emit(DoneEvent())
		}
		return
	}
	metrics.ChunksRetrieved.Observe(float64(len(chunks)))

	if len(chunks) == 0 {
		metrics.QueryTotal.WithLabelValues("no_results").Inc()
		if !emit(TokenEvent(notFoundMessage)) || !emit(MetaEvent(nil, 0.0, nil)) || !emit(DoneEvent()) {
			return
		}
		o.logQuery(ctx, req, 0, 0.0, 0)
		return
	}

	// Regulatory pre-check: the source-independence warning only depends on
	// the retrieved chunks, so it can lead the stream. The numeric claims
	// check needs the finished answer and runs after generation.
	if req.Mode == retrieval.ModeRegulatory {
		if w, ok := grounding.CheckSourceIndependence(chunks); ok {
			if !emit(TokenEvent(w + "\n\n")) {
				return
			}
		}
	}

	messages := BuildMessages(req.Query, chunks, req.History)

	var generated string
	err = o.generator.ChatStream(ctx, messages, func(token string) error {
		generated += token
		if !emit(TokenEvent(token)) {
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.QueryTotal.WithLabelValues("error").Inc()
		if emit(ErrorEvent(fmt.Sprintf("Generation failed: %v", err))) {
			emit(DoneEvent())
		}
		return
	}

	if req.Mode == retrieval.ModeRegulatory {
		if w, ok := grounding.CheckNumericClaims(generated, chunks); ok {
			if !emit(TokenEvent("\n\n" + w)) {
				return
			}
		}
	}

	confidence := confidenceFor(chunks, req.Mode)
	entities := ExtractEntities(generated)

	metrics.QueryTotal.WithLabelValues("success").Inc()
	metrics.ConfidenceScore.Observe(confidence)

	if !emit(MetaEvent(sourcesFor(chunks), confidence, &entities)) {
		return
	}
	if !emit(DoneEvent()) {
		return
	}

	o.logQuery(ctx, req, len(chunks), confidence, retrieval.UniqueSourceFiles(chunks))
}

// Answer is the non-streaming variant. It produces the same final answer
// text and metadata as a drained stream for the same inputs, with both
// regulatory warnings prepended.
func (o *Orchestrator) Answer(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.WithLabelValues(req.Mode).Observe(time.Since(start).Seconds())
	}()

	count, err := o.corpus.Count(ctx)
	if err != nil {
		metrics.QueryTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if count == 0 {
		metrics.QueryTotal.WithLabelValues("empty_corpus").Inc()
		return &Result{Answer: onboardingMessage, Sources: []Source{}, Entities: emptyEntities()}, nil
	}

	chunks, err := o.retriever.Retrieve(ctx, req.Query, req.Mode, req.DocumentTypes)
	if err != nil {
		metrics.QueryTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ChunksRetrieved.Observe(float64(len(chunks)))

	if len(chunks) == 0 {
		metrics.QueryTotal.WithLabelValues("no_results").Inc()
		o.logQuery(ctx, req, 0, 0.0, 0)
		return &Result{Answer: notFoundMessage, Sources: []Source{}, Entities: emptyEntities()}, nil
	}

	messages := BuildMessages(req.Query, chunks, req.History)

	generated, err := o.generator.Chat(ctx, messages)
	if err != nil {
		metrics.QueryTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("Generation failed: %w", err)
	}

	answerText := generated
	if req.Mode == retrieval.ModeRegulatory {
		answerText = grounding.Enforce(generated, chunks)
	}

	confidence := confidenceFor(chunks, req.Mode)
	entities := ExtractEntities(generated)

	metrics.QueryTotal.WithLabelValues("success").Inc()
	metrics.ConfidenceScore.Observe(confidence)

	o.logQuery(ctx, req, len(chunks), confidence, retrieval.UniqueSourceFiles(chunks))

	return &Result{
		Answer:     answerText,
		Sources:    sourcesFor(chunks),
		Entities:   entities,
		Confidence: confidence,
	}, nil
}

func (o *Orchestrator) logQuery(ctx context.Context, req Request, nChunks int, confidence float64, uniqueSources int) {
	err := o.audit.LogEvent(ctx, "query", map[string]any{
		"query":            req.Query,
		"mode":             req.Mode,
		"chunks_retrieved": nChunks,
		"confidence":       confidence,
		"unique_sources":   uniqueSources,
	})
	if err != nil {
		logger.Warn("Audit write failed", zap.Error(err))
	}
}

func confidenceFor(chunks []retrieval.ScoredChunk, mode string) float64 {
	if len(chunks) == 0 {
		return 0.0
	}
	var sum float64
	for _, c := range chunks {
		sum += c.Score
	}
	return ComputeConfidence(len(chunks), sum/float64(len(chunks)), retrieval.UniqueSourceFiles(chunks), mode)
}

func sourcesFor(chunks []retrieval.ScoredChunk) []Source {
	sources := make([]Source, len(chunks))
	for i, c := range chunks {
		snippet := c.Text
		if r := []rune(snippet); len(r) > snippetLength {
			snippet = string(r[:snippetLength])
		}
		sources[i] = Source{
			SourceFile:   c.SourceFile,
			SectionTitle: c.SectionTitle,
			Score:        math.Round(c.Score*10000) / 10000,
			TextSnippet:  snippet,
		}
	}
	return sources
}

func emptyEntities() Entities {
	return Entities{
		CASNumbers:              []string{},
		HazardStatements:        []string{},
		PrecautionaryStatements: []string{},
		ChemicalFormulas:        []string{},
	}
}
