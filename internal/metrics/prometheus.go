package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chemassist_query_duration_seconds",
			Help:    "Query pipeline duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"mode"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chemassist_query_total",
			Help: "Total number of queries processed",
		},
		[]string{"status"},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chemassist_confidence_score",
			Help:    "Answer confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	ChunksRetrieved = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chemassist_chunks_retrieved",
			Help:    "Number of chunks retrieved per query",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	DocumentsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chemassist_documents_ingested_total",
			Help: "Total documents ingested",
		},
	)

	ChunksCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chemassist_chunks_created_total",
			Help: "Total chunks created during ingestion",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chemassist_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chemassist_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	GroundingWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chemassist_grounding_warnings_total",
			Help: "Regulatory grounding warnings emitted",
		},
		[]string{"check"},
	)
)

func Init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryTotal)
	prometheus.MustRegister(ConfidenceScore)
	prometheus.MustRegister(ChunksRetrieved)
	prometheus.MustRegister(DocumentsIngested)
	prometheus.MustRegister(ChunksCreated)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(GroundingWarnings)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
