package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/chemassist/backend/internal/answer"
	"github.com/chemassist/backend/internal/api/handlers"
	"github.com/chemassist/backend/internal/audit"
	"github.com/chemassist/backend/internal/cache/redis"
	"github.com/chemassist/backend/internal/chunker"
	"github.com/chemassist/backend/internal/ingestion"
	"github.com/chemassist/backend/internal/llm"
	"github.com/chemassist/backend/internal/metrics"
	"github.com/chemassist/backend/internal/middleware/ratelimit"
	"github.com/chemassist/backend/internal/middleware/validation"
	"github.com/chemassist/backend/internal/retrieval"
	"github.com/chemassist/backend/internal/vector/milvus"
	"github.com/chemassist/backend/pkg/config"
	appLogger "github.com/chemassist/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting ChemAssist API Server")

	metrics.Init()

	auditLog, err := audit.NewSQLiteLogger(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to open audit store", zap.Error(err))
	}
	defer auditLog.Close()

	if err := auditLog.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize audit schema", zap.Error(err))
	}

	milvusClient, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.CollectionName,
		cfg.Milvus.VectorDim,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
	}
	defer milvusClient.Close()

	if err := milvusClient.EnsureCollection(context.Background()); err != nil {
		appLogger.Fatal("Failed to ensure collection", zap.Error(err))
	}

	llmClient := llm.NewClient(
		cfg.LLM.BaseURL,
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		llmClient.UseEmbeddingCache(redisClient)
	}

	textChunker := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.OverlapLines)
	processor := ingestion.NewProcessor(textChunker, llmClient, milvusClient, auditLog)

	retriever := retrieval.New(
		llmClient,
		milvusClient,
		cfg.Retrieval.TopK,
		cfg.Retrieval.CountingTopK,
		cfg.Retrieval.MinScore,
	)
	orchestrator := answer.NewOrchestrator(retriever, llmClient, milvusClient, auditLog)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	limiter := ratelimit.New(120)
	defer limiter.Stop()
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		MaxDocumentSize: cfg.Server.BodyLimit,
	}))

	queryHandler := handlers.NewQueryHandler(orchestrator)
	wsHandler := handlers.NewWebSocketHandler(orchestrator)
	documentHandler := handlers.NewDocumentHandler(processor)
	analysisHandler := handlers.NewAnalysisHandler(auditLog)
	auditHandler := handlers.NewAuditHandler(auditLog)
	healthHandler := handlers.NewHealthHandler(milvusClient)

	api := app.Group("/api/v1")

	api.Post("/query", queryHandler.HandleQuery)

	api.Post("/upload", documentHandler.UploadDocument)
	api.Get("/documents", documentHandler.ListDocuments)
	api.Delete("/documents/:doc_id", documentHandler.DeleteDocument)
	api.Get("/documents/:doc_id/preview", documentHandler.PreviewDocument)

	api.Post("/sds-extract", analysisHandler.ExtractSDS)
	api.Post("/batch-compare", analysisHandler.CompareBatches)
	api.Post("/chemical/validate", analysisHandler.ValidateChemical)

	api.Get("/audit-log", auditHandler.GetLog)
	api.Delete("/audit-log", auditHandler.ClearLog)

	api.Get("/health", healthHandler.Health)
	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/query", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
