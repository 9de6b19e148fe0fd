package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"pydata-graph/backend/internal/embed"
	"pydata-graph/backend/internal/graph"
	"pydata-graph/backend/internal/ingest"
	"pydata-graph/backend/internal/pydata"
	"pydata-graph/backend/pkg/config"
	"pydata-graph/backend/pkg/errors"
	"pydata-graph/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity",
			zap.Error(errors.NewGraphConnectionFailed(cfg.Neo4jURI, err)))
	}

	repo := graph.NewRepository(driver)

	var embedder ingest.Embedder
	if cfg.OpenAIAPIKey != "" {
		embedder = embed.NewEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	}
	engine := ingest.NewEngine(repo, embedder, cfg.IngestWorkers)
	client := pydata.NewClient(cfg.PyDataBaseURL, cfg.PyDataAPIKey)
	pipeline := ingest.NewPipeline(client, engine, cfg.SubmissionLimit)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Only one ingestion pass at a time; merges are idempotent but an
	// overlapping run just burns the same work twice.
	var ingestMu sync.Mutex

	api := router.Group("/api")
	{
		// Trigger an ingestion pass
		api.POST("/ingest", func(c *gin.Context) {
			if !ingestMu.TryLock() {
				c.JSON(http.StatusConflict, gin.H{"error": "An ingestion run is already in progress"})
				return
			}
			defer ingestMu.Unlock()

			result, err := pipeline.Run(c.Request.Context())
			if err != nil {
				if errors.IsErrorType(err, errors.ErrorTypeNormalize) {
					c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
					return
				}
				log.Error("Ingestion run failed", zap.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": "Ingestion run failed"})
				return
			}

			status := http.StatusOK
			if len(result.Failed) > 0 {
				status = http.StatusMultiStatus
			}
			c.JSON(status, result)
		})

		// Graph stats
		api.GET("/graph/stats", func(c *gin.Context) {
			stats, err := repo.Stats(c.Request.Context())
			if err != nil {
				log.Error("Failed to read graph stats", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read stats"})
				return
			}
			c.JSON(http.StatusOK, stats)
		})
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
