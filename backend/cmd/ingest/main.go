package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

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
	log.Info("Starting ingestion run...")

	if cfg.PyDataAPIKey == "" {
		log.Fatal("PYDATA_API_KEY is required for an ingestion run")
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Cancel the run on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity",
			zap.Error(errors.NewGraphConnectionFailed(cfg.Neo4jURI, err)))
	}

	repo := graph.NewRepository(driver)

	var embedder ingest.Embedder
	if cfg.OpenAIAPIKey != "" {
		embedder = embed.NewEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		log.Info("Embedding enrichment enabled", zap.String("model", cfg.EmbeddingModel))
	}

	engine := ingest.NewEngine(repo, embedder, cfg.IngestWorkers)
	client := pydata.NewClient(cfg.PyDataBaseURL, cfg.PyDataAPIKey)
	pipeline := ingest.NewPipeline(client, engine, cfg.SubmissionLimit)

	result, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatal("Ingestion run failed", zap.Error(err))
	}

	if len(result.Failed) > 0 {
		log.Error("Ingestion run finished with failures",
			zap.Int("processed", result.Processed),
			zap.Ints("failed_indices", result.Failed),
		)
		logger.Sync()
		os.Exit(1)
	}

	log.Info("Ingestion run finished", zap.Int("processed", result.Processed))
}
