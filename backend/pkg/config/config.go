package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"pydata-graph/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// PyData CfP API
	PyDataBaseURL   string
	PyDataAPIKey    string
	SubmissionLimit int

	// Ingestion
	IngestWorkers int // 1 = strictly sequential, >1 = two-phase concurrent

	// Enrichment (optional)
	OpenAIAPIKey   string
	EmbeddingModel string
	JinaReaderURL  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		Neo4jURI:        getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:       getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", "password"),
		PyDataBaseURL:   getEnv("PYDATA_BASE_URL", "https://london2024.pydata.org/api/events/cfp"),
		PyDataAPIKey:    getEnv("PYDATA_API_KEY", ""),
		SubmissionLimit: getEnvInt("SUBMISSION_LIMIT", 100),
		IngestWorkers:   getEnvInt("INGEST_WORKERS", 1),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		JinaReaderURL:   getEnv("JINA_READER_URL", "https://r.jina.ai"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Neo4jURI == "" {
		return errors.NewInvalidConfig("NEO4J_URI", "is required")
	}
	if c.Neo4jUser == "" {
		return errors.NewInvalidConfig("NEO4J_USER", "is required")
	}
	if c.Neo4jPassword == "" {
		return errors.NewInvalidConfig("NEO4J_PASSWORD", "is required")
	}
	if c.PyDataBaseURL == "" {
		return errors.NewInvalidConfig("PYDATA_BASE_URL", "is required")
	}
	if c.SubmissionLimit <= 0 {
		return errors.NewInvalidConfig("SUBMISSION_LIMIT", "must be positive")
	}
	if c.IngestWorkers <= 0 {
		return errors.NewInvalidConfig("INGEST_WORKERS", "must be positive")
	}
	// PyData API key is only needed when actually fetching; OpenAI key is optional
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
