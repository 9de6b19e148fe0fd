package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pydata-graph/backend/pkg/errors"
)

func validConfig() *Config {
	return &Config{
		Port:            "8080",
		Env:             "development",
		Neo4jURI:        "bolt://localhost:7687",
		Neo4jUser:       "neo4j",
		Neo4jPassword:   "password",
		PyDataBaseURL:   "https://london2024.pydata.org/api/events/cfp",
		SubmissionLimit: 100,
		IngestWorkers:   1,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing uri", func(c *Config) { c.Neo4jURI = "" }, "NEO4J_URI"},
		{"missing user", func(c *Config) { c.Neo4jUser = "" }, "NEO4J_USER"},
		{"missing password", func(c *Config) { c.Neo4jPassword = "" }, "NEO4J_PASSWORD"},
		{"missing base url", func(c *Config) { c.PyDataBaseURL = "" }, "PYDATA_BASE_URL"},
		{"zero limit", func(c *Config) { c.SubmissionLimit = 0 }, "SUBMISSION_LIMIT"},
		{"zero workers", func(c *Config) { c.IngestWorkers = 0 }, "INGEST_WORKERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsErrorType(err, errors.ErrorTypeConfig))

			var invalid *errors.ErrInvalidConfig
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}
