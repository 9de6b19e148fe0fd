package ingest

import (
	"context"

	"go.uber.org/zap"

	"pydata-graph/backend/internal/conference"
	"pydata-graph/backend/internal/pydata"
	"pydata-graph/backend/pkg/logger"
)

// Fetcher retrieves raw submissions from the CfP API.
type Fetcher interface {
	FetchSubmissions(ctx context.Context, limit int) (*pydata.SubmissionsPage, error)
}

// Pipeline is the full ingestion path: fetch, normalize, ingest.
type Pipeline struct {
	fetcher Fetcher
	engine  *Engine
	limit   int
	logger  *zap.Logger
}

// NewPipeline creates an ingestion pipeline
func NewPipeline(fetcher Fetcher, engine *Engine, limit int) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		engine:  engine,
		limit:   limit,
		logger:  logger.Get(),
	}
}

// Run executes one ingestion pass. Retrieval and normalization failures
// abort the pass before any graph mutation; store failures are reported
// per submission in the result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	page, err := p.fetcher.FetchSubmissions(ctx, p.limit)
	if err != nil {
		return nil, err
	}

	subs, err := conference.Normalize(page.Results)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Normalized submissions",
		zap.Int("raw_records", len(page.Results)),
		zap.Int("submission_pairs", len(subs)),
	)

	return p.engine.Run(ctx, subs)
}
