package ingest

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pydata-graph/backend/internal/conference"
	"pydata-graph/backend/internal/document"
	"pydata-graph/backend/internal/relate"
	"pydata-graph/backend/pkg/errors"
	"pydata-graph/backend/pkg/logger"
)

// Store is the merge capability the engine needs from the graph layer.
// Every operation must be an idempotent no-op when repeated with
// identical inputs.
type Store interface {
	UpsertSubmission(ctx context.Context, sub conference.Submission, doc document.Document) error
	DeriveRelationships(ctx context.Context, submissionID string) error
	MergeDerivedEdges(ctx context.Context, edges []relate.Edge) error
}

// Embedder computes a vector for a document text. Optional enrichment;
// the engine works without one.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const (
	maxStoreAttempts = 3
	retryDelay       = 500 * time.Millisecond
)

// Result reports the outcome of one ingestion pass. Failed holds the
// indices of submissions whose transactions aborted, so a caller can
// retry just those.
type Result struct {
	Processed int   `json:"processed"`
	Failed    []int `json:"failed,omitempty"`
}

// Engine orchestrates the per-submission upsert sequence and the
// relationship derivation over a full submission set.
type Engine struct {
	store    Store
	embedder Embedder // nil disables embedding enrichment
	workers  int
	logger   *zap.Logger
}

// NewEngine creates an ingestion engine. workers == 1 keeps the strictly
// sequential behavior; workers > 1 switches to the two-phase mode where
// node upserts run concurrently and derived edges are merged in a second
// pass over the complete node set.
func NewEngine(store Store, embedder Embedder, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		store:    store,
		embedder: embedder,
		workers:  workers,
		logger:   logger.Get(),
	}
}

// Run ingests the given normalized submissions. An empty set is a no-op.
// Per-submission store failures abort only that submission and are
// reported in the result; they do not roll back earlier submissions.
func (e *Engine) Run(ctx context.Context, subs []conference.Submission) (*Result, error) {
	if len(subs) == 0 {
		e.logger.Info("No submissions to ingest")
		return &Result{}, nil
	}

	start := time.Now()
	var result *Result
	var err error
	if e.workers == 1 {
		result, err = e.runSequential(ctx, subs)
	} else {
		result, err = e.runTwoPhase(ctx, subs)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Info("Ingestion pass finished",
		zap.Int("submissions", len(subs)),
		zap.Int("processed", result.Processed),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// runSequential fully materializes one submission (nodes, direct edges,
// derived edges) before moving to the next.
func (e *Engine) runSequential(ctx context.Context, subs []conference.Submission) (*Result, error) {
	result := &Result{}
	for i, sub := range subs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		doc := e.synthesize(ctx, sub)
		if err := e.withRetry(ctx, func() error {
			return e.store.UpsertSubmission(ctx, sub, doc)
		}); err != nil {
			e.logger.Error("Failed to upsert submission",
				zap.Int("index", i),
				zap.String("submission_id", sub.ID),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, i)
			continue
		}

		if err := e.withRetry(ctx, func() error {
			return e.store.DeriveRelationships(ctx, sub.ID)
		}); err != nil {
			e.logger.Error("Failed to derive relationships",
				zap.Int("index", i),
				zap.String("submission_id", sub.ID),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, i)
			continue
		}

		result.Processed++
	}
	return result, nil
}

// runTwoPhase upserts all nodes and direct edges across a bounded worker
// pool, then derives the complete attribute edge set from the final node
// set and batch-merges it. Deferring derivation removes the ordering
// dependency between submissions entirely.
func (e *Engine) runTwoPhase(ctx context.Context, subs []conference.Submission) (*Result, error) {
	var mu sync.Mutex
	failed := make(map[int]bool)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, sub := range subs {
		i, sub := i, sub
		g.Go(func() error {
			doc := e.synthesize(gctx, sub)
			if err := e.withRetry(gctx, func() error {
				return e.store.UpsertSubmission(gctx, sub, doc)
			}); err != nil {
				e.logger.Error("Failed to upsert submission",
					zap.Int("index", i),
					zap.String("submission_id", sub.ID),
					zap.Error(err),
				)
				mu.Lock()
				failed[i] = true
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Derive edges only between submissions whose nodes exist.
	upserted := make([]conference.Submission, 0, len(subs))
	for i, sub := range subs {
		if !failed[i] {
			upserted = append(upserted, sub)
		}
	}
	edges := relate.All(upserted)
	if err := e.withRetry(ctx, func() error {
		return e.store.MergeDerivedEdges(ctx, edges)
	}); err != nil {
		return nil, err
	}

	result := &Result{Processed: len(upserted)}
	for i := range failed {
		result.Failed = append(result.Failed, i)
	}
	sort.Ints(result.Failed)
	return result, nil
}

// synthesize renders the submission's document and, when an embedder is
// configured, attaches an embedding. Embedding failures are logged and
// skipped; the document is stored without a vector.
func (e *Engine) synthesize(ctx context.Context, sub conference.Submission) document.Document {
	doc := document.Synthesize(sub)
	if e.embedder == nil {
		return doc
	}
	embedding, err := e.embedder.Embed(ctx, doc.Text)
	if err != nil {
		e.logger.Warn("Failed to embed document, storing without embedding",
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
		return doc
	}
	doc.Embedding = embedding
	return doc
}

// withRetry retries transient store failures a bounded number of times.
// Merge operations are idempotent, so re-running a partially applied
// transaction is safe. Non-retryable errors are returned immediately.
func (e *Engine) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxStoreAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !errors.IsRetryable(err) {
			return err
		}
		if attempt == maxStoreAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return err
}
