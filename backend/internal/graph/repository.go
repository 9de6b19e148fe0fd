package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"pydata-graph/backend/internal/conference"
	"pydata-graph/backend/internal/document"
	"pydata-graph/backend/internal/relate"
	"pydata-graph/backend/pkg/errors"
	"pydata-graph/backend/pkg/logger"
)

// Repository handles all Neo4j database operations
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// UpsertSubmission materializes one (submission x speaker) pair and its
// document inside a single write transaction, in a fixed order:
// Speaker node, Submission node, PRESENTED edge, Document node, MENTIONS
// edge. Every step is a merge-by-key, so the whole transaction is safe to
// retry or re-run with identical inputs.
func (r *Repository) UpsertSubmission(ctx context.Context, sub conference.Submission, doc document.Document) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MERGE (s:Speaker {id: $id})
			SET s.name = $name,
			    s.biography = $biography
		`, map[string]any{
			"id":        sub.Speaker.ID,
			"name":      sub.Speaker.Name,
			"biography": sub.Speaker.Biography,
		}); err != nil {
			return nil, fmt.Errorf("failed to merge speaker: %w", err)
		}

		if _, err := tx.Run(ctx, `
			MERGE (submission:Submission {id: $id})
			SET submission.title = $title,
			    submission.submission_type = $submission_type,
			    submission.abstract = $abstract,
			    submission.state = $state,
			    submission.description = $description,
			    submission.duration = $duration,
			    submission.location = $location,
			    submission.date = $date,
			    submission.start_time = $start_time,
			    submission.end_time = $end_time
		`, map[string]any{
			"id":              sub.ID,
			"title":           sub.Title,
			"submission_type": sub.SubmissionType,
			"abstract":        sub.Abstract,
			"state":           sub.State,
			"description":     sub.Description,
			"duration":        sub.Duration,
			"location":        sub.Location,
			"date":            sub.Date,
			"start_time":      sub.StartTime,
			"end_time":        sub.EndTime,
		}); err != nil {
			return nil, fmt.Errorf("failed to merge submission: %w", err)
		}

		if _, err := tx.Run(ctx, `
			MATCH (s:Speaker {id: $speaker_id}),
			      (submission:Submission {id: $submission_id})
			MERGE (s)-[:PRESENTED]->(submission)
		`, map[string]any{
			"speaker_id":    sub.Speaker.ID,
			"submission_id": sub.ID,
		}); err != nil {
			return nil, fmt.Errorf("failed to merge PRESENTED edge: %w", err)
		}

		docParams := map[string]any{
			"document_id":   doc.ID,
			"document_text": doc.Text,
		}
		docQuery := `
			MERGE (d:Document {id: $document_id})
			SET d.text = $document_text
		`
		if len(doc.Embedding) > 0 {
			docQuery = `
			MERGE (d:Document {id: $document_id})
			SET d.text = $document_text,
			    d.embedding = $embedding
		`
			docParams["embedding"] = doc.Embedding
		}
		if _, err := tx.Run(ctx, docQuery, docParams); err != nil {
			return nil, fmt.Errorf("failed to merge document: %w", err)
		}

		if _, err := tx.Run(ctx, `
			MATCH (d:Document {id: $document_id}),
			      (submission:Submission {id: $submission_id})
			MERGE (d)-[:MENTIONS]->(submission)
		`, map[string]any{
			"document_id":   doc.ID,
			"submission_id": sub.ID,
		}); err != nil {
			return nil, fmt.Errorf("failed to merge MENTIONS edge: %w", err)
		}

		return nil, nil
	})
	if err != nil {
		return errors.NewGraphMergeFailed(sub.ID, err)
	}

	r.logger.Debug("Submission upserted",
		zap.String("submission_id", sub.ID),
		zap.String("speaker_id", sub.Speaker.ID),
		zap.String("document_id", doc.ID),
	)
	return nil
}

// DeriveRelationships merges ON_LOCATION, ON_DATE and ON_TYPE edges in
// both directions between the given submission and every other persisted
// Submission node sharing the attribute. Self-edges are excluded by the
// node inequality in each query. Used by the sequential ingestion mode,
// where it runs against whatever Submission nodes exist at that point in
// the pass; merging both directions per pivot is what makes the edge set
// complete once the pass finishes.
func (r *Repository) DeriveRelationships(ctx context.Context, submissionID string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	derivations := []struct {
		attribute string
		label     string
	}{
		{"location", relate.OnLocation},
		{"date", relate.OnDate},
		{"submission_type", relate.OnType},
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, d := range derivations {
			query := fmt.Sprintf(`
				MATCH (submission1:Submission {id: $submission_id})
				WITH submission1
				MATCH (submission2:Submission)
				WHERE submission1.%s = submission2.%s AND submission1 <> submission2
				MERGE (submission1)-[:%s]->(submission2)
				MERGE (submission2)-[:%s]->(submission1)
			`, d.attribute, d.attribute, d.label, d.label)
			if _, err := tx.Run(ctx, query, map[string]any{
				"submission_id": submissionID,
			}); err != nil {
				return nil, fmt.Errorf("failed to merge %s edges: %w", d.label, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return errors.NewGraphMergeFailed(submissionID, err)
	}
	return nil
}

// MergeDerivedEdges batch-merges precomputed derived edges, one UNWIND
// per relationship label. Used by the two-phase ingestion mode after all
// Submission nodes exist.
func (r *Repository) MergeDerivedEdges(ctx context.Context, edges []relate.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	byLabel := make(map[string][]map[string]any)
	for _, edge := range edges {
		byLabel[edge.Label] = append(byLabel[edge.Label], map[string]any{
			"from": edge.FromID,
			"to":   edge.ToID,
		})
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for label, pairs := range byLabel {
			// Relationship types cannot be parameterized; labels come from
			// the fixed set in the relate package.
			query := fmt.Sprintf(`
				UNWIND $pairs AS pair
				MATCH (a:Submission {id: pair.from}),
				      (b:Submission {id: pair.to})
				MERGE (a)-[:%s]->(b)
			`, label)
			if _, err := tx.Run(ctx, query, map[string]any{"pairs": pairs}); err != nil {
				return nil, fmt.Errorf("failed to merge %s edges: %w", label, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return errors.NewGraphMergeFailed("batch", err)
	}

	r.logger.Info("Derived edges merged", zap.Int("edge_count", len(edges)))
	return nil
}
