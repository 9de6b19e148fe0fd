package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"pydata-graph/backend/pkg/errors"
)

// Stats summarizes the persisted graph: node counts per label and
// relationship counts per type.
type Stats struct {
	Speakers      int64            `json:"speakers"`
	Submissions   int64            `json:"submissions"`
	Documents     int64            `json:"documents"`
	Relationships map[string]int64 `json:"relationships"`
}

const nodeCountQuery = `
	MATCH (n)
	WHERE n:Speaker OR n:Submission OR n:Document
	RETURN labels(n)[0] AS label, count(n) AS count
`

const relationshipCountQuery = `
	MATCH ()-[rel]->()
	RETURN type(rel) AS rel_type, count(rel) AS count
`

// Stats counts the persisted nodes and relationships
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	stats := &Stats{Relationships: make(map[string]int64)}

	result, err := session.Run(ctx, nodeCountQuery, nil)
	if err != nil {
		return nil, errors.NewGraphQueryFailed(nodeCountQuery, err)
	}
	for result.Next(ctx) {
		record := result.Record()
		label := getStringFromRecord(record, "label")
		count := getInt64FromRecord(record, "count")
		switch label {
		case "Speaker":
			stats.Speakers = count
		case "Submission":
			stats.Submissions = count
		case "Document":
			stats.Documents = count
		}
	}
	if err := result.Err(); err != nil {
		return nil, errors.NewGraphQueryFailed(nodeCountQuery, err)
	}

	result, err = session.Run(ctx, relationshipCountQuery, nil)
	if err != nil {
		return nil, errors.NewGraphQueryFailed(relationshipCountQuery, err)
	}
	for result.Next(ctx) {
		record := result.Record()
		stats.Relationships[getStringFromRecord(record, "rel_type")] = getInt64FromRecord(record, "count")
	}
	if err := result.Err(); err != nil {
		return nil, errors.NewGraphQueryFailed(relationshipCountQuery, err)
	}

	return stats, nil
}
