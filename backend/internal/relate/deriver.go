package relate

import (
	"pydata-graph/backend/internal/conference"
)

// Relationship labels between submissions sharing an attribute.
const (
	OnLocation = "ON_LOCATION"
	OnDate     = "ON_DATE"
	OnType     = "ON_TYPE"
)

// Edge is one directed derived relationship between two Submission nodes.
type Edge struct {
	Label  string
	FromID string
	ToID   string
}

// attributes maps each label to the submission field it compares.
var attributes = []struct {
	label string
	value func(conference.Submission) string
}{
	{OnLocation, func(s conference.Submission) string { return s.Location }},
	{OnDate, func(s conference.Submission) string { return s.Date }},
	{OnType, func(s conference.Submission) string { return s.SubmissionType }},
}

// ForPivot scans the full submission set and returns the edges between the
// pivot and every OTHER submission sharing its location, date or type, in
// both directions. Never relates the pivot to itself. Merging both
// directions per pivot is what keeps a sequential pass complete: when the
// pivot's counterpart was processed earlier, the pivot still links back.
func ForPivot(pivot conference.Submission, all []conference.Submission) []Edge {
	var edges []Edge
	for _, attr := range attributes {
		pivotValue := attr.value(pivot)
		for _, other := range all {
			if other.ID == pivot.ID {
				continue
			}
			if attr.value(other) == pivotValue {
				edges = append(edges,
					Edge{Label: attr.label, FromID: pivot.ID, ToID: other.ID},
					Edge{Label: attr.label, FromID: other.ID, ToID: pivot.ID},
				)
			}
		}
	}
	return edges
}

// All computes the complete derived edge set for a submission set in one
// pass: submissions are grouped by attribute value and every ordered pair
// within a group becomes an edge. The result equals the union of ForPivot
// over every submission, without the repeated full scans.
func All(all []conference.Submission) []Edge {
	var edges []Edge
	for _, attr := range attributes {
		groups := make(map[string][]string)
		for _, sub := range all {
			value := attr.value(sub)
			groups[value] = append(groups[value], sub.ID)
		}
		for _, ids := range groups {
			for _, from := range ids {
				for _, to := range ids {
					if from == to {
						continue
					}
					edges = append(edges, Edge{Label: attr.label, FromID: from, ToID: to})
				}
			}
		}
	}
	return edges
}
