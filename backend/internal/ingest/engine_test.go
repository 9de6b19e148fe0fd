package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pydata-graph/backend/internal/conference"
	"pydata-graph/backend/internal/document"
	"pydata-graph/backend/internal/relate"
	"pydata-graph/backend/pkg/errors"
)

// fakeStore is an in-memory merge-by-key store. Nodes and edges live in
// maps keyed the way the graph keys them, so repeated merges with
// identical inputs leave counts unchanged.
type fakeStore struct {
	mu          sync.Mutex
	speakers    map[string]conference.Speaker
	submissions map[string]conference.Submission
	documents   map[string]string
	edges       map[string]bool // "LABEL|from|to"

	failUpsertFor map[string]int // submission id -> remaining failures
	retryable     bool
	attempts      map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		speakers:      make(map[string]conference.Speaker),
		submissions:   make(map[string]conference.Submission),
		documents:     make(map[string]string),
		edges:         make(map[string]bool),
		failUpsertFor: make(map[string]int),
		attempts:      make(map[string]int),
	}
}

func (f *fakeStore) UpsertSubmission(_ context.Context, sub conference.Submission, doc document.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts[sub.ID]++
	if remaining := f.failUpsertFor[sub.ID]; remaining != 0 {
		if remaining > 0 {
			f.failUpsertFor[sub.ID]--
		}
		if f.retryable {
			return errors.NewGraphMergeFailed(sub.ID, fmt.Errorf("transient"))
		}
		return fmt.Errorf("permanent store failure")
	}

	f.speakers[sub.Speaker.ID] = sub.Speaker
	f.submissions[sub.ID] = sub
	f.documents[doc.ID] = doc.Text
	f.edges["PRESENTED|"+sub.Speaker.ID+"|"+sub.ID] = true
	f.edges["MENTIONS|"+doc.ID+"|"+sub.ID] = true
	return nil
}

// DeriveRelationships mirrors the Cypher-side derivation: it scans the
// submissions persisted so far.
func (f *fakeStore) DeriveRelationships(_ context.Context, submissionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pivot, ok := f.submissions[submissionID]
	if !ok {
		return nil
	}
	all := make([]conference.Submission, 0, len(f.submissions))
	for _, sub := range f.submissions {
		all = append(all, sub)
	}
	for _, edge := range relate.ForPivot(pivot, all) {
		f.edges[edge.Label+"|"+edge.FromID+"|"+edge.ToID] = true
	}
	return nil
}

func (f *fakeStore) MergeDerivedEdges(_ context.Context, edges []relate.Edge) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, edge := range edges {
		f.edges[edge.Label+"|"+edge.FromID+"|"+edge.ToID] = true
	}
	return nil
}

func (f *fakeStore) counts() (speakers, submissions, documents, edges int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.speakers), len(f.submissions), len(f.documents), len(f.edges)
}

func (f *fakeStore) derivedEdges() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	derived := make(map[string]bool)
	for key := range f.edges {
		if strings.HasPrefix(key, "PRESENTED|") || strings.HasPrefix(key, "MENTIONS|") {
			continue
		}
		derived[key] = true
	}
	return derived
}

func testSubmission(id, speakerID, location, date, subType string) conference.Submission {
	return conference.Submission{
		ID: id,
		Speaker: conference.Speaker{
			ID:        speakerID,
			Name:      "Speaker " + speakerID,
			Biography: "Bio " + speakerID,
		},
		Title:          "Title " + id,
		SubmissionType: subType,
		Abstract:       "Abstract " + id,
		State:          conference.StateConfirmed,
		Description:    "Description " + id,
		Duration:       30,
		Location:       location,
		Date:           date,
		StartTime:      "09:30:00",
		EndTime:        "10:00:00",
	}
}

func testSet() []conference.Submission {
	return []conference.Submission{
		testSubmission("a", "spk-a", "Main Hall", "2024-06-12", "Talk"),
		testSubmission("b", "spk-b", "Main Hall", "2024-06-13", "Tutorial"),
		testSubmission("c", "spk-c", "Room 2", "2024-06-14", "Tutorial"),
	}
}

func TestEngine_Sequential_FullPass(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 1)

	result, err := engine.Run(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Empty(t, result.Failed)

	speakers, submissions, documents, _ := store.counts()
	assert.Equal(t, 3, speakers)
	assert.Equal(t, 3, submissions)
	assert.Equal(t, 3, documents)

	derived := store.derivedEdges()
	assert.True(t, derived["ON_LOCATION|a|b"])
	assert.True(t, derived["ON_LOCATION|b|a"], "symmetry emerges over the full pass")
	assert.True(t, derived["ON_TYPE|b|c"])
	assert.True(t, derived["ON_TYPE|c|b"])
	for key := range derived {
		assert.NotContains(t, key, "|a|a")
		assert.NotContains(t, key, "|b|b")
		assert.NotContains(t, key, "|c|c")
	}
	edges := store.edges
	assert.False(t, edges["ON_LOCATION|a|c"])
	assert.False(t, edges["ON_LOCATION|c|a"])
}

func TestEngine_Idempotence(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 1)
	subs := testSet()

	_, err := engine.Run(context.Background(), subs)
	require.NoError(t, err)
	speakers1, submissions1, documents1, edges1 := store.counts()

	// Same identifiers, second pass: every merge is a no-op on repeat.
	_, err = engine.Run(context.Background(), subs)
	require.NoError(t, err)
	speakers2, submissions2, documents2, edges2 := store.counts()

	assert.Equal(t, speakers1, speakers2)
	assert.Equal(t, submissions1, submissions2)
	assert.Equal(t, documents1, documents2)
	assert.Equal(t, edges1, edges2)
}

func TestEngine_DocumentDeduplication(t *testing.T) {
	// Identical rendered text regardless of entity ids: one Document node,
	// two MENTIONS edges.
	a := testSubmission("a", "spk-a", "Main Hall", "2024-06-12", "Talk")
	b := testSubmission("b", "spk-b", "Main Hall", "2024-06-12", "Talk")
	b.Title = a.Title
	b.Abstract = a.Abstract
	b.Description = a.Description
	b.Speaker.Name = a.Speaker.Name
	b.Speaker.Biography = a.Speaker.Biography

	store := newFakeStore()
	engine := NewEngine(store, nil, 1)
	_, err := engine.Run(context.Background(), []conference.Submission{a, b})
	require.NoError(t, err)

	_, _, documents, _ := store.counts()
	assert.Equal(t, 1, documents)
	assert.True(t, store.edges["MENTIONS|"+document.Synthesize(a).ID+"|a"])
	assert.True(t, store.edges["MENTIONS|"+document.Synthesize(b).ID+"|b"])
}

func TestEngine_ReportsFailedIndices(t *testing.T) {
	store := newFakeStore()
	store.retryable = false
	store.failUpsertFor["b"] = -1 // fail forever

	engine := NewEngine(store, nil, 1)
	result, err := engine.Run(context.Background(), testSet())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, []int{1}, result.Failed)
	assert.Equal(t, 1, store.attempts["b"], "non-retryable failures are not retried")

	// The other submissions committed; no cross-submission rollback.
	_, submissions, _, _ := store.counts()
	assert.Equal(t, 2, submissions)
}

func TestEngine_RetriesTransientStoreFailures(t *testing.T) {
	store := newFakeStore()
	store.retryable = true
	store.failUpsertFor["a"] = 2 // succeed on the third attempt

	engine := NewEngine(store, nil, 1)
	result, err := engine.Run(context.Background(), testSet())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 3, store.attempts["a"])
}

func TestEngine_TwoPhaseMatchesSequentialEdgeSet(t *testing.T) {
	subs := testSet()

	sequential := newFakeStore()
	_, err := NewEngine(sequential, nil, 1).Run(context.Background(), subs)
	require.NoError(t, err)

	concurrent := newFakeStore()
	result, err := NewEngine(concurrent, nil, 4).Run(context.Background(), subs)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)

	assert.Equal(t, sequential.derivedEdges(), concurrent.derivedEdges())
}

func TestEngine_TwoPhaseSkipsFailedSubmissions(t *testing.T) {
	store := newFakeStore()
	store.retryable = false
	store.failUpsertFor["a"] = -1

	engine := NewEngine(store, nil, 4)
	result, err := engine.Run(context.Background(), testSet())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, []int{0}, result.Failed)
	for key := range store.derivedEdges() {
		assert.NotContains(t, key, "|a|")
	}
}

func TestEngine_EmptyInput(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 1)

	result, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)

	_, submissions, _, edges := store.counts()
	assert.Equal(t, 0, submissions)
	assert.Equal(t, 0, edges)
}

type fixedEmbedder struct {
	vector []float32
	calls  int
}

func (f *fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	f.calls++
	return f.vector, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("embedding service down")
}

func TestEngine_EmbedderIsOptionalAndNonFatal(t *testing.T) {
	store := newFakeStore()
	embedder := &fixedEmbedder{vector: []float32{0.1, 0.2}}
	_, err := NewEngine(store, embedder, 1).Run(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, 3, embedder.calls)

	// Embedding failures degrade to plain documents, never abort the run.
	store = newFakeStore()
	result, err := NewEngine(store, failingEmbedder{}, 1).Run(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	_, _, documents, _ := store.counts()
	assert.Equal(t, 3, documents)
}
