package retrieval

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/topoteretes/cognee-go/engine/graph"
	"github.com/topoteretes/cognee-go/engine/llm"
	"github.com/topoteretes/cognee-go/engine/semantic"
	"github.com/topoteretes/cognee-go/pkg/fn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}
func (fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}
func (fakeEmbedder) CountTokens(text string) int { return 0 }
func (fakeEmbedder) MaxTokens() int              { return 1000 }
func (fakeEmbedder) Dimensions() int              { return 2 }

type fakeVectorStore struct {
	hits map[string][]semantic.SearchResult
}

func (f fakeVectorStore) CreateCollection(ctx context.Context, name string, dim int, d semantic.Distance) error {
	return nil
}
func (f fakeVectorStore) HasCollection(ctx context.Context, name string) (bool, error) { return true, nil }
func (f fakeVectorStore) Upsert(ctx context.Context, collection string, items []semantic.Item) error {
	return nil
}
func (f fakeVectorStore) Search(ctx context.Context, collection string, query []float32, k int, filter semantic.Filter) ([]semantic.SearchResult, error) {
	return f.hits[collection], nil
}
func (f fakeVectorStore) SearchBatch(ctx context.Context, collection string, queries [][]float32, k int, filter semantic.Filter) ([][]semantic.SearchResult, error) {
	return nil, nil
}
func (f fakeVectorStore) Delete(ctx context.Context, collection string, ids []string) error {
	return nil
}
func (f fakeVectorStore) Prune(ctx context.Context, collection string) error { return nil }

var _ semantic.Store = fakeVectorStore{}

type fakeGraphStore struct {
	subgraph graph.Subgraph
}

func (f fakeGraphStore) AddNodes(ctx context.Context, nodes []graph.Node) error { return nil }
func (f fakeGraphStore) AddEdges(ctx context.Context, edges []graph.Edge) error { return nil }
func (f fakeGraphStore) HasNode(ctx context.Context, id string) (bool, error)   { return false, nil }
func (f fakeGraphStore) GetNode(ctx context.Context, id string) (graph.Node, bool, error) {
	return graph.Node{}, false, nil
}
func (f fakeGraphStore) GetNodes(ctx context.Context, ids []string) ([]graph.Node, error) {
	return nil, nil
}
func (f fakeGraphStore) GetNeighbours(ctx context.Context, id string, dir graph.Direction, relation string) ([]graph.Node, error) {
	return nil, nil
}
func (f fakeGraphStore) GetSubgraph(ctx context.Context, filter graph.Filter) (graph.Subgraph, error) {
	return f.subgraph, nil
}
func (f fakeGraphStore) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return nil, nil
}
func (f fakeGraphStore) DeleteNodes(ctx context.Context, ids []string) error { return nil }
func (f fakeGraphStore) NodeCounts(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}
func (f fakeGraphStore) RelationshipCounts(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}

var _ graph.Store = fakeGraphStore{}

func testSubgraph() graph.Subgraph {
	return graph.Subgraph{
		Nodes: []graph.Node{
			{ID: "e1", Label: "Entity", UpdatedAt: 200, Properties: map[string]any{"name": "Alice"}},
			{ID: "e2", Label: "Entity", UpdatedAt: 100, Properties: map[string]any{"name": "Bob"}},
		},
		Edges: []graph.Edge{
			{Source: "e1", Target: "e2", Relation: "met"},
		},
	}
}

func TestSearch_EmptyVectorHitsReturnsEntityNotFound(t *testing.T) {
	svc := New(fakeEmbedder{}, fakeVectorStore{hits: map[string][]semantic.SearchResult{}}, fakeGraphStore{}, nil, DefaultOptions(), fn.RetryOpts{MaxAttempts: 1}, nil)
	_, err := svc.Search(context.Background(), "who is Alice?", NaturalLanguage)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestSearch_Insights_ReturnsRankedCandidatesNoLLMCall(t *testing.T) {
	vs := fakeVectorStore{hits: map[string][]semantic.SearchResult{
		"Entity_name": {{ID: "e1", Score: 0.9}},
	}}
	gs := fakeGraphStore{subgraph: testSubgraph()}
	svc := New(fakeEmbedder{}, vs, gs, nil, DefaultOptions(), fn.RetryOpts{MaxAttempts: 1}, nil)

	result, err := svc.Search(context.Background(), "relations", Insights)
	require.NoError(t, err)
	assert.Equal(t, Insights, result.SearchType)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "e1", result.Candidates[0].ID, "higher vector+freshness score ranks first")
	require.Len(t, result.Triplets, 1)
	assert.Equal(t, "met", result.Triplets[0].Relation)
	assert.Empty(t, result.Text)
}

func TestSearch_GraphCompletion_CallsLLMWithContext(t *testing.T) {
	vs := fakeVectorStore{hits: map[string][]semantic.SearchResult{
		"Entity_name": {{ID: "e1", Score: 0.9}, {ID: "e2", Score: 0.4}},
	}}
	gs := fakeGraphStore{subgraph: testSubgraph()}
	answer, _ := json.Marshal(map[string]string{"answer": "Alice met Bob."})
	gw := llm.NewFake(llm.Response{Content: answer, Model: "test-model", TokensUsed: 12})

	svc := New(fakeEmbedder{}, vs, gs, gw, DefaultOptions(), fn.RetryOpts{MaxAttempts: 1}, nil)
	result, err := svc.Search(context.Background(), "who met whom?", GraphCompletion)
	require.NoError(t, err)
	assert.Equal(t, "Alice met Bob.", result.Text)
	assert.Equal(t, int32(12), result.TokensUsed)
	require.Len(t, gw.Requests, 1)
	assert.NotEmpty(t, gw.Requests[0].Context)
}

func TestRankNodes_BreaksTiesByUpdatedAtThenID(t *testing.T) {
	nodes := []graph.Node{
		{ID: "b", UpdatedAt: 50},
		{ID: "a", UpdatedAt: 50},
	}
	candidates := rankNodes(nodes, nil, map[string]float32{}, Weights{})
	require.Len(t, candidates, 2)
	assert.Equal(t, "a", candidates[0].ID)
}
