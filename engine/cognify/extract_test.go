package cognify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/topoteretes/cognee-go/engine/datapoint"
	"github.com/topoteretes/cognee-go/engine/llm"
	"github.com/topoteretes/cognee-go/pkg/fn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunk(id, text string) *datapoint.DocumentChunk {
	return &datapoint.DocumentChunk{
		Base: datapoint.NewBase("DocumentChunk", id, 0),
		Text: text,
	}
}

func TestExtractGraphFromData_ParsesWellFormedResponse(t *testing.T) {
	payload, _ := json.Marshal(ExtractionResult{
		Entities: []ExtractedEntity{
			{Name: "Alice", Type: "Person"},
			{Name: "Bob", Type: "Person"},
		},
		Relationships: []ExtractedRelationship{
			{Source: "Alice", Target: "Bob", Relation: "met"},
		},
	})
	gw := llm.NewFake(llm.Response{Content: payload})

	result, err := ExtractGraphFromData(context.Background(), gw, testChunk("c1", "Alice met Bob."), fn.RetryOpts{MaxAttempts: 1}, nil)
	require.NoError(t, err)
	assert.Len(t, result.Entities, 2)
	assert.Len(t, result.Relationships, 1)
}

func TestExtractGraphFromData_RepairsOnceThenGivesUp(t *testing.T) {
	gw := llm.NewFake(llm.Response{Content: json.RawMessage(`not json`)}, llm.Response{Content: json.RawMessage(`still not json`)})

	_, err := ExtractGraphFromData(context.Background(), gw, testChunk("c1", "text"), fn.RetryOpts{MaxAttempts: 1}, nil)
	require.Error(t, err)
	assert.Len(t, gw.Requests, 2)
}

func TestExtractGraphFromData_RepairSucceeds(t *testing.T) {
	good, _ := json.Marshal(ExtractionResult{Entities: []ExtractedEntity{{Name: "Alice", Type: "Person"}}})
	gw := llm.NewFake(llm.Response{Content: json.RawMessage(`garbage`)}, llm.Response{Content: good})

	result, err := ExtractGraphFromData(context.Background(), gw, testChunk("c1", "text"), fn.RetryOpts{MaxAttempts: 1}, nil)
	require.NoError(t, err)
	assert.Len(t, result.Entities, 1)
}

func TestBuildGraph_DedupsSynonymousEntitiesAndLinksRelationships(t *testing.T) {
	resolver := NewOntologyResolver(map[string]string{"ny": "New York"})
	chunk := testChunk("c1", "text")
	result := ExtractionResult{
		Entities: []ExtractedEntity{
			{Name: "New York", Type: "Place"},
			{Name: "NY", Type: "Place"},
			{Name: "Alice", Type: "Person"},
		},
		Relationships: []ExtractedRelationship{
			{Source: "Alice", Target: "New York", Relation: "lives_in"},
		},
	}

	nodes, edges := BuildGraph(result, chunk, resolver, 100)

	var entityCount int
	for _, n := range nodes {
		if _, ok := n.(*datapoint.Entity); ok {
			entityCount++
		}
	}
	assert.Equal(t, 2, entityCount) // "New York" and "NY" collapse to one

	var relEdge bool
	for _, e := range edges {
		if e.Relation == "lives_in" {
			relEdge = true
		}
	}
	assert.True(t, relEdge)
}
