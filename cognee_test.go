package cognee

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topoteretes/cognee-go/engine/domain"
	"github.com/topoteretes/cognee-go/engine/retrieval"
)

func TestListTools_ReturnsClosedSet(t *testing.T) {
	tools := ListTools()
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	assert.ElementsMatch(t, []string{"cognify", "search", "codify", "prune"}, names)
}

func TestListTools_SearchParametersConstrainQueryType(t *testing.T) {
	tools := ListTools()
	var search Tool
	for _, tool := range tools {
		if tool.Name == "search" {
			search = tool
		}
	}
	require.NotEmpty(t, search.Name)
	props := search.Parameters["properties"].(map[string]any)
	queryType := props["query_type"].(map[string]any)
	assert.Equal(t, []string{"GRAPH_COMPLETION", "INSIGHTS", "CODE", "TRIPLET_COMPLETION", "NATURAL_LANGUAGE"}, queryType["enum"])
}

func TestEngine_Add_RejectsInvalidRequestBeforeTouchingStores(t *testing.T) {
	e := &Engine{pending: make(map[string][]pendingDoc)}

	_, err := e.Add(context.Background(), domain.IngestRequest{
		Dataset: domain.DatasetRef{OwnerID: "u1", DatasetID: ""},
		Text:    "hello",
	})
	require.Error(t, err)
}

func TestEngine_Search_RejectsInvalidRequestBeforeTouchingStores(t *testing.T) {
	e := &Engine{}

	_, err := e.Search(context.Background(), domain.SearchRequest{
		Dataset: domain.DatasetRef{OwnerID: "u1", DatasetID: "ds1"},
		Query:   "ab",
	}, retrieval.NaturalLanguage, retrieval.DefaultOptions())
	require.Error(t, err)
}

func TestEngine_Prune_RejectsInvalidDatasetRef(t *testing.T) {
	e := &Engine{}
	err := e.Prune(context.Background(), domain.DatasetRef{OwnerID: "", DatasetID: "ds1"})
	require.Error(t, err)
}
