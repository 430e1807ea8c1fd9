package cognify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/topoteretes/cognee-go/engine/datapoint"
	"github.com/topoteretes/cognee-go/engine/graph"
	"github.com/topoteretes/cognee-go/engine/llm"
	"github.com/topoteretes/cognee-go/pkg/fn"
	"github.com/topoteretes/cognee-go/pkg/resilience"
)

// ExtractedEntity is one entity mention the LLM identified in a chunk.
type ExtractedEntity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ExtractedRelationship is one directed relation between two entity names.
type ExtractedRelationship struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// ExtractionResult is the structured response extract_graph_from_data asks
// the LLM gateway for, relative to a single DocumentChunk.
type ExtractionResult struct {
	Entities      []ExtractedEntity       `json:"entities"`
	Relationships []ExtractedRelationship `json:"relationships"`
}

var extractionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"entities": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"type": {"type": "string"},
					"description": {"type": "string"}
				},
				"required": ["name", "type"]
			}
		},
		"relationships": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"source": {"type": "string"},
					"target": {"type": "string"},
					"relation": {"type": "string"}
				},
				"required": ["source", "target", "relation"]
			}
		}
	},
	"required": ["entities", "relationships"]
}`)

const extractSystemPrompt = `You extract a knowledge graph from a passage of text. Identify named entities and the typed relationships between them. Respond only with JSON matching the given schema.`

// ExtractGraphFromData asks the LLM gateway for the entities and
// relationships present in chunk.Text. Transport/rate-limit failures are
// retried per retryOpts on every gateway round trip; a response that fails
// to parse as ExtractionResult is retried exactly once more with a repair
// prompt (via fn.RepairRetry) before the chunk is dropped. breaker trips
// after a run of consecutive gateway failures so a dying Ollama backend
// fails fast for the remaining chunks in the batch instead of each one
// burning its full retry budget; a nil breaker disables this.
func ExtractGraphFromData(ctx context.Context, gateway llm.Gateway, chunk *datapoint.DocumentChunk, retryOpts fn.RetryOpts, breaker *resilience.Breaker) (ExtractionResult, error) {
	call := func(ctx context.Context, userPrompt string) fn.Result[llm.Response] {
		fetch := func(ctx context.Context) fn.Result[llm.Response] {
			resp, err := gateway.CreateStructuredOutput(ctx, llm.Request{
				SystemPrompt:   extractSystemPrompt,
				UserPrompt:     userPrompt,
				ResponseSchema: extractionSchema,
			})
			if err != nil {
				return fn.Err[llm.Response](err)
			}
			return fn.Ok(resp)
		}
		if breaker == nil {
			return fn.Retry(ctx, retryOpts, fetch)
		}
		return fn.Retry(ctx, retryOpts, func(ctx context.Context) fn.Result[llm.Response] {
			return resilience.CallResult(breaker, ctx, fetch)
		})
	}

	var extracted ExtractionResult
	validate := func(resp llm.Response) error {
		return json.Unmarshal(resp.Content, &extracted)
	}
	repair := func(prompt string, verr error) string {
		return fmt.Sprintf("%s\n\nYour previous response failed schema validation (%v). Return only valid JSON matching the schema, no surrounding prose.", prompt, verr)
	}

	result := fn.RepairRetry(ctx, chunk.Text, call, validate, repair)
	if result.IsErr() {
		_, err := result.Unwrap()
		return ExtractionResult{}, fmt.Errorf("cognify: extract_graph_from_data: %w", err)
	}
	return extracted, nil
}

// BuildGraph turns an ExtractionResult into materializable DataPoints and
// edges, resolving entity/type identity through resolver so that
// synonymous mentions collapse onto the same node id. now is stamped as
// both created_at and updated_at for freshly minted nodes.
func BuildGraph(result ExtractionResult, chunk *datapoint.DocumentChunk, resolver *OntologyResolver, now int64) ([]datapoint.DataPoint, []graph.Edge) {
	entityTypes := map[string]*datapoint.EntityType{}
	entities := map[string]*datapoint.Entity{}
	var nodes []datapoint.DataPoint
	var edges []graph.Edge

	getType := func(typeName string) *datapoint.EntityType {
		if typeName == "" {
			return nil
		}
		id := resolver.EntityTypeID(typeName)
		if et, ok := entityTypes[id]; ok {
			return et
		}
		et := &datapoint.EntityType{
			Base: datapoint.NewBase("EntityType", id, now),
			Name: resolver.Canonical(typeName),
		}
		entityTypes[id] = et
		nodes = append(nodes, et)
		return et
	}

	idFor := func(name string) string { return resolver.EntityID(name) }

	for _, e := range result.Entities {
		id := idFor(e.Name)
		if _, ok := entities[id]; ok {
			continue
		}
		ent := &datapoint.Entity{
			Base:        datapoint.NewBase("Entity", id, now),
			Name:        resolver.Canonical(e.Name),
			Description: e.Description,
			IsA:         getType(e.Type),
		}
		entities[id] = ent
		nodes = append(nodes, ent)
		edges = append(edges, graph.Edge{Source: chunk.ID, Target: id, Relation: "mentions"})
	}

	relEdges := fn.FilterMap(result.Relationships, func(rel ExtractedRelationship) (graph.Edge, bool) {
		srcID, dstID := idFor(rel.Source), idFor(rel.Target)
		if _, ok := entities[srcID]; !ok {
			return graph.Edge{}, false
		}
		if _, ok := entities[dstID]; !ok {
			return graph.Edge{}, false
		}
		relation := rel.Relation
		if relation == "" {
			relation = "related_to"
		}
		return graph.Edge{Source: srcID, Target: dstID, Relation: relation}, true
	})
	edges = append(edges, relEdges...)

	return nodes, edges
}
