package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/topoteretes/cognee-go/engine/embed"
	"github.com/topoteretes/cognee-go/engine/graph"
	"github.com/topoteretes/cognee-go/engine/llm"
	"github.com/topoteretes/cognee-go/engine/semantic"
	"github.com/topoteretes/cognee-go/pkg/fn"
)

// Service is the retrieval orchestration service: vector search seeds a
// subgraph projection, the hybrid ranker orders the combined candidate
// set, and completion-style search types hand the ranked context to an
// LLM gateway for a final answer.
type Service struct {
	embedder embed.Engine
	vector   semantic.Store
	graph    graph.Store
	llm      llm.Gateway
	opts     Options
	retry    fn.RetryOpts
	logger   *slog.Logger
}

// New constructs a Service. A nil logger falls back to slog.Default.
func New(embedder embed.Engine, vector semantic.Store, graphStore graph.Store, gateway llm.Gateway, opts Options, retry fn.RetryOpts, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{embedder: embedder, vector: vector, graph: graphStore, llm: gateway, opts: opts, retry: retry, logger: logger}
}

// collectionsFor returns the vector collections a search type draws
// candidates from, named "<Subclass>_<field_name>" per the persisted-
// state layout (engine/datapoint's registered index_fields).
func collectionsFor(st SearchType) []string {
	switch st {
	case Code:
		return []string{"SourceCodeChunk_text", "CodePart_name"}
	case Insights, GraphCompletion, TripletCompletion:
		return []string{"Entity_name", "Entity_description", "DocumentChunk_text"}
	default: // NaturalLanguage
		return []string{"DocumentChunk_text", "Summary_text"}
	}
}

// AllCollections returns the union of vector collections any search type
// can draw from — used by the Prune operation to know what to drop
// alongside a dataset's graph store.
func AllCollections() []string {
	var all []string
	for _, st := range []SearchType{GraphCompletion, Insights, Code, TripletCompletion, NaturalLanguage} {
		all = append(all, collectionsFor(st)...)
	}
	return fn.Unique(all)
}

// hopsFor bounds how far subgraph projection expands from the vector
// hits: INSIGHTS wants the wider 2-hop structural view, everything else
// a tight 1-hop neighbourhood.
func hopsFor(st SearchType) int {
	if st == Insights {
		return 2
	}
	return 1
}

// Search runs a query through one of the five closed-set search types.
// An empty candidate set is not an error: it resolves to a zero-value
// Result alongside ErrEntityNotFound so callers can surface a graceful
// "nothing found" response instead of a fault.
func (s *Service) Search(ctx context.Context, query string, searchType SearchType) (Result, error) {
	s.logger.Info("retrieval search start", "search_type", searchType, "query_len", len(query))

	vec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("retrieval: embed query: %w", err)
	}

	topK := s.opts.TopK
	if topK <= 0 {
		topK = DefaultOptions().TopK
	}

	vectorScores := map[string]float32{}
	var seedIDs []string
	for _, collection := range collectionsFor(searchType) {
		hits, err := s.vector.Search(ctx, collection, vec, topK, nil)
		if err != nil {
			s.logger.Warn("retrieval: collection search failed, skipping", "collection", collection, "err", err)
			continue
		}
		for _, h := range hits {
			if existing, ok := vectorScores[h.ID]; !ok || h.Score > existing {
				vectorScores[h.ID] = h.Score
			}
			seedIDs = append(seedIDs, h.ID)
		}
	}

	if len(seedIDs) == 0 {
		return Result{SearchType: searchType}, ErrEntityNotFound
	}

	subgraph, err := s.graph.GetSubgraph(ctx, graph.Filter{NodeIDs: seedIDs, Hops: hopsFor(searchType)})
	if err != nil {
		return Result{}, fmt.Errorf("retrieval: project subgraph: %w", err)
	}
	if len(subgraph.Nodes) == 0 {
		return Result{SearchType: searchType}, ErrEntityNotFound
	}

	candidates := rankNodes(subgraph.Nodes, subgraph.Edges, vectorScores, s.opts.Weights)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	result := Result{SearchType: searchType, Candidates: candidates}

	if searchType == Insights {
		result.Triplets = tripletsFromEdges(subgraph.Nodes, subgraph.Edges)
		return result, nil
	}

	if searchType == TripletCompletion || searchType == GraphCompletion {
		result.Triplets = tripletsFromEdges(subgraph.Nodes, subgraph.Edges)
	}

	answer, tokens, model, err := s.complete(ctx, query, searchType, candidates, result.Triplets)
	if err != nil {
		return Result{}, fmt.Errorf("retrieval: complete: %w", err)
	}
	result.Text = answer
	result.TokensUsed = tokens
	result.Model = model
	return result, nil
}

type answerResponse struct {
	Answer string `json:"answer"`
}

var answerSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"answer": {"type": "string"}
	},
	"required": ["answer"]
}`)

// complete calls the LLM gateway with the ranked context assembled for
// searchType and parses the structured {"answer": "..."} reply.
func (s *Service) complete(ctx context.Context, query string, searchType SearchType, candidates []Candidate, triplets []Triplet) (string, int32, string, error) {
	req := llm.Request{
		SystemPrompt:   s.opts.SystemPrompt,
		UserPrompt:     query,
		Context:        buildContext(searchType, candidates, triplets),
		ResponseSchema: answerSchema,
		Model:          s.opts.Model,
		Temperature:    s.opts.Temperature,
		MaxTokens:      s.opts.MaxTokens,
	}

	outcome := fn.Retry(ctx, s.retry, func(ctx context.Context) fn.Result[llm.Response] {
		resp, err := s.llm.CreateStructuredOutput(ctx, req)
		if err != nil {
			return fn.Err[llm.Response](err)
		}
		return fn.Ok(resp)
	})
	resp, err := outcome.Unwrap()
	if err != nil {
		return "", 0, "", err
	}

	var parsed answerResponse
	if err := json.Unmarshal(resp.Content, &parsed); err != nil {
		return "", 0, "", fmt.Errorf("parse answer: %w", err)
	}
	return parsed.Answer, resp.TokensUsed, resp.Model, nil
}

// buildContext formats ranked candidates (and, for GRAPH_COMPLETION and
// TRIPLET_COMPLETION, the projected subgraph's edges) into context strings for the LLM
// prompt. GRAPH_COMPLETION and TRIPLET_COMPLETION frame the context with
// its graph structure; NATURAL_LANGUAGE and CODE keep it to plain text.
func buildContext(searchType SearchType, candidates []Candidate, triplets []Triplet) []string {
	parts := fn.FilterMap(candidates, func(c Candidate) (string, bool) {
		text := textOf(c.Properties)
		if text == "" {
			return "", false
		}
		return fmt.Sprintf("[%s] (%s, score: %.3f)\n%s", c.ID, c.Label, c.Score, text), true
	})
	if searchType == TripletCompletion || searchType == GraphCompletion {
		parts = append(parts, fn.Map(triplets, func(t Triplet) string {
			return fmt.Sprintf("%s -[%s]-> %s", t.Subject, t.Relation, t.Object)
		})...)
	}
	return parts
}

func textOf(props map[string]any) string {
	if t, ok := props["text"].(string); ok && t != "" {
		return t
	}
	var b strings.Builder
	if n, ok := props["name"].(string); ok && n != "" {
		b.WriteString(n)
	}
	if d, ok := props["description"].(string); ok && d != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(d)
	}
	return b.String()
}
