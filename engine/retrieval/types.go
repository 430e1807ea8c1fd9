// Package retrieval is the cognitive search layer (C8): it projects a
// bounded subgraph around the vector hits for a query, re-ranks the
// combined candidate set with a hybrid vector/graph/freshness score, and
// (for completion-style search types) asks an LLM gateway to turn the
// ranked context into an answer. It knows nothing about storage wiring —
// engine/graph.Store, engine/semantic.Store, engine/embed.Engine and
// engine/llm.Gateway are all it depends on.
package retrieval

import "errors"

// SearchType is the closed set of retrieval strategies a caller may pick.
// Each maps to a different context-assembly template and a different hop
// radius for subgraph projection.
type SearchType string

const (
	// GraphCompletion answers a question using a 1-hop subgraph around the
	// matched chunks/entities plus an LLM completion.
	GraphCompletion SearchType = "GRAPH_COMPLETION"
	// Insights returns the raw 2-hop subgraph projection with no LLM call —
	// a structural view of how the matched entities relate.
	Insights SearchType = "INSIGHTS"
	// Code searches code-summary/code-chunk collections and completes an
	// answer grounded in source excerpts.
	Code SearchType = "CODE"
	// TripletCompletion answers using (subject, relation, object) triplets
	// read directly off the projected subgraph's edges.
	TripletCompletion SearchType = "TRIPLET_COMPLETION"
	// NaturalLanguage is a plain RAG-style completion over chunk/summary
	// text with no structural graph framing in the prompt.
	NaturalLanguage SearchType = "NATURAL_LANGUAGE"
)

// ErrEntityNotFound is returned when a search's candidate set is empty
// after vector search and subgraph projection. It is a well-typed empty
// result, not a fault: callers should treat it as "nothing matched" and
// present an empty/zero Result rather than propagate it as a hard error.
var ErrEntityNotFound = errors.New("retrieval: no matching entities")

// Weights controls the hybrid ranking formula:
//
//	score = Vector*vector_score + Graph*graph_centrality + Freshness*freshness
type Weights struct {
	Vector    float64
	Graph     float64
	Freshness float64
}

// DefaultWeights favors vector similarity while still rewarding
// well-connected, recently-updated nodes.
func DefaultWeights() Weights {
	return Weights{Vector: 0.6, Graph: 0.25, Freshness: 0.15}
}

// Options configures a Service.
type Options struct {
	TopK         int
	Weights      Weights
	Model        string
	Temperature  float32
	MaxTokens    int32
	SystemPrompt string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		TopK:         10,
		Weights:      DefaultWeights(),
		Temperature:  0.3,
		MaxTokens:    1024,
		SystemPrompt: defaultSystemPrompt,
	}
}

const defaultSystemPrompt = `You are a knowledge-graph-grounded research assistant.
Answer the user's question using ONLY the provided context. If the context
does not contain enough information, say so. Cite sources using [id].`

// Candidate is one ranked piece of context: a graph node enriched with its
// originating vector score (0 if it was only reached via graph expansion,
// not a direct vector hit) and the computed hybrid score.
type Candidate struct {
	ID         string
	Label      string
	Properties map[string]any
	VectorScore float32
	Score      float64
}

// Triplet is a (subject, relation, object) fact read off a projected
// subgraph's edges, used by TRIPLET_COMPLETION.
type Triplet struct {
	Subject  string
	Relation string
	Object   string
}

// Result is the outcome of a Search call.
type Result struct {
	SearchType SearchType
	Candidates []Candidate
	Triplets   []Triplet `json:",omitempty"`
	Text       string    `json:",omitempty"`
	TokensUsed int32     `json:",omitempty"`
	Model      string    `json:",omitempty"`
}
