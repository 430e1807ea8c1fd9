// Package embed defines the pluggable embedding-engine contract (the model
// any chunker or materializer measures text against). The Ollama-backed
// implementation is pkg/ollama.EmbedClient.
package embed

import "context"

// Engine is the consumed interface for turning text into vectors, and for
// measuring text against the token budget a given model enforces. Chunking
// (engine/cognify) and materialization batching (engine/materialize) both
// depend only on this, never on a concrete provider.
type Engine interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	CountTokens(text string) int
	MaxTokens() int
	Dimensions() int
}
