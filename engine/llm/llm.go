// Package llm defines the structured-output LLM gateway contract consumed
// by engine/cognify's graph extraction and summarization stages and by
// engine/retrieval's completion searches.
package llm

import (
	"context"
	"encoding/json"
)

// Request is one structured-completion call. ResponseSchema is a JSON
// Schema document the model is constrained to answer within (JSON mode);
// Context holds retrieved passages the prompt is grounded on.
type Request struct {
	SystemPrompt   string
	UserPrompt     string
	Context        []string
	ResponseSchema json.RawMessage
	Model          string
	Temperature    float32
	MaxTokens      int32
}

// Response is the model's answer, already constrained to ResponseSchema's shape.
type Response struct {
	Content    json.RawMessage
	TokensUsed int32
	Model      string
}

// Gateway is the consumed interface for structured LLM calls — the Go
// analogue of acreate_structured_output. engine/cognify and engine/retrieval
// are its callers; callers must not depend on a concrete provider.
type Gateway interface {
	CreateStructuredOutput(ctx context.Context, req Request) (Response, error)
}
