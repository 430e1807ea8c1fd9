package cognify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/topoteretes/cognee-go/engine/datapoint"
	"github.com/topoteretes/cognee-go/engine/llm"
	"github.com/topoteretes/cognee-go/pkg/fn"
)

type summaryResponse struct {
	Text string `json:"text"`
}

var summarySchema = json.RawMessage(`{
	"type": "object",
	"properties": {"text": {"type": "string"}},
	"required": ["text"]
}`)

const summarizeSystemPrompt = `Summarize the passage in two or three sentences. Respond only with JSON matching the given schema.`

// Summarize produces a per-chunk Summary DataPoint via the LLM gateway,
// retried per retryOpts on transient failure. A persistent failure drops
// the chunk's summary rather than the whole run.
//
// The call is expressed as a small Stage pipeline: a MapStage extracts the
// chunk's prompt text, Then feeds it into a RetryStage-wrapped gateway
// call, and TracedStage gives the composed step its own span.
func Summarize(ctx context.Context, gateway llm.Gateway, chunk *datapoint.DocumentChunk, retryOpts fn.RetryOpts, now int64) (*datapoint.Summary, error) {
	promptFor := fn.MapStage(func(c *datapoint.DocumentChunk) string { return c.Text })

	callLLM := fn.Stage[string, llm.Response](func(ctx context.Context, userPrompt string) fn.Result[llm.Response] {
		resp, err := gateway.CreateStructuredOutput(ctx, llm.Request{
			SystemPrompt:   summarizeSystemPrompt,
			UserPrompt:     userPrompt,
			ResponseSchema: summarySchema,
		})
		if err != nil {
			return fn.Err[llm.Response](err)
		}
		return fn.Ok(resp)
	})

	stage := fn.TracedStage("cognify.summarize", fn.Then(promptFor, fn.RetryStage(retryOpts, callLLM)))

	result := stage(ctx, chunk)
	if result.IsErr() {
		_, err := result.Unwrap()
		return nil, fmt.Errorf("cognify: summarization: %w", err)
	}
	resp, _ := result.Unwrap()

	var parsed summaryResponse
	if err := json.Unmarshal(resp.Content, &parsed); err != nil {
		return nil, fmt.Errorf("cognify: summarization: schema validation failed: %w", err)
	}

	id := datapoint.NewDeterministicID("Summary:" + chunk.ID)
	return &datapoint.Summary{
		Base:     datapoint.NewBase("Summary", id, now),
		Text:     parsed.Text,
		MadeFrom: chunk,
	}, nil
}
