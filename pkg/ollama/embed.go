// Package ollama provides an Ollama-backed implementation of engine/embed.Engine.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkoukk/tiktoken-go"
	"github.com/topoteretes/cognee-go/engine/embed"
	"golang.org/x/time/rate"
)

var _ embed.Engine = (*EmbedClient)(nil)

// EmbedClient is an Ollama HTTP embedding backend implementing
// engine/embed.Engine.
type EmbedClient struct {
	baseURL   string
	model     string
	client    *http.Client
	dims      int
	maxTokens int
	enc       *tiktoken.Tiktoken
	limiter   *rate.Limiter
}

// defaultEmbedRPS caps requests to a locally-hosted Ollama daemon;
// generous enough not to throttle normal batches, low enough to protect
// a single-GPU daemon from a runaway caller.
const defaultEmbedRPS = 20

// NewEmbedClient creates an Ollama embedding client. dims and maxTokens
// describe model, not wire, limits — Ollama doesn't report either, so the
// caller supplies what the chosen model actually promises.
func NewEmbedClient(baseURL, model string, dims, maxTokens int) (*EmbedClient, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("ollama: load tokenizer: %w", err)
	}
	return &EmbedClient{
		baseURL:   baseURL,
		model:     model,
		client:    &http.Client{},
		dims:      dims,
		maxTokens: maxTokens,
		enc:       enc,
		limiter:   rate.NewLimiter(rate.Limit(defaultEmbedRPS), defaultEmbedRPS),
	}, nil
}

// SetRateLimit overrides the client's outbound request rate (requests per
// second and burst size).
func (c *EmbedClient) SetRateLimit(rps float64, burst int) {
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

type ollamaEmbedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResp struct {
	Embedding []float64 `json:"embedding"`
}

func (c *EmbedClient) embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ollama embed: rate limit: %w", err)
	}

	body, _ := json.Marshal(ollamaEmbedReq{Model: c.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("ollama embed: status %d", resp.StatusCode)
	}

	var result ollamaEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}

	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}

// EmbedText embeds a single string.
func (c *EmbedClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text)
}

// EmbedBatch embeds each text in order, failing the whole batch on the first error.
func (c *EmbedClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vals, err := c.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("ollama embed batch [%d]: %w", i, err)
		}
		out[i] = vals
	}
	return out, nil
}

// CountTokens returns the cl100k_base token count of text, used by chunkers
// to stay under MaxTokens without a round-trip to the model.
func (c *EmbedClient) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// MaxTokens is the input token budget the configured model enforces.
func (c *EmbedClient) MaxTokens() int {
	return c.maxTokens
}

// Dimensions is the vector width the configured model produces.
func (c *EmbedClient) Dimensions() int {
	return c.dims
}
