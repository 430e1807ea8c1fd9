package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/topoteretes/cognee-go/engine/llm"
)

// ChatClient implements engine/llm.Gateway against an OpenAI-compatible
// /v1/chat/completions endpoint (Ollama serves this alongside its native
// /api/ routes), using response_format: json_schema for structured output.
type ChatClient struct {
	baseURL string
	client  *http.Client
}

// NewChatClient creates a structured-output chat client.
func NewChatClient(baseURL string) *ChatClient {
	return &ChatClient{baseURL: baseURL, client: &http.Client{}}
}

var _ llm.Gateway = (*ChatClient)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Type       string          `json:"type"`
	JSONSchema json.RawMessage `json:"json_schema"`
}

type chatRequest struct {
	Model          string           `json:"model"`
	Messages       []chatMessage    `json:"messages"`
	Temperature    float32          `json:"temperature"`
	MaxTokens      int32            `json:"max_tokens,omitempty"`
	ResponseFormat jsonSchemaFormat `json:"response_format"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatUsage struct {
	TotalTokens int32 `json:"total_tokens"`
}

type chatResponse struct {
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// CreateStructuredOutput sends req as a single-turn chat completion
// constrained to req.ResponseSchema and returns the model's JSON answer.
func (c *ChatClient) CreateStructuredOutput(ctx context.Context, req llm.Request) (llm.Response, error) {
	var user strings.Builder
	for _, part := range req.Context {
		user.WriteString(part)
		user.WriteString("\n\n")
	}
	user.WriteString(req.UserPrompt)

	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: user.String()},
		},
		ResponseFormat: jsonSchemaFormat{
			Type:       "json_schema",
			JSONSchema: req.ResponseSchema,
		},
	})
	if err != nil {
		return llm.Response{}, fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return llm.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return llm.Response{}, fmt.Errorf("llm: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return llm.Response{}, fmt.Errorf("llm: status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return llm.Response{}, fmt.Errorf("llm: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return llm.Response{}, fmt.Errorf("llm: empty response")
	}

	return llm.Response{
		Content:    json.RawMessage(out.Choices[0].Message.Content),
		TokensUsed: out.Usage.TotalTokens,
		Model:      out.Model,
	}, nil
}
