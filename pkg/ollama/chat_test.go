package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/topoteretes/cognee-go/engine/llm"
)

func TestChatClient_CreateStructuredOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "llama3",
			"choices": [{"message": {"role": "assistant", "content": "{\"entities\":[]}"}}],
			"usage": {"total_tokens": 42}
		}`))
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL)
	resp, err := c.CreateStructuredOutput(context.Background(), llm.Request{
		SystemPrompt:   "extract entities",
		UserPrompt:     "Alice works at Acme.",
		ResponseSchema: []byte(`{"type":"object"}`),
		Model:          "llama3",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"entities":[]}`, string(resp.Content))
	assert.Equal(t, int32(42), resp.TokensUsed)
	assert.Equal(t, "llama3", resp.Model)
}

func TestChatClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL)
	_, err := c.CreateStructuredOutput(context.Background(), llm.Request{})
	assert.Error(t, err)
}
