package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedClient_Dimensions_MaxTokens(t *testing.T) {
	c, err := NewEmbedClient("http://localhost:11434", "nomic-embed-text", 768, 8192)
	require.NoError(t, err)
	assert.Equal(t, 768, c.Dimensions())
	assert.Equal(t, 8192, c.MaxTokens())
}

func TestEmbedClient_CountTokens(t *testing.T) {
	c, err := NewEmbedClient("http://localhost:11434", "nomic-embed-text", 768, 8192)
	require.NoError(t, err)
	assert.Greater(t, c.CountTokens("hello world"), 0)
	assert.Equal(t, 0, c.CountTokens(""))
}

func TestEmbedClient_EmbedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding": [0.1, 0.2, 0.3]}`))
	}))
	defer srv.Close()

	c, err := NewEmbedClient(srv.URL, "nomic-embed-text", 3, 8192)
	require.NoError(t, err)

	vec, err := c.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedClient_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding": [1, 2]}`))
	}))
	defer srv.Close()

	c, err := NewEmbedClient(srv.URL, "nomic-embed-text", 2, 8192)
	require.NoError(t, err)

	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 2}, vecs[0])
}
