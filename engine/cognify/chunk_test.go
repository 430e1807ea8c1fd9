package cognify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	maxTokens int
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{0}, nil
}
func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}
func (f *fakeEmbedder) CountTokens(text string) int { return len(strings.Fields(text)) }
func (f *fakeEmbedder) MaxTokens() int              { return f.maxTokens }
func (f *fakeEmbedder) Dimensions() int              { return 4 }

func TestChunkNaive_RespectsTokenBudget(t *testing.T) {
	emb := &fakeEmbedder{maxTokens: 60}
	text := strings.Repeat("one two three four five. ", 10)

	chunks := ChunkNaive(emb, "doc-1", text)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, emb.CountTokens(c.Text), emb.MaxTokens())
		assert.Equal(t, "doc-1", c.DocumentID)
	}
}

func TestChunkNaive_DeterministicIDs(t *testing.T) {
	emb := &fakeEmbedder{maxTokens: 1000}
	text := "Alice met Bob in Paris."

	a := ChunkNaive(emb, "doc-1", text)
	b := ChunkNaive(emb, "doc-1", text)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].ID, b[0].ID)
}

func TestChunkByRow_NeverSplitsARowMidway(t *testing.T) {
	emb := &fakeEmbedder{maxTokens: 3}
	text := "key1: value one two\nkey2: value three four\n"

	chunks := ChunkByRow(emb, "doc-2", text)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		for _, line := range strings.Split(text, "\n") {
			if line == "" {
				continue
			}
			if strings.Contains(c.Text, strings.SplitN(line, ":", 2)[0]) {
				assert.Contains(t, c.Text, line)
			}
		}
	}
}

func TestChunkCode_GroupsBlankLineSeparatedBlocksWithinBudget(t *testing.T) {
	emb := &fakeEmbedder{maxTokens: 1000}
	text := "func a() {}\n\nfunc b() {}\n"

	chunks := ChunkCode(emb, "doc-3", text)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "func a()")
	assert.Contains(t, chunks[0].Text, "func b()")
}

func TestChunkUnits_HardSplitsOversizedUnit(t *testing.T) {
	emb := &fakeEmbedder{maxTokens: 5}
	text := strings.Repeat("word ", 20)

	chunks := ChunkNaive(emb, "doc-4", text)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, emb.CountTokens(c.Text), emb.MaxTokens())
	}
}
