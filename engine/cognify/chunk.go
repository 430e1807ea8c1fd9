package cognify

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/topoteretes/cognee-go/engine/datapoint"
	"github.com/topoteretes/cognee-go/engine/embed"
)

// DefaultSafetyMargin is subtracted from the embedder's max_tokens before
// chunking, leaving headroom for special tokens the embedder adds itself.
const DefaultSafetyMargin = 50

// ChunkNaive splits text into DocumentChunk DataPoints on sentence
// boundaries, grouping sentences up to the embedder's token budget.
func ChunkNaive(embedder embed.Engine, docID, text string) []*datapoint.DocumentChunk {
	return chunkUnits(embedder, docID, splitSentences(text), "sentence_end")
}

// ChunkByRow splits text into DocumentChunk DataPoints on line boundaries,
// treating each line as an atomic unit so a row is never split mid
// key-value pair.
func ChunkByRow(embedder embed.Engine, docID, text string) []*datapoint.DocumentChunk {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			rows = append(rows, line)
		}
	}
	return chunkUnits(embedder, docID, rows, "row")
}

// ChunkCode splits source text into DocumentChunk DataPoints on
// blank-line-separated blocks (functions, classes, top-level statements),
// falling back to splitting by words only when a single block alone
// exceeds the token budget.
func ChunkCode(embedder embed.Engine, docID, text string) []*datapoint.DocumentChunk {
	return chunkUnits(embedder, docID, splitBlocks(text), "code_block")
}

// chunkUnits groups units (sentences, rows, or code blocks) into chunks
// that respect the embedder's max_tokens minus DefaultSafetyMargin. A unit
// is never split across chunks unless it alone exceeds the budget, in
// which case it is hard-split by words as a last resort.
func chunkUnits(embedder embed.Engine, docID string, units []string, cutType string) []*datapoint.DocumentChunk {
	if len(units) == 0 {
		return nil
	}
	budget := embedder.MaxTokens() - DefaultSafetyMargin
	if budget <= 0 {
		budget = embedder.MaxTokens()
	}

	var chunks []*datapoint.DocumentChunk
	var buf strings.Builder
	bufTokens := 0
	index := 0

	flush := func() {
		text := strings.TrimSpace(buf.String())
		if text == "" {
			return
		}
		chunks = append(chunks, newChunk(docID, index, text, cutType))
		index++
		buf.Reset()
		bufTokens = 0
	}

	for _, unit := range units {
		tokens := embedder.CountTokens(unit)
		if tokens > budget {
			flush()
			for _, part := range hardSplit(embedder, unit, budget) {
				chunks = append(chunks, newChunk(docID, index, part, "token_limit"))
				index++
			}
			continue
		}
		if bufTokens+tokens > budget && bufTokens > 0 {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(unit)
		bufTokens += tokens
	}
	flush()
	return chunks
}

func newChunk(docID string, index int, text, cutType string) *datapoint.DocumentChunk {
	id := datapoint.NewDeterministicID(docID + ":" + strconv.Itoa(index))
	return &datapoint.DocumentChunk{
		Base:       datapoint.NewBase("DocumentChunk", id, 0),
		Text:       text,
		ChunkIndex: index,
		DocumentID: docID,
		WordCount:  len(strings.Fields(text)),
		CutType:    cutType,
	}
}

// hardSplit breaks a single oversized unit into word-bounded pieces that
// each fit the token budget, used only when one unit alone overflows it.
func hardSplit(embedder embed.Engine, unit string, budget int) []string {
	words := strings.Fields(unit)
	if len(words) == 0 {
		return nil
	}
	var parts []string
	var buf strings.Builder
	bufTokens := 0
	for _, w := range words {
		tokens := embedder.CountTokens(w)
		if bufTokens+tokens > budget && bufTokens > 0 {
			parts = append(parts, strings.TrimSpace(buf.String()))
			buf.Reset()
			bufTokens = 0
		}
		if buf.Len() > 0 {
			buf.WriteRune(' ')
		}
		buf.WriteString(w)
		bufTokens += tokens
	}
	if buf.Len() > 0 {
		parts = append(parts, strings.TrimSpace(buf.String()))
	}
	return parts
}

// splitSentences splits text into sentences using punctuation and newlines.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if r == '\n' || i == len(text)-1 || (i+1 < len(text) && unicode.IsSpace(rune(text[i+1]))) {
				s := strings.TrimSpace(current.String())
				if s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// splitBlocks splits source text on blank lines, the code analogue of
// splitSentences — one block per function/class/top-level statement.
func splitBlocks(text string) []string {
	var blocks []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if b := strings.TrimSpace(current.String()); b != "" {
				blocks = append(blocks, b)
			}
			current.Reset()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if b := strings.TrimSpace(current.String()); b != "" {
		blocks = append(blocks, b)
	}
	return blocks
}
