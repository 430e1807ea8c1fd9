package datapoint

// DocumentChunk is a window of a source document's text, sized to the
// embedder's token budget.
type DocumentChunk struct {
	Base
	Text        string `json:"text"`
	ChunkIndex  int    `json:"chunk_index"`
	DocumentID  string `json:"document_id"`
	WordCount   int    `json:"word_count"`
	CutType     string `json:"cut_type"` // sentence_end | row | code_block | token_limit
}

// EntityType is the parent classification node an Entity belongs to, e.g.
// "Person" or "Location".
type EntityType struct {
	Base
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Entity is an extracted named thing, normalized against an EntityType.
type Entity struct {
	Base
	Name        string      `json:"name"`
	Description string      `json:"description"`
	IsA         *EntityType `json:"is_a,omitempty"`
}

// Summary is a per-chunk condensation produced by the summarization task.
type Summary struct {
	Base
	Text           string         `json:"text"`
	MadeFrom       *DocumentChunk `json:"made_from,omitempty"`
}

// CodePart is a parsed unit of source code (function, class, or module).
type CodePart struct {
	Base
	Name     string `json:"name"`
	Language string `json:"language"`
	Body     string `json:"body"`
}

// SourceCodeChunk is a token-budgeted window over a source file, the code
// analogue of DocumentChunk.
type SourceCodeChunk struct {
	Base
	Text       string `json:"text"`
	FilePath   string `json:"file_path"`
	ChunkIndex int    `json:"chunk_index"`
}

// NodeSet is a named tag DataPoints can belong to, used for coarse
// retrieval filtering and as a deletion unit at prune time.
type NodeSet struct {
	Base
	Name string `json:"name"`
}

func init() {
	Register("DocumentChunk", []string{"text"}, func() DataPoint { return &DocumentChunk{} })
	Register("EntityType", []string{"name"}, func() DataPoint { return &EntityType{} })
	Register("Entity", []string{"name", "description"}, func() DataPoint { return &Entity{} })
	Register("Summary", []string{"text"}, func() DataPoint { return &Summary{} })
	Register("CodePart", []string{"name"}, func() DataPoint { return &CodePart{} })
	Register("SourceCodeChunk", []string{"text"}, func() DataPoint { return &SourceCodeChunk{} })
	Register("NodeSet", nil, func() DataPoint { return &NodeSet{} })
}
