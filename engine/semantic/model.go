// Package semantic is the collection-scoped vector index (C2): nearest-
// neighbor upsert/search/delete, backed by Qdrant. Collections are named
// "<Subclass>_<field_name>" per the persisted-state layout; embedding is
// produced by the caller via engine/embed and passed in on every item.
package semantic

// Distance is the similarity metric a collection is created with.
type Distance int

const (
	DistanceCosine Distance = iota
	DistanceDot
	DistanceEuclid
)

// Item is one vector to upsert: a stable id, its embedding, and an opaque
// payload carried alongside for filtering and display.
type Item struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// SearchResult is one hit from a similarity search, ordered by Score desc.
type SearchResult struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Filter is an exact-match metadata predicate, ANDed across all pairs.
type Filter map[string]string
