// Package datapoint implements the typed, self-describing record unit that
// is materialized into both the graph store and the vector store. Concrete
// record kinds (DocumentChunk, Entity, ...) embed Base and register
// themselves in the type registry; the runtime never needs per-class code
// to enumerate fields, index hints, or nested edges.
package datapoint

import "github.com/google/uuid"

// Base carries the fields every DataPoint subclass shares: identity,
// versioning, ownership, and provenance. Concrete types embed Base as their
// first field.
type Base struct {
	ID             string  `json:"id"`
	TypeName       string  `json:"type"`
	Version        int     `json:"version"`
	CreatedAt      int64   `json:"created_at"`
	UpdatedAt      int64   `json:"updated_at"`
	BelongsToSet   *string `json:"belongs_to_set,omitempty"`
	SourcePipeline *string `json:"source_pipeline,omitempty"`
	SourceTask     *string `json:"source_task,omitempty"`
}

// DataPoint is implemented by every concrete record kind via an embedded
// Base pointer receiver.
type DataPoint interface {
	Meta() *Base
}

// Meta returns the embedded Base, satisfying DataPoint for any type that
// embeds Base directly.
func (b *Base) Meta() *Base { return b }

// NewBase fills in identity and timestamp fields for a freshly created
// DataPoint. typeName must match the tag passed to Register for this type.
func NewBase(typeName, id string, nowMillis int64) Base {
	return Base{
		ID:        id,
		TypeName:  typeName,
		Version:   1,
		CreatedAt: nowMillis,
		UpdatedAt: nowMillis,
	}
}

// NewDeterministicID derives a stable v5 UUID from a canonical key, matching
// the reference implementation's uuid5(NAMESPACE_OID, canonical_key).
// Two calls with the same key always produce the same id.
func NewDeterministicID(canonicalKey string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(canonicalKey)).String()
}

// NewRandomID mints a v4 UUID for DataPoints with no natural deterministic key.
func NewRandomID() string {
	return uuid.New().String()
}
