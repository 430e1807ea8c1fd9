package cognify

import (
	"strings"

	"github.com/topoteretes/cognee-go/engine/datapoint"
)

// OntologyResolver collapses synonymous entity/type mentions onto one
// canonical label before ids are minted, adapted from the teacher's
// vehicle-make alias table: a normalized-label lookup with an optional
// alias override, generalized from vehicle makes to arbitrary entity
// labels. A nil *OntologyResolver is valid and normalizes without aliasing.
type OntologyResolver struct {
	// Aliases maps a normalized label (lowercased, whitespace-collapsed) to
	// the canonical label it should resolve to, e.g. "nyc" -> "New York City".
	Aliases map[string]string
}

// NewOntologyResolver creates a resolver with the given alias table.
func NewOntologyResolver(aliases map[string]string) *OntologyResolver {
	return &OntologyResolver{Aliases: aliases}
}

// NormalizeLabel lowercases and collapses whitespace, matching the
// normalization the reference implementation hashes for deterministic
// entity ids.
func NormalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// Canonical resolves label to its canonical form: alias lookup first, then
// plain normalization.
func (r *OntologyResolver) Canonical(label string) string {
	norm := NormalizeLabel(label)
	if r == nil || r.Aliases == nil {
		return norm
	}
	if canon, ok := r.Aliases[norm]; ok {
		return NormalizeLabel(canon)
	}
	return norm
}

// EntityID derives the deterministic id two differently-spelled mentions
// of the same canonical entity will share, merging them at materialization
// time.
func (r *OntologyResolver) EntityID(label string) string {
	return datapoint.NewDeterministicID("Entity:" + r.Canonical(label))
}

// EntityTypeID derives the deterministic id for an entity type label.
func (r *OntologyResolver) EntityTypeID(typeName string) string {
	return datapoint.NewDeterministicID("EntityType:" + r.Canonical(typeName))
}
