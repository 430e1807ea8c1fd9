package cognify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLabel_LowercasesAndCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "new york city", NormalizeLabel("  New   York\tCity  "))
}

func TestOntologyResolver_CanonicalUsesAliasTable(t *testing.T) {
	r := NewOntologyResolver(map[string]string{"nyc": "New York City"})
	assert.Equal(t, "new york city", r.Canonical("NYC"))
	assert.Equal(t, "paris", r.Canonical("Paris"))
}

func TestOntologyResolver_SynonymsCollapseToSameID(t *testing.T) {
	r := NewOntologyResolver(map[string]string{"big apple": "New York City"})
	idA := r.EntityID("New York City")
	idB := r.EntityID("big apple")
	assert.Equal(t, idA, idB)
}

func TestOntologyResolver_NilIsSafe(t *testing.T) {
	var r *OntologyResolver
	assert.Equal(t, "paris", r.Canonical("Paris"))
	assert.NotEmpty(t, r.EntityID("Paris"))
}
