package datapoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalk_SeparatesScalarsAndEdges(t *testing.T) {
	et := &EntityType{Base: Base{ID: "t1"}, Name: "Person"}
	e := &Entity{Base: Base{ID: "e1"}, Name: "Alice", Description: "a person", IsA: et}

	w := Walk(e)

	assert.Equal(t, "Alice", w.Properties["name"])
	assert.Equal(t, "a person", w.Properties["description"])
	_, hasBase := w.Properties["id"]
	assert.False(t, hasBase, "Base fields must not leak into Properties")

	if assert.Len(t, w.Edges, 1) {
		assert.Equal(t, "is_a", w.Edges[0].FieldName)
		assert.Same(t, et, w.Edges[0].Child)
	}
}

func TestEmbeddableText_JoinsIndexFields(t *testing.T) {
	e := &Entity{Base: Base{ID: "e1"}, Name: "Alice", Description: "a person"}
	text := EmbeddableText(e, " ")
	assert.Equal(t, "Alice a person", text)
}

func TestEmbeddableText_SkipsEmptyValues(t *testing.T) {
	e := &Entity{Base: Base{ID: "e1"}, Name: "Alice"}
	text := EmbeddableText(e, " ")
	assert.Equal(t, "Alice", text)
}

func TestNewDeterministicID_IsStable(t *testing.T) {
	a := NewDeterministicID("doc-1:0")
	b := NewDeterministicID("doc-1:0")
	c := NewDeterministicID("doc-1:1")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
