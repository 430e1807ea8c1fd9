package datapoint

import (
	"fmt"
	"sync"
)

// Schema is the registry entry for one concrete DataPoint subclass: its tag
// (the "type" label carried on every node), the ordered field names to embed
// into the vector store, and a factory so generic code can instantiate a
// zero value when decoding.
type Schema struct {
	Tag         string
	IndexFields []string
	New         func() DataPoint
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Schema{}
)

// Register adds a concrete subclass to the central registry. Call it once
// per type, typically from an init() in the file that declares the type.
func Register(tag string, indexFields []string, factory func() DataPoint) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[tag] = Schema{Tag: tag, IndexFields: indexFields, New: factory}
}

// Lookup returns the schema registered for tag.
func Lookup(tag string) (Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[tag]
	return s, ok
}

// MustLookup panics if tag was never registered; used where the caller
// already controls the set of types in play (e.g. decoding a closure the
// process itself produced).
func MustLookup(tag string) Schema {
	s, ok := Lookup(tag)
	if !ok {
		panic(fmt.Sprintf("datapoint: no schema registered for type %q", tag))
	}
	return s
}

// IndexFieldsFor returns the index_fields declared for a DataPoint's type.
func IndexFieldsFor(dp DataPoint) []string {
	s, ok := Lookup(dp.Meta().TypeName)
	if !ok {
		return nil
	}
	return s.IndexFields
}
