package datapoint

import (
	"reflect"
	"strings"
)

// Edge is a traversal edge discovered while walking a DataPoint's fields:
// a field whose value is itself a DataPoint (or a slice of DataPoints)
// constitutes an implicit edge named after the field.
type Edge struct {
	FieldName string
	Child     DataPoint
}

// Walked is the result of reflecting over one DataPoint's declared fields.
type Walked struct {
	// Properties holds scalar field values, ready to become graph node
	// properties. Base fields are not included; callers add those separately.
	Properties map[string]any
	// Edges holds every nested DataPoint value found in a field, in
	// declaration order. A slice field contributes one Edge per element,
	// all sharing FieldName.
	Edges []Edge
}

var dataPointType = reflect.TypeOf((*DataPoint)(nil)).Elem()

// Walk reflects over dp's concrete struct (skipping the embedded Base) and
// classifies each field as a scalar property or a nested-DataPoint edge.
// Unexported fields and fields tagged `cognee:"-"` are skipped.
func Walk(dp DataPoint) Walked {
	out := Walked{Properties: map[string]any{}}

	v := reflect.ValueOf(dp)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return out
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return out
	}
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Anonymous && sf.Type == reflect.TypeOf(Base{}) {
			continue
		}
		if tag := sf.Tag.Get("cognee"); tag == "-" {
			continue
		}
		fv := v.Field(i)
		name := fieldName(sf)

		if childEdges, isEdge := asEdges(name, fv); isEdge {
			out.Edges = append(out.Edges, childEdges...)
			continue
		}
		out.Properties[name] = fv.Interface()
	}
	return out
}

// asEdges reports whether fv holds one or more DataPoints, returning an Edge
// per element when it does.
func asEdges(name string, fv reflect.Value) ([]Edge, bool) {
	switch fv.Kind() {
	case reflect.Slice, reflect.Array:
		if fv.Len() == 0 {
			// Can't tell element type is DataPoint from an empty slice
			// unless the static element type says so.
			if implementsDataPoint(fv.Type().Elem()) {
				return nil, true
			}
			return nil, false
		}
		if !implementsDataPoint(fv.Type().Elem()) {
			return nil, false
		}
		edges := make([]Edge, 0, fv.Len())
		for i := 0; i < fv.Len(); i++ {
			child, ok := fv.Index(i).Interface().(DataPoint)
			if !ok {
				continue
			}
			edges = append(edges, Edge{FieldName: name, Child: child})
		}
		return edges, true
	default:
		if !implementsDataPoint(fv.Type()) {
			return nil, false
		}
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			return nil, true
		}
		child, ok := fv.Interface().(DataPoint)
		if !ok || child == nil {
			return nil, true
		}
		return []Edge{{FieldName: name, Child: child}}, true
	}
}

func implementsDataPoint(t reflect.Type) bool {
	return t.Implements(dataPointType) || reflect.PointerTo(t).Implements(dataPointType)
}

func fieldName(sf reflect.StructField) string {
	if tag := sf.Tag.Get("json"); tag != "" {
		return strings.SplitN(tag, ",", 2)[0]
	}
	return sf.Name
}

// EmbeddableText joins the values of dp's declared index_fields with a
// separator, producing the text that gets passed to the embedder.
func EmbeddableText(dp DataPoint, separator string) string {
	fields := IndexFieldsFor(dp)
	if len(fields) == 0 {
		return ""
	}
	walked := Walk(dp)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v, ok := walked.Properties[f]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, separator)
}
