package datapoint

import "reflect"

// StampProvenance walks data (a DataPoint, or a slice/array of them, or any
// value containing such) and, for every reachable DataPoint whose
// source_pipeline/source_task are unset, stamps them with pipelineName and
// taskName. Already-set fields are never overwritten (invariant: provenance
// monotonicity). A visited set keyed by pointer identity — not by DataPoint
// id — stops traversal from looping on cyclic structures, mirroring the
// reference implementation's use of Python's id().
func StampProvenance(data any, pipelineName, taskName string) {
	stampProvenance(reflect.ValueOf(data), pipelineName, taskName, map[uintptr]bool{})
}

func stampProvenance(v reflect.Value, pipelineName, taskName string, visited map[uintptr]bool) {
	if !v.IsValid() {
		return
	}

	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}

	if dp, ok := asDataPoint(v); ok {
		ptr := pointerIdentity(v)
		if ptr != 0 {
			if visited[ptr] {
				return
			}
			visited[ptr] = true
		}

		meta := dp.Meta()
		if meta.SourcePipeline == nil {
			meta.SourcePipeline = &pipelineName
		}
		if meta.SourceTask == nil {
			meta.SourceTask = &taskName
		}

		walked := Walk(dp)
		for _, edge := range walked.Edges {
			stampProvenance(reflect.ValueOf(edge.Child), pipelineName, taskName, visited)
		}
		return
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			stampProvenance(v.Index(i), pipelineName, taskName, visited)
		}
	case reflect.Pointer:
		if !v.IsNil() {
			stampProvenance(v.Elem(), pipelineName, taskName, visited)
		}
	case reflect.Struct:
		// Task outputs are often ad-hoc wrapper structs (not DataPoints
		// themselves) carrying one or more DataPoint-bearing fields; walk
		// every exported field so provenance reaches them too.
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			stampProvenance(v.Field(i), pipelineName, taskName, visited)
		}
	}
}

// asDataPoint reports whether v (or &v) implements DataPoint.
func asDataPoint(v reflect.Value) (DataPoint, bool) {
	if !v.IsValid() {
		return nil, false
	}
	if v.CanInterface() {
		if dp, ok := v.Interface().(DataPoint); ok {
			return dp, true
		}
	}
	if v.CanAddr() {
		if dp, ok := v.Addr().Interface().(DataPoint); ok {
			return dp, true
		}
	}
	return nil, false
}

// pointerIdentity returns the address backing v when v is itself a pointer
// or is addressable, or 0 when neither holds (e.g. a non-addressable value
// type passed by value, which cannot recur into a cycle).
func pointerIdentity(v reflect.Value) uintptr {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0
		}
		return v.Pointer()
	}
	if v.CanAddr() {
		return v.Addr().Pointer()
	}
	return 0
}
