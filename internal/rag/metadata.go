package rag

import (
	"fmt"
	"reflect"
	"strings"
)

// CoerceMetadataValue converts v into a value the vector index accepts as
// metadata. Strings, numbers, booleans and nil pass through unchanged;
// slices and arrays are joined with ", "; anything else becomes its string
// form. It never fails.
func CoerceMetadataValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t
	case []string:
		return strings.Join(t, ", ")
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(rv.Index(i).Interface())
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// NewMetadata builds a Metadata record from raw values, coercing each one.
func NewMetadata(raw map[string]any) Metadata {
	m := make(Metadata, len(raw))
	for k, v := range raw {
		m[k] = CoerceMetadataValue(v)
	}
	return m
}
