package reflection

import (
	"fmt"
	"reflect"
	"strings"
)

// NullMarker is how Stringify renders nil.
const NullMarker = "<null>"

// Stringify renders a value for diagnostics: nil as NullMarker, slices and
// arrays as a bracketed comma-joined list, anything else quoted.
func Stringify(value any) string {
	if value == nil {
		return NullMarker
	}
	return stringifyValue(reflect.ValueOf(value))
}

func stringifyValue(v reflect.Value) string {
	if !v.IsValid() || isNil(v) {
		return NullMarker
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = stringifyValue(v.Index(i))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Interface:
		return stringifyValue(v.Elem())
	}
	if !v.CanInterface() {
		return fmt.Sprintf("“%v”", v)
	}
	return fmt.Sprintf("“%v”", v.Interface())
}

// isNil also reports an interface holding a typed nil, such as an any
// holding (*int)(nil).
func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface:
		return v.IsNil() || isNil(v.Elem())
	case reflect.Chan, reflect.Func, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}
