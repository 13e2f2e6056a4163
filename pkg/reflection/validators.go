package reflection

import (
	"cmp"
	"fmt"
	"slices"
)

// Validator checks a value read by an accessor. It returns a description of
// the problem, or the empty string if the value is acceptable.
type Validator[T any] func(T) string

// InRange accepts values between lo and hi inclusive.
func InRange[T cmp.Ordered](lo, hi T) Validator[T] {
	return func(v T) string {
		if v < lo || v > hi {
			return fmt.Sprintf("expected between %v and %v", lo, hi)
		}
		return ""
	}
}

// OneOf accepts only the listed values.
func OneOf[T comparable](allowed ...T) Validator[T] {
	return func(v T) string {
		if !slices.Contains(allowed, v) {
			return fmt.Sprintf("expected one of %s", Stringify(allowed))
		}
		return ""
	}
}

// NotEmpty rejects empty slices.
func NotEmpty[E any]() Validator[[]E] {
	return func(v []E) string {
		if len(v) == 0 {
			return "expected at least one element"
		}
		return ""
	}
}

// Each applies check to every element and reports the first failure.
func Each[E any](check Validator[E]) Validator[[]E] {
	return func(v []E) string {
		for i, e := range v {
			if msg := check(e); msg != "" {
				return fmt.Sprintf("element %d (%s): %s", i, Stringify(e), msg)
			}
		}
		return ""
	}
}
