package reflection

import (
	"math"
	"reflect"

	"github.com/aretw0/souvenir/pkg/domain"
)

// FieldInfo reads a field of type T.
type FieldInfo[T any] struct {
	core[T]
}

// Field resolves the field name on the type of target and binds the accessor to it.
func Field[T any](target any, name string) (*FieldInfo[T], error) {
	t, err := typeOfTarget(target, name)
	if err != nil {
		return nil, err
	}
	f, err := FieldOf[T](t, name)
	if err != nil {
		return nil, err
	}
	f.target = target
	return f, nil
}

// FieldOf resolves the field name on t without binding a target.
func FieldOf[T any](t reflect.Type, name string) (*FieldInfo[T], error) {
	owner, err := ownerType(t, name)
	if err != nil {
		return nil, err
	}
	want := reflect.TypeFor[T]()
	h, err := cached(cacheKey{kind: kindField, owner: owner, name: name, want: want}, func() (*handle, error) {
		return resolveField(owner, name, want, func(typ reflect.Type) bool { return compatible(typ, want) })
	})
	if err != nil {
		return nil, err
	}
	return &FieldInfo[T]{core[T]{h: h}}, nil
}

// AllowNil returns a copy of the accessor that accepts nil values.
func (f *FieldInfo[T]) AllowNil() *FieldInfo[T] {
	c := *f
	c.allowNil = true
	return &c
}

// Get reads the field from the bound target.
func (f *FieldInfo[T]) Get(validators ...Validator[T]) (T, error) {
	obj, err := f.bound()
	if err != nil {
		var zero T
		return zero, err
	}
	return f.GetFrom(obj, validators...)
}

// GetFrom reads the field from obj, which must be of the resolved type.
func (f *FieldInfo[T]) GetFrom(obj any, validators ...Validator[T]) (T, error) {
	var zero T
	v, ok, err := f.fetch(obj)
	if err != nil || !ok {
		return zero, err
	}
	out, err := convert[T](f.h.label, v)
	if err != nil {
		return zero, err
	}
	if err := check(f.h.label, out, validators); err != nil {
		return zero, err
	}
	return out, nil
}

// IntFieldInfo reads a field of any integer kind as an int.
type IntFieldInfo struct {
	core[int]
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

// IntField resolves an integer field on the type of target.
func IntField(target any, name string) (*IntFieldInfo, error) {
	t, err := typeOfTarget(target, name)
	if err != nil {
		return nil, err
	}
	owner, _ := ownerType(t, name)
	want := reflect.TypeFor[int]()
	h, err := cached(cacheKey{kind: kindField, owner: owner, name: name, want: want, arity: -1}, func() (*handle, error) {
		return resolveField(owner, name, want, func(typ reflect.Type) bool { return isInteger(typ.Kind()) })
	})
	if err != nil {
		return nil, err
	}
	return &IntFieldInfo{core[int]{h: h, target: target}}, nil
}

// Get reads the field from the bound target.
func (f *IntFieldInfo) Get(validators ...Validator[int]) (int, error) {
	obj, err := f.bound()
	if err != nil {
		return 0, err
	}
	return f.GetFrom(obj, validators...)
}

// GetInRange reads the field and requires lo <= value <= hi.
func (f *IntFieldInfo) GetInRange(lo, hi int) (int, error) {
	return f.Get(InRange(lo, hi))
}

// GetFrom reads the field from obj.
func (f *IntFieldInfo) GetFrom(obj any, validators ...Validator[int]) (int, error) {
	v, _, err := f.fetch(obj)
	if err != nil {
		return 0, err
	}
	var n int
	if v.CanInt() {
		n = int(v.Int())
	} else {
		u := v.Uint()
		if u > math.MaxInt {
			return 0, domain.Abandon("%s with value %d does not fit in an int.", f.h.label, u)
		}
		n = int(u)
	}
	if err := check(f.h.label, n, validators); err != nil {
		return 0, err
	}
	return n, nil
}

// ArrayFieldInfo reads a fixed-size array or slice field as a []E.
type ArrayFieldInfo[E any] struct {
	core[[]E]
	nilElems bool
}

// ArrayField resolves an array or slice field whose elements are assignable to E.
func ArrayField[E any](target any, name string) (*ArrayFieldInfo[E], error) {
	h, err := sequenceHandle[E](target, name, true)
	if err != nil {
		return nil, err
	}
	return &ArrayFieldInfo[E]{core: core[[]E]{h: h, target: target}}, nil
}

// AllowNil returns a copy that accepts a nil slice.
func (a *ArrayFieldInfo[E]) AllowNil() *ArrayFieldInfo[E] {
	c := *a
	c.allowNil = true
	return &c
}

// AllowNilElements returns a copy that accepts nil elements.
func (a *ArrayFieldInfo[E]) AllowNilElements() *ArrayFieldInfo[E] {
	c := *a
	c.nilElems = true
	return &c
}

// Get reads the array from the bound target. A negative expectedLength
// accepts any length; validators are applied to every element.
func (a *ArrayFieldInfo[E]) Get(expectedLength int, validators ...Validator[E]) ([]E, error) {
	obj, err := a.bound()
	if err != nil {
		return nil, err
	}
	return a.GetFrom(obj, expectedLength, validators...)
}

// GetFrom reads the array from obj.
func (a *ArrayFieldInfo[E]) GetFrom(obj any, expectedLength int, validators ...Validator[E]) ([]E, error) {
	v, ok, err := a.fetch(obj)
	if err != nil || !ok {
		return nil, err
	}
	if expectedLength >= 0 && v.Len() != expectedLength {
		return nil, domain.Abandon("%s has unexpected length %d (expected %d): %s", a.h.label, v.Len(), expectedLength, stringifyValue(v))
	}
	return elements(a.h.label, v, a.nilElems, validators)
}

// ListFieldInfo reads a slice field with bounds on its length.
type ListFieldInfo[E any] struct {
	core[[]E]
	nilElems bool
}

// ListField resolves a slice field whose elements are assignable to E.
func ListField[E any](target any, name string) (*ListFieldInfo[E], error) {
	h, err := sequenceHandle[E](target, name, false)
	if err != nil {
		return nil, err
	}
	return &ListFieldInfo[E]{core: core[[]E]{h: h, target: target}}, nil
}

// AllowNil returns a copy that accepts a nil slice.
func (l *ListFieldInfo[E]) AllowNil() *ListFieldInfo[E] {
	c := *l
	c.allowNil = true
	return &c
}

// AllowNilElements returns a copy that accepts nil elements.
func (l *ListFieldInfo[E]) AllowNilElements() *ListFieldInfo[E] {
	c := *l
	c.nilElems = true
	return &c
}

// Get reads the list from the bound target. A negative maxLength means no upper bound.
func (l *ListFieldInfo[E]) Get(minLength, maxLength int, validators ...Validator[E]) ([]E, error) {
	obj, err := l.bound()
	if err != nil {
		return nil, err
	}
	return l.GetFrom(obj, minLength, maxLength, validators...)
}

// GetFrom reads the list from obj.
func (l *ListFieldInfo[E]) GetFrom(obj any, minLength, maxLength int, validators ...Validator[E]) ([]E, error) {
	v, ok, err := l.fetch(obj)
	if err != nil || !ok {
		return nil, err
	}
	if n := v.Len(); n < minLength || maxLength >= 0 && n > maxLength {
		if maxLength < 0 {
			return nil, domain.Abandon("%s has length %d (expected at least %d): %s", l.h.label, n, minLength, stringifyValue(v))
		}
		return nil, domain.Abandon("%s has length %d (expected %d to %d): %s", l.h.label, n, minLength, maxLength, stringifyValue(v))
	}
	return elements(l.h.label, v, l.nilElems, validators)
}

func sequenceHandle[E any](target any, name string, arrays bool) (*handle, error) {
	t, err := typeOfTarget(target, name)
	if err != nil {
		return nil, err
	}
	owner, _ := ownerType(t, name)
	elem := reflect.TypeFor[E]()
	want := reflect.SliceOf(elem)
	// Distinguishes the cache entries from Field[[]E].
	arity := 2
	if arrays {
		arity = 1
	}
	return cached(cacheKey{kind: kindField, owner: owner, name: name, want: want, arity: arity}, func() (*handle, error) {
		return resolveField(owner, name, want, func(typ reflect.Type) bool {
			if typ.Kind() != reflect.Slice && !(arrays && typ.Kind() == reflect.Array) {
				return false
			}
			return compatible(typ.Elem(), elem)
		})
	})
}

func elements[E any](label string, v reflect.Value, nilElems bool, validators []Validator[E]) ([]E, error) {
	out := make([]E, v.Len())
	for i := range out {
		ev := v.Index(i)
		if isNil(ev) {
			if !nilElems {
				return nil, domain.Abandon("%s contains a null element at index %d: %s", label, i, stringifyValue(v))
			}
			continue
		}
		e, err := convert[E](label, ev)
		if err != nil {
			return nil, err
		}
		if err := check(label, e, validators); err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}
