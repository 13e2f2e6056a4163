package reflection

import (
	"reflect"

	"github.com/aretw0/souvenir/pkg/domain"
)

// core holds what every accessor shares: the resolved member, an optional
// bound target and the nil policy.
type core[T any] struct {
	h        *handle
	target   any
	allowNil bool
}

// Label describes the member for diagnostics, e.g. "Field wires.Module.cut".
func (c *core[T]) Label() string { return c.h.label }

// Owner is the struct type the member was resolved on.
func (c *core[T]) Owner() reflect.Type { return c.h.owner }

func (c *core[T]) bound() (any, error) {
	if c.target == nil {
		return nil, domain.Abandon("%s has no bound object; use GetFrom.", c.h.label)
	}
	return c.target, nil
}

// fetch reads the raw value and applies the nil policy. ok is false when the
// value is nil and nil is allowed.
func (c *core[T]) fetch(obj any, args ...reflect.Value) (v reflect.Value, ok bool, err error) {
	v, err = c.h.read(obj, args...)
	if err != nil {
		return reflect.Value{}, false, err
	}
	if !v.IsValid() || isNil(v) {
		if c.allowNil || !v.IsValid() {
			return reflect.Value{}, false, nil
		}
		return reflect.Value{}, false, domain.Abandon("%s is null.", c.h.label)
	}
	return v, true, nil
}

func check[T any](label string, value T, validators []Validator[T]) error {
	for _, validate := range validators {
		if validate == nil {
			continue
		}
		if msg := validate(value); msg != "" {
			return domain.Abandon("%s with value %s did not pass validity check: %s.", label, Stringify(value), msg)
		}
	}
	return nil
}

// compatible reports whether values declared as typ can be delivered as want.
// Interface-typed members are checked again at read time.
func compatible(typ, want reflect.Type) bool {
	if typ.AssignableTo(want) {
		return true
	}
	return typ.Kind() == reflect.Interface && (want.Kind() == reflect.Interface || want.Implements(typ))
}

func convert[T any](label string, v reflect.Value) (T, error) {
	var out T
	want := reflect.TypeFor[T]()
	if !v.Type().AssignableTo(want) && v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.Type().AssignableTo(want) {
		return out, domain.Abandon("%s holds a value of type %s but expected type %s.", label, v.Type(), want)
	}
	reflect.ValueOf(&out).Elem().Set(v)
	return out, nil
}
