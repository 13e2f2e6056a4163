package reflection

import (
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/souvenir/pkg/domain"
)

// MethodInfo invokes a method with a fixed number of parameters. T is the
// expected result type; use any for methods that return nothing.
type MethodInfo[T any] struct {
	core[T]
}

// Method resolves the exported method name on the type of target. Methods
// with pointer receivers are included. A trailing error result is turned into
// an abandonment when non-nil.
func Method[T any](target any, name string, arity int) (*MethodInfo[T], error) {
	t, err := typeOfTarget(target, name)
	if err != nil {
		return nil, err
	}
	owner, _ := ownerType(t, name)
	want := reflect.TypeFor[T]()
	h, err := cached(cacheKey{kind: kindMethod, owner: owner, name: name, arity: arity, want: want}, func() (*handle, error) {
		h, err := resolveMethod(kindMethod, owner, []string{name}, arity, want)
		if err == nil && h == nil {
			err = domain.Abandon("Type %s does not contain method %s with %d parameter(s). Methods with that arity are: %s",
				owner, name, arity, describeMethods(owner, arity))
		}
		return h, err
	})
	if err != nil {
		return nil, err
	}
	return &MethodInfo[T]{core[T]{h: h, target: target, allowNil: true}}, nil
}

// Arity is the number of parameters the method takes.
func (m *MethodInfo[T]) Arity() int { return m.h.fn.NumIn() }

// DisallowNil returns a copy that rejects nil results, which are accepted by default.
func (m *MethodInfo[T]) DisallowNil() *MethodInfo[T] {
	c := *m
	c.allowNil = false
	return &c
}

// Invoke calls the method on the bound target.
func (m *MethodInfo[T]) Invoke(args ...any) (T, error) {
	obj, err := m.bound()
	if err != nil {
		var zero T
		return zero, err
	}
	return m.InvokeOn(obj, args...)
}

// InvokeOn calls the method on obj.
func (m *MethodInfo[T]) InvokeOn(obj any, args ...any) (T, error) {
	var zero T
	in, err := m.arguments(args)
	if err != nil {
		return zero, err
	}
	v, ok, err := m.fetch(obj, in...)
	if err != nil || !ok {
		return zero, err
	}
	return convert[T](m.h.label, v)
}

func (m *MethodInfo[T]) arguments(args []any) ([]reflect.Value, error) {
	fn := m.h.fn
	if len(args) != fn.NumIn() {
		return nil, domain.Abandon("%s takes %d argument(s) but was given %d.", m.h.label, fn.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := fn.In(i)
		if a == nil {
			switch pt.Kind() {
			case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
				in[i] = reflect.Zero(pt)
				continue
			}
			return nil, domain.Abandon("%s: argument %d cannot be null (parameter type %s).", m.h.label, i, pt)
		}
		av := reflect.ValueOf(a)
		if !av.Type().AssignableTo(pt) {
			if !av.CanConvert(pt) || av.Kind() != pt.Kind() {
				return nil, domain.Abandon("%s: argument %d has type %s but the parameter is %s.", m.h.label, i, av.Type(), pt)
			}
			av = av.Convert(pt)
		}
		in[i] = av
	}
	return in, nil
}

// PropertyInfo reads a value through a getter method, either Name() or
// GetName(), falling back to an exported field of the same name.
type PropertyInfo[T any] struct {
	core[T]
}

// Property resolves the property name on the type of target.
func Property[T any](target any, name string) (*PropertyInfo[T], error) {
	t, err := typeOfTarget(target, name)
	if err != nil {
		return nil, err
	}
	owner, _ := ownerType(t, name)
	want := reflect.TypeFor[T]()
	exported := exportedName(name)
	h, err := cached(cacheKey{kind: kindGetter, owner: owner, name: name, want: want}, func() (*handle, error) {
		h, err := resolveMethod(kindGetter, owner, []string{exported, "Get" + exported}, 0, want)
		if err != nil || h != nil {
			return h, err
		}
		if matches := findFields(owner, exported); len(matches) == 1 && matches[0].field.IsExported() {
			f, err := resolveField(owner, exported, want, func(typ reflect.Type) bool { return compatible(typ, want) })
			if err != nil {
				return nil, err
			}
			f.label = fmt.Sprintf("Property %s.%s", owner, name)
			return f, nil
		}
		return nil, domain.Abandon("Type %s does not contain property %s. Properties are: %s", owner, name, describeMethods(owner, 0))
	})
	if err != nil {
		return nil, err
	}
	return &PropertyInfo[T]{core[T]{h: h, target: target}}, nil
}

// AllowNil returns a copy of the accessor that accepts nil values.
func (p *PropertyInfo[T]) AllowNil() *PropertyInfo[T] {
	c := *p
	c.allowNil = true
	return &c
}

// Get reads the property from the bound target.
func (p *PropertyInfo[T]) Get(validators ...Validator[T]) (T, error) {
	obj, err := p.bound()
	if err != nil {
		var zero T
		return zero, err
	}
	return p.GetFrom(obj, validators...)
}

// GetFrom reads the property from obj.
func (p *PropertyInfo[T]) GetFrom(obj any, validators ...Validator[T]) (T, error) {
	var zero T
	v, ok, err := p.fetch(obj)
	if err != nil || !ok {
		return zero, err
	}
	out, err := convert[T](p.h.label, v)
	if err != nil {
		return zero, err
	}
	if err := check(p.h.label, out, validators); err != nil {
		return zero, err
	}
	return out, nil
}

func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
