package reflection

import (
	"reflect"
	"strings"

	"github.com/aretw0/souvenir/pkg/domain"
)

// Container is implemented by foreign modules assembled from components.
type Container interface {
	Components() []any
}

// Component returns the first component of obj whose type name is typeName.
// Both the bare name ("Display") and the qualified one ("wires.Display") match.
func Component(obj any, typeName string) (any, error) {
	c, err := container(obj, typeName)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, comp := range c.Components() {
		if comp == nil {
			continue
		}
		t := reflect.TypeOf(comp)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Name() == typeName || t.String() == typeName {
			return comp, nil
		}
		names = append(names, t.String())
	}
	return nil, domain.Abandon("%T does not have a component %s. Components are: %s", obj, typeName, strings.Join(names, ", "))
}

// ComponentOf returns the first component of obj assignable to T.
func ComponentOf[T any](obj any) (T, error) {
	var zero T
	c, err := container(obj, reflect.TypeFor[T]().String())
	if err != nil {
		return zero, err
	}
	for _, comp := range c.Components() {
		if v, ok := comp.(T); ok && comp != nil {
			return v, nil
		}
	}
	return zero, domain.Abandon("%T does not have a component of type %s.", obj, reflect.TypeFor[T]())
}

func container(obj any, what string) (Container, error) {
	if obj == nil {
		return nil, domain.Abandon("Attempt to get component %s from a null object.", what)
	}
	c, ok := obj.(Container)
	if !ok {
		return nil, domain.Abandon("%T has no components; cannot get %s.", obj, what)
	}
	return c, nil
}
