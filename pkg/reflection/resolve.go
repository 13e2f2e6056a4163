package reflection

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
	"unsafe"

	"github.com/aretw0/souvenir/pkg/domain"
)

type memberKind int

const (
	kindField memberKind = iota
	kindMethod
	kindGetter
)

func (k memberKind) String() string {
	switch k {
	case kindMethod:
		return "Method"
	case kindGetter:
		return "Property"
	default:
		return "Field"
	}
}

// handle is a resolved member of a struct type.
type handle struct {
	kind   memberKind
	owner  reflect.Type // struct type, never a pointer
	name   string       // name as requested
	member string       // field or method name actually used
	typ    reflect.Type // field type or first result of the method
	path   []int        // field index path through embedded structs
	fn     reflect.Type // method signature without receiver
	label  string
}

type cacheKey struct {
	kind  memberKind
	owner reflect.Type
	name  string
	arity int
	want  reflect.Type
}

var resolved sync.Map // cacheKey -> *handle

func cached(key cacheKey, resolve func() (*handle, error)) (*handle, error) {
	if h, ok := resolved.Load(key); ok {
		return h.(*handle), nil
	}
	h, err := resolve()
	if err != nil {
		return nil, err
	}
	actual, _ := resolved.LoadOrStore(key, h)
	return actual.(*handle), nil
}

// ownerType returns the struct type behind t, dereferencing pointers.
func ownerType(t reflect.Type, name string) (reflect.Type, error) {
	if t == nil {
		return nil, domain.Abandon("Attempt to get member %s from a null type.", name)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, domain.Abandon("Type %s is not a struct; cannot get member %s.", t, name)
	}
	return t, nil
}

func typeOfTarget(target any, name string) (reflect.Type, error) {
	if target == nil {
		return nil, domain.Abandon("Attempt to get member %s from a null object.", name)
	}
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, domain.Abandon("Attempt to get member %s from a null %s.", name, v.Type())
	}
	return ownerType(v.Type(), name)
}

type fieldMatch struct {
	path  []int
	field reflect.StructField
}

// findFields returns every field called name at the shallowest embedding depth
// where at least one exists.
func findFields(t reflect.Type, name string) []fieldMatch {
	type entry struct {
		typ  reflect.Type
		path []int
	}
	level := []entry{{typ: t}}
	visited := map[reflect.Type]bool{}
	for len(level) > 0 {
		var found []fieldMatch
		var next []entry
		for _, e := range level {
			st := e.typ
			for st.Kind() == reflect.Pointer {
				st = st.Elem()
			}
			if st.Kind() != reflect.Struct || visited[st] {
				continue
			}
			visited[st] = true
			for i := range st.NumField() {
				f := st.Field(i)
				path := append(slices.Clone(e.path), i)
				if f.Name == name {
					found = append(found, fieldMatch{path: path, field: f})
				}
				if f.Anonymous {
					next = append(next, entry{typ: f.Type, path: path})
				}
			}
		}
		if len(found) > 0 {
			return found
		}
		level = next
	}
	return nil
}

// backingName is the unexported field an exported name falls back to.
func backingName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return ""
	}
	return string(unicode.ToLower(r)) + name[size:]
}

func resolveField(owner reflect.Type, name string, want reflect.Type, compatible func(reflect.Type) bool) (*handle, error) {
	matches := findFields(owner, name)
	member := name
	if len(matches) == 0 {
		if alt := backingName(name); alt != "" {
			matches = findFields(owner, alt)
			member = alt
		}
	}
	label := fmt.Sprintf("Field %s.%s", owner, name)
	switch {
	case len(matches) == 0:
		return nil, domain.Abandon("Type %s does not contain field %s. Fields are: %s", owner, name, describeFields(owner))
	case len(matches) > 1:
		return nil, domain.Abandon("Type %s has an ambiguous field %s (%d candidates at the same depth).", owner, name, len(matches))
	}
	f := matches[0].field
	if !compatible(f.Type) {
		return nil, domain.Abandon("Type %s has field %s of type %s but expected type %s.", owner, name, f.Type, want)
	}
	return &handle{kind: kindField, owner: owner, name: name, member: member, typ: f.Type, path: matches[0].path, label: label}, nil
}

func describeFields(t reflect.Type) string {
	var parts []string
	for _, f := range reflect.VisibleFields(t) {
		vis := "exported"
		if !f.IsExported() {
			vis = "unexported"
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", vis, f.Type, f.Name))
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, ", ")
}

// signatureFits checks a method signature without receiver. A void method fits
// want == nil or an interface want; a trailing error result is allowed.
func signatureFits(fn reflect.Type, arity int, want reflect.Type) bool {
	if fn.NumIn() != arity || fn.IsVariadic() {
		return false
	}
	switch fn.NumOut() {
	case 0:
		return want == nil || want.Kind() == reflect.Interface && want.NumMethod() == 0
	case 1:
		return want == nil || fn.Out(0).AssignableTo(want)
	case 2:
		return fn.Out(1) == errorType && (want == nil || fn.Out(0).AssignableTo(want))
	}
	return false
}

var errorType = reflect.TypeFor[error]()

func resolveMethod(kind memberKind, owner reflect.Type, names []string, arity int, want reflect.Type) (*handle, error) {
	ptr := reflect.PointerTo(owner)
	for _, name := range names {
		m, ok := ptr.MethodByName(name)
		if !ok {
			if n := countPromoted(owner, name); n > 1 {
				return nil, domain.Abandon("Type %s has %d ambiguous methods %s.", owner, n, name)
			}
			continue
		}
		fn := m.Type
		// Drop the receiver.
		in := make([]reflect.Type, 0, fn.NumIn()-1)
		for i := 1; i < fn.NumIn(); i++ {
			in = append(in, fn.In(i))
		}
		out := make([]reflect.Type, fn.NumOut())
		for i := range out {
			out[i] = fn.Out(i)
		}
		sig := reflect.FuncOf(in, out, fn.IsVariadic())
		if !signatureFits(sig, arity, want) {
			return nil, domain.Abandon("Type %s has %s %s with signature %s but expected %d parameter(s) returning %s.",
				owner, strings.ToLower(kind.String()), name, sig, arity, describeWant(want))
		}
		var typ reflect.Type
		if sig.NumOut() > 0 {
			typ = sig.Out(0)
		}
		return &handle{
			kind:   kind,
			owner:  owner,
			name:   names[0],
			member: name,
			typ:    typ,
			path:   promotedPath(owner, name),
			fn:     sig,
			label:  fmt.Sprintf("%s %s.%s", kind, owner, names[0]),
		}, nil
	}
	return nil, nil
}

// countPromoted counts embedded types at the shallowest depth that define an
// exported method name. The method set of a type omits such methods when the
// selector is ambiguous.
func countPromoted(owner reflect.Type, name string) int {
	level := []reflect.Type{owner}
	for depth := 0; depth < 8 && len(level) > 0; depth++ {
		var next []reflect.Type
		count := 0
		for _, t := range level {
			for i := range t.NumField() {
				f := t.Field(i)
				if !f.Anonymous {
					continue
				}
				ft := f.Type
				if ft.Kind() == reflect.Struct {
					ft = reflect.PointerTo(ft)
				}
				if _, ok := ft.MethodByName(name); ok {
					count++
				}
				if ft.Kind() == reflect.Pointer && ft.Elem().Kind() == reflect.Struct {
					next = append(next, ft.Elem())
				}
			}
		}
		if count > 0 {
			return count
		}
		level = next
	}
	return 0
}

// promotedPath is the field index path to the shallowest embedded type whose
// method set has name, or nil when no embedded type has it.
func promotedPath(owner reflect.Type, name string) []int {
	type node struct {
		t    reflect.Type
		path []int
	}
	level := []node{{t: owner}}
	for depth := 0; depth < 8 && len(level) > 0; depth++ {
		var next []node
		for _, n := range level {
			for i := range n.t.NumField() {
				f := n.t.Field(i)
				if !f.Anonymous {
					continue
				}
				path := append(slices.Clone(n.path), i)
				ft := f.Type
				if ft.Kind() == reflect.Struct {
					ft = reflect.PointerTo(ft)
				}
				if _, ok := ft.MethodByName(name); ok {
					return path
				}
				if ft.Kind() == reflect.Pointer && ft.Elem().Kind() == reflect.Struct {
					next = append(next, node{t: ft.Elem(), path: path})
				}
			}
		}
		level = next
	}
	return nil
}

func describeWant(want reflect.Type) string {
	if want == nil {
		return "anything"
	}
	return want.String()
}

func describeMethods(owner reflect.Type, arity int) string {
	ptr := reflect.PointerTo(owner)
	var parts []string
	for i := range ptr.NumMethod() {
		m := ptr.Method(i)
		if m.Type.NumIn()-1 == arity {
			parts = append(parts, m.Name)
		}
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, ", ")
}

// root returns an addressable struct value for obj, which must be of the
// handle's owner type or a pointer to it.
func (h *handle) root(obj any) (reflect.Value, error) {
	if obj == nil {
		return reflect.Value{}, domain.Abandon("%s: attempt to read from a null object.", h.label)
	}
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, domain.Abandon("%s: attempt to read from a null %s.", h.label, v.Type())
		}
		v = v.Elem()
	}
	if v.Type() != h.owner {
		return reflect.Value{}, domain.Abandon("%s: object of type %s is not a %s.", h.label, v.Type(), h.owner)
	}
	if !v.CanAddr() {
		c := reflect.New(v.Type()).Elem()
		c.Set(v)
		v = c
	}
	return v, nil
}

// read fetches the member's raw value from obj. For getters and methods the
// method is invoked with args.
func (h *handle) read(obj any, args ...reflect.Value) (reflect.Value, error) {
	v, err := h.root(obj)
	if err != nil {
		return reflect.Value{}, err
	}
	if h.kind != kindField {
		return h.call(v, args)
	}
	for i, idx := range h.path {
		if i > 0 {
			for v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return reflect.Value{}, domain.Abandon("%s: embedded %s is null.", h.label, v.Type())
				}
				v = v.Elem()
			}
		}
		v = v.Field(idx)
	}
	return readable(v), nil
}

func (h *handle) call(v reflect.Value, args []reflect.Value) (res reflect.Value, err error) {
	if embedded := nilEmbedded(v, h.path); embedded != nil {
		// A method promoted through a nil embedded value dereferences it.
		// A method the owner declares itself runs normally.
		defer func() {
			if r := recover(); r != nil {
				res, err = reflect.Value{}, domain.Abandon("%s: embedded %s is null.", h.label, embedded)
			}
		}()
	}
	out := v.Addr().MethodByName(h.member).Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, domain.Abandon("%s returned an error: %v", h.label, out[1].Interface())
	}
	if len(out) == 0 {
		return reflect.Value{}, nil
	}
	return out[0], nil
}

// nilEmbedded returns the type of the first nil pointer or interface along
// path, or nil when every embedded value on it is set.
func nilEmbedded(v reflect.Value, path []int) reflect.Type {
	for _, idx := range path {
		v = v.Field(idx)
		switch v.Kind() {
		case reflect.Pointer:
			if v.IsNil() {
				return v.Type()
			}
			v = v.Elem()
		case reflect.Interface:
			if v.IsNil() {
				return v.Type()
			}
			return nil
		}
	}
	return nil
}

// readable lifts the read-only restriction on values reached through
// unexported fields. v must be addressable.
func readable(v reflect.Value) reflect.Value {
	if v.CanInterface() {
		return v
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}
