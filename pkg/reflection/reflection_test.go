package reflection

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/souvenir/pkg/domain"
)

type base struct {
	serial string
	lit    *bool
}

func (b *base) Serial() string { return b.serial }

type Display struct{ Digits []int }

type module struct {
	base
	wires    []string
	colors   [3]string
	count    uint8
	state    any
	Solved   bool
	missing  *int
	display  *Display
	Names    []*string
	stage    int
	startErr error
}

func (m *module) Stage() int             { return m.stage }
func (m module) GetLabel() string        { return "label:" + m.serial }
func (m *module) Press(button int) bool  { return button == m.stage }
func (m *module) Reset()                 { m.stage = 0 }
func (m *module) Start() (string, error) { return "started", m.startErr }
func (m *module) Components() []any      { return []any{m.display, "text"} }

type left struct{ id int }
type right struct{ id int }

func (left) Ping() string  { return "left" }
func (right) Ping() string { return "right" }

type ambiguous struct {
	left
	right
}

// shell embeds its base by pointer, which may be nil.
type shell struct {
	*base
	held any
	big  uint64
}

func newModule() *module {
	on := true
	return &module{
		base:    base{serial: "AB12", lit: &on},
		wires:   []string{"red", "blue"},
		colors:  [3]string{"r", "g", "b"},
		count:   7,
		state:   "armed",
		display: &Display{Digits: []int{1, 2}},
		stage:   2,
	}
}

func requireAbandon(t *testing.T, err error) *domain.AbandonError {
	t.Helper()
	var ae *domain.AbandonError
	require.True(t, errors.As(err, &ae), "expected an abandonment, got %v", err)
	return ae
}

func TestField_ReadsUnexportedAndEmbedded(t *testing.T) {
	m := newModule()

	wires, err := Field[[]string](m, "wires")
	require.NoError(t, err)
	got, err := wires.Get()
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "blue"}, got)

	serial, err := Field[string](m, "serial")
	require.NoError(t, err)
	s, err := serial.Get()
	require.NoError(t, err)
	assert.Equal(t, "AB12", s)

	// Struct passed by value is copied before reading.
	s, err = serial.GetFrom(*m)
	require.NoError(t, err)
	assert.Equal(t, "AB12", s)
}

func TestField_BackingFieldFallback(t *testing.T) {
	f, err := Field[[]string](newModule(), "Wires")
	require.NoError(t, err)
	got, err := f.Get()
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Field reflection.module.Wires", f.Label())
}

func TestField_TypeMismatchAbandons(t *testing.T) {
	_, err := Field[int](newModule(), "wires")
	ae := requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "expected type int")

	_, err = Field[string](newModule(), "nope")
	ae = requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "does not contain field nope")
}

func TestField_InterfaceFieldCheckedAtRead(t *testing.T) {
	m := newModule()
	f, err := Field[string](m, "state")
	require.NoError(t, err)
	s, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, "armed", s)

	m.state = 42
	_, err = f.Get()
	requireAbandon(t, err)
}

func TestField_NullHandling(t *testing.T) {
	m := newModule()
	f, err := Field[*int](m, "missing")
	require.NoError(t, err)

	_, err = f.Get()
	ae := requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "is null")

	v, err := f.AllowNil().Get()
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = Field[int](nil, "x")
	requireAbandon(t, err)

	var nilModule *module
	_, err = Field[int](nilModule, "stage")
	requireAbandon(t, err)

	_, err = f.GetFrom(nil)
	requireAbandon(t, err)
}

func TestField_TypedNilInInterfaceIsNull(t *testing.T) {
	n := 4
	f, err := Field[*int](&shell{held: &n}, "held")
	require.NoError(t, err)
	got, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, 4, *got)

	_, err = f.GetFrom(&shell{held: (*int)(nil)})
	ae := requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "is null")

	got, err = f.AllowNil().GetFrom(&shell{held: (*int)(nil)})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestField_Validators(t *testing.T) {
	f, err := Field[[]string](newModule(), "wires")
	require.NoError(t, err)

	_, err = f.Get(NotEmpty[string](), func(w []string) string {
		if len(w) != 3 {
			return "expected 3 wires"
		}
		return ""
	})
	ae := requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "[“red”, “blue”]")
	assert.Contains(t, ae.Reason, "expected 3 wires")
}

func TestFieldOf_UnboundReadsManyInstances(t *testing.T) {
	f, err := FieldOf[int](reflect.TypeFor[module](), "stage")
	require.NoError(t, err)

	_, err = f.Get()
	requireAbandon(t, err)

	a, b := newModule(), newModule()
	b.stage = 5
	va, err := f.GetFrom(a)
	require.NoError(t, err)
	vb, err := f.GetFrom(b)
	require.NoError(t, err)
	assert.Equal(t, 2, va)
	assert.Equal(t, 5, vb)

	_, err = f.GetFrom(&Display{})
	ae := requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "is not a reflection.module")
}

func TestField_ResolutionIsIdempotent(t *testing.T) {
	m := newModule()
	a, err := Field[[]string](m, "wires")
	require.NoError(t, err)
	b, err := Field[[]string](m, "wires")
	require.NoError(t, err)
	assert.Same(t, a.h, b.h)

	va, _ := a.Get()
	vb, _ := b.Get()
	assert.Equal(t, va, vb)
}

func TestIntField(t *testing.T) {
	f, err := IntField(newModule(), "count")
	require.NoError(t, err)

	n, err := f.GetInRange(0, 10)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = f.GetInRange(0, 5)
	ae := requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "“7”")

	_, err = IntField(newModule(), "wires")
	requireAbandon(t, err)
}

func TestIntField_UnsignedOverflowAbandons(t *testing.T) {
	f, err := IntField(&shell{big: 1 << 63}, "big")
	require.NoError(t, err)
	_, err = f.Get()
	ae := requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "does not fit in an int")

	n, err := f.GetFrom(&shell{big: 42})
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestArrayField(t *testing.T) {
	f, err := ArrayField[string](newModule(), "colors")
	require.NoError(t, err)

	got, err := f.Get(3)
	require.NoError(t, err)
	assert.Equal(t, []string{"r", "g", "b"}, got)

	_, err = f.Get(4)
	requireAbandon(t, err)

	_, err = f.Get(-1, OneOf("r", "g"))
	requireAbandon(t, err)
}

func TestListField(t *testing.T) {
	m := newModule()
	f, err := ListField[string](m, "wires")
	require.NoError(t, err)

	got, err := f.Get(1, -1)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = f.Get(3, 6)
	requireAbandon(t, err)

	_, err = ListField[string](m, "colors")
	requireAbandon(t, err)

	s := "x"
	m.Names = []*string{&s, nil}
	names, err := ListField[*string](m, "Names")
	require.NoError(t, err)
	_, err = names.Get(0, -1)
	ae := requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "null element at index 1")

	vals, err := names.AllowNilElements().Get(0, -1)
	require.NoError(t, err)
	assert.Equal(t, &s, vals[0])
	assert.Nil(t, vals[1])
}

func TestMethod(t *testing.T) {
	m := newModule()
	press, err := Method[bool](m, "Press", 1)
	require.NoError(t, err)

	ok, err := press.Invoke(2)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = press.Invoke()
	requireAbandon(t, err)
	_, err = press.Invoke("two")
	requireAbandon(t, err)

	reset, err := Method[any](m, "Reset", 0)
	require.NoError(t, err)
	_, err = reset.Invoke()
	require.NoError(t, err)
	assert.Equal(t, 0, m.stage)

	_, err = Method[bool](m, "Press", 2)
	requireAbandon(t, err)
	_, err = Method[int](m, "Press", 1)
	requireAbandon(t, err)

	start, err := Method[string](m, "Start", 0)
	require.NoError(t, err)
	s, err := start.Invoke()
	require.NoError(t, err)
	assert.Equal(t, "started", s)

	m.startErr = errors.New("jammed")
	_, err = start.Invoke()
	ae := requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "jammed")
}

func TestMethod_PromotedThroughNilEmbeddedAbandons(t *testing.T) {
	serial, err := Method[string](&shell{}, "Serial", 0)
	require.NoError(t, err)
	_, err = serial.Invoke()
	ae := requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "embedded *reflection.base is null")

	got, err := serial.InvokeOn(&shell{base: &base{serial: "X9"}})
	require.NoError(t, err)
	assert.Equal(t, "X9", got)
}

func TestMethod_AmbiguousAbandons(t *testing.T) {
	_, err := Method[string](&ambiguous{}, "Ping", 0)
	ae := requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "ambiguous")
}

func TestField_AmbiguousAbandons(t *testing.T) {
	_, err := Field[int](&ambiguous{}, "id")
	ae := requireAbandon(t, err)
	assert.Contains(t, ae.Reason, "ambiguous")
}

func TestProperty(t *testing.T) {
	m := newModule()

	stage, err := Property[int](m, "stage")
	require.NoError(t, err)
	n, err := stage.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	label, err := Property[string](m, "Label")
	require.NoError(t, err)
	s, err := label.GetFrom(*m)
	require.NoError(t, err)
	assert.Equal(t, "label:AB12", s)

	serial, err := Property[string](m, "Serial")
	require.NoError(t, err)
	s, err = serial.Get()
	require.NoError(t, err)
	assert.Equal(t, "AB12", s)

	solved, err := Property[bool](m, "Solved")
	require.NoError(t, err)
	b, err := solved.Get()
	require.NoError(t, err)
	assert.False(t, b)

	_, err = Property[string](m, "stage")
	requireAbandon(t, err)
	_, err = Property[string](m, "colour")
	requireAbandon(t, err)
}

func TestComponent(t *testing.T) {
	m := newModule()
	c, err := Component(m, "Display")
	require.NoError(t, err)
	assert.Same(t, m.display, c)

	d, err := ComponentOf[*Display](m)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, d.Digits)

	_, err = Component(m, "Keypad")
	requireAbandon(t, err)

	_, err = Component(&Display{}, "Display")
	requireAbandon(t, err)
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, NullMarker},
		{"a", "“a”"},
		{42, "“42”"},
		{[]string{"a", "b"}, "[“a”, “b”]"},
		{[]any{nil, []int{1}}, "[<null>, [“1”]]"},
		{(*int)(nil), NullMarker},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stringify(tt.in))
	}
}
