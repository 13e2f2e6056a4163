package demo

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/aretw0/souvenir/pkg/domain"
)

// Module types of the simulated bomb. Button has no handler.
const (
	TypeWires      = "Wires"
	TypeKeypad     = "Keypad"
	TypeMaze       = "Maze"
	TypeBigDisplay = "BigDisplay"
	TypeMemory     = "Memory"
	TypeMorse      = "Morse"
	TypeButton     = "Button"
)

var (
	wireColors = []string{"red", "blue", "yellow", "black", "white"}

	keypadSymbols = []string{
		"copyright", "filledstar", "hollowstar", "smileyface", "doublek", "omega",
		"squidknife", "pumpkin", "hookn", "teepee", "six", "squigglyn", "at", "ae",
		"meltedthree", "euro", "circle", "nwithhat", "dragon", "questionmark",
		"paragraph", "rightc", "leftc", "pitchfork", "tripod", "cursive", "tracks",
		"balloon", "weirdnose", "upsidedowny", "bt",
	}

	morseWords = []string{
		"shell", "halls", "slick", "trick", "boxes", "leaks", "strobe", "bistro",
		"flick", "bombs", "break", "brick", "steak", "sting", "vector", "beats",
	}

	labelChars = "ABCDEFGHJKLMNPQRSTUVWXYZ0123456789"
)

const (
	mazeSize     = 6
	memoryStages = 5
)

type solver interface {
	solve(r *rand.Rand)
}

type moduleBase struct {
	solved bool
}

func (b *moduleBase) markSolved() { b.solved = true }

type wiresModule struct {
	moduleBase
	label string
	wires []string
	cut   int
}

func newWires(r *rand.Rand) any {
	m := &wiresModule{cut: -1}
	for range 3 + r.IntN(4) {
		m.wires = append(m.wires, wireColors[r.IntN(len(wireColors))])
	}
	for range 3 {
		m.label += string(labelChars[r.IntN(len(labelChars))])
	}
	return m
}

func (m *wiresModule) solve(r *rand.Rand) {
	m.cut = r.IntN(len(m.wires))
	m.markSolved()
}

type keypadModule struct {
	moduleBase
	symbols [4]string
	pressed []int
}

func newKeypad(r *rand.Rand) any {
	m := &keypadModule{}
	for i, j := range r.Perm(len(keypadSymbols))[:4] {
		m.symbols[i] = keypadSymbols[j]
	}
	return m
}

func (m *keypadModule) solve(r *rand.Rand) {
	m.pressed = r.Perm(len(m.symbols))
	m.markSolved()
}

type mazeModule struct {
	moduleBase
	size  int
	start int
	goal  int
}

func newMaze(r *rand.Rand) any {
	cells := r.Perm(mazeSize * mazeSize)
	return &mazeModule{size: mazeSize, start: cells[0], goal: cells[1]}
}

func (m *mazeModule) solve(*rand.Rand) { m.markSolved() }

type display struct{ number int }

type indicator struct{ lit bool }

type bigDisplayModule struct {
	moduleBase
	parts []any
}

func newBigDisplay(r *rand.Rand) any {
	return &bigDisplayModule{parts: []any{
		&indicator{lit: r.IntN(2) == 0},
		&display{number: 1 + r.IntN(99)},
	}}
}

func (m *bigDisplayModule) Components() []any { return m.parts }

func (m *bigDisplayModule) solve(*rand.Rand) { m.markSolved() }

type memoryModule struct {
	moduleBase
	stage   int
	history []int
}

func newMemory(*rand.Rand) any { return &memoryModule{} }

// Stage is the number of stages completed so far.
func (m *memoryModule) Stage() int { return m.stage }

func (m *memoryModule) solve(r *rand.Rand) {
	for m.stage < memoryStages {
		m.history = append(m.history, 1+r.IntN(4))
		m.stage++
	}
	m.markSolved()
}

type morseModule struct {
	moduleBase
	word      string
	frequency int
}

func newMorse(r *rand.Rand) any {
	return &morseModule{
		word:      morseWords[r.IntN(len(morseWords))],
		frequency: 505 + 5*r.IntN(20),
	}
}

func (m *morseModule) solve(*rand.Rand) { m.markSolved() }

type buttonModule struct {
	moduleBase
	color string
}

func newButton(r *rand.Rand) any {
	return &buttonModule{color: wireColors[r.IntN(len(wireColors))]}
}

func (m *buttonModule) solve(*rand.Rand) { m.markSolved() }

type kind struct {
	typ   string
	name  string
	build func(*rand.Rand) any
}

var kinds = []kind{
	{TypeWires, "Wires", newWires},
	{TypeKeypad, "Keypad", newKeypad},
	{TypeMaze, "Maze", newMaze},
	{TypeBigDisplay, "Big Display", newBigDisplay},
	{TypeMemory, "Memory", newMemory},
	{TypeMorse, "Morse Code", newMorse},
	{TypeButton, "The Button", newButton},
}

// NewModule builds one module of the given type, or false if the type is unknown.
func NewModule(r *rand.Rand, moduleType string) (domain.Module, bool) {
	for _, k := range kinds {
		if k.typ == moduleType {
			return domain.Module{ID: uuid.NewString(), Type: k.typ, DisplayName: k.name, Object: k.build(r)}, true
		}
	}
	return domain.Module{}, false
}

// Generate builds n modules of random types.
func Generate(r *rand.Rand, n int) []domain.Module {
	mods := make([]domain.Module, 0, n)
	for range n {
		k := kinds[r.IntN(len(kinds))]
		mods = append(mods, domain.Module{ID: uuid.NewString(), Type: k.typ, DisplayName: k.name, Object: k.build(r)})
	}
	return mods
}

// Names returns the display names of mods, in order.
func Names(mods []domain.Module) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.DisplayName
	}
	return out
}

// Solve solves the module's object. It reports false for objects that are
// not demo modules.
func Solve(r *rand.Rand, m domain.Module) bool {
	s, ok := m.Object.(solver)
	if ok {
		s.solve(r)
	}
	return ok
}
