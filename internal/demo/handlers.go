package demo

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"time"

	"github.com/aretw0/souvenir/pkg/domain"
	"github.com/aretw0/souvenir/pkg/questions"
	"github.com/aretw0/souvenir/pkg/reflection"
	"github.com/aretw0/souvenir/pkg/registry"
)

// PollInterval is how often handlers check whether their module is solved.
const PollInterval = 100 * time.Millisecond

// errStopped ends a handler body whose task was stopped from outside.
var errStopped = errors.New("stopped")

type body func(h *questions.Handle, yield func(domain.Step) bool) error

// handler turns a body into a registry handler. A returned error other than
// errStopped is yielded as the task's final step.
func handler(fn body) registry.Handler {
	return func(_ context.Context, h *questions.Handle) iter.Seq[domain.Step] {
		return func(yield func(domain.Step) bool) {
			if err := fn(h, yield); err != nil && !errors.Is(err, errStopped) {
				yield(domain.Fail(err))
			}
		}
	}
}

// Registry returns the handlers for every demo module type except Button.
func Registry() *registry.Registry {
	reg := registry.NewRegistry()
	reg.Register(TypeWires, handler(wires))
	reg.Register(TypeKeypad, handler(keypad))
	reg.Register(TypeMaze, handler(maze))
	reg.Register(TypeBigDisplay, handler(bigDisplay))
	reg.Register(TypeMemory, handler(memory))
	reg.Register(TypeMorse, handler(morse))
	return reg
}

// untilSolved suspends the handler until the module reports itself solved,
// then records the solve.
func untilSolved(h *questions.Handle, yield func(domain.Step) bool) error {
	solved, err := reflection.Field[bool](h.Object(), "solved")
	if err != nil {
		return err
	}
	for {
		done, err := solved.Get()
		if err != nil {
			return err
		}
		if done {
			break
		}
		if !yield(domain.Wait(PollInterval)) {
			return errStopped
		}
	}
	h.MarkSolved()
	return nil
}

func wires(h *questions.Handle, yield func(domain.Step) bool) error {
	colors, err := reflection.ListField[string](h.Object(), "wires")
	if err != nil {
		return err
	}
	if _, err := colors.Get(3, 6, reflection.OneOf(wireColors...)); err != nil {
		return err
	}
	if err := untilSolved(h, yield); err != nil {
		return err
	}

	list, err := colors.Get(3, 6)
	if err != nil {
		return err
	}
	cut, err := reflection.IntField(h.Object(), "cut")
	if err != nil {
		return err
	}
	idx, err := cut.GetInRange(0, len(list)-1)
	if err != nil {
		return err
	}
	label, err := reflection.Field[string](h.Object(), "label")
	if err != nil {
		return err
	}
	text, err := label.Get()
	if err != nil {
		return err
	}

	h.Add(
		h.Text("wires_cut", questions.Ask[string]{Correct: []string{list[idx]}}),
		h.Text("wires_count", questions.Ask[string]{Correct: []string{strconv.Itoa(len(list))}}),
		h.Text("wires_label", questions.Ask[string]{Correct: []string{text}}),
	)
	return nil
}

func keypad(h *questions.Handle, yield func(domain.Step) bool) error {
	symbols, err := reflection.ArrayField[string](h.Object(), "symbols")
	if err != nil {
		return err
	}
	names, err := symbols.Get(4, reflection.OneOf(keypadSymbols...))
	if err != nil {
		return err
	}
	if err := untilSolved(h, yield); err != nil {
		return err
	}

	order, err := reflection.ListField[int](h.Object(), "pressed")
	if err != nil {
		return err
	}
	pressed, err := order.Get(len(names), len(names), reflection.InRange(0, len(names)-1))
	if err != nil {
		return err
	}

	pool := make([]domain.Image, len(keypadSymbols))
	for i, s := range keypadSymbols {
		pool[i] = symbolImage(s)
	}
	onModule := make([]domain.Image, len(names))
	for i, s := range names {
		onModule[i] = symbolImage(s)
	}
	qs := make([]*domain.QandA, 0, len(pressed))
	for i, p := range pressed {
		qs = append(qs, h.Sprites("keypad_order", questions.Ask[domain.Image]{
			Correct:   []domain.Image{onModule[p]},
			Preferred: onModule,
			Pool:      pool,
			Args:      []string{questions.Ordinal(i + 1)},
		}))
	}
	h.Add(qs...)
	return nil
}

func symbolImage(name string) domain.Image {
	return domain.Image{Name: name, Source: "keypad:" + name}
}

func maze(h *questions.Handle, yield func(domain.Step) bool) error {
	obj := h.Object()
	size, err := reflection.IntField(obj, "size")
	if err != nil {
		return err
	}
	n, err := size.GetInRange(2, 10)
	if err != nil {
		return err
	}
	if err := untilSolved(h, yield); err != nil {
		return err
	}

	start, err := reflection.IntField(obj, "start")
	if err != nil {
		return err
	}
	from, err := start.GetInRange(0, n*n-1)
	if err != nil {
		return err
	}
	goal, err := reflection.IntField(obj, "goal")
	if err != nil {
		return err
	}
	to, err := goal.GetInRange(0, n*n-1)
	if err != nil {
		return err
	}

	h.Add(h.Grid("maze_goal", questions.Ask[domain.Coord]{
		Correct:   []domain.Coord{{Width: n, Height: n, Index: to}},
		Preferred: []domain.Coord{{Width: n, Height: n, Index: from}},
	}))
	return nil
}

func bigDisplay(h *questions.Handle, yield func(domain.Step) bool) error {
	comp, err := reflection.Component(h.Object(), "display")
	if err != nil {
		return err
	}
	ind, err := reflection.ComponentOf[*indicator](h.Object())
	if err != nil {
		return err
	}
	if err := untilSolved(h, yield); err != nil {
		return err
	}

	number, err := reflection.IntField(comp, "number")
	if err != nil {
		return err
	}
	shown, err := number.GetInRange(1, 99)
	if err != nil {
		return err
	}
	lit, err := reflection.Field[bool](ind, "lit")
	if err != nil {
		return err
	}
	on, err := lit.Get()
	if err != nil {
		return err
	}
	answer := "No"
	if on {
		answer = "Yes"
	}

	h.Add(
		h.Text("display_number", questions.Ask[string]{Correct: []string{strconv.Itoa(shown)}}),
		h.Text("display_indicator", questions.Ask[string]{Correct: []string{answer}}),
	)
	return nil
}

func memory(h *questions.Handle, yield func(domain.Step) bool) error {
	stage, err := reflection.Method[int](h.Object(), "Stage", 0)
	if err != nil {
		return err
	}
	if err := untilSolved(h, yield); err != nil {
		return err
	}

	n, err := stage.Invoke()
	if err != nil {
		return err
	}
	if n != memoryStages {
		return domain.Abandon("Memory reports %d stages completed; expected %d.", n, memoryStages)
	}
	history, err := reflection.ListField[int](h.Object(), "history")
	if err != nil {
		return err
	}
	positions, err := history.Get(n, n, reflection.InRange(1, 4))
	if err != nil {
		return err
	}

	qs := make([]*domain.QandA, len(positions))
	for i, p := range positions {
		qs[i] = h.Text("memory_stage", questions.Ask[string]{
			Correct: []string{strconv.Itoa(p)},
			Args:    []string{strconv.Itoa(i + 1)},
		})
	}
	h.Add(qs...)
	return nil
}

func morse(h *questions.Handle, yield func(domain.Step) bool) error {
	word, err := reflection.Field[string](h.Object(), "word")
	if err != nil {
		return err
	}
	transmitted, err := word.Get(reflection.OneOf(morseWords...))
	if err != nil {
		return err
	}
	freq, err := reflection.IntField(h.Object(), "frequency")
	if err != nil {
		return err
	}
	mhz, err := freq.GetInRange(500, 600)
	if err != nil {
		return err
	}
	if err := untilSolved(h, yield); err != nil {
		return err
	}

	h.Add(
		h.Text("morse_word", questions.Ask[string]{Correct: []string{transmitted}}),
		h.Text("morse_frequency", questions.Ask[string]{Correct: []string{"3." + strconv.Itoa(mhz) + " MHz"}}),
	)
	return nil
}
