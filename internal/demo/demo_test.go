package demo

import (
	"context"
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aretw0/souvenir/internal/runtime"
	"github.com/aretw0/souvenir/pkg/domain"
	"github.com/aretw0/souvenir/pkg/questions"
	"github.com/aretw0/souvenir/pkg/supervisor"
)

type sink struct{ batches []domain.Batch }

func (s *sink) AddBatch(b domain.Batch) { s.batches = append(s.batches, b) }

type harness struct {
	loop *runtime.Loop
	sup  *supervisor.Supervisor
	sink *sink
	now  time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cat, err := Catalog()
	require.NoError(t, err)
	h := &harness{loop: runtime.NewLoop(), sink: &sink{}, now: time.Unix(0, 0)}
	b := questions.NewBuilder(cat, questions.NewLedger(), h.sink, questions.WithRand(rand.New(rand.NewPCG(3, 3))))
	h.sup = supervisor.New(h.loop, Registry(), b)
	// Cleanups run last-in first-out: the loop closes before the leak check.
	t.Cleanup(func() { goleak.VerifyNone(t) })
	t.Cleanup(h.loop.Close)
	return h
}

func (h *harness) step(n int) {
	for range n {
		h.now = h.now.Add(time.Second)
		h.loop.Step(h.now)
	}
}

func (h *harness) batch(t *testing.T, id string) domain.Batch {
	t.Helper()
	for _, b := range h.sink.batches {
		if b.Module.ID == id {
			return b
		}
	}
	require.Failf(t, "no batch", "module %s added no batch", id)
	return domain.Batch{}
}

func TestCatalog_Valid(t *testing.T) {
	cat, err := Catalog()
	require.NoError(t, err)
	require.NoError(t, cat.Validate())

	for _, typ := range Registry().Types() {
		assert.NotEmpty(t, cat.ForModuleType(typ), "no questions for %s", typ)
	}
}

func TestCatalog_Preview(t *testing.T) {
	cat, err := Catalog()
	require.NoError(t, err)
	qs, err := questions.Preview(cat, rand.New(rand.NewPCG(1, 2)), questions.PreviewOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, qs)
	for _, q := range qs {
		assert.GreaterOrEqual(t, q.NumAnswers(), 2, q.Text)
	}
}

func TestHandlers_AskAfterSolve(t *testing.T) {
	h := newHarness(t)
	r := rand.New(rand.NewPCG(7, 7))

	want := map[string]int{
		TypeWires:      3,
		TypeKeypad:     4,
		TypeMaze:       1,
		TypeBigDisplay: 2,
		TypeMemory:     5,
		TypeMorse:      2,
	}
	var mods []domain.Module
	for typ := range want {
		m, ok := NewModule(r, typ)
		require.True(t, ok)
		mods = append(mods, m)
		h.sup.Process(t.Context(), m)
	}

	h.step(3)
	assert.Empty(t, h.sink.batches, "nothing is asked before a solve")
	for _, m := range mods {
		st, ok := h.sup.State(m.ID)
		require.True(t, ok)
		assert.Equal(t, domain.TaskRunning, st, m.Type)
	}

	for _, m := range mods {
		require.True(t, Solve(r, m))
	}
	h.step(2)
	require.Len(t, h.sink.batches, len(mods))
	for _, m := range mods {
		b := h.batch(t, m.ID)
		assert.Len(t, b.Questions, want[m.Type], m.Type)
		st, _ := h.sup.State(m.ID)
		assert.Equal(t, domain.TaskCompleted, st, m.Type)
	}
	assert.Zero(t, h.sup.Active())
}

func TestHandlers_WiresAnswer(t *testing.T) {
	h := newHarness(t)
	r := rand.New(rand.NewPCG(9, 9))
	m, _ := NewModule(r, TypeWires)
	h.sup.Process(t.Context(), m)
	h.step(2)
	Solve(r, m)
	h.step(1)

	w := m.Object.(*wiresModule)
	b := h.batch(t, m.ID)
	require.Len(t, b.Questions, 3)
	byText := map[string]*domain.QandA{}
	for _, q := range b.Questions {
		byText[q.Text] = q
	}

	cut := byText["Which wire did you cut in Wires?"]
	require.NotNil(t, cut)
	assert.Equal(t, w.wires[w.cut], cut.Answers[cut.Correct].Text)

	count := byText["How many wires were there in Wires?"]
	require.NotNil(t, count)
	assert.Equal(t, strconv.Itoa(len(w.wires)), count.Answers[count.Correct].Text)

	label := byText["What was the label printed on Wires?"]
	require.NotNil(t, label)
	assert.Equal(t, w.label, label.Answers[label.Correct].Text)
	assert.Len(t, label.Answers, 4)
}

func TestHandlers_MazeGrid(t *testing.T) {
	h := newHarness(t)
	r := rand.New(rand.NewPCG(4, 4))
	m, _ := NewModule(r, TypeMaze)
	h.sup.Process(t.Context(), m)
	h.step(2)
	Solve(r, m)
	h.step(1)

	mz := m.Object.(*mazeModule)
	q := h.batch(t, m.ID).Questions[0]
	require.Len(t, q.Answers, 6)
	goal := domain.Coord{Width: mazeSize, Height: mazeSize, Index: mz.goal}
	assert.Equal(t, goal.String(), q.Answers[q.Correct].Image.Name)
	start := domain.Coord{Width: mazeSize, Height: mazeSize, Index: mz.start}
	var names []string
	for _, a := range q.Answers {
		names = append(names, a.Image.Name)
	}
	assert.Contains(t, names, start.String(), "the start cell is always offered")
}

func TestHandlers_ShapeMismatchAbandons(t *testing.T) {
	h := newHarness(t)
	bad := domain.Module{ID: "m1", Type: TypeMorse, DisplayName: "Morse Code", Object: &morseModule{word: "xyzzy", frequency: 505}}
	good := domain.Module{ID: "w1", Type: TypeMaze, DisplayName: "Maze", Object: &mazeModule{size: mazeSize, start: 0, goal: 5}}
	h.sup.Process(t.Context(), bad)
	h.sup.Process(t.Context(), good)
	h.step(2)

	st, _ := h.sup.State("m1")
	assert.Equal(t, domain.TaskAbandoned, st)
	st, _ = h.sup.State("w1")
	assert.Equal(t, domain.TaskRunning, st)

	Solve(rand.New(rand.NewPCG(1, 1)), good)
	h.step(1)
	st, _ = h.sup.State("w1")
	assert.Equal(t, domain.TaskCompleted, st)
}

func TestHandlers_UnsupportedButton(t *testing.T) {
	h := newHarness(t)
	m, ok := NewModule(rand.New(rand.NewPCG(1, 1)), TypeButton)
	require.True(t, ok)
	h.sup.Process(context.Background(), m)
	_, ok = h.sup.State(m.ID)
	assert.False(t, ok)
}

func TestGenerate(t *testing.T) {
	mods := Generate(rand.New(rand.NewPCG(5, 5)), 8)
	require.Len(t, mods, 8)
	ids := map[string]bool{}
	for _, m := range mods {
		assert.NotEmpty(t, m.DisplayName)
		assert.NotNil(t, m.Object)
		ids[m.ID] = true
	}
	assert.Len(t, ids, 8)
	assert.Equal(t, mods[0].DisplayName, Names(mods)[0])

	_, ok := NewModule(rand.New(rand.NewPCG(5, 5)), "Unknown")
	assert.False(t, ok)
}
