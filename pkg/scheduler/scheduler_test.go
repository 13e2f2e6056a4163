package scheduler

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aretw0/souvenir/internal/runtime"
	"github.com/aretw0/souvenir/pkg/domain"
)

type bomb struct {
	solvable []string
	solved   []string
}

func (b *bomb) SolvableModuleNames() []string { return b.solvable }
func (b *bomb) SolvedModuleNames() []string   { return b.solved }

func (b *bomb) solve(n int) { b.solved = append(b.solved, b.solvable[len(b.solved):len(b.solved)+n]...) }

// activity stands in for the supervisor. A stubborn task ignores
// cancellation and only a kill ends it.
type activity struct {
	active   int
	stubborn bool
	cause    error
	killed   error
}

func (a *activity) Active() int { return a.active }

func (a *activity) CancelAll(cause error) {
	a.cause = cause
	if !a.stubborn {
		a.active = 0
	}
}

func (a *activity) KillAll(cause error) {
	a.killed = cause
	a.active = 0
}

type recorder struct {
	NopPresenter
	presented []*domain.QandA
	blinks    int
	cleared   int
	finished  bool
	warning   bool
}

func (r *recorder) Present(q *domain.QandA)   { r.presented = append(r.presented, q) }
func (r *recorder) Blink(*domain.QandA, bool) { r.blinks++ }
func (r *recorder) Clear()                    { r.cleared++ }
func (r *recorder) Finish(w bool)             { r.finished, r.warning = true, w }

type harness struct {
	loop  *runtime.Loop
	sched *Scheduler
	bomb  *bomb
	act   *activity
	pres  *recorder
	now   time.Time
	asked []*domain.QuestionEvent
}

func newHarness(t *testing.T, solvable int, opts ...Option) *harness {
	t.Helper()
	h := &harness{loop: runtime.NewLoop(), bomb: &bomb{}, act: &activity{}, pres: &recorder{}, now: time.Unix(100, 0)}
	for i := range solvable {
		h.bomb.solvable = append(h.bomb.solvable, string(rune('A'+i)))
	}
	hooks := domain.LifecycleHooks{OnQuestion: func(_ context.Context, e *domain.QuestionEvent) { h.asked = append(h.asked, e) }}
	opts = append([]Option{
		WithRand(rand.New(rand.NewPCG(5, 6))),
		WithPresenter(h.pres),
		WithHooks(hooks),
		WithClock(h.loop.Now),
	}, opts...)
	h.sched = New(h.bomb, h.act, opts...)
	h.loop.Spawn("scheduler", h.sched.Task(t.Context()))
	// Cleanups run last-in first-out: the loop closes before the leak check.
	t.Cleanup(func() { goleak.VerifyNone(t) })
	t.Cleanup(h.loop.Close)
	return h
}

// advance steps the loop in 50ms increments.
func (h *harness) advance(d time.Duration) {
	for end := h.now.Add(d); h.now.Before(end); {
		h.now = h.now.Add(50 * time.Millisecond)
		h.loop.Step(h.now)
	}
}

func (h *harness) add(module string, snapshot int) {
	q := &domain.QandA{ModuleID: module, Module: module, Text: "Q " + module, Answers: []domain.Answer{{Text: "a"}, {Text: "b"}}, Correct: 1}
	h.sched.AddBatch(domain.Batch{Module: domain.Module{ID: module, Type: module}, Questions: []*domain.QandA{q}, Snapshot: snapshot})
}

func isDone(s *Scheduler) bool {
	select {
	case <-s.Done():
		return true
	default:
		return false
	}
}

func TestScheduler_FinishesWhenPoolEmptyAndNoTasks(t *testing.T) {
	h := newHarness(t, 3, WithWarning(func() bool { return true }))

	h.advance(100 * time.Millisecond)
	assert.Equal(t, domain.SlotDone, h.sched.Slot())
	assert.True(t, isDone(h.sched))
	assert.True(t, h.pres.finished)
	assert.True(t, h.pres.warning)
	assert.Equal(t, 0, h.loop.Live())
}

func TestScheduler_FairnessThrottle(t *testing.T) {
	h := newHarness(t, 5)
	h.act.active = 2
	h.bomb.solve(1)

	h.add("w", 0)
	h.add("k", 0)
	h.add("self", 1) // created at the latest solve, not eligible yet
	h.advance(3 * time.Second)
	assert.Empty(t, h.pres.presented, "only two eligible batches")

	h.add("m", 0)
	h.advance(2 * time.Second)
	require.Len(t, h.pres.presented, 1)
	assert.NotEqual(t, "self", h.pres.presented[0].ModuleID)
	assert.Equal(t, domain.SlotPresenting, h.sched.Slot())
	assert.Equal(t, 3, h.sched.Status().Pending)
}

func TestScheduler_EndgameAsksEverything(t *testing.T) {
	h := newHarness(t, 2)
	h.bomb.solve(2)
	h.add("last", 2)

	h.advance(200 * time.Millisecond)
	require.Len(t, h.pres.presented, 1)
	assert.Equal(t, "last", h.pres.presented[0].ModuleID)

	correct, err := h.sched.Answer(1)
	require.NoError(t, err)
	assert.True(t, correct)
	assert.Equal(t, domain.SlotAnswered, h.sched.Slot())

	h.advance(time.Second)
	assert.Equal(t, domain.SlotDone, h.sched.Slot())
	assert.Equal(t, 1, h.pres.cleared)
	assert.Equal(t, 1, h.sched.Status().Correct)
}

func TestScheduler_WrongAnswerBlinks(t *testing.T) {
	h := newHarness(t, 1)
	h.act.active = 1
	h.bomb.solve(1)
	h.add("x", 0)

	h.advance(200 * time.Millisecond)
	require.NotNil(t, h.sched.Current())

	_, err := h.sched.Answer(5)
	assert.ErrorIs(t, err, ErrAnswerRange)

	correct, err := h.sched.Answer(0)
	require.NoError(t, err)
	assert.False(t, correct)
	assert.Equal(t, domain.SlotRevealing, h.sched.Slot())

	_, err = h.sched.Answer(1)
	assert.ErrorIs(t, err, ErrNotPresenting, "answers during the reveal are ignored")

	h.advance(2 * time.Second)
	assert.Equal(t, Blinks, h.pres.blinks)
	assert.Nil(t, h.sched.Current())
	assert.Equal(t, 1, h.sched.Status().Strikes)
}

func TestScheduler_RevealWithoutAnswer(t *testing.T) {
	h := newHarness(t, 1)
	h.act.active = 1
	h.bomb.solve(1)
	h.add("x", 0)

	assert.ErrorIs(t, h.sched.Reveal(), ErrNotPresenting)
	h.advance(200 * time.Millisecond)
	require.NoError(t, h.sched.Reveal())
	assert.Equal(t, domain.SlotRevealing, h.sched.Slot())
	h.advance(2 * time.Second)
	assert.Equal(t, 0, h.sched.Status().Strikes)
}

func TestScheduler_Backpressure(t *testing.T) {
	h := newHarness(t, 1)
	h.act.active = 1
	h.bomb.solve(1)
	h.add("x", 0)

	bp := h.sched.Backpressure()
	bp.Suppress()
	bp.Suppress()
	h.advance(time.Second)
	assert.Empty(t, h.pres.presented)

	assert.True(t, bp.Release())
	h.advance(time.Second)
	assert.Empty(t, h.pres.presented)

	assert.True(t, bp.Release())
	assert.False(t, bp.Release(), "never below zero")
	assert.Equal(t, 0, bp.Level())
	h.advance(300 * time.Millisecond)
	assert.Len(t, h.pres.presented, 1)
}

func TestScheduler_DrainCancelsLingeringTasks(t *testing.T) {
	h := newHarness(t, 2, WithDrainTimeout(500*time.Millisecond))
	h.act.active = 1
	h.bomb.solve(2)

	h.advance(300 * time.Millisecond)
	assert.Nil(t, h.act.cause)
	assert.False(t, isDone(h.sched))

	h.advance(time.Second)
	assert.ErrorIs(t, h.act.cause, ErrDrainTimeout)
	assert.True(t, isDone(h.sched))
}

func TestScheduler_DrainKillsTasksThatIgnoreCancellation(t *testing.T) {
	h := newHarness(t, 2, WithDrainTimeout(500*time.Millisecond))
	h.act.active = 1
	h.act.stubborn = true
	h.bomb.solve(2)

	h.advance(700 * time.Millisecond)
	assert.ErrorIs(t, h.act.cause, ErrDrainTimeout)
	assert.Nil(t, h.act.killed)
	assert.False(t, isDone(h.sched))

	h.advance(600 * time.Millisecond)
	assert.ErrorIs(t, h.act.killed, ErrDrainTimeout)
	assert.True(t, isDone(h.sched))
}

func TestScheduler_IgnoredModulesAreNotCounted(t *testing.T) {
	h := newHarness(t, 3, WithIgnored("B", "C"))
	h.bomb.solve(1)
	solved, total := h.sched.Progress()
	assert.Equal(t, 1, solved)
	assert.Equal(t, 1, total)
}

func TestScheduler_EmptyBatchIsDiscarded(t *testing.T) {
	h := newHarness(t, 1)
	h.bomb.solve(1)
	h.sched.AddBatch(domain.Batch{Module: domain.Module{ID: "e"}})
	h.advance(300 * time.Millisecond)
	assert.Empty(t, h.pres.presented)
	assert.True(t, isDone(h.sched))
}

func TestScheduler_Explode(t *testing.T) {
	h := newHarness(t, 4)
	h.act.active = 3
	h.add("a", 0)
	h.add("b", 0)
	h.advance(100 * time.Millisecond)

	h.sched.Explode()
	assert.True(t, isDone(h.sched))
	assert.ErrorIs(t, h.act.cause, context.Canceled)
	// The task is parked in a throttle wait and ends at its next resumption.
	h.advance(ThrottleInterval + 100*time.Millisecond)
	assert.Equal(t, 0, h.loop.Live())
	h.sched.Explode()
}

// Over a randomised run, no batch is presented before a later solve while the
// bomb is unsolved, and every batch is eventually asked.
func TestScheduler_NeverAsksAboutLatestSolve(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	h := newHarness(t, 12)
	h.act.active = 12

	added := 0
	for h.bomb.solved == nil || len(h.bomb.solved) < 12 {
		h.bomb.solve(1)
		h.act.active--
		for range r.IntN(3) {
			h.add("m", len(h.bomb.solved))
			added++
		}
		for range 10 {
			h.advance(500 * time.Millisecond)
			if h.sched.Current() != nil && h.sched.Slot() == domain.SlotPresenting {
				_, err := h.sched.Answer(r.IntN(2))
				require.NoError(t, err)
			}
		}
	}
	for range 200 {
		if isDone(h.sched) {
			break
		}
		h.advance(500 * time.Millisecond)
		if h.sched.Slot() == domain.SlotPresenting {
			_, err := h.sched.Answer(1)
			require.NoError(t, err)
		}
	}

	require.True(t, isDone(h.sched))
	assert.Len(t, h.asked, added)
	for _, e := range h.asked {
		if e.Solved < e.Total {
			assert.Less(t, e.Snapshot, e.Solved)
		}
	}
}
