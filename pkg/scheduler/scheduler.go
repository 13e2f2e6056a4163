package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/aretw0/souvenir/pkg/domain"
)

// Timings of the scheduler pass and the answer animations.
const (
	PollInterval     = 100 * time.Millisecond
	ThrottleInterval = time.Second
	AnswerAnimation  = 500 * time.Millisecond
	BlinkInterval    = 100 * time.Millisecond
	Blinks           = 14

	DefaultMinEligible  = 3
	DefaultDrainTimeout = time.Second
)

// ErrDrainTimeout is the cancellation cause for module tasks still active
// after every counted module was solved and the pool ran dry.
var ErrDrainTimeout = errors.New("all modules solved; stopped waiting for remaining tasks")

// ErrNotPresenting is returned when an answer arrives with no question awaiting one.
var ErrNotPresenting = errors.New("no question is awaiting an answer")

// ErrAnswerRange is returned for an answer index outside the answer set.
var ErrAnswerRange = errors.New("answer index out of range")

// BombState reports the progress of the lock the modules belong to.
type BombState interface {
	SolvableModuleNames() []string
	SolvedModuleNames() []string
}

// Activity reports how many module tasks may still add batches.
// CancelAll takes effect at each task's next resumption; KillAll ends the
// tasks at once.
type Activity interface {
	Active() int
	CancelAll(cause error)
	KillAll(cause error)
}

// Presenter is the presentation boundary. Calls happen on the engine loop.
type Presenter interface {
	Present(q *domain.QandA)
	// Answered reports the consumer's choice; index is -1 for a reveal.
	Answered(q *domain.QandA, index int, correct bool)
	// Blink toggles the highlight of the correct answer during a reveal.
	Blink(q *domain.QandA, on bool)
	Clear()
	Finish(warning bool)
}

// NopPresenter ignores every call.
type NopPresenter struct{}

func (NopPresenter) Present(*domain.QandA)             {}
func (NopPresenter) Answered(*domain.QandA, int, bool) {}
func (NopPresenter) Blink(*domain.QandA, bool)         {}
func (NopPresenter) Clear()                            {}
func (NopPresenter) Finish(bool)                       {}

// Status is a snapshot of the scheduler.
type Status struct {
	Slot      domain.SlotState `json:"slot"`
	Current   *domain.QandA    `json:"current,omitempty"`
	Pending   int              `json:"pending"`
	Solved    int              `json:"solved"`
	Total     int              `json:"total"`
	Presented int              `json:"presented"`
	Correct   int              `json:"correct"`
	Strikes   int              `json:"strikes"`
	Active    int              `json:"active"`
	Warning   bool             `json:"warning"`
}

// Scheduler owns the batch pool and the current-question slot. All methods
// except Done must be called on the loop goroutine.
type Scheduler struct {
	pool      Pool
	bomb      BombState
	activity  Activity
	presenter Presenter
	pressure  *Backpressure
	ignored   map[string]bool
	warning   func() bool
	now       func() time.Time

	rand         *rand.Rand
	logger       *slog.Logger
	hooks        domain.LifecycleHooks
	minEligible  int
	drainTimeout time.Duration

	ctx       context.Context
	slot      domain.SlotState
	current   *domain.QandA
	presented int
	correct   int
	strikes   int
	draining  time.Time
	cancelled bool
	done      chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRand sets the randomness source for batch and question selection.
func WithRand(r *rand.Rand) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.rand = r
		}
	}
}

// WithHooks sets the lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Scheduler) { s.hooks = hooks }
}

// WithPresenter sets the presentation boundary.
func WithPresenter(p Presenter) Option {
	return func(s *Scheduler) {
		if p != nil {
			s.presenter = p
		}
	}
}

// WithBackpressure shares a backpressure counter with collaborators.
func WithBackpressure(b *Backpressure) Option {
	return func(s *Scheduler) {
		if b != nil {
			s.pressure = b
		}
	}
}

// WithIgnored sets module names left out of the solved and total counts.
func WithIgnored(names ...string) Option {
	return func(s *Scheduler) {
		for _, n := range names {
			s.ignored[n] = true
		}
	}
}

// WithMinEligible sets how many batches must qualify before one is asked
// while modules remain unsolved.
func WithMinEligible(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.minEligible = n
		}
	}
}

// WithDrainTimeout sets how long to wait for active tasks once every
// counted module is solved and the pool is empty.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.drainTimeout = d
		}
	}
}

// WithWarning sets the source of the end-of-run warning flag.
func WithWarning(fn func() bool) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.warning = fn
		}
	}
}

// WithClock sets the time source used for events and drain deadlines.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Scheduler.
func New(bomb BombState, activity Activity, opts ...Option) *Scheduler {
	s := &Scheduler{
		bomb:         bomb,
		activity:     activity,
		presenter:    NopPresenter{},
		pressure:     &Backpressure{},
		ignored:      map[string]bool{},
		warning:      func() bool { return false },
		now:          time.Now,
		rand:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		minEligible:  DefaultMinEligible,
		drainTimeout: DefaultDrainTimeout,
		ctx:          context.Background(),
		slot:         domain.SlotIdle,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backpressure returns the counter the scheduler honours.
func (s *Scheduler) Backpressure() *Backpressure { return s.pressure }

// AddBatch puts a batch in the pool.
func (s *Scheduler) AddBatch(b domain.Batch) {
	s.pool.Add(b)
	if s.hooks.OnBatch != nil {
		s.hooks.OnBatch(s.ctx, &domain.BatchEvent{
			EventBase: s.event(domain.EventBatch),
			Module:    b.Module,
			Questions: len(b.Questions),
			Snapshot:  b.Snapshot,
			PoolSize:  s.pool.Len(),
		})
	}
}

// Progress counts solved and solvable modules, leaving out ignored names.
func (s *Scheduler) Progress() (solved, total int) {
	for _, n := range s.bomb.SolvableModuleNames() {
		if !s.ignored[n] {
			total++
		}
	}
	for _, n := range s.bomb.SolvedModuleNames() {
		if !s.ignored[n] {
			solved++
		}
	}
	return solved, total
}

// Solved is the solved half of Progress.
func (s *Scheduler) Solved() int {
	solved, _ := s.Progress()
	return solved
}

// Current returns the question in the slot, or nil.
func (s *Scheduler) Current() *domain.QandA { return s.current }

// Slot returns the slot state.
func (s *Scheduler) Slot() domain.SlotState { return s.slot }

// Done is closed when the scheduler reaches SlotDone. Safe for concurrent use.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Status returns a snapshot.
func (s *Scheduler) Status() Status {
	solved, total := s.Progress()
	return Status{
		Slot:      s.slot,
		Current:   s.current,
		Pending:   s.pool.Len(),
		Solved:    solved,
		Total:     total,
		Presented: s.presented,
		Correct:   s.correct,
		Strikes:   s.strikes,
		Active:    s.activity.Active(),
		Warning:   s.warning(),
	}
}

// Answer resolves the current question with the consumer's choice.
func (s *Scheduler) Answer(index int) (bool, error) {
	if s.slot != domain.SlotPresenting || s.current == nil {
		return false, ErrNotPresenting
	}
	if index < 0 || index >= len(s.current.Answers) {
		return false, ErrAnswerRange
	}
	correct := index == s.current.Correct
	if correct {
		s.correct++
		s.slot = domain.SlotAnswered
	} else {
		s.strikes++
		s.slot = domain.SlotRevealing
	}
	s.logger.Info("Question answered", "module", s.current.Module, "index", index, "correct", correct)
	s.answered(index, correct)
	return correct, nil
}

// Reveal resolves the current question without an answer, as on a timeout.
func (s *Scheduler) Reveal() error {
	if s.slot != domain.SlotPresenting || s.current == nil {
		return ErrNotPresenting
	}
	s.slot = domain.SlotRevealing
	s.answered(-1, false)
	return nil
}

func (s *Scheduler) answered(index int, correct bool) {
	s.presenter.Answered(s.current, index, correct)
	if s.hooks.OnAnswer != nil {
		s.hooks.OnAnswer(s.ctx, &domain.AnswerEvent{
			EventBase: s.event(domain.EventAnswer),
			Question:  s.current,
			Index:     index,
			Correct:   correct,
		})
	}
}

// Explode ends the run at once, logging what was never asked.
func (s *Scheduler) Explode() {
	if s.slot == domain.SlotDone {
		return
	}
	s.logger.Info("Bomb exploded", "pending_batches", s.pool.Len(), "modules", s.pool.Modules())
	s.activity.CancelAll(context.Canceled)
	s.finish()
}

func (s *Scheduler) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: s.now(), Type: t}
}

func (s *Scheduler) finish() {
	s.current = nil
	s.slot = domain.SlotDone
	warning := s.warning()
	s.presenter.Finish(warning)
	if s.hooks.OnFinish != nil {
		s.hooks.OnFinish(s.ctx, &domain.FinishEvent{EventBase: s.event(domain.EventFinished), Warning: warning})
	}
	close(s.done)
}
