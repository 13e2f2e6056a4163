package souvenir

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/aretw0/souvenir/internal/runtime"
	"github.com/aretw0/souvenir/pkg/adapters/memory"
	"github.com/aretw0/souvenir/pkg/catalog"
	"github.com/aretw0/souvenir/pkg/domain"
	"github.com/aretw0/souvenir/pkg/questions"
	"github.com/aretw0/souvenir/pkg/registry"
	"github.com/aretw0/souvenir/pkg/scheduler"
	"github.com/aretw0/souvenir/pkg/supervisor"
)

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("engine already started")

// ErrStopped is returned by queries made after the engine loop shut down.
var ErrStopped = runtime.ErrStopped

// DefaultIgnoredModules are left out of the solved and total module counts:
// modules that are never solved on their own or that solve in unusual ways.
var DefaultIgnoredModules = []string{
	"The Heart", "The Swan", "+", "14", "42", "501", "A>N<D", "Bamboozling Time Keeper",
	"Black Arrows", "Brainf---", "Busy Beaver", "Cube Synchronization", "Don't Touch Anything",
	"Floor Lights", "Forget Any Color", "Forget Enigma", "Forget Everything", "Forget Infinity",
	"Forget Maze Not", "Forget It Not", "Forget Me Not", "Forget Me Later", "Forget Perspective",
	"Forget The Colors", "Forget This", "Forget Them All", "Forget Us Not", "Iconic",
	"Keypad Directionality", "Kugelblitz", "Multitask", "OmegaDestroyer", "OmegaForget",
	"Organization", "Password Destroyer", "Purgatory", "RPS Judging", "Security Council",
	"Shoddy Chess", "Simon Forgets", "Simon's Stages", "Soulscream", "Souvenir",
	"Tallordered Keys", "The Time Keeper", "The Troll", "The Twin", "The Very Annoying Button",
	"Timing is Everything", "Turn The Key", "Ultimate Custom Night", "Whiteout", "Übermodule",
}

// TaskFunc builds an auxiliary task run on the engine loop next to the module tasks.
type TaskFunc func(ctx context.Context, e *Engine) iter.Seq[domain.Step]

type namedTask struct {
	name string
	fn   TaskFunc
}

// Status is a snapshot of the engine: the scheduler view plus every module task.
type Status struct {
	scheduler.Status
	Modules      []supervisor.Status `json:"modules"`
	Backpressure int                 `json:"backpressure"`
}

// Report summarises a finished run.
type Report struct {
	Status
	Exploded bool          `json:"exploded"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Engine is the high-level entry point of the library. It wires the loop,
// the module supervisor, the batch builder and the scheduler together.
type Engine struct {
	loop   *runtime.Loop
	sched  *scheduler.Scheduler
	sup    *supervisor.Supervisor
	ledger *questions.Ledger

	catalog      *catalog.Catalog
	registry     *registry.Registry
	bomb         scheduler.BombState
	exclusions   questions.Exclusions
	presenter    scheduler.Presenter
	grid         questions.GridRenderer
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	rand         *rand.Rand
	tick         time.Duration
	ignored      []string
	minEligible  int
	drainTimeout time.Duration
	tasks        []namedTask

	started  atomic.Bool
	exploded atomic.Bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRand sets the randomness source shared by answer synthesis and scheduling.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rand = r
	}
}

// WithSeed seeds a PCG source, for reproducible runs.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rand = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithTick sets the loop tick.
func WithTick(d time.Duration) Option {
	return func(e *Engine) {
		e.tick = d
	}
}

// WithCatalog sets the question definitions.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithRegistry sets the handlers, keyed by module type.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithBombState sets the provider of solvable and solved module names.
func WithBombState(b scheduler.BombState) Option {
	return func(e *Engine) {
		e.bomb = b
	}
}

// WithExclusions sets the modules configured out of questioning.
func WithExclusions(x questions.Exclusions) Option {
	return func(e *Engine) {
		e.exclusions = x
	}
}

// WithIgnored replaces the default ignored module names.
func WithIgnored(names ...string) Option {
	return func(e *Engine) {
		e.ignored = names
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls merge.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithPresenter sets the presentation boundary.
func WithPresenter(p scheduler.Presenter) Option {
	return func(e *Engine) {
		e.presenter = p
	}
}

// WithGridRenderer sets how grid answers become images.
func WithGridRenderer(g questions.GridRenderer) Option {
	return func(e *Engine) {
		e.grid = g
	}
}

// WithMinEligible sets how many batches must qualify before one is asked
// while modules remain unsolved.
func WithMinEligible(n int) Option {
	return func(e *Engine) {
		e.minEligible = n
	}
}

// WithDrainTimeout bounds the wait for module tasks once every module is solved.
func WithDrainTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.drainTimeout = d
	}
}

// WithTask runs an auxiliary task on the engine loop for the duration of Run.
func WithTask(name string, fn TaskFunc) Option {
	return func(e *Engine) {
		e.tasks = append(e.tasks, namedTask{name: name, fn: fn})
	}
}

// New initializes a new Engine. Without options it has an empty catalog, an
// empty registry and an in-memory bomb with no modules.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{ignored: DefaultIgnoredModules}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.rand == nil {
		e.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.catalog == nil {
		cat, err := catalog.New()
		if err != nil {
			return nil, err
		}
		e.catalog = cat
	}
	if e.registry == nil {
		e.registry = registry.NewRegistry()
	}
	if e.bomb == nil {
		e.bomb = memory.NewBomb()
	}
	if e.exclusions == nil {
		e.exclusions = memory.NewExclusions()
	}

	e.loop = runtime.NewLoop(runtime.WithTick(e.tick), runtime.WithLogger(e.logger))
	e.ledger = questions.NewLedger()
	e.sched = scheduler.New(e.bomb, activity{e},
		scheduler.WithLogger(e.logger),
		scheduler.WithRand(e.rand),
		scheduler.WithHooks(e.hooks),
		scheduler.WithPresenter(e.presenter),
		scheduler.WithIgnored(e.ignored...),
		scheduler.WithMinEligible(e.minEligible),
		scheduler.WithDrainTimeout(e.drainTimeout),
		scheduler.WithWarning(e.ledger.Warning),
		scheduler.WithClock(e.loop.Now),
	)
	builder := questions.NewBuilder(e.catalog, e.ledger, e.sched,
		questions.WithLogger(e.logger),
		questions.WithRand(e.rand),
		questions.WithExclusions(e.exclusions),
		questions.WithGridRenderer(e.grid),
		questions.WithProgress(e.sched.Solved),
	)
	e.sup = supervisor.New(e.loop, e.registry, builder,
		supervisor.WithLogger(e.logger),
		supervisor.WithHooks(e.hooks),
	)
	return e, nil
}

// activity breaks the construction cycle between scheduler and supervisor.
type activity struct{ e *Engine }

func (a activity) Active() int { return a.e.sup.Active() }

func (a activity) CancelAll(cause error) { a.e.sup.CancelAll(cause) }

func (a activity) KillAll(cause error) { a.e.sup.KillAll(cause) }

// Run processes modules and serves questions until they are exhausted, the
// bomb explodes or ctx is cancelled. It blocks; queries from other goroutines
// are served while it runs.
func (e *Engine) Run(ctx context.Context, modules []domain.Module) (*Report, error) {
	if !e.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}
	start := time.Now()
	e.logger.Info("Starting", "modules", len(modules), "questions", e.catalog.Len(), "handlers", len(e.registry.Types()))

	if err := e.loop.Post(func() {
		e.loop.Spawn("scheduler", e.sched.Task(ctx))
		e.sup.Start(ctx, modules)
		for _, t := range e.tasks {
			e.loop.Spawn(t.name, t.fn(ctx, e))
		}
	}); err != nil {
		return nil, err
	}

	go func() {
		select {
		case <-e.sched.Done():
			e.loop.Stop()
		case <-e.loop.Stopped():
		}
	}()

	err := e.loop.Run(ctx)
	report := &Report{Status: e.status(), Exploded: e.exploded.Load(), Elapsed: time.Since(start)}
	e.logger.Info("Finished", "presented", report.Presented, "correct", report.Correct, "strikes", report.Strikes, "warning", report.Warning)
	return report, err
}

func (e *Engine) status() Status {
	return Status{
		Status:       e.sched.Status(),
		Modules:      e.sup.Statuses(),
		Backpressure: e.sched.Backpressure().Level(),
	}
}

// Status returns a snapshot of the running engine.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	return runtime.Query(ctx, e.loop, e.status)
}

// Current returns the question being presented, or nil.
func (e *Engine) Current(ctx context.Context) (*domain.QandA, error) {
	return runtime.Query(ctx, e.loop, e.sched.Current)
}

// Answer submits the consumer's choice for the current question.
func (e *Engine) Answer(ctx context.Context, index int) (bool, error) {
	var correct bool
	var err error
	if cerr := e.loop.Call(ctx, func() { correct, err = e.sched.Answer(index) }); cerr != nil {
		return false, cerr
	}
	return correct, err
}

// Reveal gives up on the current question, as when the answer time runs out.
func (e *Engine) Reveal(ctx context.Context) error {
	var err error
	if cerr := e.loop.Call(ctx, func() { err = e.sched.Reveal() }); cerr != nil {
		return cerr
	}
	return err
}

// Cancel stops one module's task before its next step.
func (e *Engine) Cancel(ctx context.Context, moduleID string) error {
	var err error
	if cerr := e.loop.Call(ctx, func() { err = e.sup.Cancel(moduleID) }); cerr != nil {
		return cerr
	}
	return err
}

// Explode ends the run at once.
func (e *Engine) Explode(ctx context.Context) error {
	return e.loop.Call(ctx, func() {
		e.exploded.Store(true)
		e.sched.Explode()
	})
}

// Suppress holds questions back until a matching Release. Safe for concurrent use.
func (e *Engine) Suppress() { e.sched.Backpressure().Suppress() }

// Release undoes one Suppress.
func (e *Engine) Release() bool { return e.sched.Backpressure().Release() }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Catalog returns the question definitions in use.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Done is closed once every question has been asked or the bomb exploded.
func (e *Engine) Done() <-chan struct{} { return e.sched.Done() }
