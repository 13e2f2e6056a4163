package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/souvenir/pkg/domain"
)

// ErrStopped is returned when work is submitted to a loop that has shut down.
var ErrStopped = errors.New("loop stopped")

// DefaultTick is how often Run advances the loop.
const DefaultTick = 20 * time.Millisecond

// Task is one cooperative sequence of steps driven by a Loop.
type Task struct {
	name   string
	next   func() (domain.Step, bool)
	stop   func()
	wakeAt time.Time
	done   bool
}

// Name returns the name the task was spawned with.
func (t *Task) Name() string { return t.name }

// Done reports whether the task has finished. Only meaningful on the loop goroutine.
func (t *Task) Done() bool { return t.done }

// Loop runs every task and every posted function on a single goroutine.
// Tasks only advance when Step is called, and each task advances at most one
// step per call, so a freshly spawned task first runs on the following Step.
type Loop struct {
	tasks  []*Task
	now    time.Time
	tick   time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	inbox  []func()
	wake   chan struct{}
	closed bool
	done   chan struct{}
}

// Option configures a Loop.
type Option func(*Loop)

// WithTick sets the interval at which Run calls Step.
func WithTick(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.tick = d
		}
	}
}

// WithLogger sets the loop logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop creates an idle loop.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		tick:   DefaultTick,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the time of the step being executed.
func (l *Loop) Now() time.Time { return l.now }

// Spawn registers a task. Must be called on the loop goroutine, from a task
// or a posted function, or before the loop starts.
func (l *Loop) Spawn(name string, seq iter.Seq[domain.Step]) *Task {
	next, stop := iter.Pull(seq)
	t := &Task{name: name, next: next, stop: stop, wakeAt: l.now}
	l.tasks = append(l.tasks, t)
	return t
}

// Kill ends a task without resuming it again. Loop goroutine only.
func (l *Loop) Kill(t *Task) {
	if t.done {
		return
	}
	t.done = true
	t.stop()
}

// KillAll ends every live task. Loop goroutine only.
func (l *Loop) KillAll() {
	for _, t := range l.tasks {
		l.Kill(t)
	}
	l.tasks = nil
}

// Live is the number of tasks not yet finished.
func (l *Loop) Live() int {
	n := 0
	for _, t := range l.tasks {
		if !t.done {
			n++
		}
	}
	return n
}

// Post queues fn to run on the loop goroutine. Safe for concurrent use.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrStopped
	}
	l.inbox = append(l.inbox, fn)
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Call runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Query runs fn on the loop goroutine and returns its result.
func Query[T any](ctx context.Context, l *Loop, fn func() T) (T, error) {
	var out T
	err := l.Call(ctx, func() { out = fn() })
	return out, err
}

func (l *Loop) drain() {
	l.mu.Lock()
	queued := l.inbox
	l.inbox = nil
	l.mu.Unlock()
	for _, fn := range queued {
		fn()
	}
}

// Step runs queued functions and then resumes every task whose wait has
// elapsed at now. It returns the number of live tasks.
func (l *Loop) Step(now time.Time) int {
	l.now = now
	l.drain()

	current := len(l.tasks)
	for i := 0; i < current; i++ {
		t := l.tasks[i]
		if t.done || now.Before(t.wakeAt) {
			continue
		}
		step, ok := l.resume(t)
		if !ok {
			t.done = true
			continue
		}
		if step.Err != nil {
			l.logger.Error("Task failed", "task", t.name, "err", step.Err)
			l.Kill(t)
			continue
		}
		t.wakeAt = now.Add(step.Delay)
	}

	live := l.tasks[:0]
	for _, t := range l.tasks {
		if !t.done {
			live = append(live, t)
		}
	}
	clear(l.tasks[len(live):])
	l.tasks = live
	return len(live)
}

func (l *Loop) resume(t *Task) (step domain.Step, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			step, ok = domain.Fail(fmt.Errorf("panic: %v", r)), true
		}
	}()
	return t.next()
}

// Run drives the loop until ctx is cancelled or Stop is called. On return
// every remaining task has been killed.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()
	defer l.Close()

	l.Step(time.Now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
			l.now = time.Now()
			l.drain()
		case now := <-ticker.C:
			l.Step(now)
		}
	}
}

// Stop asks Run to return. Safe for concurrent use.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.done)
	}
}

// Stopped is closed once Stop or Close has been called.
func (l *Loop) Stopped() <-chan struct{} { return l.done }

// Close kills all tasks and rejects further posts. Queued functions that
// never ran are dropped. Loop goroutine only, or after Run has returned.
func (l *Loop) Close() {
	l.Stop()
	l.KillAll()
	l.mu.Lock()
	l.inbox = nil
	l.mu.Unlock()
}
