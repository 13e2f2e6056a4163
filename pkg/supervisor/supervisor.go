package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"runtime/debug"

	"github.com/aretw0/souvenir/internal/runtime"
	"github.com/aretw0/souvenir/pkg/domain"
	"github.com/aretw0/souvenir/pkg/questions"
	"github.com/aretw0/souvenir/pkg/registry"
)

// Status is a snapshot of one module task.
type Status struct {
	Module  domain.Module    `json:"module"`
	State   domain.TaskState `json:"state"`
	Batches int              `json:"batches"`
	Reason  string           `json:"reason,omitempty"`
}

type moduleTask struct {
	module domain.Module
	state  domain.TaskState
	reason string
	ctx    context.Context
	cancel context.CancelCauseFunc
	logger *slog.Logger
	task   *runtime.Task
}

// Supervisor owns the lifecycle of every module task. All methods must be
// called on the loop goroutine.
type Supervisor struct {
	loop     *runtime.Loop
	registry *registry.Registry
	builder  *questions.Builder
	logger   *slog.Logger
	hooks    domain.LifecycleHooks

	tasks map[string]*moduleTask
	order []string
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the supervisor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHooks sets the lifecycle hooks notified of task state changes.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Supervisor) { s.hooks = hooks }
}

// New creates a Supervisor that spawns its tasks on loop.
func New(loop *runtime.Loop, reg *registry.Registry, builder *questions.Builder, opts ...Option) *Supervisor {
	s := &Supervisor{
		loop:     loop,
		registry: reg,
		builder:  builder,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tasks:    map[string]*moduleTask{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start processes every module.
func (s *Supervisor) Start(ctx context.Context, modules []domain.Module) {
	for _, m := range modules {
		s.Process(ctx, m)
	}
}

// Process counts the module and, if a handler is registered for its type,
// spawns its task. Unsupported modules are logged and never run.
func (s *Supervisor) Process(ctx context.Context, m domain.Module) {
	ledger := s.builder.Ledger()
	ledger.AddModule(m)
	logger := s.logger.With("module", m.String(), "module_id", m.ID)

	if _, dup := s.tasks[m.ID]; dup {
		logger.Error("Module was already processed; ignoring duplicate")
		return
	}
	handler, err := s.registry.Lookup(m.Type)
	if err != nil {
		logger.Info("Module is not supported", "type", m.Type)
		return
	}

	taskCtx, cancel := context.WithCancelCause(ctx)
	mt := &moduleTask{module: m, state: domain.TaskPending, ctx: taskCtx, cancel: cancel, logger: logger}
	s.tasks[m.ID] = mt
	s.order = append(s.order, m.ID)
	s.emit(mt, "", domain.TaskPending, "")

	if s.builder.Excluded(m) {
		logger.Info("Module is excluded; it produces no questions")
		ledger.MarkNone(m.ID)
		s.transition(mt, domain.TaskCompleted, "excluded")
		cancel(nil)
		return
	}
	mt.task = s.loop.Spawn("module:"+m.ID, s.drive(mt, handler))
}

// drive is the task body for one module.
func (s *Supervisor) drive(mt *moduleTask, handler registry.Handler) iter.Seq[domain.Step] {
	return func(yield func(domain.Step) bool) {
		defer mt.cancel(nil)

		// One tick so the module has finished initialising before it is read.
		if !yield(domain.Yield()) {
			s.cancelled(mt, "loop stopped")
			return
		}
		if mt.ctx.Err() != nil {
			s.cancelled(mt, context.Cause(mt.ctx).Error())
			return
		}
		s.transition(mt, domain.TaskRunning, "")

		h := s.builder.Handle(mt.module)
		seq, err := start(handler, mt.ctx, h)
		if err != nil {
			s.fault(mt, err)
			return
		}
		next, stop := iter.Pull(seq)
		defer stop()

		for {
			if mt.ctx.Err() != nil {
				s.cancelled(mt, context.Cause(mt.ctx).Error())
				return
			}
			step, ok, err := resume(next)
			switch {
			case err != nil:
				s.fault(mt, err)
				return
			case !ok:
				s.complete(mt)
				return
			case step.Err != nil:
				if domain.IsAbandon(step.Err) {
					s.abandon(mt, step.Err)
				} else {
					s.fault(mt, step.Err)
				}
				return
			}
			if !yield(domain.Wait(step.Delay)) {
				s.cancelled(mt, "loop stopped")
				return
			}
		}
	}
}

// panicError carries a recovered panic and the stack where it was caught.
type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

func start(handler registry.Handler, ctx context.Context, h *questions.Handle) (seq iter.Seq[domain.Step], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()
	seq = handler(ctx, h)
	if seq == nil {
		return nil, errors.New("handler returned a nil sequence")
	}
	return seq, nil
}

func resume(next func() (domain.Step, bool)) (step domain.Step, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()
	step, ok = next()
	return step, ok, nil
}

func (s *Supervisor) complete(mt *moduleTask) {
	ledger := s.builder.Ledger()
	if ledger.Batches(mt.module.ID) == 0 && !ledger.ProducesNone(mt.module.ID) {
		mt.logger.Warn("Module completed without producing any questions")
		ledger.Warn()
	}
	s.transition(mt, domain.TaskCompleted, "")
}

func (s *Supervisor) abandon(mt *moduleTask, err error) {
	mt.logger.Info("Module abandoned", "reason", err.Error())
	s.builder.Ledger().Warn()
	s.transition(mt, domain.TaskAbandoned, err.Error())
}

func (s *Supervisor) fault(mt *moduleTask, err error) {
	attrs := []any{"error", err}
	var pe *panicError
	if errors.As(err, &pe) {
		attrs = append(attrs, "stack", string(pe.stack))
	}
	mt.logger.Error("Unexpected error while processing module", attrs...)
	s.builder.Ledger().Warn()
	s.transition(mt, domain.TaskAbandoned, err.Error())
}

func (s *Supervisor) cancelled(mt *moduleTask, reason string) {
	if mt.state.Terminal() {
		return
	}
	mt.logger.Info("Module task cancelled", "reason", reason)
	s.transition(mt, domain.TaskCancelled, reason)
}

func (s *Supervisor) transition(mt *moduleTask, to domain.TaskState, reason string) {
	from := mt.state
	mt.state = to
	mt.reason = reason
	s.emit(mt, from, to, reason)
}

func (s *Supervisor) emit(mt *moduleTask, from, to domain.TaskState, reason string) {
	if s.hooks.OnTaskState == nil {
		return
	}
	s.hooks.OnTaskState(mt.ctx, &domain.TaskEvent{
		EventBase: domain.EventBase{Timestamp: s.loop.Now(), Type: domain.EventTaskState},
		Module:    mt.module,
		From:      from,
		To:        to,
		Reason:    reason,
	})
}

// ErrCancelled is the cancellation cause recorded for externally cancelled modules.
var ErrCancelled = errors.New("cancelled externally")

// Cancel signals one module's task to stop. The task observes it before its
// next resumption.
func (s *Supervisor) Cancel(moduleID string) error {
	mt, ok := s.tasks[moduleID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrModuleNotFound, moduleID)
	}
	mt.cancel(ErrCancelled)
	return nil
}

// CancelAll signals every task that has not finished, recording cause.
func (s *Supervisor) CancelAll(cause error) {
	for _, id := range s.order {
		if mt := s.tasks[id]; !mt.state.Terminal() {
			mt.cancel(cause)
		}
	}
}

// KillAll ends every task that has not finished without waiting for its
// next resumption, recording cause. Use it for tasks parked in a long wait.
func (s *Supervisor) KillAll(cause error) {
	for _, id := range s.order {
		mt := s.tasks[id]
		if mt.state.Terminal() {
			continue
		}
		mt.cancel(cause)
		s.cancelled(mt, cause.Error())
		if mt.task != nil {
			s.loop.Kill(mt.task)
		}
	}
}

// Active is the number of tasks that are pending or running.
func (s *Supervisor) Active() int {
	n := 0
	for _, mt := range s.tasks {
		if !mt.state.Terminal() {
			n++
		}
	}
	return n
}

// State returns the state of a module's task.
func (s *Supervisor) State(moduleID string) (domain.TaskState, bool) {
	mt, ok := s.tasks[moduleID]
	if !ok {
		return "", false
	}
	return mt.state, true
}

// Statuses returns every task in processing order.
func (s *Supervisor) Statuses() []Status {
	ledger := s.builder.Ledger()
	out := make([]Status, 0, len(s.order))
	for _, id := range s.order {
		mt := s.tasks[id]
		out = append(out, Status{Module: mt.module, State: mt.state, Batches: ledger.Batches(id), Reason: mt.reason})
	}
	return out
}
