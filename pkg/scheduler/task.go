package scheduler

import (
	"context"
	"iter"
	"time"

	"github.com/aretw0/souvenir/pkg/domain"
)

// Task returns the scheduler's main loop, to be spawned on the engine loop.
// It ends when the scheduler reaches SlotDone.
func (s *Scheduler) Task(ctx context.Context) iter.Seq[domain.Step] {
	s.ctx = ctx
	return func(yield func(domain.Step) bool) {
		for s.slot != domain.SlotDone && s.pass(yield) {
		}
	}
}

// pass runs one scheduling iteration. It returns false when the task must end.
func (s *Scheduler) pass(yield func(domain.Step) bool) bool {
	wait := func(d time.Duration) bool {
		return yield(domain.Wait(d)) && s.slot != domain.SlotDone
	}

	if s.pressure.Suppressed() {
		return wait(PollInterval)
	}

	solved, total := s.Progress()
	allSolved := solved >= total
	if s.pool.Len() == 0 {
		if s.activity.Active() == 0 {
			s.logger.Info("All questions asked", "presented", s.presented, "solved", solved, "total", total)
			s.finish()
			return false
		}
		if allSolved {
			return s.drain(wait)
		}
	}
	s.draining = time.Time{}
	s.cancelled = false

	eligible := s.pool.Eligible(solved, allSolved)
	if len(eligible) == 0 || !allSolved && len(eligible) < s.minEligible {
		return wait(ThrottleInterval)
	}

	batch := s.pool.Take(pick(s.rand, eligible))
	if len(batch.Questions) == 0 {
		return true
	}
	q := pick(s.rand, batch.Questions)
	s.present(q, batch.Snapshot, solved, total)

	for s.slot == domain.SlotPresenting {
		if !wait(PollInterval) {
			return false
		}
	}
	switch s.slot {
	case domain.SlotAnswered:
		if !wait(AnswerAnimation) {
			return false
		}
	case domain.SlotRevealing:
		for i := range Blinks {
			s.presenter.Blink(q, i%2 == 0)
			if !wait(BlinkInterval) {
				return false
			}
		}
	}
	s.current = nil
	s.slot = domain.SlotIdle
	s.presenter.Clear()
	return true
}

// drain waits for tasks that are still active after everything was solved.
// It cancels them once the drain timeout passes and kills whatever is left
// after a second timeout, such as a task parked in a long wait.
func (s *Scheduler) drain(wait func(time.Duration) bool) bool {
	now := s.now()
	switch {
	case s.draining.IsZero():
		s.draining = now.Add(s.drainTimeout)
	case now.Before(s.draining):
	case !s.cancelled:
		s.logger.Info("Cancelling module tasks still active after all modules were solved", "active", s.activity.Active())
		s.activity.CancelAll(ErrDrainTimeout)
		s.cancelled = true
		s.draining = now.Add(s.drainTimeout)
	default:
		s.logger.Warn("Killing module tasks that did not stop after cancellation", "active", s.activity.Active())
		s.activity.KillAll(ErrDrainTimeout)
	}
	return wait(PollInterval)
}

func (s *Scheduler) present(q *domain.QandA, snapshot, solved, total int) {
	s.current = q
	s.slot = domain.SlotPresenting
	s.presented++
	s.logger.Info("Presenting question", "module", q.Module, "text", q.Text, "solved", solved, "total", total)
	s.logger.Debug("Question detail", "question", q.Debug())
	s.presenter.Present(q)
	if s.hooks.OnQuestion != nil {
		s.hooks.OnQuestion(s.ctx, &domain.QuestionEvent{
			EventBase: s.event(domain.EventQuestion),
			Question:  q,
			Snapshot:  snapshot,
			Solved:    solved,
			Total:     total,
		})
	}
}
