package demo

import (
	"context"
	"iter"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/aretw0/souvenir"
	"github.com/aretw0/souvenir/pkg/domain"
)

// DefaultPace is the time between two simulated solves.
const DefaultPace = 2 * time.Second

// Defuser returns a task that solves the modules one at a time in random
// order, one every pace, and reports each solve to onSolve. It runs on the
// engine loop, so module objects are never touched concurrently with their
// handlers.
func Defuser(modules []domain.Module, pace time.Duration, r *rand.Rand, onSolve func(domain.Module)) souvenir.TaskFunc {
	if pace <= 0 {
		pace = DefaultPace
	}
	return func(ctx context.Context, e *souvenir.Engine) iter.Seq[domain.Step] {
		return func(yield func(domain.Step) bool) {
			order := slices.Clone(modules)
			r.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
			for _, m := range order {
				if !yield(domain.Wait(pace)) || ctx.Err() != nil {
					return
				}
				if !Solve(r, m) {
					e.Logger().Warn("Cannot solve a foreign module", "module", m.String())
					continue
				}
				e.Logger().Debug("Module solved", "module", m.String(), "module_id", m.ID)
				if onSolve != nil {
					onSolve(m)
				}
			}
		}
	}
}
