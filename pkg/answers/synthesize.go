package answers

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

var (
	// ErrNoAnswers is returned when no wrong answer could be found.
	ErrNoAnswers = errors.New("no wrong answers available")
	// ErrNotInPool is returned when a correct or preferred answer is missing from the declared pool.
	ErrNotInPool = errors.New("answer is not in the declared pool")
	// ErrNoCorrect is returned when the request carries no correct answer.
	ErrNoCorrect = errors.New("no correct answer given")
	// ErrCount is returned for an answer count below two.
	ErrCount = errors.New("answer count must be at least 2")
)

// DefaultMaxDraws bounds how many candidates are pulled from a generator.
const DefaultMaxDraws = 1000

// Request describes one answer set to build.
type Request[T comparable] struct {
	// Count is the number of answer slots, including the correct one.
	Count int
	// Correct holds every acceptable correct answer; one is chosen at random.
	Correct []T
	// Pool is the fixed set of all legal answers. Nil means none is declared.
	Pool []T
	// Preferred wrong answers are always included, up to Count-1 of them.
	Preferred []T
	// Generator supplies further wrong answers on demand.
	Generator Generator[T]
	// MaxDraws bounds generator consumption. Zero means DefaultMaxDraws.
	MaxDraws int
}

// Set is a synthesized answer set.
type Set[T comparable] struct {
	Answers []T
	Correct int
}

// CorrectAnswer returns the answer at the correct index.
func (s Set[T]) CorrectAnswer() T {
	return s.Answers[s.Correct]
}

// Validate checks the request's invariants without building anything.
func (req Request[T]) Validate() error {
	if req.Count < 2 {
		return fmt.Errorf("%w: got %d", ErrCount, req.Count)
	}
	if len(req.Correct) == 0 {
		return ErrNoCorrect
	}
	if req.Pool == nil {
		return nil
	}
	for _, c := range req.Correct {
		if !slices.Contains(req.Pool, c) {
			return fmt.Errorf("%w: correct answer %v", ErrNotInPool, c)
		}
	}
	for _, p := range req.Preferred {
		if !slices.Contains(req.Pool, p) {
			return fmt.Errorf("%w: preferred wrong answer %v", ErrNotInPool, p)
		}
	}
	return nil
}

// Synthesize builds a shuffled answer set. The result never contains
// duplicates and holds exactly one correct answer. It may be shorter than
// Count when not enough distinct wrong answers exist.
func Synthesize[T comparable](r *rand.Rand, req Request[T]) (Set[T], error) {
	if err := req.Validate(); err != nil {
		return Set[T]{}, err
	}
	correct := dedupe(req.Correct, nil)
	excluded := make(map[T]bool, len(correct))
	for _, c := range correct {
		excluded[c] = true
	}
	quota := req.Count - 1

	preferred := dedupe(req.Preferred, excluded)
	if len(preferred) > quota {
		r.Shuffle(len(preferred), func(i, j int) { preferred[i], preferred[j] = preferred[j], preferred[i] })
		preferred = preferred[:quota]
	}
	wrong := preferred

	if req.Pool != nil || req.Generator != nil {
		for _, p := range preferred {
			excluded[p] = true
		}
		if req.Pool != nil && len(wrong) < quota {
			rest := dedupe(req.Pool, excluded)
			r.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
			if n := quota - len(wrong); len(rest) > n {
				rest = rest[:n]
			}
			for _, v := range rest {
				excluded[v] = true
			}
			wrong = append(wrong, rest...)
		}
		if req.Generator != nil && len(wrong) < quota {
			wrong = draw(r, req, wrong, excluded, quota)
		}
	}
	if len(wrong) == 0 {
		return Set[T]{}, ErrNoAnswers
	}

	r.Shuffle(len(wrong), func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] })
	pos := r.IntN(len(wrong) + 1)
	out := make([]T, 0, len(wrong)+1)
	out = append(out, wrong[:pos]...)
	out = append(out, correct[r.IntN(len(correct))])
	out = append(out, wrong[pos:]...)
	return Set[T]{Answers: out, Correct: pos}, nil
}

func draw[T comparable](r *rand.Rand, req Request[T], wrong []T, excluded map[T]bool, quota int) []T {
	limit := req.MaxDraws
	if limit <= 0 {
		limit = DefaultMaxDraws
	}
	draws := 0
	for v := range req.Generator(r) {
		if draws++; draws > limit {
			break
		}
		if excluded[v] {
			continue
		}
		excluded[v] = true
		wrong = append(wrong, v)
		if len(wrong) >= quota {
			break
		}
	}
	return wrong
}

// dedupe returns the distinct values of in, in order, skipping excluded ones.
func dedupe[T comparable](in []T, excluded map[T]bool) []T {
	seen := make(map[T]bool, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if seen[v] || excluded[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
