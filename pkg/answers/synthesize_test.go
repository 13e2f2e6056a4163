package answers

import (
	"iter"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func assertValidSet[T comparable](t *testing.T, set Set[T], correct []T, pool []T) {
	t.Helper()
	seen := map[T]bool{}
	hits := 0
	for _, a := range set.Answers {
		assert.False(t, seen[a], "duplicate answer %v", a)
		seen[a] = true
		if slices.Contains(correct, a) {
			hits++
		}
		if pool != nil {
			assert.Contains(t, pool, a)
		}
	}
	assert.Equal(t, 1, hits, "exactly one correct answer expected in %v", set.Answers)
	assert.Contains(t, correct, set.CorrectAnswer())
}

func TestSynthesize_FixedPool(t *testing.T) {
	pool := []string{"A", "B", "C", "D", "E"}
	r := seeded(1)
	for range 200 {
		set, err := Synthesize(r, Request[string]{Count: 4, Correct: []string{"A"}, Pool: pool})
		require.NoError(t, err)
		require.Len(t, set.Answers, 4)
		assertValidSet(t, set, []string{"A"}, pool)
		assert.Equal(t, "A", set.CorrectAnswer())
	}
}

func TestSynthesize_PreferredOnly(t *testing.T) {
	set, err := Synthesize(seeded(2), Request[string]{Count: 3, Correct: []string{"A"}, Preferred: []string{"B", "C"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, set.Answers)
	assert.Equal(t, "A", set.CorrectAnswer())
}

func TestSynthesize_PreferredOverlappingCorrect(t *testing.T) {
	r := seeded(3)
	for range 100 {
		set, err := Synthesize(r, Request[string]{
			Count:     4,
			Correct:   []string{"A", "B"},
			Preferred: []string{"B", "C", "C", "D"},
		})
		require.NoError(t, err)
		assertValidSet(t, set, []string{"A", "B"}, nil)
		assert.Len(t, set.Answers, 3)
	}
}

func TestSynthesize_PreferredNeverDropped(t *testing.T) {
	pool := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	r := seeded(4)
	for range 100 {
		set, err := Synthesize(r, Request[string]{Count: 4, Correct: []string{"A"}, Pool: pool, Preferred: []string{"G", "H"}})
		require.NoError(t, err)
		require.Len(t, set.Answers, 4)
		assert.Contains(t, set.Answers, "G")
		assert.Contains(t, set.Answers, "H")
	}
}

func TestSynthesize_TooManyPreferredAreSampled(t *testing.T) {
	set, err := Synthesize(seeded(5), Request[int]{Count: 3, Correct: []int{0}, Preferred: []int{1, 2, 3, 4, 5}})
	require.NoError(t, err)
	assert.Len(t, set.Answers, 3)
	assertValidSet(t, set, []int{0}, nil)
}

func TestSynthesize_GeneratorFillsShortPool(t *testing.T) {
	r := seeded(6)
	set, err := Synthesize(r, Request[int]{
		Count:     6,
		Correct:   []int{3},
		Pool:      nil,
		Generator: Integers(1, 9, 1),
	})
	require.NoError(t, err)
	require.Len(t, set.Answers, 6)
	assertValidSet(t, set, []int{3}, nil)
	for _, a := range set.Answers {
		assert.True(t, a >= 1 && a <= 9)
	}
}

func TestSynthesize_ShortSetWhenCandidatesRunOut(t *testing.T) {
	set, err := Synthesize(seeded(7), Request[string]{Count: 6, Correct: []string{"A"}, Pool: []string{"A", "B", "C"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, set.Answers)
}

func TestSynthesize_BoundedInfiniteGenerator(t *testing.T) {
	same := func(*rand.Rand) iter.Seq[string] {
		return func(yield func(string) bool) {
			for yield("X") {
			}
		}
	}
	set, err := Synthesize(seeded(8), Request[string]{Count: 4, Correct: []string{"A"}, Generator: same, MaxDraws: 50})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "X"}, set.Answers)
}

func TestSynthesize_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  Request[string]
		want error
	}{
		{"no sources", Request[string]{Count: 4, Correct: []string{"A"}}, ErrNoAnswers},
		{"only correct preferred", Request[string]{Count: 4, Correct: []string{"A"}, Preferred: []string{"A"}}, ErrNoAnswers},
		{"pool holds only correct", Request[string]{Count: 4, Correct: []string{"A"}, Pool: []string{"A"}}, ErrNoAnswers},
		{"correct outside pool", Request[string]{Count: 4, Correct: []string{"Z"}, Pool: []string{"A", "B"}}, ErrNotInPool},
		{"preferred outside pool", Request[string]{Count: 4, Correct: []string{"A"}, Pool: []string{"A", "B"}, Preferred: []string{"Q"}}, ErrNotInPool},
		{"no correct", Request[string]{Count: 4, Pool: []string{"A", "B"}}, ErrNoCorrect},
		{"bad count", Request[string]{Count: 1, Correct: []string{"A"}, Pool: []string{"A", "B"}}, ErrCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Synthesize(seeded(9), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSynthesize_CorrectIndexIsUniform(t *testing.T) {
	const trials = 8000
	r := seeded(10)
	counts := make([]int, 4)
	req := Request[string]{Count: 4, Correct: []string{"A"}, Pool: []string{"A", "B", "C", "D", "E"}}
	for range trials {
		set, err := Synthesize(r, req)
		require.NoError(t, err)
		counts[set.Correct]++
	}
	for i, c := range counts {
		assert.InDelta(t, trials/4, c, trials/20, "slot %d", i)
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	req := Request[string]{Count: 4, Correct: []string{"A"}, Pool: []string{"A", "B", "C", "D", "E", "F"}}
	a, err := Synthesize(seeded(11), req)
	require.NoError(t, err)
	b, err := Synthesize(seeded(11), req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
