package memory

import (
	"slices"
	"sync"
)

// Bomb implements scheduler.BombState in memory.
// Safe for concurrent use.
type Bomb struct {
	solvable []string
	solved   []string
	strikes  int
	mu       sync.RWMutex
}

// NewBomb creates a bomb whose solvable modules have the given names.
// Names repeat once per module instance.
func NewBomb(solvable ...string) *Bomb {
	return &Bomb{solvable: slices.Clone(solvable)}
}

// SolvableModuleNames returns a copy so callers cannot mutate the bomb.
func (b *Bomb) SolvableModuleNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.solvable)
}

// SolvedModuleNames returns the names solved so far, in solve order.
func (b *Bomb) SolvedModuleNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.solved)
}

// AddSolvable adds module names to the bomb.
func (b *Bomb) AddSolvable(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.solvable = append(b.solvable, names...)
}

// Solve records one module of the given name as solved. It reports false if
// every module of that name is already solved, or none exists.
func (b *Bomb) Solve(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if count(b.solved, name) >= count(b.solvable, name) {
		return false
	}
	b.solved = append(b.solved, name)
	return true
}

// Strike records a mistake and returns the new total.
func (b *Bomb) Strike() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.strikes++
	return b.strikes
}

// Strikes returns the mistakes recorded so far.
func (b *Bomb) Strikes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.strikes
}

// Reset forgets every solve and strike.
func (b *Bomb) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.solved = nil
	b.strikes = 0
}

func count(names []string, name string) int {
	n := 0
	for _, s := range names {
		if s == name {
			n++
		}
	}
	return n
}
