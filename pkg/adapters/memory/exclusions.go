package memory

import (
	"slices"
	"sync"

	"github.com/aretw0/souvenir/pkg/domain"
)

// Exclusions implements questions.Exclusions with a set of module names and
// type tags. A module is excluded when either its display name or its type
// is in the set. Safe for concurrent use.
type Exclusions struct {
	names map[string]bool
	mu    sync.RWMutex
}

// NewExclusions creates an exclusion set.
func NewExclusions(names ...string) *Exclusions {
	e := &Exclusions{names: make(map[string]bool)}
	e.Add(names...)
	return e
}

// Excluded reports whether m is configured out of questioning.
func (e *Exclusions) Excluded(m domain.Module) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.names[m.Type] || m.DisplayName != "" && e.names[m.DisplayName]
}

// Add excludes more names.
func (e *Exclusions) Add(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range names {
		if n != "" {
			e.names[n] = true
		}
	}
}

// Remove lifts exclusions.
func (e *Exclusions) Remove(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range names {
		delete(e.names, n)
	}
}

// List returns the excluded names, sorted.
func (e *Exclusions) List() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.names))
	for n := range e.names {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
