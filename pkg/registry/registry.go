package registry

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/aretw0/souvenir/pkg/domain"
	"github.com/aretw0/souvenir/pkg/questions"
)

// ErrNoHandler is returned when no handler is registered for a module type.
var ErrNoHandler = errors.New("no handler registered")

// Handler defines the signature of a module's question-producing procedure.
// It returns a lazy sequence of steps; consuming it drives one module to
// exhaustion. Returning a domain.AbandonError from a step abandons the module.
type Handler func(ctx context.Context, h *questions.Handle) iter.Seq[domain.Step]

// Registry manages the handlers available to the supervisor, keyed by module type.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for a module type.
// If a handler for the same type exists, it is overwritten.
func (r *Registry) Register(moduleType string, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[moduleType] = fn
}

// Lookup returns the handler for a module type.
func (r *Registry) Lookup(moduleType string) (Handler, error) {
	r.mu.RLock()
	fn, ok := r.handlers[moduleType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, moduleType)
	}
	return fn, nil
}

// Types lists the registered module types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
