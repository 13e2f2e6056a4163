package questions

import (
	"github.com/aretw0/souvenir/pkg/domain"
)

// Ledger is the per-run bookkeeping. It is owned by the engine loop and is
// not safe for concurrent use.
type Ledger struct {
	moduleCounts map[string]int
	solved       map[string]int
	batches      map[string]int
	none         map[string]bool
	warning      bool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		moduleCounts: map[string]int{},
		solved:       map[string]int{},
		batches:      map[string]int{},
		none:         map[string]bool{},
	}
}

// AddModule counts a live module of m.Type.
func (l *Ledger) AddModule(m domain.Module) {
	l.moduleCounts[m.Type]++
}

// ModuleCount is the number of modules of a type in this run.
func (l *Ledger) ModuleCount(moduleType string) int {
	return l.moduleCounts[moduleType]
}

// MarkSolved records one more solved module of a type and returns the new count.
func (l *Ledger) MarkSolved(moduleType string) int {
	l.solved[moduleType]++
	return l.solved[moduleType]
}

// SolvedCount is the number of recorded solves of a type.
func (l *Ledger) SolvedCount(moduleType string) int {
	return l.solved[moduleType]
}

// MarkNone records that a module legitimately produces no questions.
func (l *Ledger) MarkNone(moduleID string) {
	l.none[moduleID] = true
}

// ProducesNone reports whether MarkNone was called for the module.
func (l *Ledger) ProducesNone(moduleID string) bool {
	return l.none[moduleID]
}

// RecordBatch counts one registered batch for a module.
func (l *Ledger) RecordBatch(moduleID string) {
	l.batches[moduleID]++
}

// Batches is the number of batches a module registered.
func (l *Ledger) Batches(moduleID string) int {
	return l.batches[moduleID]
}

// Warn raises the end-of-run warning flag.
func (l *Ledger) Warn() {
	l.warning = true
}

// Warning reports whether any module was abandoned, faulted, or silently produced nothing.
func (l *Ledger) Warning() bool {
	return l.warning
}
