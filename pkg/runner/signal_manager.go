package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// RaceWindow is how long CheckRace waits for a signal to follow an input error.
const RaceWindow = 100 * time.Millisecond

// SignalManager turns SIGINT and SIGTERM into context cancellation for a
// play session.
type SignalManager struct {
	parent  context.Context
	signals []os.Signal
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewSignalManager listens for SIGINT and SIGTERM, or for the given signals,
// on top of parent.
func NewSignalManager(parent context.Context, signals ...os.Signal) *SignalManager {
	if parent == nil {
		parent = context.Background()
	}
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	sm := &SignalManager{parent: parent, signals: signals}
	sm.Reset()
	return sm
}

// Context is cancelled when a signal arrives or Stop is called.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Reset re-arms the listener after a signal was handled.
func (sm *SignalManager) Reset() {
	if sm.cancel != nil {
		sm.cancel()
	}
	sm.ctx, sm.cancel = signal.NotifyContext(sm.parent, sm.signals...)
}

// Stop permanently stops the listener.
func (sm *SignalManager) Stop() {
	if sm.cancel != nil {
		sm.cancel()
	}
}

// Interrupted reports whether the current context ended.
func (sm *SignalManager) Interrupted() bool {
	return sm.ctx.Err() != nil
}

// CheckRace waits briefly for a cancellation that may follow an input error:
// on some consoles Ctrl+C closes stdin slightly before the signal lands.
// It reports whether the context ended.
func (sm *SignalManager) CheckRace() bool {
	if sm.ctx.Err() == nil {
		select {
		case <-sm.ctx.Done():
		case <-time.After(RaceWindow):
		}
	}
	return sm.Interrupted()
}
