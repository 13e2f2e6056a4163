package domain

import "time"

// TaskState is the lifecycle state of one module's production task.
type TaskState string

const (
	TaskPending   TaskState = "pending"   // Registered, waiting for the module to finish initializing
	TaskRunning   TaskState = "running"   // Handler is being driven
	TaskCompleted TaskState = "completed" // Handler ran to exhaustion
	TaskAbandoned TaskState = "abandoned" // Handler abandoned or faulted
	TaskCancelled TaskState = "cancelled" // Cancelled from outside between two steps
)

// Terminal reports whether no further transition can happen.
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskAbandoned || s == TaskCancelled
}

// SlotState is the state of the externally visible "current question" slot.
type SlotState string

const (
	SlotIdle       SlotState = "idle"
	SlotPresenting SlotState = "presenting"
	SlotAnswered   SlotState = "answered"  // Correct answer given, short animation running
	SlotRevealing  SlotState = "revealing" // Wrong answer or timeout, correct answer blinking
	SlotDone       SlotState = "done"      // Questions exhausted
)

// Step is one suspension point of a cooperative task.
// A zero Step resumes the task on the next tick.
type Step struct {
	// Delay postpones the next resumption by at least this long.
	Delay time.Duration

	// Err ends the task. Handlers use it to abandon their module.
	Err error
}

// Yield resumes on the next tick.
func Yield() Step { return Step{} }

// Wait resumes once d has elapsed.
func Wait(d time.Duration) Step { return Step{Delay: d} }

// Fail ends the task with err.
func Fail(err error) Step { return Step{Err: err} }
