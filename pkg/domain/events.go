package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTaskState EventType = "task_state"
	EventBatch     EventType = "batch_added"
	EventQuestion  EventType = "question_presented"
	EventAnswer    EventType = "answer"
	EventFinished  EventType = "finished"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// TaskEvent reports a module task state transition.
type TaskEvent struct {
	EventBase
	Module Module    `json:"module"`
	From   TaskState `json:"from"`
	To     TaskState `json:"to"`
	Reason string    `json:"reason,omitempty"`
}

// BatchEvent reports a batch entering the pool.
type BatchEvent struct {
	EventBase
	Module    Module `json:"module"`
	Questions int    `json:"questions"`
	Snapshot  int    `json:"snapshot"`
	PoolSize  int    `json:"pool_size"`
}

// QuestionEvent reports a question being presented.
type QuestionEvent struct {
	EventBase
	Question *QandA `json:"question"`
	Snapshot int    `json:"snapshot"`
	Solved   int    `json:"solved"`
	Total    int    `json:"total"`
}

// AnswerEvent reports the consumer's response to the current question.
type AnswerEvent struct {
	EventBase
	Question *QandA `json:"question"`
	Index    int    `json:"index"` // -1 for a reveal/timeout
	Correct  bool   `json:"correct"`
}

// FinishEvent reports that all questions are exhausted.
type FinishEvent struct {
	EventBase
	Warning bool `json:"warning"`
}

// LifecycleHooks defines callbacks for engine observability.
// All hooks run on the engine loop and must not block.
type LifecycleHooks struct {
	OnTaskState func(context.Context, *TaskEvent)
	OnBatch     func(context.Context, *BatchEvent)
	OnQuestion  func(context.Context, *QuestionEvent)
	OnAnswer    func(context.Context, *AnswerEvent)
	OnFinish    func(context.Context, *FinishEvent)
}

// Merge returns hooks that call h first and then other, for every callback set on either.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTaskState: chain(h.OnTaskState, other.OnTaskState),
		OnBatch:     chain(h.OnBatch, other.OnBatch),
		OnQuestion:  chain(h.OnQuestion, other.OnQuestion),
		OnAnswer:    chain(h.OnAnswer, other.OnAnswer),
		OnFinish:    chain(h.OnFinish, other.OnFinish),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
