package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/souvenir/pkg/domain"
)

// Message is one event pushed to SSE subscribers.
type Message struct {
	Type domain.EventType
	Data []byte
}

// StreamManager fans engine events out to active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan Message]struct{}
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan Message]struct{}),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger replaces the logger used for dropped messages.
func (sm *StreamManager) SetLogger(logger *slog.Logger) {
	if logger != nil {
		sm.logger = logger
	}
}

func (sm *StreamManager) Subscribe() (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 10)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Subscribers is the number of open subscriptions.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast never blocks: a subscriber with a full buffer misses the message.
func (sm *StreamManager) Broadcast(t domain.EventType, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("SSE: Event encode failed", "type", t, "err", err)
		return
	}
	msg := Message{Type: t, Data: data}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "type", t)
		}
	}
}

// Hooks returns lifecycle hooks broadcasting every engine event.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskState: func(_ context.Context, e *domain.TaskEvent) { sm.Broadcast(e.Type, e) },
		OnBatch:     func(_ context.Context, e *domain.BatchEvent) { sm.Broadcast(e.Type, e) },
		OnQuestion:  func(_ context.Context, e *domain.QuestionEvent) { sm.Broadcast(e.Type, e) },
		OnAnswer:    func(_ context.Context, e *domain.AnswerEvent) { sm.Broadcast(e.Type, e) },
		OnFinish:    func(_ context.Context, e *domain.FinishEvent) { sm.Broadcast(e.Type, e) },
	}
}
