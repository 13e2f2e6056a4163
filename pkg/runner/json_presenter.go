package runner

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/aretw0/souvenir/pkg/domain"
)

// JSONEvent is one line written by the JSONPresenter.
type JSONEvent struct {
	Type     string        `json:"type"`
	Question *domain.QandA `json:"question,omitempty"`
	Index    *int          `json:"index,omitempty"`
	Correct  *bool         `json:"correct,omitempty"`
	Answer   *int          `json:"answer,omitempty"`
	Warning  *bool         `json:"warning,omitempty"`
}

// JSONPresenter writes presentation events as JSON Lines, for a host
// process driving the engine over a pipe. It implements scheduler.Presenter.
type JSONPresenter struct {
	mu      sync.Mutex
	encoder *json.Encoder
	onError func(error)
}

// NewJSONPresenter creates a presenter writing to w. Encode failures are
// passed to onError when it is not nil.
func NewJSONPresenter(w io.Writer, onError func(error)) *JSONPresenter {
	if w == nil {
		w = os.Stdout
	}
	return &JSONPresenter{encoder: json.NewEncoder(w), onError: onError}
}

func (p *JSONPresenter) emit(e JSONEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.encoder.Encode(e); err != nil && p.onError != nil {
		p.onError(err)
	}
}

func (p *JSONPresenter) Present(q *domain.QandA) {
	p.emit(JSONEvent{Type: "question", Question: q})
}

// Answered also discloses the correct answer, which is withheld while presenting.
func (p *JSONPresenter) Answered(q *domain.QandA, index int, correct bool) {
	answer := q.Correct
	e := JSONEvent{Type: "answered", Correct: &correct, Answer: &answer}
	if index >= 0 {
		e.Index = &index
	} else {
		e.Type = "revealed"
	}
	p.emit(e)
}

func (p *JSONPresenter) Blink(*domain.QandA, bool) {}

func (p *JSONPresenter) Clear() {
	p.emit(JSONEvent{Type: "clear"})
}

func (p *JSONPresenter) Finish(warning bool) {
	p.emit(JSONEvent{Type: "finished", Warning: &warning})
}
