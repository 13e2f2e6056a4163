package runner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/souvenir/internal/presentation/tui"
	"github.com/aretw0/souvenir/pkg/domain"
	"golang.org/x/term"
)

// TextPresenter prints questions for a human at a terminal.
// It implements scheduler.Presenter.
type TextPresenter struct {
	Writer   io.Writer
	Renderer func(string) (string, error)
	Styles   tui.Styles

	mu sync.Mutex
}

// TextOption configures a TextPresenter.
type TextOption func(*TextPresenter)

// WithRenderer sets the markdown renderer for question text.
func WithRenderer(fn func(string) (string, error)) TextOption {
	return func(p *TextPresenter) {
		p.Renderer = fn
	}
}

// WithStyles sets the answer styling.
func WithStyles(s tui.Styles) TextOption {
	return func(p *TextPresenter) {
		p.Styles = s
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewTextPresenter creates a presenter writing to w. On a terminal question
// text is rendered as markdown and outcomes are coloured.
func NewTextPresenter(w io.Writer, opts ...TextOption) *TextPresenter {
	if w == nil {
		w = os.Stdout
	}
	p := &TextPresenter{Writer: w, Styles: tui.Plain()}
	if IsTerminal(w) {
		width := 80
		if f, ok := w.(*os.File); ok {
			if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
				width = cols
			}
		}
		p.Renderer = tui.NewRenderer(width)
		p.Styles = tui.NewStyles(w)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *TextPresenter) Present(q *domain.QandA) {
	p.mu.Lock()
	defer p.mu.Unlock()

	text := fmt.Sprintf("## %s\n\n%s\n", q.Module, q.Text)
	if p.Renderer != nil {
		if rendered, err := p.Renderer(text); err == nil {
			text = rendered
		}
	}
	fmt.Fprintln(p.Writer, strings.TrimSpace(text))
	if q.Image != nil {
		fmt.Fprintln(p.Writer, p.Styles.Muted("[image: "+q.Image.Name+"]"))
	}
	for i, a := range q.Answers {
		fmt.Fprintf(p.Writer, "  %d. %s\n", i+1, a)
	}
	fmt.Fprint(p.Writer, p.Styles.Muted("Answer 1-"+fmt.Sprint(len(q.Answers))+", r to reveal, x to explode, q to quit")+"\n> ")
}

func (p *TextPresenter) Answered(q *domain.QandA, index int, correct bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	answer := fmt.Sprintf("%d. %s", q.Correct+1, q.Answers[q.Correct])
	switch {
	case correct:
		fmt.Fprintln(p.Writer, p.Styles.Correct("Correct!"))
	case index < 0:
		fmt.Fprintln(p.Writer, p.Styles.Wrong("Out of time.")+" The answer was "+p.Styles.Highlight(answer))
	default:
		fmt.Fprintln(p.Writer, p.Styles.Wrong("Strike!")+" The answer was "+p.Styles.Highlight(answer))
	}
}

// Blink is a no-op: terminal output does not animate.
func (p *TextPresenter) Blink(*domain.QandA, bool) {}

func (p *TextPresenter) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.Writer)
}

func (p *TextPresenter) Finish(warning bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.Writer, p.Styles.Correct("No more questions."))
	if warning {
		fmt.Fprintln(p.Writer, p.Styles.Wrong("Some modules could not be processed; see the log for details."))
	}
}
