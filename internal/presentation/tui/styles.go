package tui

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles colour the fragments of the question UI.
type Styles struct {
	Correct   func(string) string
	Wrong     func(string) string
	Highlight func(string) string
	Muted     func(string) string
}

// Plain returns styles that leave text untouched.
func Plain() Styles {
	id := func(s string) string { return s }
	return Styles{Correct: id, Wrong: id, Highlight: id, Muted: id}
}

// NewStyles returns styles for the colour profile detected on w.
func NewStyles(w io.Writer) Styles {
	out := termenv.NewOutput(w)
	style := func(hex string, bold bool) func(string) string {
		return func(s string) string {
			st := out.String(s).Foreground(out.Color(hex))
			if bold {
				st = st.Bold()
			}
			return st.String()
		}
	}
	return Styles{
		Correct:   style("#22c55e", true),
		Wrong:     style("#ef4444", true),
		Highlight: style("#facc15", true),
		Muted:     style("#9ca3af", false),
	}
}
