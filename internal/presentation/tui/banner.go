package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Souvenir banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{`  ___                            _`, "#818cf8"},
		{` / __| ___ _  ___ _____ _ _  (_)_ _`, "#a78bfa"},
		{` \__ \/ _ \ || \ V / -_) ' \ | | '_|`, "#c084fc"},
		{` |___/\___/\_,_|\_/\___|_||_||_|_|`, "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
