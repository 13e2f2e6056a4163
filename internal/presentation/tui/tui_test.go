package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer(t *testing.T) {
	render := NewRenderer(40)
	out, err := render("## Wires\n\nWhich wire did you cut?")
	require.NoError(t, err)
	assert.Contains(t, out, "Wires")
	assert.Contains(t, out, "Which wire did you cut?")
}

func TestPlainStyles(t *testing.T) {
	s := Plain()
	assert.Equal(t, "ok", s.Correct("ok"))
	assert.Equal(t, "no", s.Wrong("no"))
}

func TestStylesOnBuffer(t *testing.T) {
	// A buffer is not a terminal, so no escape codes are emitted.
	s := NewStyles(&bytes.Buffer{})
	assert.Equal(t, "Correct!", s.Correct("Correct!"))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.True(t, strings.Contains(buf.String(), "v1.2.3"))
	assert.NotContains(t, buf.String(), "\x1b[")
}
