package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "souvenir version")
}

func TestValidate_DemoCatalog(t *testing.T) {
	out, err := execute(t, "", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog is valid: 10 questions")
	assert.NotContains(t, out, "warning")
}

func TestValidate_BadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
questions:
  - id: broken
    module: Wires
    text: "What was {1}?"
    layout: two_columns_4
    type: text
`), 0o600))

	_, err := execute(t, "", "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no answers")
	assert.Contains(t, err.Error(), "placeholder {1}")
}

func TestPreview(t *testing.T) {
	out, err := execute(t, "", "preview", "wires_cut", "display_number")
	require.NoError(t, err)
	assert.Contains(t, out, "Which wire did you cut in Wires?")
	assert.Contains(t, out, "What number was shown on The Big Display?")
	assert.Contains(t, out, "2 questions previewed.")
}

func TestPlay_EndsWithInput(t *testing.T) {
	_, err := execute(t, "", "play", "--json", "-n", "2", "--seed", "42")
	require.NoError(t, err)
}

func TestMCP_UnknownTransport(t *testing.T) {
	_, err := execute(t, "", "mcp", "--transport", "carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}
