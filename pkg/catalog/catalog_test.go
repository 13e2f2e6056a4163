package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/souvenir/pkg/domain"
)

const sample = `
version: 1
defaults:
  layout: TwoColumns4Answers
  type: text
questions:
  - id: wires_color
    module: Wires
    text: "What color was the {1} wire in {0}?"
    answers: [red, blue, yellow, black, white]
    example_format_args: [first, last]
    example_format_group_size: 1
  - id: keypad_symbol
    module: Keypad
    module_type: KeypadModule
    add_the: true
    text: "Which symbol was pressed first in {0}?"
    layout: three_columns_6
    type: Sprites
  - id: display_number
    module: Big Display
    text: "What number was shown on {0}?"
    layout: one-column-4-answers
    height_factor: 1
    generator:
      name: integers
      min: 1
      max: 99
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	def, err := c.Lookup("wires_color")
	require.NoError(t, err)
	assert.Equal(t, domain.LayoutTwoColumns4, def.Layout)
	assert.Equal(t, domain.AnswerText, def.Type)
	assert.Equal(t, "Wires", def.ModuleType)
	assert.Len(t, def.Answers, 5)

	keypad, err := c.Lookup("keypad_symbol")
	require.NoError(t, err)
	assert.Equal(t, domain.LayoutThreeColumns6, keypad.Layout)
	assert.Equal(t, domain.AnswerSprites, keypad.Type)
	assert.Equal(t, "The Keypad", keypad.ModuleNameWithThe())
	assert.Len(t, c.ForModuleType("KeypadModule"), 1)

	display, err := c.Lookup("display_number")
	require.NoError(t, err)
	assert.Equal(t, domain.LayoutOneColumn4, display.Layout)
	require.NotNil(t, display.Generator)
	assert.Equal(t, "integers", display.Generator.Name)
	assert.Equal(t, 99, display.Generator.Params["max"])
	assert.InDelta(t, 1.0, display.HeightFactor, 0.001)

	ids := []string{}
	for _, d := range c.All() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"wires_color", "keypad_symbol", "display_number"}, ids)

	require.NoError(t, c.Validate())
}

func TestLookup_Unknown(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	_, err = c.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New(domain.QuestionDef{ID: "a"}, domain.QuestionDef{ID: "a"})
	assert.Error(t, err)
	_, err = New(domain.QuestionDef{})
	assert.Error(t, err)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("questions:\n  - id: x\n    colour: red\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "questions[0].colour")

	_, err = Load(strings.NewReader("questions: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c, err := New(
		domain.QuestionDef{ID: "no_answers", Module: "M", Layout: domain.LayoutTwoColumns4, Type: domain.AnswerText, Text: "{0}"},
		domain.QuestionDef{ID: "bad_layout", Module: "M", Layout: "five", Type: domain.AnswerText, ExampleAnswers: []string{"a"}},
		domain.QuestionDef{ID: "bad_args", Module: "M", Layout: domain.LayoutTwoColumns4, Type: domain.AnswerText,
			Answers: []string{"a", "b"}, Text: "{0} {1} {3}", ExampleFormatArgs: []string{"x", "y", "z"}, ExampleFormatGroupSize: 2},
		domain.QuestionDef{ID: "dup", Module: "M", Layout: domain.LayoutTwoColumns4, Type: domain.AnswerText, Answers: []string{"a", "a"}},
		domain.QuestionDef{ID: "gen", Module: "M", Layout: domain.LayoutTwoColumns4, Type: domain.AnswerText,
			Generator: &domain.GeneratorSpec{Name: "dice"}},
	)
	require.NoError(t, err)

	err = c.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "question no_answers: text question declares no answers")
	assert.Contains(t, msg, `question bad_layout: unknown layout "five"`)
	assert.Contains(t, msg, "do not divide into groups of 2")
	assert.Contains(t, msg, "placeholder {3} has no example format argument")
	assert.Contains(t, msg, `answer "a" is listed twice`)
	assert.Contains(t, msg, `unknown answer generator "dice"`)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "the Wires you solved first: red", Format("{0}: {1}", "the Wires you solved first", "red"))
	assert.Equal(t, "{0} and {3}", Format("{0} and {3}"))
	assert.Equal(t, []int{0, 1, 3}, Placeholders("{3} {0} {1} {0}"))
	assert.Empty(t, Placeholders("plain"))
}
