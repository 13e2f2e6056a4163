package domain

import (
	"fmt"
	"strings"
)

// AnswerLayout determines how answers are arranged and how many are required.
type AnswerLayout string

const (
	LayoutTwoColumns4   AnswerLayout = "two_columns_4"   // 4 answers in 2 columns
	LayoutThreeColumns6 AnswerLayout = "three_columns_6" // 6 answers in 3 columns
	LayoutOneColumn4    AnswerLayout = "one_column_4"    // 4 long answers in 1 column
)

// NumAnswers returns the number of answer slots of the layout, or 0 if unknown.
func (l AnswerLayout) NumAnswers() int {
	switch l {
	case LayoutTwoColumns4, LayoutOneColumn4:
		return 4
	case LayoutThreeColumns6:
		return 6
	default:
		return 0
	}
}

// DefaultFontSize is the answer font size used when a definition does not set one.
func (l AnswerLayout) DefaultFontSize() int {
	if l == LayoutOneColumn4 {
		return 40
	}
	return 48
}

// AnswerType describes the kind of value a question's answers hold.
type AnswerType string

const (
	AnswerText        AnswerType = "text"         // Plain text in the standard font
	AnswerDynamicFont AnswerType = "dynamic_font" // Text in a font chosen by the handler
	AnswerSprites     AnswerType = "sprites"      // Images
	AnswerGrid        AnswerType = "grid"         // Cells of a grid, rendered as images
)

// IsText reports whether answers of this type are displayed as text.
func (t AnswerType) IsText() bool {
	return t == AnswerText || t == AnswerDynamicFont || t == ""
}

// GeneratorSpec references an answer-generating capability by name.
type GeneratorSpec struct {
	Name   string         `json:"name" mapstructure:"name"`
	Params map[string]any `json:"params,omitempty" mapstructure:",remain"`
}

// QuestionDef is the static, externally authored definition of one kind of question.
type QuestionDef struct {
	ID         string       `json:"id" mapstructure:"id"`
	Module     string       `json:"module" mapstructure:"module"`
	ModuleType string       `json:"module_type" mapstructure:"module_type"`
	Text       string       `json:"text" mapstructure:"text"`
	Layout     AnswerLayout `json:"layout" mapstructure:"layout"`
	Type       AnswerType   `json:"type" mapstructure:"type"`

	// Answers is the fixed pool of all legal answers, if any.
	Answers []string `json:"answers,omitempty" mapstructure:"answers"`

	// ExampleAnswers are only used to preview the question.
	ExampleAnswers []string `json:"example_answers,omitempty" mapstructure:"example_answers"`

	// ExampleFormatArgs holds groups of ExampleFormatGroupSize preview arguments.
	ExampleFormatArgs      []string `json:"example_format_args,omitempty" mapstructure:"example_format_args"`
	ExampleFormatGroupSize int      `json:"example_format_group_size,omitempty" mapstructure:"example_format_group_size"`

	Generator *GeneratorSpec `json:"generator,omitempty" mapstructure:"generator"`

	AddThe       bool    `json:"add_the,omitempty" mapstructure:"add_the"`
	UsesImage    bool    `json:"uses_image,omitempty" mapstructure:"uses_image"`
	FontSize     int     `json:"font_size,omitempty" mapstructure:"font_size"`
	HeightFactor float64 `json:"height_factor,omitempty" mapstructure:"height_factor"`
}

// NumAnswers returns the required answer count.
func (d *QuestionDef) NumAnswers() int {
	return d.Layout.NumAnswers()
}

// ModuleNameWithThe returns the module name, prefixed with "The " if requested.
func (d *QuestionDef) ModuleNameWithThe() string {
	if d.AddThe {
		return "The " + d.Module
	}
	return d.Module
}

// Image is a displayable picture, identified by name.
type Image struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
}

// Coord is one cell of a Width x Height grid, numbered row-major from the top left.
type Coord struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Index  int `json:"index"`
}

func (c Coord) String() string {
	return fmt.Sprintf("%c%d", 'A'+rune(c.Index%c.Width), c.Index/c.Width+1)
}

// Answer is one displayed answer slot: either text or an image.
type Answer struct {
	Text  string `json:"text,omitempty"`
	Image *Image `json:"image,omitempty"`
}

func (a Answer) String() string {
	if a.Image != nil {
		return "<" + a.Image.Name + ">"
	}
	return a.Text
}

// QandA is one presentable question. Values are never modified after construction.
type QandA struct {
	ModuleID     string       `json:"module_id"`
	Module       string       `json:"module"`
	Text         string       `json:"text"`
	Answers      []Answer     `json:"answers"`
	Correct      int          `json:"-"`
	Image        *Image       `json:"image,omitempty"`
	Layout       AnswerLayout `json:"layout"`
	FontSize     int          `json:"font_size,omitempty"`
	HeightFactor float64      `json:"height_factor,omitempty"`
}

// NumAnswers returns the number of answers offered.
func (q *QandA) NumAnswers() int {
	return len(q.Answers)
}

// Debug summarises the question for logs, marking the correct answer.
func (q *QandA) Debug() string {
	parts := make([]string, len(q.Answers))
	for i, a := range q.Answers {
		if i == q.Correct {
			parts[i] = "[" + a.String() + "]"
		} else {
			parts[i] = a.String()
		}
	}
	return fmt.Sprintf("%s: %s | %s", q.Module, q.Text, strings.Join(parts, ", "))
}

// Batch groups the questions produced together by one module pass.
type Batch struct {
	Module    Module
	Questions []*QandA

	// Snapshot is the number of solved modules when the batch was created.
	Snapshot int
}
