package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/souvenir/pkg/answers"
	"github.com/aretw0/souvenir/pkg/domain"
)

// Validate checks every definition and returns all problems joined.
func (c *Catalog) Validate() error {
	var errs []error
	for _, def := range c.All() {
		if err := ValidateDef(def); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateDef checks one definition for authoring mistakes.
func ValidateDef(def *domain.QuestionDef) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("question %s: "+format, append([]any{def.ID}, args...)...))
	}

	if def.Module == "" {
		fail("module name is empty")
	}
	if def.Layout.NumAnswers() == 0 {
		fail("unknown layout %q", def.Layout)
	}
	switch def.Type {
	case domain.AnswerText, domain.AnswerDynamicFont, domain.AnswerSprites, domain.AnswerGrid:
	default:
		fail("unknown answer type %q", def.Type)
	}
	if def.Type.IsText() && def.Answers == nil && def.ExampleAnswers == nil && def.Generator == nil {
		fail("text question declares no answers, example answers or generator")
	}
	if def.Generator != nil {
		if _, err := answers.FromSpec(def.Generator); err != nil {
			fail("%v", err)
		}
	}
	for i, a := range def.Answers {
		if slices.Index(def.Answers, a) != i {
			fail("answer %q is listed twice", a)
		}
	}

	group := def.ExampleFormatGroupSize
	if group < 0 {
		fail("negative example format group size")
	}
	if group > 0 && len(def.ExampleFormatArgs)%group != 0 {
		fail("%d example format arguments do not divide into groups of %d", len(def.ExampleFormatArgs), group)
	}
	for _, n := range Placeholders(def.Text) {
		if n > group {
			fail("placeholder {%d} has no example format argument", n)
		}
	}
	return errors.Join(errs...)
}
