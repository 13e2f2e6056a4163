package questions

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/aretw0/souvenir/pkg/answers"
	"github.com/aretw0/souvenir/pkg/catalog"
	"github.com/aretw0/souvenir/pkg/domain"
)

type collector struct{ batches []domain.Batch }

func (c *collector) AddBatch(b domain.Batch) { c.batches = append(c.batches, b) }

// PreviewOptions tunes Preview.
type PreviewOptions struct {
	// IDs restricts the preview to these definitions; empty means all.
	IDs []string
	// Ordinals also renders the "you solved first" variant of each question.
	Ordinals bool
	Logger   *slog.Logger
}

// Preview builds example questions straight from catalog definitions, using
// their example answers and example format arguments.
func Preview(cat *catalog.Catalog, r *rand.Rand, opts PreviewOptions) ([]*domain.QandA, error) {
	defs := cat.All()
	if len(opts.IDs) > 0 {
		defs = defs[:0:0]
		for _, id := range opts.IDs {
			def, err := cat.Lookup(id)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}
	}
	variants := []int{1}
	if opts.Ordinals {
		variants = append(variants, 2)
	}

	var out []*domain.QandA
	for _, def := range defs {
		for _, args := range exampleGroups(def) {
			for _, count := range variants {
				sink := &collector{}
				ledger := NewLedger()
				b := NewBuilder(cat, ledger, sink, WithRand(r), WithLogger(opts.Logger))
				m := domain.Module{ID: fmt.Sprintf("preview-%s-%d", def.ID, count), Type: def.ModuleType, DisplayName: def.Module}
				for range count {
					ledger.AddModule(m)
				}
				h := b.Handle(m)
				h.MarkSolved()
				if q := previewQuestion(h, def, args, r); q != nil {
					out = append(out, q)
				}
			}
		}
	}
	return out, nil
}

func exampleGroups(def *domain.QuestionDef) [][]string {
	n := def.ExampleFormatGroupSize
	if n <= 0 || len(def.ExampleFormatArgs) == 0 {
		return [][]string{nil}
	}
	var groups [][]string
	for i := 0; i+n <= len(def.ExampleFormatArgs); i += n {
		groups = append(groups, def.ExampleFormatArgs[i:i+n])
	}
	return groups
}

func previewQuestion(h *Handle, def *domain.QuestionDef, args []string, r *rand.Rand) *domain.QandA {
	example := def.Answers
	if example == nil {
		example = def.ExampleAnswers
	}
	switch def.Type {
	case domain.AnswerSprites:
		imgs := make([]domain.Image, len(example))
		for i, name := range example {
			imgs[i] = domain.Image{Name: name}
		}
		if len(imgs) == 0 {
			return nil
		}
		return h.Sprites(def.ID, Ask[domain.Image]{Correct: imgs[:1], Pool: imgs, Args: args})
	case domain.AnswerGrid:
		c := domain.Coord{Width: 4, Height: 4, Index: r.IntN(16)}
		return h.Grid(def.ID, Ask[domain.Coord]{Correct: []domain.Coord{c}, Args: args})
	}

	ask := Ask[string]{Args: args}
	switch {
	case len(example) > 0:
		ask.Correct = []string{example[r.IntN(len(example))]}
		if def.Answers == nil {
			ask.Pool = example
		}
	case def.Generator != nil:
		gen, err := answers.FromSpec(def.Generator)
		if err != nil {
			h.defect(def.ID, "invalid generator", err)
			return nil
		}
		for v := range gen(r) {
			ask.Correct = []string{v}
			break
		}
	}
	return h.Text(def.ID, ask)
}
