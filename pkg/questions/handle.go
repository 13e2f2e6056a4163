package questions

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/souvenir/pkg/answers"
	"github.com/aretw0/souvenir/pkg/catalog"
	"github.com/aretw0/souvenir/pkg/domain"
)

// Ask carries the facts a handler supplies for one question.
type Ask[T comparable] struct {
	// Correct holds every acceptable correct answer.
	Correct []T
	// Preferred wrong answers are always offered when possible.
	Preferred []T
	// Pool overrides the definition's declared answers.
	Pool []T
	// Generator supplies wrong answers when the pool is short.
	Generator answers.Generator[T]
	// Args fill placeholders {1}, {2}, ... of the question text.
	Args []string
	// Image is shown alongside the question when the definition uses one.
	Image *domain.Image
}

// Handle is a module's view of the Builder, passed to its handler.
type Handle struct {
	b       *Builder
	module  domain.Module
	logger  *slog.Logger
	ordinal int
}

// Module returns the module this handle belongs to.
func (h *Handle) Module() domain.Module { return h.module }

// Object returns the foreign module object.
func (h *Handle) Object() any { return h.module.Object }

// Logger returns a logger scoped to the module.
func (h *Handle) Logger() *slog.Logger { return h.logger }

// Excluded reports whether the module is configured out of questioning.
func (h *Handle) Excluded() bool { return h.b.Excluded(h.module) }

// MarkSolved records that this module was solved and returns its position
// among solved modules of the same type.
func (h *Handle) MarkSolved() int {
	if h.ordinal == 0 {
		h.ordinal = h.b.ledger.MarkSolved(h.module.Type)
	}
	return h.ordinal
}

// NoQuestions declares that the module legitimately produces nothing.
func (h *Handle) NoQuestions() {
	h.b.ledger.MarkNone(h.module.ID)
}

// Add registers the questions as one batch. Nil entries are skipped.
func (h *Handle) Add(qs ...*domain.QandA) {
	if h.Excluded() {
		h.logger.Info("Module is excluded; discarding its questions.")
		h.b.ledger.MarkNone(h.module.ID)
		return
	}
	qs = slices.DeleteFunc(slices.Clone(qs), func(q *domain.QandA) bool { return q == nil })
	if len(qs) == 0 {
		h.logger.Warn("Module added an empty batch.")
		return
	}
	batch := domain.Batch{Module: h.module, Questions: qs, Snapshot: h.b.progress()}
	h.b.ledger.RecordBatch(h.module.ID)
	h.logger.Debug("Batch registered", "questions", len(qs), "snapshot", batch.Snapshot)
	h.b.sink.AddBatch(batch)
}

// Text builds a question with text answers.
func (h *Handle) Text(id string, ask Ask[string]) *domain.QandA {
	def, ok := h.definition(id, domain.AnswerText)
	if !ok {
		return nil
	}
	pool := ask.Pool
	if pool == nil {
		pool = def.Answers
	}
	gen := ask.Generator
	if gen == nil && def.Generator != nil {
		var err error
		if gen, err = answers.FromSpec(def.Generator); err != nil {
			h.defect(id, "invalid generator", err)
			return nil
		}
	}
	set, ok := synthesize(h, id, def, ask, pool, gen)
	if !ok {
		return nil
	}
	out := make([]domain.Answer, len(set.Answers))
	for i, a := range set.Answers {
		out[i] = domain.Answer{Text: a}
	}
	return h.finish(def, ask.Args, ask.Image, out, set.Correct)
}

// Sprites builds a question with image answers.
func (h *Handle) Sprites(id string, ask Ask[domain.Image]) *domain.QandA {
	def, ok := h.definition(id, domain.AnswerSprites)
	if !ok {
		return nil
	}
	set, ok := synthesize(h, id, def, ask, ask.Pool, ask.Generator)
	if !ok {
		return nil
	}
	out := make([]domain.Answer, len(set.Answers))
	for i := range set.Answers {
		out[i] = domain.Answer{Image: &set.Answers[i]}
	}
	return h.finish(def, ask.Args, ask.Image, out, set.Correct)
}

// Grid builds a question whose answers are cells of one grid. Every
// coordinate must share the grid's dimensions; the pool is the whole grid.
func (h *Handle) Grid(id string, ask Ask[domain.Coord]) *domain.QandA {
	def, ok := h.definition(id, domain.AnswerGrid)
	if !ok {
		return nil
	}
	if len(ask.Correct) == 0 {
		h.defect(id, "grid question has no correct answer", nil)
		return nil
	}
	w, ht := ask.Correct[0].Width, ask.Correct[0].Height
	if w <= 0 || ht <= 0 {
		h.defect(id, fmt.Sprintf("invalid grid size %dx%d", w, ht), nil)
		return nil
	}
	for _, c := range slices.Concat(ask.Correct, ask.Preferred) {
		if c.Width != w || c.Height != ht || c.Index < 0 || c.Index >= w*ht {
			h.defect(id, fmt.Sprintf("coordinate %v does not fit a %dx%d grid", c, w, ht), nil)
			return nil
		}
	}
	pool := make([]domain.Coord, w*ht)
	for i := range pool {
		pool[i] = domain.Coord{Width: w, Height: ht, Index: i}
	}
	set, ok := synthesize(h, id, def, ask, pool, nil)
	if !ok {
		return nil
	}
	out := make([]domain.Answer, len(set.Answers))
	for i, c := range set.Answers {
		img := h.b.grid.RenderCoord(c)
		out[i] = domain.Answer{Image: &img}
	}
	return h.finish(def, ask.Args, ask.Image, out, set.Correct)
}

// definition looks id up and checks that the requested answer kind matches.
// It also requires that the module's solve has been recorded.
func (h *Handle) definition(id string, want domain.AnswerType) (*domain.QuestionDef, bool) {
	def, err := h.b.catalog.Lookup(id)
	if err != nil {
		h.defect(id, "unknown question", err)
		return nil, false
	}
	if def.Type.IsText() != want.IsText() || !want.IsText() && def.Type != want {
		h.defect(id, fmt.Sprintf("question has answer type %q but %q answers were supplied", def.Type, want), nil)
		return nil, false
	}
	if h.ordinal < 1 {
		h.defect(id, "question built before the module's solve was recorded", nil)
		return nil, false
	}
	return def, true
}

func synthesize[T comparable](h *Handle, id string, def *domain.QuestionDef, ask Ask[T], pool []T, gen answers.Generator[T]) (answers.Set[T], bool) {
	set, err := answers.Synthesize(h.b.rand, answers.Request[T]{
		Count:     def.NumAnswers(),
		Correct:   ask.Correct,
		Pool:      pool,
		Preferred: ask.Preferred,
		Generator: gen,
	})
	if err != nil {
		h.defect(id, "cannot build answers", err)
		return answers.Set[T]{}, false
	}
	return set, true
}

func (h *Handle) finish(def *domain.QuestionDef, args []string, img *domain.Image, out []domain.Answer, correct int) *domain.QandA {
	name := def.ModuleNameWithThe()
	if h.b.ledger.ModuleCount(h.module.Type) > 1 {
		name = fmt.Sprintf("the %s you solved %s", def.Module, Ordinal(h.ordinal))
	}
	fontSize := def.FontSize
	if fontSize == 0 {
		fontSize = def.Layout.DefaultFontSize()
	}
	heightFactor := def.HeightFactor
	if heightFactor == 0 {
		heightFactor = 1
	}
	if !def.UsesImage {
		img = nil
	}
	return &domain.QandA{
		ModuleID:     h.module.ID,
		Module:       def.Module,
		Text:         catalog.Format(def.Text, append([]string{name}, args...)...),
		Answers:      out,
		Correct:      correct,
		Image:        img,
		Layout:       def.Layout,
		FontSize:     fontSize,
		HeightFactor: heightFactor,
	}
}

func (h *Handle) defect(id, msg string, err error) {
	attrs := []any{"question", id}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	h.logger.Error("Dropping malformed question: "+msg, attrs...)
}
