package questions

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/aretw0/souvenir/pkg/catalog"
	"github.com/aretw0/souvenir/pkg/domain"
)

// Sink receives completed batches.
type Sink interface {
	AddBatch(domain.Batch)
}

// Exclusions reports modules configured out of questioning.
type Exclusions interface {
	Excluded(m domain.Module) bool
}

// GridRenderer turns a grid cell into a displayable image.
type GridRenderer interface {
	RenderCoord(c domain.Coord) domain.Image
}

// GridRendererFunc adapts a function to GridRenderer.
type GridRendererFunc func(domain.Coord) domain.Image

func (f GridRendererFunc) RenderCoord(c domain.Coord) domain.Image { return f(c) }

// NamedCells renders a cell as an image named after its coordinate ("B3"), sized by the grid.
var NamedCells GridRendererFunc = func(c domain.Coord) domain.Image {
	return domain.Image{Name: c.String(), Source: fmt.Sprintf("grid:%dx%d", c.Width, c.Height)}
}

// Builder creates question handles for modules and feeds their batches into a Sink.
type Builder struct {
	catalog    *catalog.Catalog
	ledger     *Ledger
	sink       Sink
	rand       *rand.Rand
	logger     *slog.Logger
	exclusions Exclusions
	grid       GridRenderer
	progress   func() int
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for producer defects and batch registration.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithRand sets the randomness source for answer synthesis.
func WithRand(r *rand.Rand) Option {
	return func(b *Builder) {
		if r != nil {
			b.rand = r
		}
	}
}

// WithExclusions sets the exclusion provider consulted when batches are added.
func WithExclusions(e Exclusions) Option {
	return func(b *Builder) { b.exclusions = e }
}

// WithGridRenderer sets how grid answers are turned into images.
func WithGridRenderer(g GridRenderer) Option {
	return func(b *Builder) {
		if g != nil {
			b.grid = g
		}
	}
}

// WithProgress sets the function that reports how many counted modules are
// solved; its value is stamped on each batch.
func WithProgress(fn func() int) Option {
	return func(b *Builder) {
		if fn != nil {
			b.progress = fn
		}
	}
}

// NewBuilder creates a Builder.
func NewBuilder(cat *catalog.Catalog, ledger *Ledger, sink Sink, opts ...Option) *Builder {
	b := &Builder{
		catalog:  cat,
		ledger:   ledger,
		sink:     sink,
		rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		grid:     NamedCells,
		progress: func() int { return 0 },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Ledger returns the bookkeeping shared with the supervisor.
func (b *Builder) Ledger() *Ledger { return b.ledger }

// Excluded reports whether m is configured out of questioning.
func (b *Builder) Excluded(m domain.Module) bool {
	return b.exclusions != nil && b.exclusions.Excluded(m)
}

// Handle returns the question handle for one module.
func (b *Builder) Handle(m domain.Module) *Handle {
	return &Handle{
		b:      b,
		module: m,
		logger: b.logger.With("module", m.String(), "module_id", m.ID),
	}
}
