package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/souvenir/internal/dto"
	"github.com/aretw0/souvenir/pkg/domain"
)

// ErrUnknownQuestion is returned by Lookup for an identifier not in the catalog.
var ErrUnknownQuestion = errors.New("unknown question")

// Catalog is an immutable set of question definitions.
type Catalog struct {
	defs  map[string]*domain.QuestionDef
	order []string
}

// New builds a catalog from definitions. Identifiers must be unique.
func New(defs ...domain.QuestionDef) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]*domain.QuestionDef, len(defs))}
	for i := range defs {
		def := defs[i]
		if def.ID == "" {
			return nil, fmt.Errorf("question %d has no id", i)
		}
		if _, dup := c.defs[def.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", def.ID)
		}
		if def.ModuleType == "" {
			def.ModuleType = def.Module
		}
		c.defs[def.ID] = &def
		c.order = append(c.order, def.ID)
	}
	return c, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	var file dto.CatalogFile
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(layoutHook, answerTypeHook),
		Result:     &file,
		Metadata:   &md,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	// Generator parameters are free-form.
	var unknown []string
	for _, key := range md.Unused {
		if !strings.Contains(key, ".generator") {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, fmt.Errorf("failed to decode catalog: unknown keys %s", strings.Join(unknown, ", "))
	}
	for i := range file.Questions {
		file.Defaults.Apply(&file.Questions[i])
	}
	return New(file.Questions...)
}

// Load reads a YAML catalog from r.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Lookup returns the definition with the given identifier.
func (c *Catalog) Lookup(id string) (*domain.QuestionDef, error) {
	def, ok := c.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	return def, nil
}

// All returns the definitions in load order.
func (c *Catalog) All() []*domain.QuestionDef {
	out := make([]*domain.QuestionDef, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.defs[id])
	}
	return out
}

// ForModuleType returns the definitions asked about modules of one type.
func (c *Catalog) ForModuleType(moduleType string) []*domain.QuestionDef {
	var out []*domain.QuestionDef
	for _, id := range c.order {
		if def := c.defs[id]; def.ModuleType == moduleType {
			out = append(out, def)
		}
	}
	return out
}

// Len is the number of definitions.
func (c *Catalog) Len() int { return len(c.order) }

// Layout names as written by catalog authors, keyed in lower case.
var layoutAliases = map[string]domain.AnswerLayout{
	"twocolumns4answers":   domain.LayoutTwoColumns4,
	"threecolumns6answers": domain.LayoutThreeColumns6,
	"onecolumn4answers":    domain.LayoutOneColumn4,
}

var answerTypeAliases = map[string]domain.AnswerType{
	"default":     domain.AnswerText,
	"dynamicfont": domain.AnswerDynamicFont,
	"sprites":     domain.AnswerSprites,
	"grid":        domain.AnswerGrid,
}

func layoutHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	s, ok := data.(string)
	if !ok || to != reflect.TypeFor[domain.AnswerLayout]() {
		return data, nil
	}
	if l, ok := layoutAliases[normalize(s)]; ok {
		return l, nil
	}
	return domain.AnswerLayout(strings.ToLower(s)), nil
}

func answerTypeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	s, ok := data.(string)
	if !ok || to != reflect.TypeFor[domain.AnswerType]() {
		return data, nil
	}
	if t, ok := answerTypeAliases[normalize(s)]; ok {
		return t, nil
	}
	return domain.AnswerType(strings.ToLower(s)), nil
}

func normalize(s string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
}
