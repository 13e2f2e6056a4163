package dto

import (
	"github.com/aretw0/souvenir/pkg/domain"
)

// CatalogFile is the on-disk shape of a question catalog.
// It uses "mapstructure" tags so YAML documents decode through a generic map.
type CatalogFile struct {
	Version   int                  `json:"version" mapstructure:"version"`
	Defaults  QuestionDefaults     `json:"defaults" mapstructure:"defaults"`
	Questions []domain.QuestionDef `json:"questions" mapstructure:"questions"`
}

// QuestionDefaults fill fields that individual definitions leave empty.
type QuestionDefaults struct {
	Layout   domain.AnswerLayout `json:"layout" mapstructure:"layout"`
	Type     domain.AnswerType   `json:"type" mapstructure:"type"`
	FontSize int                 `json:"font_size" mapstructure:"font_size"`
}

// Apply copies the defaults into def where def has zero values.
func (d QuestionDefaults) Apply(def *domain.QuestionDef) {
	if def.Layout == "" {
		def.Layout = d.Layout
	}
	if def.Type == "" {
		def.Type = d.Type
	}
	if def.FontSize == 0 {
		def.FontSize = d.FontSize
	}
}
