package demo

import (
	_ "embed"

	"github.com/aretw0/souvenir/pkg/catalog"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog returns the question definitions for the demo modules.
func Catalog() (*catalog.Catalog, error) {
	return catalog.Parse(catalogYAML)
}

// CatalogYAML returns the raw catalog document.
func CatalogYAML() []byte { return catalogYAML }
