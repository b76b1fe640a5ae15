package taxonomy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTaxonomy is returned for a malformed taxonomy document.
var ErrInvalidTaxonomy = errors.New("invalid taxonomy")

type document struct {
	ServiceKeywords    []string   `yaml:"service_keywords"`
	ConsumableKeywords []string   `yaml:"consumable_keywords"`
	Classes            []Class    `yaml:"classes"`
	Overrides          []Override `yaml:"overrides"`
}

// LoadYAML reads a taxonomy from a YAML file.
func LoadYAML(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a taxonomy document.
func Parse(data []byte) (*Taxonomy, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTaxonomy, err)
	}
	if len(doc.ServiceKeywords) == 0 {
		return nil, fmt.Errorf("%w: service_keywords is empty", ErrInvalidTaxonomy)
	}
	for i, c := range doc.Classes {
		if c.Name == "" || len(c.Keywords) == 0 {
			return nil, fmt.Errorf("%w: class %d needs a name and keywords", ErrInvalidTaxonomy, i)
		}
	}
	for _, o := range doc.Overrides {
		switch o.Kind {
		case KindEquipment, KindService, KindConsumable, KindOther:
		default:
			return nil, fmt.Errorf("%w: override %q has unknown kind %q", ErrInvalidTaxonomy, o.Category, o.Kind)
		}
	}
	return New(doc.Classes, doc.ServiceKeywords, doc.ConsumableKeywords, doc.Overrides), nil
}
