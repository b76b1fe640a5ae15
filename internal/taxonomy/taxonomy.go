// Package taxonomy classifies product categories for business-rule gating.
//
// A category is equipment, a service on an equipment class, a consumable, or
// other. The cross-sell gate consults it instead of matching names inline.
package taxonomy

import (
	"sort"
	"strings"

	"sales-intelligence/internal/domain"
)

// Kind is the product kind of a category.
type Kind string

const (
	KindEquipment  Kind = "equipment"
	KindService    Kind = "service"
	KindConsumable Kind = "consumable"
	KindOther      Kind = "other"
)

// AnyClass marks a service whose equipment class could not be determined.
// It blocks every equipment recommendation.
const AnyClass = "*"

// Entry is the classification of one category.
type Entry struct {
	Category string
	Kind     Kind
	// Class is the equipment class of equipment and consumables.
	Class string
	// RequiresOwnershipOf is the equipment class a service implies the buyer owns.
	RequiresOwnershipOf string
}

// IsEquipment reports whether the category is durable equipment.
func (e Entry) IsEquipment() bool { return e.Kind == KindEquipment }

// IsConsumable reports whether the category is a consumable.
func (e Entry) IsConsumable() bool { return e.Kind == KindConsumable }

// Class groups the keywords that identify one equipment class.
type Class struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Override pins the classification of an exact category name.
type Override struct {
	Category string `yaml:"category"`
	Kind     Kind   `yaml:"kind"`
	Class    string `yaml:"class"`
}

// Taxonomy is an immutable classification table.
type Taxonomy struct {
	classes            []Class
	serviceKeywords    []string
	consumableKeywords []string
	overrides          map[string]Override
}

// New builds a taxonomy. Keywords and override keys match case-insensitively.
func New(classes []Class, serviceKeywords, consumableKeywords []string, overrides []Override) *Taxonomy {
	t := &Taxonomy{
		serviceKeywords:    lowerAll(serviceKeywords),
		consumableKeywords: lowerAll(consumableKeywords),
		overrides:          make(map[string]Override, len(overrides)),
	}
	for _, c := range classes {
		t.classes = append(t.classes, Class{Name: c.Name, Keywords: lowerAll(c.Keywords)})
	}
	for _, o := range overrides {
		t.overrides[normalize(o.Category)] = o
	}
	return t
}

// Default returns the built-in instrument taxonomy.
func Default() *Taxonomy {
	return New(
		[]Class{
			{Name: "balance", Keywords: []string{"balance", "scale", "weighing"}},
			{Name: "pipette", Keywords: []string{"pipette", "pipettor", "dispenser"}},
			{Name: "temperature", Keywords: []string{"thermometer", "temperature", "thermocouple", "data logger"}},
			{Name: "pressure", Keywords: []string{"pressure", "gauge", "manometer"}},
			{Name: "ph", Keywords: []string{"ph meter", "ph electrode", "conductivity"}},
			{Name: "spectrometer", Keywords: []string{"spectrometer", "spectrophotometer", "photometer"}},
			{Name: "microscope", Keywords: []string{"microscope"}},
			{Name: "centrifuge", Keywords: []string{"centrifuge"}},
			{Name: "electrical", Keywords: []string{"multimeter", "oscilloscope", "power supply"}},
		},
		[]string{"calibration", "maintenance", "repair", "service contract", "preventive", "certification"},
		[]string{"tips", "reagent", "buffer", "standard solution", "filter", "cuvette", "consumable", "spare part"},
		nil,
	)
}

// Classify returns the entry for category.
func (t *Taxonomy) Classify(category string) Entry {
	key := normalize(category)
	if o, ok := t.overrides[key]; ok {
		e := Entry{Category: category, Kind: o.Kind, Class: o.Class}
		if o.Kind == KindService {
			e.Class = ""
			e.RequiresOwnershipOf = o.Class
			if e.RequiresOwnershipOf == "" {
				e.RequiresOwnershipOf = AnyClass
			}
		}
		return e
	}

	class := t.matchClass(key)
	switch {
	case containsAny(key, t.serviceKeywords):
		if class == "" {
			class = AnyClass
		}
		return Entry{Category: category, Kind: KindService, RequiresOwnershipOf: class}
	case containsAny(key, t.consumableKeywords):
		return Entry{Category: category, Kind: KindConsumable, Class: class}
	case class != "":
		return Entry{Category: category, Kind: KindEquipment, Class: class}
	default:
		return Entry{Category: category, Kind: KindOther}
	}
}

// Blocks reports whether recommending candidate to an entity that buys owned
// would be illogical. Services and consumables are never blocked. Equipment is
// blocked by a service on its class or a service of unknown class. A category
// the taxonomy cannot place is blocked by a service of unknown class, or by a
// service whose name contains the candidate's name.
func (t *Taxonomy) Blocks(owned domain.CategorySet, candidate string) bool {
	cand := t.Classify(candidate)
	if cand.Kind == KindService || cand.IsConsumable() {
		return false
	}
	candKey := normalize(candidate)
	for _, name := range owned.Sorted() {
		e := t.Classify(name)
		if e.Kind != KindService {
			continue
		}
		if e.RequiresOwnershipOf == AnyClass {
			return true
		}
		if candKey != "" && strings.Contains(normalize(name), candKey) {
			return true
		}
		if cand.IsEquipment() && (cand.Class == "" || e.RequiresOwnershipOf == cand.Class) {
			return true
		}
	}
	return false
}

// Classes returns the class names in ascending order.
func (t *Taxonomy) Classes() []string {
	out := make([]string, 0, len(t.classes))
	for _, c := range t.classes {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}

// matchClass returns the first class whose keyword occurs in key.
func (t *Taxonomy) matchClass(key string) string {
	for _, c := range t.classes {
		if containsAny(key, c.Keywords) {
			return c.Name
		}
	}
	return ""
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, normalize(s))
	}
	return out
}
