package analysis

import (
	"fmt"
	"math"
	"strings"
)

// Entity is one comparable record, typically a player, with its raw numeric stats.
// Stats only holds values that were present and numeric in the source; an attribute
// that is not in the map is absent.
type Entity struct {
	Name   string
	Source string            // Key of the population the entity was loaded from
	Stats  map[string]float64
	Info   map[string]string // Non-numeric columns (team, position, nation...)
}

// Value returns the raw value for attr and whether it is usable. NaN counts as absent.
func (e Entity) Value(attr string) (float64, bool) {
	v, ok := e.Stats[attr]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Label returns the name used for legends. Entities coming from another
// population carry the source key so duplicate names stay distinguishable.
func (e Entity) Label() string {
	if e.Source == "" {
		return e.Name
	}
	return fmt.Sprintf("%s (%s)", e.Name, e.Source)
}

// Population is an ordered set of entities sharing one schema of numeric attributes.
type Population struct {
	Key        string   // Identifies the source dataset and any filters applied to it
	Entities   []Entity
	Attributes []string // Numeric attributes in source column order
}

// NewPopulation creates an empty population with the given key.
func NewPopulation(key string) *Population {
	return &Population{
		Key:        key,
		Entities:   make([]Entity, 0),
		Attributes: make([]string, 0),
	}
}

// Find returns the first entity with the given name (case-insensitive, trimmed).
func (p *Population) Find(name string) (Entity, bool) {
	name = strings.TrimSpace(name)
	for _, e := range p.Entities {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entity{}, false
}

// FindAll returns every entity with the given name. Names are not unique within a dataset.
func (p *Population) FindAll(name string) []Entity {
	name = strings.TrimSpace(name)
	var out []Entity
	for _, e := range p.Entities {
		if strings.EqualFold(e.Name, name) {
			out = append(out, e)
		}
	}
	return out
}

// Names returns entity names in population order.
func (p *Population) Names() []string {
	names := make([]string, len(p.Entities))
	for i, e := range p.Entities {
		names[i] = e.Name
	}
	return names
}

// HasAttribute reports whether attr is part of the population schema.
func (p *Population) HasAttribute(attr string) bool {
	for _, a := range p.Attributes {
		if a == attr {
			return true
		}
	}
	return false
}

// Range is the observed (min, max) of an attribute over a reference population.
type Range struct {
	Min float64
	Max float64
}

// Span returns max - min.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// IsDegenerate reports whether the range has no spread.
func (r Range) IsDegenerate() bool {
	return r.Max == r.Min
}

// RadarPoint is one vertex of a radar polygon. Angle is in radians.
type RadarPoint struct {
	Angle float64 `json:"angle"`
	Value float64 `json:"value"`
}

// RadarSeries is the closed polygon of one entity: one point per category
// followed by a copy of the first point.
type RadarSeries struct {
	Label  string       `json:"label"`
	Points []RadarPoint `json:"points"`
}

// Values returns the normalized values of the series without the closing point.
func (s RadarSeries) Values() []float64 {
	if len(s.Points) == 0 {
		return nil
	}
	out := make([]float64, len(s.Points)-1)
	for i := range out {
		out[i] = s.Points[i].Value
	}
	return out
}

// OverviewItem pairs a raw value with its normalized counterpart for the
// single-player overview. Present reports the raw value; Normalized is NaN
// when it could not be computed.
type OverviewItem struct {
	Attribute  string  `json:"attribute"`
	Raw        float64 `json:"raw"`
	Normalized float64 `json:"normalized"`
	Present    bool    `json:"present"`
}

// Normalizable reports whether the item has a normalized value.
func (o OverviewItem) Normalizable() bool {
	return !math.IsNaN(o.Normalized)
}

// Percent returns the normalized value in percent, NaN when there is none.
func (o OverviewItem) Percent() float64 {
	if !o.Normalizable() {
		return math.NaN()
	}
	return o.Normalized * 100
}
