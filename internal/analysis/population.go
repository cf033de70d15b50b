package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

// DerivedColumn computes Name = Numerator / Denominator * Factor per entity,
// e.g. goals per 90 minutes. A Factor of 0 is treated as 1.
type DerivedColumn struct {
	Name        string  `json:"name"`
	Numerator   string  `json:"numerator"`
	Denominator string  `json:"denominator"`
	Factor      float64 `json:"factor"`
}

func (d DerivedColumn) validate() error {
	if d.Name == "" || d.Numerator == "" || d.Denominator == "" {
		return fmt.Errorf("derived column needs name, numerator and denominator: %+v", d)
	}
	return nil
}

// ApplyDerived returns a copy of pop with the derived columns added. A derived
// value is only set when both inputs are present and the denominator is not zero;
// otherwise it stays absent. Columns whose inputs are not in the schema are skipped.
func ApplyDerived(pop *Population, defs []DerivedColumn) *Population {
	var usable []DerivedColumn
	for _, d := range defs {
		if d.validate() != nil || pop.HasAttribute(d.Name) {
			continue
		}
		if pop.HasAttribute(d.Numerator) && pop.HasAttribute(d.Denominator) {
			usable = append(usable, d)
		}
	}
	if len(usable) == 0 {
		return pop
	}

	names := make([]string, len(usable))
	for i, d := range usable {
		names[i] = d.Name
	}

	out := &Population{
		Key:        pop.Key + "+derived(" + strings.Join(names, ",") + ")",
		Attributes: append(append([]string(nil), pop.Attributes...), names...),
		Entities:   make([]Entity, len(pop.Entities)),
	}
	for i, e := range pop.Entities {
		stats := make(map[string]float64, len(e.Stats)+len(usable))
		for k, v := range e.Stats {
			stats[k] = v
		}
		for _, d := range usable {
			num, ok1 := e.Value(d.Numerator)
			den, ok2 := e.Value(d.Denominator)
			if !ok1 || !ok2 || den == 0 {
				continue
			}
			factor := d.Factor
			if factor == 0 {
				factor = 1
			}
			stats[d.Name] = num / den * factor
		}
		e.Stats = stats
		out.Entities[i] = e
	}
	return out
}

// FilterMinimum keeps the entities whose attr value is at least min, e.g. a
// minimum number of minutes played. Entities without a value are removed. The
// key of the result records the filter.
func FilterMinimum(pop *Population, attr string, min float64) *Population {
	out := &Population{
		Key:        fmt.Sprintf("%s[%s>=%s]", pop.Key, attr, strconv.FormatFloat(min, 'f', -1, 64)),
		Attributes: pop.Attributes,
		Entities:   make([]Entity, 0, len(pop.Entities)),
	}
	for _, e := range pop.Entities {
		if v, ok := e.Value(attr); ok && v >= min {
			out.Entities = append(out.Entities, e)
		}
	}
	return out
}
