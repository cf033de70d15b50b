package analysis

import (
	"strings"
)

// MergePopulations returns the union of the given populations, used as the
// reference when compared entities come from different datasets.
//
// Populations are identified by Key; a key that appears more than once is merged
// only once, so merging a population with itself yields the same entities and
// therefore the same ranges. Attributes keep first-seen order.
func MergePopulations(pops ...*Population) *Population {
	seen := make(map[string]bool)
	var keys []string
	var distinct []*Population
	for _, p := range pops {
		if p == nil || seen[p.Key] {
			continue
		}
		seen[p.Key] = true
		keys = append(keys, p.Key)
		distinct = append(distinct, p)
	}

	merged := NewPopulation(strings.Join(keys, " + "))
	attrSeen := make(map[string]bool)
	for _, p := range distinct {
		merged.Entities = append(merged.Entities, p.Entities...)
		for _, a := range p.Attributes {
			if !attrSeen[a] {
				attrSeen[a] = true
				merged.Attributes = append(merged.Attributes, a)
			}
		}
	}
	return merged
}

// ReferencePopulation picks the reference for a comparison. When every
// population shares the same key it is returned as is and no merge happens.
func ReferencePopulation(pops ...*Population) *Population {
	var first *Population
	for _, p := range pops {
		if p == nil {
			continue
		}
		if first == nil {
			first = p
			continue
		}
		if p.Key != first.Key {
			return MergePopulations(pops...)
		}
	}
	return first
}

// CommonAttributes returns the attributes present in every population, in the
// order of the first one.
func CommonAttributes(pops ...*Population) []string {
	if len(pops) == 0 || pops[0] == nil {
		return nil
	}
	var out []string
	for _, a := range pops[0].Attributes {
		shared := true
		for _, p := range pops[1:] {
			if p != nil && !p.HasAttribute(a) {
				shared = false
				break
			}
		}
		if shared {
			out = append(out, a)
		}
	}
	return out
}
