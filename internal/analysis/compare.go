package analysis

import (
	"errors"
	"fmt"
	"math"
)

// MissingPolicy decides what a comparison does with an entity lacking a value.
type MissingPolicy int

const (
	// MissingAsGap keeps NaN in the series; renderers draw a gap.
	MissingAsGap MissingPolicy = iota
	// MissingAsZero plots missing values at the center.
	MissingAsZero
	// MissingAbort fails the comparison.
	MissingAbort
)

// Options tune CompareEntities.
type Options struct {
	Clamp           ClampPolicy
	Missing         MissingPolicy
	SkipEmptyRanges bool // drop attributes without a reference range instead of failing
}

// Comparison is the renderable result of comparing entities on a radar chart.
type Comparison struct {
	Categories []string
	Angles     []float64
	Series     []RadarSeries
	Entities   []Entity
	Ranges     map[string]Range
	Reference  string                   // Key of the reference population
	Missing    []*MissingAttributeError // pairs that were gap- or zero-filled
	Dropped    []string                 // attributes removed because their range was empty
}

// Raw returns the raw value of category attr for the i-th entity.
func (c *Comparison) Raw(i int, attr string) (float64, bool) {
	if i < 0 || i >= len(c.Entities) {
		return 0, false
	}
	return c.Entities[i].Value(attr)
}

// CompareEntities normalizes a and b against the reference built from refs
// (a union when they differ, see ReferencePopulation) and returns two closed
// radar series, a first.
func CompareEntities(a, b Entity, attrs []string, refs []*Population, opts Options) (*Comparison, error) {
	return CompareMany([]Entity{a, b}, attrs, refs, opts)
}

// CompareMany is CompareEntities for any number of entities.
func CompareMany(entities []Entity, attrs []string, refs []*Population, opts Options) (*Comparison, error) {
	if len(attrs) == 0 {
		return nil, ErrNoCategories
	}
	ref := ReferencePopulation(refs...)
	if ref == nil {
		return nil, fmt.Errorf("no reference population")
	}

	ranges, rangeErr := ComputeRanges(ref, attrs)
	categories := attrs
	var dropped []string
	if rangeErr != nil {
		if !opts.SkipEmptyRanges {
			return nil, fmt.Errorf("compute ranges: %w", rangeErr)
		}
		categories = make([]string, 0, len(attrs))
		for _, a := range attrs {
			if _, ok := ranges[a]; ok {
				categories = append(categories, a)
			} else {
				dropped = append(dropped, a)
			}
		}
	}

	angles, err := ComputeAngles(len(categories))
	if err != nil {
		return nil, fmt.Errorf("all attributes dropped: %w", err)
	}

	cmp := &Comparison{
		Categories: categories,
		Angles:     angles,
		Entities:   entities,
		Ranges:     ranges,
		Reference:  ref.Key,
		Dropped:    dropped,
	}

	vectors := make([][]float64, 0, len(entities))
	var abortErrs []error
	for _, e := range entities {
		norm, err := normalizeWithRanges(e, categories, ranges, opts.Clamp, nil)
		missing := MissingAttributes(err)
		cmp.Missing = append(cmp.Missing, missing...)
		if len(missing) > 0 && opts.Missing == MissingAbort {
			abortErrs = append(abortErrs, err)
			continue
		}

		vec := Vector(norm, categories)
		if opts.Missing == MissingAsZero {
			for i, v := range vec {
				if math.IsNaN(v) {
					vec[i] = 0
				}
			}
		}
		vectors = append(vectors, vec)
	}
	if len(abortErrs) > 0 {
		return nil, errors.Join(abortErrs...)
	}

	series, err := BuildComparison(vectors, angles)
	if err != nil {
		return nil, fmt.Errorf("build series: %w", err)
	}
	for i, label := range seriesLabels(entities) {
		series[i].Label = label
	}
	cmp.Series = series

	return cmp, nil
}

// SingleEntityOverview pairs each raw value of e with its normalized value
// against ref, in attrs order. Present tells whether e has the raw value; the
// normalized value is NaN when e lacks it or ref has no range for it. Both
// cases are listed in the returned error; the overview is still returned.
func SingleEntityOverview(e Entity, attrs []string, ref *Population, policy ClampPolicy) ([]OverviewItem, error) {
	norm, err := NormalizeEntity(e, attrs, ref, policy)

	items := make([]OverviewItem, 0, len(attrs))
	for _, attr := range attrs {
		raw, ok := e.Value(attr)
		item := OverviewItem{Attribute: attr, Raw: raw, Normalized: norm[attr], Present: ok}
		if !ok {
			item.Raw = math.NaN()
		}
		items = append(items, item)
	}
	return items, err
}

// Overview returns the overview of the i-th compared entity on the scale of
// the comparison: the normalized values are the ones of its radar series.
func (c *Comparison) Overview(i int) ([]OverviewItem, error) {
	if i < 0 || i >= len(c.Series) || i >= len(c.Entities) {
		return nil, fmt.Errorf("no compared entity at index %d", i)
	}
	s := c.Series[i]
	items := make([]OverviewItem, len(c.Categories))
	for j, attr := range c.Categories {
		item := OverviewItem{Attribute: attr, Raw: math.NaN(), Normalized: math.NaN()}
		if raw, ok := c.Raw(i, attr); ok {
			item.Raw, item.Present = raw, true
		}
		if j < len(s.Points) {
			item.Normalized = s.Points[j].Value
		}
		items[j] = item
	}
	return items, nil
}

// seriesLabels names each entity for the legend. Names shared by several
// entities get the source key, and labels that still collide get an ordinal.
func seriesLabels(entities []Entity) []string {
	labels := make([]string, len(entities))
	names := make(map[string]int)
	for _, e := range entities {
		names[e.Name]++
	}
	counts := make(map[string]int)
	for i, e := range entities {
		labels[i] = e.Name
		if names[e.Name] > 1 {
			labels[i] = e.Label()
		}
		counts[labels[i]]++
	}
	seen := make(map[string]int)
	for i, l := range labels {
		if counts[l] > 1 {
			seen[l]++
			labels[i] = fmt.Sprintf("%s #%d", l, seen[l])
		}
	}
	return labels
}
