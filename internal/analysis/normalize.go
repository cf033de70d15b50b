package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ClampPolicy controls whether normalized values are forced into [0,1].
type ClampPolicy int

const (
	// NoClamp keeps values outside the reference range as they are (<0 or >1).
	NoClamp ClampPolicy = iota
	// ClampUnit forces every normalized value into [0,1]. NaN stays NaN.
	ClampUnit
)

// Apply applies the policy to a normalized value.
func (p ClampPolicy) Apply(v float64) float64 {
	if p == ClampUnit {
		return Clamp01(v)
	}
	return v
}

// Clamp01 constrains v to [0,1]. NaN is returned unchanged so missing values stay visible.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Max(0, math.Min(1, v))
}

// ComputeRange scans the population for attr and returns the (min, max) over
// present numeric values. Absent and NaN values are ignored.
func ComputeRange(pop *Population, attr string) (Range, error) {
	if pop == nil {
		return Range{}, &EmptyRangeError{Attribute: attr}
	}

	values := make([]float64, 0, len(pop.Entities))
	for _, e := range pop.Entities {
		if v, ok := e.Value(attr); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Range{}, &EmptyRangeError{Attribute: attr, Population: pop.Key}
	}

	return Range{Min: floats.Min(values), Max: floats.Max(values)}, nil
}

// ComputeRanges computes the range of every attribute. Attributes without a
// usable value are left out of the map and reported as joined EmptyRangeErrors.
func ComputeRanges(pop *Population, attrs []string) (map[string]Range, error) {
	ranges := make(map[string]Range, len(attrs))
	var errs []error
	for _, attr := range attrs {
		r, err := ComputeRange(pop, attr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ranges[attr] = r
	}
	return ranges, errors.Join(errs...)
}

// NormalizeValue rescales value linearly so that r.Min maps to 0 and r.Max to 1.
//
// A degenerate range (min == max) has no spread and every value maps to 0; this
// is a neutral value, not "meets the maximum".
//
// The result is not clamped. When r comes from a different population than the
// value (cross-dataset comparisons), the result can be below 0 or above 1.
// Callers that need strict [0,1] output must apply ClampUnit or Clamp01.
func NormalizeValue(value float64, r Range) float64 {
	if r.IsDegenerate() {
		return 0
	}
	if span := r.Span(); !math.IsInf(span, 0) {
		return (value - r.Min) / span
	}
	// the span overflows float64; halving every term keeps the ratio finite
	return (value/2 - r.Min/2) / (r.Max/2 - r.Min/2)
}

// NormalizeEntity normalizes each requested attribute of e against ranges
// computed from ref, which may differ from the population e came from.
//
// The returned map holds one entry per attribute. Attributes that cannot be
// normalized are set to NaN and reported: a MissingAttributeError when e has no
// value, an EmptyRangeError when ref has none. All of them are joined into the
// returned error, so values for the other attributes are still usable.
func NormalizeEntity(e Entity, attrs []string, ref *Population, policy ClampPolicy) (map[string]float64, error) {
	ranges, rangeErr := ComputeRanges(ref, attrs)
	return normalizeWithRanges(e, attrs, ranges, policy, rangeErr)
}

func normalizeWithRanges(e Entity, attrs []string, ranges map[string]Range, policy ClampPolicy, rangeErr error) (map[string]float64, error) {
	out := make(map[string]float64, len(attrs))
	errs := []error{rangeErr}

	for _, attr := range attrs {
		v, ok := e.Value(attr)
		if !ok {
			out[attr] = math.NaN()
			errs = append(errs, &MissingAttributeError{Entity: e.Name, Attribute: attr})
			continue
		}
		r, ok := ranges[attr]
		if !ok { // empty range, already reported
			out[attr] = math.NaN()
			continue
		}
		out[attr] = policy.Apply(NormalizeValue(v, r))
	}

	return out, errors.Join(errs...)
}

// Vector returns the values of m in attrs order.
func Vector(m map[string]float64, attrs []string) []float64 {
	out := make([]float64, len(attrs))
	for i, a := range attrs {
		v, ok := m[a]
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}
