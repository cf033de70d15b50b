package analysis

import (
	"math"
)

// ComputeAngles returns n evenly spaced angles in radians, starting at 0:
// angle[i] = 2π·i/n. A category's angle only depends on its index.
func ComputeAngles(n int) ([]float64, error) {
	if n < 1 {
		return nil, ErrNoCategories
	}
	angles := make([]float64, n)
	for i := range angles {
		angles[i] = 2 * math.Pi * float64(i) / float64(n)
	}
	return angles, nil
}

// BuildSeries pairs every angle with the value of the same index and appends a
// copy of the first pair, so the polygon has len(angles)+1 points and renders closed.
func BuildSeries(values, angles []float64) (RadarSeries, error) {
	if len(values) != len(angles) {
		return RadarSeries{}, &LengthMismatchError{Categories: len(angles), Values: len(values)}
	}
	if len(angles) == 0 {
		return RadarSeries{}, ErrNoCategories
	}

	points := make([]RadarPoint, 0, len(angles)+1)
	for i, a := range angles {
		points = append(points, RadarPoint{Angle: a, Value: values[i]})
	}
	points = append(points, points[0])

	return RadarSeries{Points: points}, nil
}

// BuildComparison builds one series per vector. Output order follows input order
// and is the legend/rendering order.
func BuildComparison(vectors [][]float64, angles []float64) ([]RadarSeries, error) {
	out := make([]RadarSeries, 0, len(vectors))
	for _, vec := range vectors {
		s, err := BuildSeries(vec, angles)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// PolarToXY converts a radar point to cartesian coordinates with angle 0 on the
// positive x axis, counter-clockwise.
func PolarToXY(p RadarPoint) (x, y float64) {
	return p.Value * math.Cos(p.Angle), p.Value * math.Sin(p.Angle)
}
