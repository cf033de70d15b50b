package report

import (
	"fmt"
	"image/color"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/user/player_radar_go/internal/analysis"
)

// vmap maps value from [low1,high1] to [low2,high2].
func vmap(value, low1, high1, low2, high2 float64) float64 {
	return low2 + (high2-low2)*(value-low1)/(high1-low1)
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// WriteRadarSVG writes a lightweight radar chart of cmp as SVG. size is the
// side of the square canvas in pixels.
func WriteRadarSVG(w io.Writer, cmp *analysis.Comparison, size int) error {
	if cmp == nil || len(cmp.Series) == 0 {
		return fmt.Errorf("no comparison to draw")
	}
	if len(cmp.Angles) != len(cmp.Categories) || len(cmp.Angles) == 0 {
		return fmt.Errorf("comparison has %d categories and %d angles", len(cmp.Categories), len(cmp.Angles))
	}
	if size < 200 {
		size = 200
	}

	legendH := 22 * len(cmp.Series)
	height := size + legendH
	cx, cy := float64(size)/2, float64(size)/2
	radius := float64(size) * 0.36

	// radar (angle, value) to canvas pixels; y grows downwards
	toXY := func(angle, value float64) (int, int) {
		r := vmap(value, 0, 1, 0, radius)
		return int(math.Round(cx + r*math.Cos(angle))), int(math.Round(cy - r*math.Sin(angle)))
	}

	canvas := svg.New(w)
	canvas.Start(size, height)
	canvas.Rect(0, 0, size, height, "fill:white")
	canvas.Gstyle("font-family:Helvetica,Arial,sans-serif;font-size:12px")

	for _, level := range ringLevels {
		xs, ys := make([]int, len(cmp.Angles)), make([]int, len(cmp.Angles))
		for i, a := range cmp.Angles {
			xs[i], ys[i] = toXY(a, level)
		}
		if len(cmp.Angles) < 3 {
			canvas.Circle(int(cx), int(cy), int(vmap(level, 0, 1, 0, radius)), "fill:none;stroke:#cccccc")
		} else {
			canvas.Polygon(xs, ys, "fill:none;stroke:#cccccc")
		}
	}
	for i, a := range cmp.Angles {
		x, y := toXY(a, 1)
		canvas.Line(int(cx), int(cy), x, y, "stroke:#cccccc")
		lx, ly := toXY(a, 1.18)
		canvas.Text(lx, ly+4, cmp.Categories[i], "text-anchor:middle;fill:#333333")
	}

	for i, s := range cmp.Series {
		col := hexColor(SeriesColor(i))
		var xs, ys []int
		complete := true
		flush := func() {
			if len(xs) > 1 {
				canvas.Polyline(xs, ys, "fill:none;stroke-width:2;stroke:"+col)
			}
			xs, ys = nil, nil
		}
		for _, pt := range s.Points {
			if math.IsNaN(pt.Value) {
				complete = false
				flush()
				continue
			}
			x, y := toXY(pt.Angle, analysis.Clamp01(pt.Value))
			xs, ys = append(xs, x), append(ys, y)
			canvas.Circle(x, y, 3, "fill:"+col)
		}
		if complete && len(xs) > 0 {
			canvas.Polygon(xs[:len(xs)-1], ys[:len(ys)-1], "fill-opacity:0.25;stroke-width:2;fill:"+col+";stroke:"+col)
			xs, ys = nil, nil
		}
		flush()

		ly := size + 16 + 22*i
		canvas.Rect(12, ly-10, 14, 14, "fill:"+col)
		label := s.Label
		if !complete {
			label += " (incomplete)"
		}
		canvas.Text(32, ly+2, label, "fill:#333333")
	}

	canvas.Gend()
	canvas.End()
	return nil
}
