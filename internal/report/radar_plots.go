package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg" // png
	_ "gonum.org/v1/plot/vg/vgsvg" // svg

	"github.com/user/player_radar_go/internal/analysis"
)

// ringLevels are the normalized values drawn as reference rings.
var ringLevels = []float64{0.25, 0.5, 0.75, 1}

var seriesColors = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 255}, // Blue
	{R: 0xd6, G: 0x27, B: 0x28, A: 255}, // Red
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 255}, // Green
	{R: 0xff, G: 0x7f, B: 0x0e, A: 255}, // Orange
	{R: 0x94, G: 0x67, B: 0xbd, A: 255}, // Purple
	{G: 0x80, B: 0x80, A: 255},          // Teal
}

// SeriesColor returns the color used for the i-th series.
func SeriesColor(i int) color.RGBA {
	return seriesColors[i%len(seriesColors)]
}

func translucent(c color.RGBA, alpha uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

// ComparisonTitle joins the series labels, "A vs B".
func ComparisonTitle(cmp *analysis.Comparison) string {
	labels := make([]string, len(cmp.Series))
	for i, s := range cmp.Series {
		labels[i] = s.Label
	}
	return strings.Join(labels, " vs ")
}

// CreateRadarPlot renders the comparison as a radar chart. format is "png" or "svg".
// Values are clamped to [0,1] for drawing only; missing values break the outline
// and disable the fill of that series.
func CreateRadarPlot(cmp *analysis.Comparison, title, format string) ([]byte, error) {
	if cmp == nil || len(cmp.Series) == 0 {
		return nil, fmt.Errorf("no comparison to plot")
	}
	n := len(cmp.Categories)
	if n == 0 || len(cmp.Angles) != n {
		return nil, fmt.Errorf("comparison has %d categories and %d angles", n, len(cmp.Angles))
	}

	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.X.Min, p.X.Max = -1.4, 1.4
	p.Y.Min, p.Y.Max = -1.3, 1.3

	grid := draw.LineStyle{Color: color.Gray{Y: 200}, Width: vg.Points(0.5)}
	for _, level := range ringLevels {
		ring, err := plotter.NewLine(ringXYs(cmp.Angles, level))
		if err != nil {
			return nil, fmt.Errorf("failed to create ring: %v", err)
		}
		ring.LineStyle = grid
		if level < 1 {
			ring.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		}
		p.Add(ring)
	}

	labelXYs := make(plotter.XYs, n)
	for i, angle := range cmp.Angles {
		x, y := analysis.PolarToXY(analysis.RadarPoint{Angle: angle, Value: 1})
		spoke, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: x, Y: y}})
		if err != nil {
			return nil, fmt.Errorf("failed to create spoke: %v", err)
		}
		spoke.LineStyle = grid
		p.Add(spoke)

		lx, ly := analysis.PolarToXY(analysis.RadarPoint{Angle: angle, Value: 1.15})
		labelXYs[i] = plotter.XY{X: lx, Y: ly}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: labelXYs, Labels: cmp.Categories})
	if err != nil {
		return nil, fmt.Errorf("failed to create category labels: %v", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	for i, s := range cmp.Series {
		c := SeriesColor(i)
		segments := seriesSegments(s)
		if len(segments) == 0 {
			continue // nothing to draw, every value is missing
		}

		style := draw.LineStyle{Color: c, Width: vg.Points(2)}
		if len(segments) == 1 && len(segments[0]) == len(s.Points) {
			poly, err := plotter.NewPolygon(segments[0])
			if err != nil {
				return nil, fmt.Errorf("failed to create polygon for %s: %v", s.Label, err)
			}
			poly.Color = translucent(c, 0x40)
			poly.LineStyle = style
			p.Add(poly)
			p.Legend.Add(s.Label, poly)
			continue
		}

		var legendLine *plotter.Line
		for _, seg := range segments {
			line, scatter, err := plotter.NewLinePoints(seg)
			if err != nil {
				return nil, fmt.Errorf("failed to create line for %s: %v", s.Label, err)
			}
			line.LineStyle = style
			scatter.Color = c
			p.Add(line, scatter)
			if legendLine == nil {
				legendLine = line
			}
		}
		p.Legend.Add(s.Label+" (incomplete)", legendLine)
	}

	p.Legend.Top = true
	p.Legend.Left = true

	return renderPlot(p, vg.Points(600), vg.Points(600), format)
}

// ringXYs returns a closed ring through every spoke at level. With fewer than
// three spokes a circle is drawn instead.
func ringXYs(angles []float64, level float64) plotter.XYs {
	if len(angles) < 3 {
		const steps = 72
		xys := make(plotter.XYs, steps+1)
		for i := range xys {
			a := 2 * math.Pi * float64(i) / steps
			xys[i] = plotter.XY{X: level * math.Cos(a), Y: level * math.Sin(a)}
		}
		return xys
	}
	xys := make(plotter.XYs, 0, len(angles)+1)
	for _, a := range angles {
		x, y := analysis.PolarToXY(analysis.RadarPoint{Angle: a, Value: level})
		xys = append(xys, plotter.XY{X: x, Y: y})
	}
	return append(xys, xys[0])
}

// seriesSegments splits a closed series into runs of consecutive present
// points, clamped to [0,1].
func seriesSegments(s analysis.RadarSeries) []plotter.XYs {
	var (
		out []plotter.XYs
		cur plotter.XYs
	)
	for _, pt := range s.Points {
		if math.IsNaN(pt.Value) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		x, y := analysis.PolarToXY(analysis.RadarPoint{Angle: pt.Angle, Value: analysis.Clamp01(pt.Value)})
		cur = append(cur, plotter.XY{X: x, Y: y})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func renderPlot(p *plot.Plot, w, h vg.Length, format string) ([]byte, error) {
	if format == "" {
		format = "png"
	}
	writer, err := p.WriterTo(w, h, format)
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %v", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %v", err)
	}
	return buf.Bytes(), nil
}
