package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/user/player_radar_go/internal/analysis"
)

// CustomBoundaryNormColormap is a colormap that uses specific colors for defined boundaries.
type CustomBoundaryNormColormap struct {
	Boundaries []float64     // N+1 boundaries for N colors
	Colors     []color.Color // N colors
	UnderColor color.Color   // Color for values below the first boundary
	OverColor  color.Color   // Color for values at or above the last boundary
	NaNColor   color.Color   // Color for NaN values
}

// Color returns the color for a given z value.
func (cm *CustomBoundaryNormColormap) Color(z float64) color.Color {
	if math.IsNaN(z) {
		return cm.NaNColor
	}
	if len(cm.Boundaries) == 0 || z < cm.Boundaries[0] {
		return cm.UnderColor
	}
	for i := 0; i < len(cm.Colors) && i+1 < len(cm.Boundaries); i++ {
		if z >= cm.Boundaries[i] && z < cm.Boundaries[i+1] {
			return cm.Colors[i]
		}
	}
	return cm.OverColor
}

var (
	barRed    = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 255}
	barOrange = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 255}
	barGreen  = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 255}
	barTrack  = color.Gray{Y: 235}
	barNaN    = color.Gray{Y: 170}
)

// OverviewColormap colors normalized values: red below 0.33, orange below 0.66,
// green from there on and gray when missing. Values outside [0,1] take the
// color of the nearest band.
func OverviewColormap() *CustomBoundaryNormColormap {
	return &CustomBoundaryNormColormap{
		Boundaries: []float64{0, 0.33, 0.66, 1},
		Colors:     []color.Color{barRed, barOrange, barGreen},
		UnderColor: barRed,
		OverColor:  barGreen,
		NaNColor:   barNaN,
	}
}

// CreateOverviewPlot draws one horizontal progress bar per attribute, first
// attribute at the top.
func CreateOverviewPlot(name string, items []analysis.OverviewItem, format string) ([]byte, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no attributes to plot for %s", name)
	}
	cm := OverviewColormap()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: attribute overview", name)
	p.X.Label.Text = "Normalized value"
	p.X.Min, p.X.Max = 0, 1.25
	p.X.Tick.Marker = plot.ConstantTicks([]plot.Tick{
		{Value: 0, Label: "0%"}, {Value: 0.25, Label: "25%"}, {Value: 0.5, Label: "50%"},
		{Value: 0.75, Label: "75%"}, {Value: 1, Label: "100%"},
	})

	n := len(items)
	names := make([]string, n)
	labelXYs := make(plotter.XYs, n)
	labelTexts := make([]string, n)
	const half = 0.35
	for i, item := range items {
		y := float64(n - 1 - i)
		names[n-1-i] = item.Attribute

		track, err := barPolygon(0, 1, y, half)
		if err != nil {
			return nil, err
		}
		track.Color = barTrack
		track.LineStyle.Width = 0
		p.Add(track)

		v := item.Normalized
		width := 1.0
		if !math.IsNaN(v) {
			width = analysis.Clamp01(v)
		}
		if width > 0 {
			bar, err := barPolygon(0, width, y, half)
			if err != nil {
				return nil, err
			}
			bar.Color = cm.Color(v)
			bar.LineStyle.Width = 0
			p.Add(bar)
		}

		labelXYs[i] = plotter.XY{X: 1.02, Y: y}
		labelTexts[i] = formatOverviewValue(item)
	}
	p.NominalY(names...)

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: labelXYs, Labels: labelTexts})
	if err != nil {
		return nil, fmt.Errorf("failed to create value labels: %v", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	height := vg.Points(60 + 28*float64(n))
	return renderPlot(p, vg.Points(700), height, format)
}

func barPolygon(x0, x1, y, half float64) (*plotter.Polygon, error) {
	poly, err := plotter.NewPolygon(plotter.XYs{
		{X: x0, Y: y - half}, {X: x1, Y: y - half}, {X: x1, Y: y + half}, {X: x0, Y: y + half},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bar: %v", err)
	}
	return poly, nil
}

func formatOverviewValue(item analysis.OverviewItem) string {
	switch {
	case !item.Present:
		return "n/a"
	case !item.Normalizable():
		return fmt.Sprintf("n/a (%s)", formatRaw(item.Raw))
	}
	return fmt.Sprintf("%.0f%% (%s)", item.Percent(), formatRaw(item.Raw))
}

// formatRaw prints integers without decimals and everything else with two.
func formatRaw(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e9 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
