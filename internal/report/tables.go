package report

import (
	"fmt"
	"math"

	"github.com/syohex/go-texttable"

	"github.com/user/player_radar_go/internal/analysis"
)

func formatNorm(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatComparisonTable renders the raw and normalized values of every
// compared entity, one row per category.
func FormatComparisonTable(cmp *analysis.Comparison) (string, error) {
	if cmp == nil {
		return "", fmt.Errorf("no comparison")
	}

	header := []string{"Attribute", "Min", "Max"}
	for _, s := range cmp.Series {
		header = append(header, s.Label, "norm")
	}
	tbl := &texttable.TextTable{}
	if err := tbl.SetHeader(header...); err != nil {
		return "", fmt.Errorf("set header: %w", err)
	}

	for i, attr := range cmp.Categories {
		r := cmp.Ranges[attr]
		row := []string{attr, formatRaw(r.Min), formatRaw(r.Max)}
		for j, s := range cmp.Series {
			raw, ok := cmp.Raw(j, attr)
			rawText := "-"
			if ok {
				rawText = formatRaw(raw)
			}
			norm := math.NaN()
			if i < len(s.Points) {
				norm = s.Points[i].Value
			}
			row = append(row, rawText, formatNorm(norm))
		}
		if err := tbl.AddRow(row...); err != nil {
			return "", fmt.Errorf("add row %s: %w", attr, err)
		}
	}
	return tbl.Draw(), nil
}

// FormatOverviewTable renders a single-entity overview.
func FormatOverviewTable(items []analysis.OverviewItem) (string, error) {
	tbl := &texttable.TextTable{}
	if err := tbl.SetHeader("Attribute", "Value", "Normalized", "Percent"); err != nil {
		return "", fmt.Errorf("set header: %w", err)
	}
	for _, it := range items {
		raw, norm, pct := "-", "-", "-"
		if it.Present {
			raw = formatRaw(it.Raw)
		}
		if it.Normalizable() {
			norm = formatNorm(it.Normalized)
			pct = fmt.Sprintf("%.0f%%", it.Percent())
		}
		if err := tbl.AddRow(it.Attribute, raw, norm, pct); err != nil {
			return "", fmt.Errorf("add row %s: %w", it.Attribute, err)
		}
	}
	return tbl.Draw(), nil
}
