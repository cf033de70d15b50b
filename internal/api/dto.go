package api

import (
	"math"

	"github.com/user/player_radar_go/internal/analysis"
	"github.com/user/player_radar_go/internal/service"
)

// JSON has no NaN, so absent values are encoded as null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type PointDTO struct {
	Angle float64  `json:"angle"`
	Value *float64 `json:"value"`
}

type SeriesDTO struct {
	Label  string     `json:"label"`
	Points []PointDTO `json:"points"`
	Raw    []*float64 `json:"raw"`
}

type RangeDTO struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type MissingDTO struct {
	Entity    string `json:"entity"`
	Attribute string `json:"attribute"`
}

// ComparisonDTO is the JSON form of a comparison. Missing values are null.
type ComparisonDTO struct {
	Categories   []string            `json:"categories"`
	Angles       []float64           `json:"angles"`
	Reference    string              `json:"reference"`
	Series       []SeriesDTO         `json:"series"`
	Ranges       map[string]RangeDTO `json:"ranges"`
	Missing      []MissingDTO        `json:"missing"`
	Dropped      []string            `json:"dropped"`
	GroupDropped []string            `json:"group_dropped"`
}

// NewComparisonDTO converts a comparison result.
func NewComparisonDTO(res *service.CompareResult) ComparisonDTO {
	cmp := res.Comparison
	out := ComparisonDTO{
		Categories:   cmp.Categories,
		Angles:       cmp.Angles,
		Reference:    cmp.Reference,
		Series:       make([]SeriesDTO, len(cmp.Series)),
		Ranges:       make(map[string]RangeDTO, len(cmp.Ranges)),
		Missing:      make([]MissingDTO, 0, len(cmp.Missing)),
		Dropped:      nonNil(cmp.Dropped),
		GroupDropped: nonNil(res.GroupDropped),
	}
	for i, s := range cmp.Series {
		dto := SeriesDTO{Label: s.Label, Points: make([]PointDTO, len(s.Points))}
		for j, p := range s.Points {
			dto.Points[j] = PointDTO{Angle: p.Angle, Value: nullable(p.Value)}
		}
		for _, attr := range cmp.Categories {
			v, ok := cmp.Raw(i, attr)
			if !ok {
				dto.Raw = append(dto.Raw, nil)
				continue
			}
			dto.Raw = append(dto.Raw, nullable(v))
		}
		out.Series[i] = dto
	}
	for attr, r := range cmp.Ranges {
		out.Ranges[attr] = RangeDTO{Min: r.Min, Max: r.Max}
	}
	for _, m := range cmp.Missing {
		out.Missing = append(out.Missing, MissingDTO{Entity: m.Entity, Attribute: m.Attribute})
	}
	return out
}

type OverviewItemDTO struct {
	Attribute  string   `json:"attribute"`
	Raw        *float64 `json:"raw"`
	Normalized *float64 `json:"normalized"`
	Percent    *float64 `json:"percent"`
}

// OverviewDTO is the JSON form of a single-player overview.
type OverviewDTO struct {
	Player       string            `json:"player"`
	Dataset      string            `json:"dataset"`
	Reference    string            `json:"reference"`
	Info         map[string]string `json:"info"`
	Items        []OverviewItemDTO `json:"items"`
	GroupDropped []string          `json:"group_dropped"`
	Warnings     []string          `json:"warnings"`
}

func NewOverviewDTO(res *service.OverviewResult) OverviewDTO {
	out := OverviewDTO{
		Player:       res.Entity.Name,
		Dataset:      res.Entity.Source,
		Reference:    res.Reference,
		Info:         res.Entity.Info,
		Items:        make([]OverviewItemDTO, len(res.Items)),
		GroupDropped: nonNil(res.GroupDropped),
		Warnings:     nonNil(res.Warnings),
	}
	for i, it := range res.Items {
		dto := OverviewItemDTO{Attribute: it.Attribute}
		if it.Present {
			dto.Raw = nullable(it.Raw)
		}
		dto.Normalized = nullable(it.Normalized)
		dto.Percent = nullable(it.Percent())
		out.Items[i] = dto
	}
	return out
}

type PlayerDTO struct {
	Name  string             `json:"name"`
	Info  map[string]string  `json:"info,omitempty"`
	Stats map[string]float64 `json:"stats,omitempty"`
}

func NewPlayerDTO(e analysis.Entity, withStats bool) PlayerDTO {
	dto := PlayerDTO{Name: e.Name, Info: e.Info}
	if withStats {
		dto.Stats = make(map[string]float64, len(e.Stats))
		for k, v := range e.Stats {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				dto.Stats[k] = v
			}
		}
	}
	return dto
}

// DatasetDTO describes a dataset of the catalog or the database.
type DatasetDTO struct {
	ID       string `json:"id"`
	League   string `json:"league"`
	Year     string `json:"year"`
	Source   string `json:"source"` // catalog or db
	Imported bool   `json:"imported"`
	Players  int    `json:"players,omitempty"` // known for imported datasets only
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
