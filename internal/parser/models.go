package parser

import "github.com/user/player_radar_go/internal/analysis"

// DefaultNameColumn is the header of the column holding player names.
const DefaultNameColumn = "Player"

// Options control how a tabular dataset is read.
type Options struct {
	NameColumn string // defaults to DefaultNameColumn
	Delimiter  rune   // CSV only; 0 detects ';' or ','
	Sheet      string // XLSX only; defaults to the first sheet
}

func (o Options) nameColumn() string {
	if o.NameColumn == "" {
		return DefaultNameColumn
	}
	return o.NameColumn
}

// ParsedDataset is the result of reading one dataset file.
type ParsedDataset struct {
	Population     *analysis.Population
	NumericColumns []string
	TextColumns    []string
	NumRows        int
	ParseErrors    []string // Non-fatal problems found while parsing
}

// NewParsedDataset creates an empty result for the dataset key.
func NewParsedDataset(key string) *ParsedDataset {
	return &ParsedDataset{
		Population:     analysis.NewPopulation(key),
		NumericColumns: make([]string, 0),
		TextColumns:    make([]string, 0),
		ParseErrors:    make([]string, 0),
	}
}

// missingPlaceholders are cell values that mean "no value" in a numeric column.
var missingPlaceholders = map[string]bool{
	"-":   true,
	"—":   true,
	"n/a": true,
	"na":  true,
	"nan": true,
	"?":   true,
}
