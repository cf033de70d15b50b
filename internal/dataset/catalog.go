package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultYear is used for catalog rows without a YEAR column.
const DefaultYear = "24-25"

// Entry is one dataset listed in the catalog.
type Entry struct {
	League string `json:"league"`
	Year   string `json:"year"`
	Path   string `json:"-"`
}

// ID returns the dataset identifier, "LEAGUE/YEAR".
func (e Entry) ID() string {
	return e.League + "/" + e.Year
}

// Catalog lists the available datasets in file order.
type Catalog struct {
	Entries []Entry
}

// LoadCatalog reads a ';'-delimited catalog with a LEAGUE;PATH or
// LEAGUE;YEAR;PATH header. Relative paths are resolved against dataDir.
func LoadCatalog(path, dataDir string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	cat, err := ParseCatalog(f, dataDir)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalog reads catalog rows from r.
func ParseCatalog(r io.Reader, dataDir string) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	cols := map[string]int{"LEAGUE": -1, "YEAR": -1, "PATH": -1}
	for i, h := range rows[0] {
		h = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := cols[h]; ok {
			cols[h] = i
		}
	}
	if cols["LEAGUE"] < 0 || cols["PATH"] < 0 {
		return nil, fmt.Errorf("catalog header must contain LEAGUE and PATH, got %v", rows[0])
	}

	cell := func(row []string, col int) string {
		if col < 0 || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	cat := &Catalog{}
	seen := make(map[string]bool)
	for i, row := range rows[1:] {
		league := cell(row, cols["LEAGUE"])
		if league == "" {
			continue
		}
		p := cell(row, cols["PATH"])
		if p == "" {
			return nil, fmt.Errorf("line %d: league %s has no path", i+2, league)
		}
		if !filepath.IsAbs(p) && dataDir != "" {
			p = filepath.Join(dataDir, p)
		}
		e := Entry{League: league, Year: cell(row, cols["YEAR"]), Path: p}
		if e.Year == "" {
			e.Year = DefaultYear
		}
		if seen[e.ID()] {
			return nil, fmt.Errorf("line %d: duplicate dataset %s", i+2, e.ID())
		}
		seen[e.ID()] = true
		cat.Entries = append(cat.Entries, e)
	}
	return cat, nil
}

// Leagues returns distinct league names in catalog order.
func (c *Catalog) Leagues() []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range c.Entries {
		if !seen[e.League] {
			seen[e.League] = true
			out = append(out, e.League)
		}
	}
	return out
}

// Years returns the seasons available for league in catalog order.
func (c *Catalog) Years(league string) []string {
	var out []string
	for _, e := range c.Entries {
		if e.League == league {
			out = append(out, e.Year)
		}
	}
	return out
}

// IDs returns every dataset ID in catalog order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.ID()
	}
	return out
}

// Lookup finds a dataset by ID. A bare league name resolves to its first season.
func (c *Catalog) Lookup(id string) (Entry, error) {
	id = strings.TrimSpace(id)
	for _, e := range c.Entries {
		if e.ID() == id {
			return e, nil
		}
	}
	if !strings.Contains(id, "/") {
		for _, e := range c.Entries {
			if e.League == id {
				return e, nil
			}
		}
	}
	return Entry{}, &DatasetNotFoundError{ID: id}
}
