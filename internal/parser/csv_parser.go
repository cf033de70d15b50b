package parser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/user/player_radar_go/internal/analysis"
)

var thousandsRe = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// parseNumber parses a numeric cell. Percent signs and thousands separators are accepted.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	}
	if thousandsRe.MatchString(s) {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// isPlaceholder reports cells that mean "no value" in a numeric column,
// including numbers that parse but are not finite (inf, Infinity, NaN).
func isPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	if missingPlaceholders[strings.ToLower(s)] {
		return true
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	return err == nil && (math.IsNaN(v) || math.IsInf(v, 0))
}

// ParseDataset reads a dataset file, choosing the reader from its extension.
// key becomes the population key and the Source of every entity.
func ParseDataset(path, key string, opts Options) (*ParsedDataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ParseXLSX(path, key, opts)
	case ".csv", ".txt", "":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer file.Close()
		return ParseCSV(file, key, opts)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", filepath.Ext(path))
	}
}

// ParseCSV reads a delimited player table. The delimiter is detected from the
// header line unless opts.Delimiter is set.
func ParseCSV(r io.Reader, key string, opts Options) (*ParsedDataset, error) {
	br := bufio.NewReader(r)
	delim := opts.Delimiter
	if delim == 0 {
		head, err := br.Peek(4096)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, fmt.Errorf("failed to read CSV header: %w", err)
		}
		delim = detectDelimiter(string(head))
	}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // short rows are padded below

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	return buildDataset(allRows, key, opts)
}

// detectDelimiter picks ';' when the first line has more semicolons than commas.
func detectDelimiter(head string) rune {
	line := head
	if i := strings.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

type columnStats struct {
	numeric, placeholders, text int
}

// buildDataset turns raw rows (header first) into a population.
func buildDataset(rows [][]string, key string, opts Options) (*ParsedDataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", key)
	}
	header := make([]string, len(rows[0]))
	seen := make(map[string]int)
	parsed := NewParsedDataset(key)
	for i, h := range rows[0] {
		// header names may carry a UTF-8 BOM and stray spaces
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		seen[h]++
		if seen[h] > 1 {
			renamed := fmt.Sprintf("%s_%d", h, seen[h])
			parsed.ParseErrors = append(parsed.ParseErrors, fmt.Sprintf("Warning: duplicate column %q renamed to %q.", h, renamed))
			h = renamed
		}
		header[i] = h
	}

	nameIdx := -1
	for i, h := range header {
		if strings.EqualFold(h, opts.nameColumn()) {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("name column %q not found in columns %v", opts.nameColumn(), header)
	}

	// keep data rows, padded to header width
	var data [][]string
	for rowIdx, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		for len(row) < len(header) {
			row = append(row, "")
		}
		name := strings.TrimSpace(row[nameIdx])
		if strings.EqualFold(name, header[nameIdx]) { // repeated header inside the table
			continue
		}
		if name == "" {
			parsed.ParseErrors = append(parsed.ParseErrors, fmt.Sprintf("Warning: row %d has no %s, skipped.", rowIdx+2, header[nameIdx]))
			continue
		}
		data = append(data, row)
	}

	stats := make([]columnStats, len(header))
	for _, row := range data {
		for c := range header {
			if c == nameIdx {
				continue
			}
			cell := strings.TrimSpace(row[c])
			switch {
			case cell == "":
			case isPlaceholder(cell):
				stats[c].placeholders++
			default:
				if _, ok := parseNumber(cell); ok {
					stats[c].numeric++
				} else {
					stats[c].text++
				}
			}
		}
	}

	numeric := make([]bool, len(header))
	for c, h := range header {
		if c == nameIdx {
			continue
		}
		if stats[c].numeric > 0 && stats[c].text == 0 {
			numeric[c] = true
			parsed.NumericColumns = append(parsed.NumericColumns, h)
			if stats[c].placeholders > 0 {
				parsed.ParseErrors = append(parsed.ParseErrors, fmt.Sprintf("Warning: column %q has %d placeholder value(s), treated as missing.", h, stats[c].placeholders))
			}
			continue
		}
		if stats[c].numeric > 0 {
			parsed.ParseErrors = append(parsed.ParseErrors, fmt.Sprintf("Warning: column %q mixes %d numeric and %d text value(s), treated as text.", h, stats[c].numeric, stats[c].text))
		}
		parsed.TextColumns = append(parsed.TextColumns, h)
	}

	pop := parsed.Population
	pop.Attributes = append(pop.Attributes, parsed.NumericColumns...)
	for _, row := range data {
		e := analysis.Entity{
			Name:   strings.TrimSpace(row[nameIdx]),
			Source: key,
			Stats:  make(map[string]float64),
			Info:   make(map[string]string),
		}
		for c, h := range header {
			if c == nameIdx {
				continue
			}
			cell := strings.TrimSpace(row[c])
			if numeric[c] {
				if v, ok := parseNumber(cell); ok {
					e.Stats[h] = v
				}
			} else if cell != "" {
				e.Info[h] = cell
			}
		}
		pop.Entities = append(pop.Entities, e)
	}
	parsed.NumRows = len(pop.Entities)

	if parsed.NumRows == 0 {
		parsed.ParseErrors = append(parsed.ParseErrors, "Warning: no player rows parsed.")
	}
	if len(parsed.NumericColumns) == 0 {
		parsed.ParseErrors = append(parsed.ParseErrors, "Warning: no numeric columns found to compare.")
	}
	return parsed, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
