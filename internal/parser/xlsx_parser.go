package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads a player table from an Excel workbook. The first row of the
// sheet is the header.
func ParseXLSX(path, key string, opts Options) (*ParsedDataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return buildDataset(rows, key, opts)
}
