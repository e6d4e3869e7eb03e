package attrimport

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseWorkbook reads one exported XLSX workbook into attributes. The
// file's basename up to the first underscore becomes the external
// reference prefix ("attributes", "filters" or "options" in the exports).
func ParseWorkbook(path, inputType string) ([]Attribute, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("attrimport: open workbook %s: %w", path, err)
	}
	defer f.Close()
	return parseWorkbook(f, refPrefix(path), inputType)
}

// ParseWorkbookReader is ParseWorkbook over an in-memory workbook.
func ParseWorkbookReader(r io.Reader, filename, inputType string) ([]Attribute, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("attrimport: open workbook %s: %w", filename, err)
	}
	defer f.Close()
	return parseWorkbook(f, refPrefix(filename), inputType)
}

func refPrefix(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "_"); i > 0 {
		return base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sheetColumns locates the relevant columns of one sheet by header name.
type sheetColumns struct {
	names      []int // columns whose header mentions "name" but not "value"
	valueID    int
	valueName  int
	valueImage int
}

func findColumns(header []string) sheetColumns {
	cols := sheetColumns{valueID: -1, valueName: -1, valueImage: -1}
	for i, raw := range header {
		h := strings.ToLower(raw)
		switch {
		case strings.Contains(h, "value") && strings.Contains(h, "id"):
			if cols.valueID == -1 {
				cols.valueID = i
			}
		case strings.Contains(h, "value") && strings.Contains(h, "name"):
			if cols.valueName == -1 {
				cols.valueName = i
			}
		case strings.Contains(h, "value") && strings.Contains(h, "image"):
			if cols.valueImage == -1 {
				cols.valueImage = i
			}
		case strings.Contains(h, "name"):
			cols.names = append(cols.names, i)
		}
	}
	return cols
}

// parseWorkbook walks every sheet. A row with a non-blank name cell opens
// a new attribute; rows below it with a blank name carry that attribute's
// remaining values. The row ID in the first column keys the external
// reference and the slug suffix.
func parseWorkbook(f *excelize.File, prefix, inputType string) ([]Attribute, error) {
	var attrs []Attribute
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("attrimport: read sheet %s: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}

		cols := findColumns(rows[0])
		hasValues := cols.valueID >= 0 && cols.valueName >= 0

		for _, nameCol := range cols.names {
			var current *Attribute
			for _, row := range rows[1:] {
				if name := cell(row, nameCol); name != "" {
					rowID := cell(row, 0)
					attrs = append(attrs, Attribute{
						Name:              name,
						ExternalReference: fmt.Sprintf("%s-%s%s", prefix, rowID, externalRefSuffix),
						InputType:         inputType,
						Slug:              slugify(name) + "-" + rowID,
					})
					current = &attrs[len(attrs)-1]
				}
				if current == nil || !hasValues {
					continue
				}
				valueName := cell(row, cols.valueName)
				if valueName == "" {
					continue
				}
				value := Value{
					ExternalReference: fmt.Sprintf("values-%s%s", cell(row, cols.valueID), externalRefSuffix),
					Name:              valueName,
				}
				if cols.valueImage >= 0 {
					if url := cell(row, cols.valueImage); url != "" {
						value.File = &FileRef{URL: url}
					}
				}
				current.Values = append(current.Values, value)
			}
		}
	}
	return attrs, nil
}

// cell reads a column tolerating the short rows excelize returns when
// trailing cells are empty.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
