// Package export serializes grouping results into downloadable tables.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/eugenenazirov/points-grouper/internal/grouping"
)

// Format identifies an export encoding.
type Format string

// Supported export formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheetName = "Groups"

// ErrUnsupportedFormat is returned for unknown export formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseFormat parses a format name; empty means CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// Table lays groups out as a header plus one row per group: details, total,
// one total per auxiliary attribute (sorted by name), deviation.
func Table(groups []grouping.Group) ([]string, [][]string) {
	attrs := auxiliaryNames(groups)

	header := make([]string, 0, len(attrs)+3)
	header = append(header, "details", "total")
	for _, name := range attrs {
		header = append(header, name+"_total")
	}
	header = append(header, "deviation")

	rows := make([][]string, 0, len(groups))
	for _, group := range groups {
		row := make([]string, 0, len(header))
		row = append(row, group.Details(), grouping.FormatNumber(group.TotalWeight))
		for _, name := range attrs {
			row = append(row, grouping.FormatNumber(group.TotalAuxiliary[name]))
		}
		row = append(row, grouping.FormatNumber(group.Deviation))
		rows = append(rows, row)
	}
	return header, rows
}

// Write encodes groups in the given format.
func Write(w io.Writer, format Format, groups []grouping.Group) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, groups)
	case FormatXLSX:
		return WriteXLSX(w, groups)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteCSV writes a UTF-8 CSV with a byte order mark so spreadsheet tools
// pick the right encoding for non-ASCII labels.
func WriteCSV(w io.Writer, groups []grouping.Group) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	header, rows := Table(groups)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with a single Groups sheet. Numeric columns are
// stored as numbers.
func WriteXLSX(w io.Writer, groups []grouping.Group) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}

	attrs := auxiliaryNames(groups)
	header, _ := Table(groups)
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}

	for i, group := range groups {
		row := make([]any, 0, len(header))
		row = append(row, group.Details(), group.TotalWeight)
		for _, name := range attrs {
			row = append(row, group.TotalAuxiliary[name])
		}
		row = append(row, group.Deviation)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func auxiliaryNames(groups []grouping.Group) []string {
	seen := make(map[string]struct{})
	for _, group := range groups {
		for name := range group.TotalAuxiliary {
			seen[name] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}
