package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/eugenenazirov/points-grouper/internal/grouping"
)

// Supported upload formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FormatFromFilename infers the upload format from the file extension.
func FormatFromFilename(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// Read dispatches to the reader matching the file extension.
func Read(filename string, r io.Reader, schema Schema, sheet string) ([]grouping.Item, error) {
	format, err := FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}
	if format == FormatCSV {
		return ReadCSV(r, schema)
	}
	return ReadXLSX(r, schema, sheet)
}

// ReadCSV reads comma separated rows, tolerating a leading UTF-8 BOM.
func ReadCSV(r io.Reader, schema Schema) ([]grouping.Item, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}

	return schema.Items(rows)
}

// ReadXLSX reads rows from the named sheet, or the first sheet when sheet is empty.
func ReadXLSX(r io.Reader, schema Schema, sheet string) ([]grouping.Item, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("open workbook: no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	return schema.Items(rows)
}
