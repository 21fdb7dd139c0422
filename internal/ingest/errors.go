package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedNumber is returned when a numeric cell cannot be parsed or is out of range.
	ErrMalformedNumber = errors.New("malformed number")
	// ErrMissingField is returned when a required cell is blank.
	ErrMissingField = errors.New("missing required field")
	// ErrTooManyItems is returned when quantity expansion exceeds the schema limit.
	ErrTooManyItems = errors.New("too many items")
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrInvalidSchema is returned when a column mapping cannot be parsed.
	ErrInvalidSchema = errors.New("invalid column schema")
)

// RowError reports a rejected spreadsheet row.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
