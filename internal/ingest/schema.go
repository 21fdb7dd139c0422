package ingest

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/eugenenazirov/points-grouper/internal/grouping"
)

const (
	// NoColumn marks a schema field that has no source column.
	NoColumn = -1

	defaultMaxItems = 100_000
)

// Schema maps named fields to zero-based spreadsheet columns.
type Schema struct {
	Code       int
	Name       int
	Quantity   int
	Weight     int
	Auxiliary  map[string]int
	HeaderRows int
	MaxItems   int
}

// DefaultSchema reads code, name, quantity and weight from columns B to E
// below a single header row.
func DefaultSchema() Schema {
	return Schema{
		Code:       1,
		Name:       2,
		Quantity:   3,
		Weight:     4,
		HeaderRows: 1,
		MaxItems:   defaultMaxItems,
	}
}

// ParseSchema builds a Schema from "field=column" pairs separated by commas,
// e.g. "name=C,quantity=D,weight=E,price=F". Fields other than code, name,
// quantity and weight become auxiliary attributes. Unlisted fixed fields are
// absent, except that an empty spec yields DefaultSchema.
func ParseSchema(spec string) (Schema, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return DefaultSchema(), nil
	}

	schema := Schema{
		Code:       NoColumn,
		Name:       NoColumn,
		Quantity:   NoColumn,
		Weight:     NoColumn,
		HeaderRows: 1,
		MaxItems:   defaultMaxItems,
	}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		field, column, ok := strings.Cut(pair, "=")
		if !ok {
			return Schema{}, fmt.Errorf("%w: %q is not field=column", ErrInvalidSchema, pair)
		}
		field = strings.ToLower(strings.TrimSpace(field))
		idx, err := ParseColumn(column)
		if err != nil {
			return Schema{}, err
		}
		switch field {
		case "":
			return Schema{}, fmt.Errorf("%w: empty field name in %q", ErrInvalidSchema, pair)
		case "code":
			schema.Code = idx
		case "name":
			schema.Name = idx
		case "quantity":
			schema.Quantity = idx
		case "weight":
			schema.Weight = idx
		default:
			if schema.Auxiliary == nil {
				schema.Auxiliary = make(map[string]int)
			}
			schema.Auxiliary[field] = idx
		}
	}

	if schema.Weight == NoColumn {
		return Schema{}, fmt.Errorf("%w: weight column is required", ErrInvalidSchema)
	}
	if schema.Name == NoColumn && schema.Code == NoColumn {
		return Schema{}, fmt.Errorf("%w: name or code column is required", ErrInvalidSchema)
	}
	return schema, nil
}

// ParseColumn converts a spreadsheet column reference ("C", "ab") or a
// 1-based column number ("3") into a zero-based index.
func ParseColumn(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, fmt.Errorf("%w: empty column", ErrInvalidSchema)
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 {
			return 0, fmt.Errorf("%w: column number must be positive, got %d", ErrInvalidSchema, n)
		}
		return n - 1, nil
	}

	idx := 0
	for _, r := range strings.ToUpper(ref) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("%w: bad column %q", ErrInvalidSchema, ref)
		}
		idx = idx*26 + int(r-'A') + 1
		if idx > 16384 {
			return 0, fmt.Errorf("%w: column %q out of range", ErrInvalidSchema, ref)
		}
	}
	return idx - 1, nil
}

// ColumnName converts a zero-based index into a spreadsheet column reference.
func ColumnName(idx int) string {
	if idx < 0 {
		return "-"
	}
	name := ""
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}

// Items converts raw rows into grouping items, one per unit of quantity.
// Row numbers in errors are 1-based and include header rows.
func (s Schema) Items(rows [][]string) ([]grouping.Item, error) {
	maxItems := s.MaxItems
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	auxNames := slices.Sorted(maps.Keys(s.Auxiliary))

	items := make([]grouping.Item, 0, len(rows))
	for i, row := range rows {
		rowNum := i + 1
		if i < s.HeaderRows || blankRow(row) {
			continue
		}

		quantity := 1
		if s.Quantity != NoColumn {
			q, err := parseQuantity(cell(row, s.Quantity))
			if err != nil {
				return nil, &RowError{Row: rowNum, Column: ColumnName(s.Quantity), Err: err}
			}
			quantity = q
		}
		if quantity == 0 {
			continue
		}

		label := cell(row, s.Name)
		if label == "" {
			label = cell(row, s.Code)
		}
		if label == "" {
			column := s.Name
			if column == NoColumn {
				column = s.Code
			}
			return nil, &RowError{Row: rowNum, Column: ColumnName(column), Err: ErrMissingField}
		}

		weight, err := parseRequiredNumber(cell(row, s.Weight))
		if err != nil {
			return nil, &RowError{Row: rowNum, Column: ColumnName(s.Weight), Err: err}
		}

		var aux map[string]float64
		for _, name := range auxNames {
			raw := cell(row, s.Auxiliary[name])
			if raw == "" {
				continue
			}
			value, err := parseNumber(raw)
			if err != nil {
				return nil, &RowError{Row: rowNum, Column: ColumnName(s.Auxiliary[name]), Err: err}
			}
			if aux == nil {
				aux = make(map[string]float64, len(auxNames))
			}
			aux[name] = value
		}

		if len(items)+quantity > maxItems {
			return nil, fmt.Errorf("%w: row %d would exceed %d items", ErrTooManyItems, rowNum, maxItems)
		}
		for range quantity {
			items = append(items, grouping.Item{Label: label, Weight: weight, Auxiliary: aux})
		}
	}

	return items, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func parseQuantity(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := parseNumber(raw)
	if err != nil {
		return 0, err
	}
	if value < 0 || value != math.Trunc(value) || value > math.MaxInt32 {
		return 0, fmt.Errorf("%w: quantity %q must be a non-negative whole number", ErrMalformedNumber, raw)
	}
	return int(value), nil
}

func parseRequiredNumber(raw string) (float64, error) {
	if raw == "" {
		return 0, ErrMissingField
	}
	return parseNumber(raw)
}

func parseNumber(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, raw)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrMalformedNumber, raw)
	}
	return value, nil
}
