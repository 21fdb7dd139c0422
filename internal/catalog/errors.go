package catalog

import "errors"

var (
	// ErrUnknownCategory is returned when a category name is not in the catalog.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnknownProduct is returned when a product name is not in the requested category.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrUnknownCode is returned when no product carries the requested code.
	ErrUnknownCode = errors.New("unknown product code")
	// ErrInvalidCatalog is returned when a catalog definition fails validation.
	ErrInvalidCatalog = errors.New("invalid catalog")
)
