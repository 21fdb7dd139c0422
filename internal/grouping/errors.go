package grouping

import "errors"

var (
	// ErrInvalidTarget is returned when the target is NaN or infinite.
	ErrInvalidTarget = errors.New("target must be a finite number")
	// ErrInvalidWeight is returned when an item weight or auxiliary value is NaN or infinite.
	ErrInvalidWeight = errors.New("item values must be finite numbers")
)
