package water

import "errors"

var (
	// ErrGridSize indicates a non-positive simulation grid.
	ErrGridSize = errors.New("water: grid size must be positive")

	// ErrBackground indicates a sky or floor image that could not be loaded.
	ErrBackground = errors.New("water: background image unavailable")
)
