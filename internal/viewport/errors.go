package viewport

import "errors"

var (
	// ErrInvalidGeometry is returned when a container, item, base or chrome
	// extent is non-positive (chrome: negative) or not finite.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidZoom is returned when a zoom factor is non-positive or not
	// finite. Zoom is never clamped.
	ErrInvalidZoom = errors.New("invalid zoom")
)
