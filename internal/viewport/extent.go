package viewport

import (
	"fmt"
	"math"
)

// Extent yields the per-item extent used by the windowing algorithm. It lets
// fixed-extent and scaled-extent consumers share [Compute].
type Extent interface {
	Extent() (float64, error)
}

// FixedExtent is an item extent that does not depend on any other state.
type FixedExtent float64

// Extent implements [Extent].
func (f FixedExtent) Extent() (float64, error) {
	v := float64(f)
	if !positive(v) {
		return 0, fmt.Errorf("%w: item extent %v must be positive", ErrInvalidGeometry, v)
	}
	return v, nil
}

// ScaledExtent is the extent of an item whose content scales with a zoom
// factor. Chrome (labels, gaps, borders) is added after scaling and does not
// scale.
type ScaledExtent struct {
	Base   float64
	Zoom   float64
	Chrome float64
}

// Extent implements [Extent].
func (s ScaledExtent) Extent() (float64, error) {
	return EffectiveItemExtent(s.Base, s.Zoom, s.Chrome)
}

// WithZoom returns a copy of s with the given zoom factor.
func (s ScaledExtent) WithZoom(zoom float64) ScaledExtent {
	s.Zoom = zoom
	return s
}

// Content returns the scaled content extent, excluding chrome.
func (s ScaledExtent) Content() (float64, error) {
	if err := ValidateZoom(s.Zoom); err != nil {
		return 0, err
	}
	if !positive(s.Base) {
		return 0, fmt.Errorf("%w: base extent %v must be positive", ErrInvalidGeometry, s.Base)
	}
	return s.Base * s.Zoom, nil
}

// EffectiveItemExtent returns base*zoom + chrome.
//
// It returns [ErrInvalidZoom] when zoom is not a positive finite number and
// [ErrInvalidGeometry] when base is not positive or chrome is negative.
func EffectiveItemExtent(base, zoom, chrome float64) (float64, error) {
	content, err := ScaledExtent{Base: base, Zoom: zoom}.Content()
	if err != nil {
		return 0, err
	}
	if chrome < 0 || math.IsInf(chrome, 0) || math.IsNaN(chrome) {
		return 0, fmt.Errorf("%w: chrome extent %v must not be negative", ErrInvalidGeometry, chrome)
	}
	return content + chrome, nil
}

// ValidateZoom returns [ErrInvalidZoom] unless zoom is a positive finite
// number.
func ValidateZoom(zoom float64) error {
	if !positive(zoom) {
		return fmt.Errorf("%w: zoom %v must be positive", ErrInvalidZoom, zoom)
	}
	return nil
}

// Position returns the absolute offset of item i for the given item extent.
func Position(i int, extent float64) float64 {
	return float64(i) * extent
}

// Layout is a validated snapshot of a [Geometry]. The item extent is resolved
// once, and both range computation and placement read that same value, so the
// placed items always line up with the computed range.
type Layout struct {
	count     int
	container float64
	extent    float64
	buffer    Buffer
}

// NewLayout resolves and validates g.
func NewLayout(g Geometry) (Layout, error) {
	if g.Extent == nil {
		return Layout{}, fmt.Errorf("%w: missing item extent", ErrInvalidGeometry)
	}
	extent, err := g.Extent.Extent()
	if err != nil {
		return Layout{}, err
	}
	if err := checkContainer(g.Container); err != nil {
		return Layout{}, err
	}
	return Layout{
		count:     max(0, g.Count),
		container: g.Container,
		extent:    extent,
		buffer:    g.Buffer.normalize(),
	}, nil
}

// Range returns the items to materialize at offset.
func (l Layout) Range(offset float64) VisibleRange {
	if l.extent <= 0 {
		return VisibleRange{}
	}
	return visibleRange(l.count, l.container, l.extent, offset, l.buffer)
}

// Position returns the absolute offset of item i.
func (l Layout) Position(i int) float64 {
	return Position(i, l.extent)
}

// ItemExtent returns the resolved per-item extent.
func (l Layout) ItemExtent() float64 {
	return l.extent
}

// Container returns the container extent.
func (l Layout) Container() float64 {
	return l.container
}

// Count returns the number of items.
func (l Layout) Count() int {
	return l.count
}

// ContentExtent returns the total extent of all items.
func (l Layout) ContentExtent() float64 {
	return ContentExtent(l.count, l.extent)
}

// MaxOffset returns the largest valid scroll offset.
func (l Layout) MaxOffset() float64 {
	return MaxOffset(l.count, l.container, l.extent)
}

// ClampOffset clamps offset to the scrollable range.
func (l Layout) ClampOffset(offset float64) float64 {
	return clampOffset(l.count, l.container, l.extent, offset)
}

// IndexAt returns the item at the content offset, or -1.
func (l Layout) IndexAt(offset float64) int {
	return IndexAt(offset, l.extent, l.count)
}
