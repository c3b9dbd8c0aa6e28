// Package viewport computes which items of a large ordered collection must be
// materialized for a scrollable viewport.
//
// The engine is a pure function of its inputs: item count, container extent,
// item extent, scroll offset and buffer. It holds no state between calls, so
// it can be evaluated on every frame. Surfaces own the mutable scroll offset
// (see [Controller]) and the set of materialized items (see [Window]).
package viewport

import (
	"fmt"
	"iter"
	"math"

	"github.com/charmbracelet/x/exp/ordered"
)

// DefaultTrailing is the default number of extra items materialized below the
// visible band.
const DefaultTrailing = 2

// DefaultLeading is the default number of extra items materialized above the
// visible band.
const DefaultLeading = 1

// Buffer controls how many items outside the strictly visible band are
// materialized. Leading shifts the window start up without growing it;
// Trailing grows the window downward. Trailing must exceed Leading for every
// partially visible item to be covered; the defaults satisfy this.
type Buffer struct {
	Leading  int
	Trailing int
}

// DefaultBuffer returns the default buffer: one item above, two below.
func DefaultBuffer() Buffer {
	return Buffer{Leading: DefaultLeading, Trailing: DefaultTrailing}
}

func (b Buffer) normalize() Buffer {
	return Buffer{Leading: max(0, b.Leading), Trailing: max(0, b.Trailing)}
}

// VisibleRange is the half-open index range [Start, End) of items that must be
// materialized, out of Total.
type VisibleRange struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
	Total int `json:"total" yaml:"total"`
}

// Len returns the number of items in the range.
func (r VisibleRange) Len() int {
	return r.End - r.Start
}

// Empty reports whether the range holds no items.
func (r VisibleRange) Empty() bool {
	return r.End <= r.Start
}

// Contains reports whether index i is inside the range.
func (r VisibleRange) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

// Indices iterates over the indices in the range in ascending order.
func (r VisibleRange) Indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := r.Start; i < r.End; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

func (r VisibleRange) String() string {
	return fmt.Sprintf("[%d, %d) of %d", r.Start, r.End, r.Total)
}

// ComputeVisibleRange returns the items to materialize for n items of a fixed
// itemExtent in a container of containerExtent scrolled to scrollOffset,
// materializing bufferSize extra items below the visible band and one above.
//
// It returns [ErrInvalidGeometry] when containerExtent or itemExtent is not a
// positive finite number. Everything else is normalized: the offset is clamped
// to the scrollable range and negative counts or buffers are treated as zero.
func ComputeVisibleRange(n int, containerExtent, itemExtent, scrollOffset float64, bufferSize int) (VisibleRange, error) {
	return Compute(Geometry{
		Count:     n,
		Container: containerExtent,
		Extent:    FixedExtent(itemExtent),
		Buffer:    Buffer{Leading: DefaultLeading, Trailing: bufferSize},
	}, scrollOffset)
}

// Geometry describes a virtualized collection and the container it is shown
// in.
type Geometry struct {
	// Count is the number of items in the collection.
	Count int
	// Container is the measured extent of the viewport.
	Container float64
	// Extent yields the per-item extent.
	Extent Extent
	// Buffer controls the extra items around the visible band.
	Buffer Buffer
}

// Compute returns the items to materialize for g scrolled to offset.
func Compute(g Geometry, offset float64) (VisibleRange, error) {
	l, err := NewLayout(g)
	if err != nil {
		return VisibleRange{}, err
	}
	return l.Range(offset), nil
}

// visibleRange assumes validated geometry.
func visibleRange(n int, container, item, offset float64, buf Buffer) VisibleRange {
	if n == 0 {
		return VisibleRange{}
	}

	offset = clampOffset(n, container, item, offset)

	visible := saturate(math.Ceil(container/item), n)
	start := max(0, saturate(math.Floor(offset/item), n)-min(buf.Leading, n))
	end := start + min(visible, n-start)
	end += min(buf.Trailing, n-end)

	return VisibleRange{Start: start, End: end, Total: n}
}

// ContentExtent returns the total extent of n items of the given extent.
func ContentExtent(n int, item float64) float64 {
	if n <= 0 || item <= 0 {
		return 0
	}
	return float64(n) * item
}

// MaxOffset returns the largest valid scroll offset for n items in the given
// container.
func MaxOffset(n int, container, item float64) float64 {
	return math.Max(0, ContentExtent(n, item)-container)
}

// ClampOffset clamps offset to [0, MaxOffset(n, container, item)]. NaN is
// treated as zero.
func ClampOffset(n int, container, item, offset float64) float64 {
	return clampOffset(n, container, item, offset)
}

func clampOffset(n int, container, item, offset float64) float64 {
	if math.IsNaN(offset) {
		return 0
	}
	return ordered.Clamp(offset, 0, MaxOffset(n, container, item))
}

// IndexAt returns the index of the item whose band contains the content
// offset, or -1 when the offset is outside the content.
func IndexAt(offset, item float64, n int) int {
	if n <= 0 || item <= 0 || offset < 0 || math.IsNaN(offset) {
		return -1
	}
	idx := saturate(math.Floor(offset/item), n)
	if idx >= n {
		return -1
	}
	return idx
}

// saturate converts a non-negative count to int, capped at n. The comparison
// happens in float64 so values past math.MaxInt never reach the conversion.
func saturate(f float64, n int) int {
	if f <= 0 || math.IsNaN(f) {
		return 0
	}
	if f >= float64(n) {
		return n
	}
	return min(int(f), n)
}

func checkContainer(container float64) error {
	if !positive(container) {
		return fmt.Errorf("%w: container extent %v must be positive", ErrInvalidGeometry, container)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
