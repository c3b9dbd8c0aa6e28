package viewport

import (
	"math"

	"github.com/charmbracelet/crawlview/internal/csync"
	"github.com/charmbracelet/x/exp/ordered"
)

// bounds is the scrollable geometry a [Controller] clamps against.
type bounds struct {
	content   float64
	container float64
}

func (b bounds) maxOffset() float64 {
	return math.Max(0, b.content-b.container)
}

// Controller adapts raw scroll positions reported by a host surface into
// clamped offsets. It does no smoothing, queuing or coalescing: every call
// overwrites the current offset and the last write wins. It is safe to call
// from multiple goroutines.
type Controller struct {
	offset *csync.Value[float64]
	bounds *csync.Value[bounds]
}

// NewController returns a [Controller] at offset zero with empty bounds.
func NewController() *Controller {
	return &Controller{
		offset: csync.NewValue(0.0),
		bounds: csync.NewValue(bounds{}),
	}
}

// SetBounds updates the content and container extents and re-clamps the
// current offset against them.
func (c *Controller) SetBounds(content, container float64) {
	b := bounds{content: math.Max(0, content), container: math.Max(0, container)}
	c.bounds.Set(b)
	c.offset.Update(func(o float64) float64 {
		return clamp(o, b)
	})
}

// SetLayout updates the bounds from a [Layout].
func (c *Controller) SetLayout(l Layout) {
	c.SetBounds(l.ContentExtent(), l.Container())
}

// OnScroll stores rawOffset clamped to the current bounds and returns the
// stored offset.
func (c *Controller) OnScroll(rawOffset float64) float64 {
	b := c.bounds.Get()
	o := clamp(rawOffset, b)
	c.offset.Set(o)
	return o
}

// ScrollBy moves the offset by delta and returns the new offset.
func (c *Controller) ScrollBy(delta float64) float64 {
	return c.OnScroll(c.Offset() + delta)
}

// ScrollToTop moves the offset to zero.
func (c *Controller) ScrollToTop() float64 {
	return c.OnScroll(0)
}

// ScrollToBottom moves the offset to the end of the content.
func (c *Controller) ScrollToBottom() float64 {
	return c.OnScroll(c.bounds.Get().maxOffset())
}

// Offset returns the current offset.
func (c *Controller) Offset() float64 {
	return c.offset.Get()
}

// AtTop reports whether the offset is at the start of the content.
func (c *Controller) AtTop() bool {
	return c.Offset() <= 0
}

// AtBottom reports whether the offset is at the end of the content.
func (c *Controller) AtBottom() bool {
	return c.Offset() >= c.bounds.Get().maxOffset()
}

func clamp(o float64, b bounds) float64 {
	if math.IsNaN(o) {
		return 0
	}
	return ordered.Clamp(o, 0, b.maxOffset())
}
