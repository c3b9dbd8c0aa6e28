package list

import (
	"context"
	"math"
	"strings"

	"github.com/charmbracelet/crawlview/internal/viewport"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
)

// List is a virtualized list of fixed height rows. Only the rows in the
// current visible range, plus a small buffer, are rendered and kept
// materialized.
type List struct {
	// Viewport size
	width, height int

	// Items in the list
	items []Item

	// rowHeight is the number of lines each item occupies.
	rowHeight int
	// gap is the number of blank lines after each item.
	gap int
	// buffer controls overscan around the visible band.
	buffer viewport.Buffer

	// Focus and selection state
	focused     bool
	selectedIdx int // The current selected index -1 means no selection

	scroll *viewport.Controller
	window *viewport.Window[string, *row]
}

// row is a materialized list item. It caches the rendered lines per focus
// state so that moving the selection does not re-render the rest of the
// window.
type row struct {
	item  Item
	lines map[bool][]string
}

// Option configures a [List].
type Option func(*List)

// WithRowHeight sets the number of lines each item occupies.
func WithRowHeight(h int) Option {
	return func(l *List) {
		l.rowHeight = max(1, h)
	}
}

// WithGap sets the number of blank lines after each item.
func WithGap(gap int) Option {
	return func(l *List) {
		l.gap = max(0, gap)
	}
}

// WithBuffer sets the overscan around the visible band.
func WithBuffer(b viewport.Buffer) Option {
	return func(l *List) {
		l.buffer = b
	}
}

// New creates a new list. Its materialized rows are released when ctx is
// done or [List.Close] is called.
func New(ctx context.Context, items []Item, opts ...Option) *List {
	l := &List{
		items:       items,
		rowHeight:   1,
		buffer:      viewport.DefaultBuffer(),
		selectedIdx: -1,
		scroll:      viewport.NewController(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.window = viewport.NewWindow(ctx, viewport.WindowConfig[string, *row]{
		Key: func(idx int) string {
			return l.items[idx].ID()
		},
		Mount: func(_ context.Context, idx int, _ string) *row {
			return &row{item: l.items[idx], lines: make(map[bool][]string, 2)}
		},
	})
	return l
}

// Close releases every materialized row.
func (l *List) Close() {
	l.window.Close()
}

// SetSize sets the size of the list viewport. A width change discards every
// materialized row.
func (l *List) SetSize(width, height int) {
	if width != l.width {
		l.window.Invalidate()
	}
	l.width = width
	l.height = height
	l.updateBounds()
}

// Width returns the width of the list viewport.
func (l *List) Width() int {
	return l.width
}

// Height returns the height of the list viewport.
func (l *List) Height() int {
	return l.height
}

// Len returns the number of items in the list.
func (l *List) Len() int {
	return len(l.items)
}

// ItemExtent returns the number of lines each item occupies, including the
// gap.
func (l *List) ItemExtent() int {
	return l.rowHeight + l.gap
}

func (l *List) geometry() viewport.Geometry {
	return viewport.Geometry{
		Count:     len(l.items),
		Container: float64(l.height),
		Extent: viewport.ScaledExtent{
			Base:   float64(l.rowHeight),
			Zoom:   1,
			Chrome: float64(l.gap),
		},
		Buffer: l.buffer,
	}
}

// layout resolves the current geometry. It fails while the list has no
// height.
func (l *List) layout() (viewport.Layout, error) {
	return viewport.NewLayout(l.geometry())
}

func (l *List) updateBounds() {
	lay, err := l.layout()
	if err != nil {
		l.scroll.SetBounds(0, 0)
		return
	}
	l.scroll.SetLayout(lay)
}

// Offset returns the scroll offset in lines.
func (l *List) Offset() float64 {
	return l.scroll.Offset()
}

// VisibleRange returns the items that are materialized at the current offset.
func (l *List) VisibleRange() viewport.VisibleRange {
	lay, err := l.layout()
	if err != nil {
		return viewport.VisibleRange{Total: len(l.items)}
	}
	return lay.Range(l.scroll.Offset())
}

// VisibleItemIndices returns the first and last item indices that are at
// least partially inside the viewport. It returns -1, -1 when nothing is
// visible.
func (l *List) VisibleItemIndices() (startIdx, endIdx int) {
	lay, err := l.layout()
	if err != nil || len(l.items) == 0 {
		return -1, -1
	}
	offset := l.scroll.Offset()
	startIdx = lay.IndexAt(offset)
	last := math.Min(offset+float64(l.height), lay.ContentExtent()) - 1
	endIdx = lay.IndexAt(math.Max(offset, last))
	if startIdx < 0 || endIdx < 0 {
		return -1, -1
	}
	return startIdx, endIdx
}

// Render renders the visible lines of the list. Only items inside the
// visible range are rendered.
func (l *List) Render() string {
	lay, err := l.layout()
	if err != nil || l.width <= 0 || len(l.items) == 0 {
		return ""
	}

	offset := l.scroll.Offset()
	placements := l.window.Sync(lay.Range(offset), lay)

	lines := make([]string, l.height)
	for _, p := range placements {
		p.Value.rebind(l.items[p.Index])
		top := int(math.Floor(p.Position - offset))
		for j, line := range p.Value.render(l, p.Index) {
			y := top + j
			if y < 0 || y >= l.height {
				continue
			}
			lines[y] = line
		}
	}
	return strings.Join(lines, "\n")
}

// rebind points the row at the item now carrying its ID. A different item
// drops the rendered lines.
func (r *row) rebind(item Item) {
	if r.item == item {
		return
	}
	r.item = item
	clear(r.lines)
}

// render returns exactly rowHeight lines for the item at idx.
func (r *row) render(l *List, idx int) []string {
	focused := l.focused && idx == l.selectedIdx
	if lines, ok := r.lines[focused]; ok {
		return lines
	}
	if f, ok := r.item.(Focusable); ok {
		f.SetFocused(focused)
	}

	content := strings.TrimRight(r.item.Render(l.width), "\n")
	lines := strings.Split(content, "\n")
	if len(lines) > l.rowHeight {
		lines = lines[:l.rowHeight]
	}
	for i, line := range lines {
		if ansi.StringWidth(line) > l.width {
			lines[i] = ansi.Truncate(line, l.width, "")
		}
	}
	for len(lines) < l.rowHeight {
		lines = append(lines, "")
	}

	r.lines[focused] = lines
	return lines
}

// Draw draws the list to the screen area.
func (l *List) Draw(scr uv.Screen, area uv.Rectangle) {
	uv.NewStyledString(l.Render()).Draw(scr, area)
}

// SetItems replaces the items in the list and clamps the selection. Rows
// whose ID is still in range keep their place in the window.
func (l *List) SetItems(items ...Item) {
	l.items = items
	l.selectedIdx = min(l.selectedIdx, len(l.items)-1)
	l.updateBounds()
}

// AppendItems appends items to the list.
func (l *List) AppendItems(items ...Item) {
	l.items = append(l.items, items...)
	l.updateBounds()
}

// RemoveItem removes the item at the given index from the list. Rows that
// stay in view keep their materialized state.
func (l *List) RemoveItem(idx int) {
	if idx < 0 || idx >= len(l.items) {
		return
	}

	l.items = append(l.items[:idx], l.items[idx+1:]...)

	// Adjust selection if needed
	if l.selectedIdx == idx {
		l.selectedIdx = min(idx, len(l.items)-1)
	} else if l.selectedIdx > idx {
		l.selectedIdx--
	}
	l.updateBounds()
}

// Focus sets the focus state of the list.
func (l *List) Focus() {
	l.focused = true
}

// Blur removes the focus state from the list.
func (l *List) Blur() {
	l.focused = false
}

// Focused reports whether the list is focused.
func (l *List) Focused() bool {
	return l.focused
}

// OnScroll sets the raw scroll offset, in lines, reported by the host.
func (l *List) OnScroll(offset float64) {
	l.scroll.OnScroll(offset)
}

// ScrollBy scrolls the list by the given number of lines.
func (l *List) ScrollBy(lines int) {
	l.scroll.ScrollBy(float64(lines))
}

// ScrollToTop scrolls the list to the top.
func (l *List) ScrollToTop() {
	l.scroll.ScrollToTop()
}

// ScrollToBottom scrolls the list to the bottom.
func (l *List) ScrollToBottom() {
	l.scroll.ScrollToBottom()
}

// ScrollToIndex scrolls the list so that the given item is at the top.
func (l *List) ScrollToIndex(index int) {
	if len(l.items) == 0 {
		return
	}
	index = max(0, min(index, len(l.items)-1))
	l.scroll.OnScroll(viewport.Position(index, float64(l.ItemExtent())))
}

// ScrollToSelected scrolls the least amount needed to bring the selected item
// fully into view.
func (l *List) ScrollToSelected() {
	if l.selectedIdx < 0 || l.selectedIdx >= len(l.items) {
		return
	}
	top := viewport.Position(l.selectedIdx, float64(l.ItemExtent()))
	bottom := top + float64(l.rowHeight)
	offset := l.scroll.Offset()
	switch {
	case top < offset:
		l.scroll.OnScroll(top)
	case bottom > offset+float64(l.height):
		l.scroll.OnScroll(bottom - float64(l.height))
	}
}

// AtTop reports whether the list is scrolled to the top.
func (l *List) AtTop() bool {
	return l.scroll.AtTop()
}

// AtBottom reports whether the list is scrolled to the bottom.
func (l *List) AtBottom() bool {
	return l.scroll.AtBottom()
}

// Mounted returns the number of materialized rows.
func (l *List) Mounted() int {
	return l.window.Mounted()
}

// SelectedItemInView returns whether the selected item is currently in view.
func (l *List) SelectedItemInView() bool {
	if l.selectedIdx < 0 || l.selectedIdx >= len(l.items) {
		return false
	}
	startIdx, endIdx := l.VisibleItemIndices()
	return l.selectedIdx >= startIdx && l.selectedIdx <= endIdx
}

// SetSelected sets the selected item index in the list. An out of bounds
// index clears the selection.
func (l *List) SetSelected(index int) {
	if index < 0 || index >= len(l.items) {
		l.selectedIdx = -1
	} else {
		l.selectedIdx = index
	}
}

// Selected returns the index of the currently selected item. It returns -1 if
// no item is selected.
func (l *List) Selected() int {
	return l.selectedIdx
}

// IsSelectedFirst returns whether the first item is selected.
func (l *List) IsSelectedFirst() bool {
	return l.selectedIdx == 0
}

// IsSelectedLast returns whether the last item is selected.
func (l *List) IsSelectedLast() bool {
	return l.selectedIdx == len(l.items)-1
}

// SelectPrev selects the previous item in the list.
// It returns whether the selection changed.
func (l *List) SelectPrev() bool {
	if l.selectedIdx > 0 {
		l.selectedIdx--
		return true
	}
	return false
}

// SelectNext selects the next item in the list.
// It returns whether the selection changed.
func (l *List) SelectNext() bool {
	if l.selectedIdx < len(l.items)-1 {
		l.selectedIdx++
		return true
	}
	return false
}

// SelectFirst selects the first item in the list.
// It returns whether the selection changed.
func (l *List) SelectFirst() bool {
	if len(l.items) > 0 {
		l.selectedIdx = 0
		return true
	}
	return false
}

// SelectLast selects the last item in the list.
// It returns whether the selection changed.
func (l *List) SelectLast() bool {
	if len(l.items) > 0 {
		l.selectedIdx = len(l.items) - 1
		return true
	}
	return false
}

// SelectedItem returns the currently selected item. It may be nil if no item
// is selected.
func (l *List) SelectedItem() Item {
	if l.selectedIdx < 0 || l.selectedIdx >= len(l.items) {
		return nil
	}
	return l.items[l.selectedIdx]
}

// SelectFirstInView selects the first item currently in view.
func (l *List) SelectFirstInView() {
	startIdx, _ := l.VisibleItemIndices()
	l.selectedIdx = startIdx
}

// SelectLastInView selects the last item currently in view.
func (l *List) SelectLastInView() {
	_, endIdx := l.VisibleItemIndices()
	l.selectedIdx = endIdx
}

// ItemAt returns the item at the given index.
func (l *List) ItemAt(index int) Item {
	if index < 0 || index >= len(l.items) {
		return nil
	}
	return l.items[index]
}

// ItemIndexAtPosition returns the item at the given viewport-relative y
// coordinate. Returns the item index and the y offset within that item. It
// returns -1, -1 if no item is found, including when y falls in a gap.
func (l *List) ItemIndexAtPosition(_, y int) (itemIdx int, itemY int) {
	if y < 0 || y >= l.height {
		return -1, -1
	}
	lay, err := l.layout()
	if err != nil {
		return -1, -1
	}
	abs := l.scroll.Offset() + float64(y)
	idx := lay.IndexAt(abs)
	if idx < 0 {
		return -1, -1
	}
	itemY = int(math.Floor(abs - lay.Position(idx)))
	if itemY >= l.rowHeight {
		return -1, -1
	}
	return idx, itemY
}
