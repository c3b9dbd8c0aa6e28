package pages

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/crawlview/internal/log"
	"github.com/charmbracelet/crawlview/internal/ui/styles"
	"github.com/charmbracelet/crawlview/internal/viewport"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/ordered"
)

// LoadedMsg reports the result of loading a page.
type LoadedMsg struct {
	// Viewer is the id of the viewer session that requested the page.
	Viewer  string
	Index   int
	Gen     uint64
	Content Content
	Err     error
}

// Options configures a [Viewer].
type Options struct {
	Zoom     float64
	ZoomStep float64
	MinZoom  float64
	MaxZoom  float64
	// Chrome is the number of rows each page adds after scaling: a label
	// row followed by Chrome-1 blank rows.
	Chrome int
	Buffer viewport.Buffer
}

// DefaultOptions returns the default viewer options.
func DefaultOptions() Options {
	return Options{
		Zoom:     1,
		ZoomStep: 0.25,
		MinZoom:  0.25,
		MaxZoom:  4,
		Chrome:   2,
		Buffer:   viewport.DefaultBuffer(),
	}
}

// page is a mounted page.
type page struct {
	index   int
	gen     uint64
	content Content
	err     error
}

// Viewer is a virtualized, zoomable page surface. Only the pages in the
// visible range are mounted. Mounting a page starts loading it in the
// background and unmounting it cancels the load.
type Viewer struct {
	src  Source
	t    *styles.Styles
	opts Options

	width, height int
	zoom          float64

	scroll  *viewport.Controller
	window  *viewport.Window[int, *page]
	gen     uint64
	pending []tea.Cmd
}

// NewViewer creates a viewer for src. Its pages are released when ctx is
// done or [Viewer.Close] is called.
func NewViewer(ctx context.Context, src Source, t *styles.Styles, opts Options) (*Viewer, error) {
	if src == nil {
		return nil, errors.New("pages: nil source")
	}
	if err := viewport.ValidateZoom(opts.Zoom); err != nil {
		return nil, err
	}
	if opts.MinZoom <= 0 || opts.MaxZoom < opts.MinZoom {
		return nil, fmt.Errorf("%w: zoom limits [%v, %v]", viewport.ErrInvalidZoom, opts.MinZoom, opts.MaxZoom)
	}
	opts.Chrome = max(0, opts.Chrome)
	if t == nil {
		d := styles.DefaultStyles()
		t = &d
	}
	v := &Viewer{
		src:    src,
		t:      t,
		opts:   opts,
		zoom:   ordered.Clamp(opts.Zoom, opts.MinZoom, opts.MaxZoom),
		scroll: viewport.NewController(),
	}
	v.window = viewport.NewWindow(ctx, viewport.WindowConfig[int, *page]{
		Key:     viewport.IndexKey,
		Mount:   v.mount,
		Unmount: v.unmount,
	})
	return v, nil
}

// ID returns the viewer session id carried by its [LoadedMsg]s.
func (v *Viewer) ID() string {
	return v.window.ID()
}

// Title returns the document title.
func (v *Viewer) Title() string {
	return v.src.Title()
}

// Len returns the number of pages.
func (v *Viewer) Len() int {
	return v.src.Len()
}

// Zoom returns the current zoom factor.
func (v *Viewer) Zoom() float64 {
	return v.zoom
}

// Offset returns the scroll offset in rows.
func (v *Viewer) Offset() float64 {
	return v.scroll.Offset()
}

// Mounted returns the number of mounted pages.
func (v *Viewer) Mounted() int {
	return v.window.Mounted()
}

// Close unmounts every page and cancels in-flight loads. It returns the
// commands that free terminal resources.
func (v *Viewer) Close() tea.Cmd {
	v.window.Close()
	return v.flush()
}

func (v *Viewer) extent() viewport.ScaledExtent {
	return viewport.ScaledExtent{
		Base:   v.src.BaseExtent(),
		Zoom:   v.zoom,
		Chrome: float64(v.opts.Chrome),
	}
}

// contentRows is the height of a page's content frame.
func (v *Viewer) contentRows() int {
	content, err := v.extent().Content()
	if err != nil {
		return 0
	}
	return int(math.Floor(content))
}

func (v *Viewer) layout() (viewport.Layout, error) {
	return viewport.NewLayout(viewport.Geometry{
		Count:     v.src.Len(),
		Container: float64(v.height),
		Extent:    v.extent(),
		Buffer:    v.opts.Buffer,
	})
}

func (v *Viewer) updateBounds() {
	lay, err := v.layout()
	if err != nil {
		v.scroll.SetBounds(0, 0)
		return
	}
	v.scroll.SetLayout(lay)
}

// SetSize sets the size of the viewer. A width change reflows text sources
// and remounts every page.
func (v *Viewer) SetSize(width, height int) tea.Cmd {
	if width != v.width {
		if r, ok := v.src.(Reflower); ok {
			r.Reflow(width)
		}
		v.window.Invalidate()
	}
	v.width = width
	v.height = height
	v.updateBounds()
	return v.Sync()
}

// Sync mounts the pages in the visible range and unmounts the rest. It
// returns the commands that load newly mounted pages.
func (v *Viewer) Sync() tea.Cmd {
	if lay, err := v.layout(); err == nil && v.width > 0 {
		v.window.Sync(lay.Range(v.scroll.Offset()), lay)
	}
	return v.flush()
}

func (v *Viewer) flush() tea.Cmd {
	cmds := v.pending
	v.pending = nil
	return tea.Batch(cmds...)
}

func (v *Viewer) mount(ctx context.Context, index int, _ int) *page {
	v.gen++
	p := &page{index: index, gen: v.gen}
	v.pending = append(v.pending, v.load(ctx, p, image.Pt(v.width, v.contentRows())))
	return p
}

func (v *Viewer) unmount(_ int, _ int, p *page) {
	if p.content != nil {
		if cmd := p.content.Release(); cmd != nil {
			v.pending = append(v.pending, cmd)
		}
	}
}

func (v *Viewer) load(ctx context.Context, p *page, size image.Point) tea.Cmd {
	src, id, index, gen := v.src, v.window.ID(), p.index, p.gen
	return func() (msg tea.Msg) {
		defer log.RecoverPanic("pages.load", func() {
			msg = LoadedMsg{Viewer: id, Index: index, Gen: gen, Err: errors.New("page load panicked")}
		})
		content, err := src.Load(ctx, index, size)
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return LoadedMsg{Viewer: id, Index: index, Gen: gen, Content: content, Err: err}
	}
}

// HandleLoaded applies a page load result. Results for pages that were
// unmounted or remounted since the load started are discarded.
func (v *Viewer) HandleLoaded(msg LoadedMsg) tea.Cmd {
	if msg.Viewer != v.window.ID() {
		return nil
	}
	p, ok := v.window.Lookup(msg.Index)
	if !ok || p.gen != msg.Gen {
		slog.Debug("Discarded stale page", "viewer", msg.Viewer, "page", msg.Index, "gen", msg.Gen)
		if msg.Content != nil {
			return msg.Content.Release()
		}
		return nil
	}
	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return nil
		}
		slog.Warn("Failed to load page", "page", msg.Index, "error", msg.Err)
		p.err = msg.Err
		return nil
	}
	p.content = msg.Content
	p.err = nil
	if p.content == nil {
		return nil
	}
	return p.content.Init()
}

// SetZoom sets the zoom factor, clamped to the configured limits. The page
// at the top of the viewport stays there and every page is remounted at the
// new size. Invalid factors return [viewport.ErrInvalidZoom].
func (v *Viewer) SetZoom(zoom float64) (tea.Cmd, error) {
	if err := viewport.ValidateZoom(zoom); err != nil {
		return nil, err
	}
	zoom = ordered.Clamp(zoom, v.opts.MinZoom, v.opts.MaxZoom)
	if zoom == v.zoom {
		return nil, nil
	}

	oldLayout, oldErr := v.layout()
	offset := v.scroll.Offset()
	v.zoom = zoom
	v.window.Invalidate()
	v.updateBounds()
	if newLayout, err := v.layout(); oldErr == nil && err == nil {
		v.scroll.OnScroll(offset * newLayout.ItemExtent() / oldLayout.ItemExtent())
	}
	slog.Debug("Zoom changed", "viewer", v.window.ID(), "zoom", zoom)
	return v.Sync(), nil
}

// ZoomIn increases the zoom by one step.
func (v *Viewer) ZoomIn() tea.Cmd {
	cmd, _ := v.SetZoom(v.zoom + v.opts.ZoomStep)
	return cmd
}

// ZoomOut decreases the zoom by one step.
func (v *Viewer) ZoomOut() tea.Cmd {
	cmd, _ := v.SetZoom(v.zoom - v.opts.ZoomStep)
	return cmd
}

// ResetZoom restores the initial zoom.
func (v *Viewer) ResetZoom() tea.Cmd {
	cmd, _ := v.SetZoom(v.opts.Zoom)
	return cmd
}

// OnScroll sets the raw scroll offset, in rows, reported by the host.
func (v *Viewer) OnScroll(offset float64) tea.Cmd {
	v.scroll.OnScroll(offset)
	return v.Sync()
}

// ScrollBy scrolls by the given number of rows.
func (v *Viewer) ScrollBy(rows int) tea.Cmd {
	v.scroll.ScrollBy(float64(rows))
	return v.Sync()
}

// ScrollToTop scrolls to the first page.
func (v *Viewer) ScrollToTop() tea.Cmd {
	v.scroll.ScrollToTop()
	return v.Sync()
}

// ScrollToBottom scrolls to the end of the last page.
func (v *Viewer) ScrollToBottom() tea.Cmd {
	v.scroll.ScrollToBottom()
	return v.Sync()
}

// ScrollToPage scrolls so that the page at index is at the top.
func (v *Viewer) ScrollToPage(index int) tea.Cmd {
	n := v.src.Len()
	if n == 0 {
		return nil
	}
	lay, err := v.layout()
	if err != nil {
		return nil
	}
	index = ordered.Clamp(index, 0, n-1)
	v.scroll.OnScroll(lay.Position(index))
	return v.Sync()
}

// NextPage scrolls to the page after the current one.
func (v *Viewer) NextPage() tea.Cmd {
	return v.ScrollToPage(v.CurrentPage() + 1)
}

// PrevPage scrolls to the start of the current page, or to the previous page
// when already there.
func (v *Viewer) PrevPage() tea.Cmd {
	cur := v.CurrentPage()
	lay, err := v.layout()
	if err == nil && v.scroll.Offset() > lay.Position(cur) {
		return v.ScrollToPage(cur)
	}
	return v.ScrollToPage(cur - 1)
}

// AtTop reports whether the viewer is scrolled to the top.
func (v *Viewer) AtTop() bool {
	return v.scroll.AtTop()
}

// AtBottom reports whether the viewer is scrolled to the bottom.
func (v *Viewer) AtBottom() bool {
	return v.scroll.AtBottom()
}

// CurrentPage returns the index of the page at the top of the viewport, or
// -1 when there is none.
func (v *Viewer) CurrentPage() int {
	lay, err := v.layout()
	if err != nil {
		return -1
	}
	return lay.IndexAt(v.scroll.Offset())
}

// VisibleRange returns the pages that are mounted at the current offset.
func (v *Viewer) VisibleRange() viewport.VisibleRange {
	lay, err := v.layout()
	if err != nil {
		return viewport.VisibleRange{Total: v.src.Len()}
	}
	return lay.Range(v.scroll.Offset())
}

// Render renders the visible rows of the viewer. Only the pages mounted by
// the latest [Viewer.Sync] are drawn, each at its layout position.
func (v *Viewer) Render() string {
	lay, err := v.layout()
	if err != nil || v.width <= 0 {
		return ""
	}

	offset := v.scroll.Offset()
	current := lay.IndexAt(offset)
	placements := v.window.Placements(lay)

	lines := make([]string, v.height)
	for _, p := range placements {
		top := int(math.Floor(p.Position - offset))
		for j, line := range v.renderPage(p.Value, p.Index == current) {
			y := top + j
			if y < 0 || y >= v.height {
				continue
			}
			lines[y] = line
		}
	}
	return strings.Join(lines, "\n")
}

// renderPage returns the rows of a page frame: the label, the content and
// the gap.
func (v *Viewer) renderPage(p *page, current bool) []string {
	rows := v.contentRows()
	out := make([]string, 0, rows+v.opts.Chrome)

	if v.opts.Chrome > 0 {
		out = append(out, v.label(p.index, current))
	}

	var body []string
	switch {
	case p.err != nil:
		msg := fmt.Sprintf("%s Failed to load page: %v", styles.ErrorIcon, p.err)
		body = []string{v.t.Pages.Error.Render(ansi.Truncate(msg, v.width, "…"))}
	case p.content == nil:
		msg := fmt.Sprintf("%s Loading page %d…", styles.LoadingIcon, p.index+1)
		body = []string{v.t.Pages.Loading.Render(ansi.Truncate(msg, v.width, "…"))}
	default:
		if s := p.content.Render(); s != "" {
			body = strings.Split(s, "\n")
		}
	}
	if len(body) > rows {
		body = body[:rows]
	}
	for i, line := range body {
		if ansi.StringWidth(line) > v.width {
			body[i] = ansi.Truncate(line, v.width, "")
		}
	}
	out = append(out, body...)
	for len(out) < rows+min(1, v.opts.Chrome) {
		out = append(out, "")
	}
	for range max(0, v.opts.Chrome-1) {
		out = append(out, "")
	}
	return out
}

func (v *Viewer) label(index int, current bool) string {
	label := fmt.Sprintf("Page %d/%d", index+1, v.src.Len())
	if current {
		label = fmt.Sprintf("%s · %s · %d%%", label, v.src.Title(), int(math.Round(v.zoom*100)))
	}
	label = ansi.Truncate(label, v.width, "…")
	if current {
		return v.t.Pages.LabelCurrent.Render(label)
	}
	return v.t.Pages.Label.Render(label)
}

// Draw draws the viewer to the screen area.
func (v *Viewer) Draw(scr uv.Screen, area uv.Rectangle) {
	uv.NewStyledString(v.Render()).Draw(scr, area)
}
