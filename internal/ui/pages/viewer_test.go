package pages

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/crawlview/internal/viewport"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

// fakeSource serves n pages whose lines read "p<page> r<row>".
type fakeSource struct {
	n    int
	base float64
	fail map[int]error

	mu    sync.Mutex
	loads map[int]int
	sizes []image.Point
}

func newFakeSource(n int, base float64) *fakeSource {
	return &fakeSource{n: n, base: base, loads: map[int]int{}}
}

func (s *fakeSource) Len() int            { return s.n }
func (s *fakeSource) Title() string       { return "fake" }
func (s *fakeSource) BaseExtent() float64 { return s.base }

func (s *fakeSource) Load(ctx context.Context, index int, size image.Point) (Content, error) {
	s.mu.Lock()
	s.loads[index]++
	s.sizes = append(s.sizes, size)
	s.mu.Unlock()
	if err := s.fail[index]; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines := make([]string, size.Y)
	for i := range lines {
		lines[i] = fmt.Sprintf("p%d r%d", index, i)
	}
	return textContent(lines), nil
}

func (s *fakeSource) loadCount(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads[index]
}

// runCmd executes cmd and every command it batches, returning the leaf
// messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// deliver runs cmd and feeds every page result back into v.
func deliver(v *Viewer, cmd tea.Cmd) {
	for _, msg := range runCmd(cmd) {
		if loaded, ok := msg.(LoadedMsg); ok {
			runCmd(v.HandleLoaded(loaded))
		}
	}
}

func newTestViewer(t *testing.T, src Source) *Viewer {
	t.Helper()
	v, err := NewViewer(t.Context(), src, nil, DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v
}

func plainLines(s string) []string {
	return strings.Split(ansi.Strip(s), "\n")
}

func TestViewerMountsVisibleRange(t *testing.T) {
	t.Parallel()

	src := newFakeSource(100, 10)
	v := newTestViewer(t, src)

	// Extent is 10*1 + 2 = 12 rows. ceil(24/12) + 2 = 4 pages.
	cmd := v.SetSize(20, 24)
	require.Equal(t, viewport.VisibleRange{Start: 0, End: 4, Total: 100}, v.VisibleRange())
	require.Equal(t, 4, v.Mounted())

	msgs := runCmd(cmd)
	require.Len(t, msgs, 4)
	for _, msg := range msgs {
		loaded, ok := msg.(LoadedMsg)
		require.True(t, ok)
		require.Equal(t, v.ID(), loaded.Viewer)
		require.Less(t, loaded.Index, 4)
	}
	for i := 4; i < 100; i++ {
		require.Zero(t, src.loadCount(i))
	}
	require.Equal(t, image.Pt(20, 10), src.sizes[0])
}

func TestViewerRender(t *testing.T) {
	t.Parallel()

	src := newFakeSource(10, 3)
	v := newTestViewer(t, src)

	cmd := v.SetSize(30, 8)
	lines := plainLines(v.Render())
	require.Len(t, lines, 8)
	require.Contains(t, lines[1], "Loading page 1")

	deliver(v, cmd)
	lines = plainLines(v.Render())
	require.Equal(t, []string{
		"Page 1/10 · fake · 100%",
		"p0 r0",
		"p0 r1",
		"p0 r2",
		"",
		"Page 2/10",
		"p1 r0",
		"p1 r1",
	}, lines)
}

func TestViewerRenderOnlyReadsWindow(t *testing.T) {
	t.Parallel()

	src := newFakeSource(10, 3)
	v := newTestViewer(t, src)
	deliver(v, v.SetSize(30, 8))
	mounted := v.Mounted()

	v.Render()
	v.Render()
	require.Equal(t, mounted, v.Mounted())
	require.Nil(t, v.flush(), "render queued loads")
	require.Equal(t, 1, src.loadCount(0))
}

func TestViewerRenderScrolledPartially(t *testing.T) {
	t.Parallel()

	src := newFakeSource(10, 3)
	v := newTestViewer(t, src)
	deliver(v, v.SetSize(30, 4))

	// Page 2 starts at row 5. Scrolling by 6 shows its first content row on
	// top.
	deliver(v, v.ScrollBy(6))
	lines := plainLines(v.Render())
	require.Equal(t, "p1 r0", lines[0])
	require.Equal(t, "", lines[3])
	require.Equal(t, 1, v.CurrentPage())
}

func TestViewerZeroSize(t *testing.T) {
	t.Parallel()

	v := newTestViewer(t, newFakeSource(10, 3))
	require.Nil(t, v.SetSize(0, 0))
	require.Empty(t, v.Render())
	require.Zero(t, v.Mounted())
	require.Equal(t, -1, v.CurrentPage())
}

func TestViewerUnmountCancelsLoads(t *testing.T) {
	t.Parallel()

	src := newFakeSource(100, 10)
	v := newTestViewer(t, src)
	stale := v.SetSize(20, 24)

	deliver(v, v.ScrollToPage(50))
	require.Equal(t, 50, v.CurrentPage())

	// The first loads were started from mounts that are gone now. Their
	// contexts are cancelled and their results are dropped.
	for _, msg := range runCmd(stale) {
		loaded := msg.(LoadedMsg)
		require.ErrorIs(t, loaded.Err, context.Canceled)
		require.Nil(t, v.HandleLoaded(loaded))
	}
	for _, line := range plainLines(v.Render()) {
		require.NotContains(t, line, "p0 ")
	}
}

func TestViewerDiscardsSupersededLoads(t *testing.T) {
	t.Parallel()

	src := newFakeSource(5, 4)
	v := newTestViewer(t, src)
	deliver(v, v.SetSize(20, 6))

	// A result from another session is ignored.
	require.Nil(t, v.HandleLoaded(LoadedMsg{Viewer: "other", Index: 0, Content: textContent{"nope"}}))

	// A result from an older mount of the same page is ignored.
	require.Nil(t, v.HandleLoaded(LoadedMsg{Viewer: v.ID(), Index: 0, Gen: 0, Content: textContent{"stale"}}))
	require.NotContains(t, ansi.Strip(v.Render()), "stale")
}

func TestViewerLoadError(t *testing.T) {
	t.Parallel()

	src := newFakeSource(3, 2)
	src.fail = map[int]error{0: errors.New("corrupt page")}
	v := newTestViewer(t, src)
	deliver(v, v.SetSize(60, 4))

	lines := plainLines(v.Render())
	require.Contains(t, lines[1], "Failed to load page: corrupt page")
	require.Equal(t, "", lines[2])
}

func TestViewerZoomKeepsAnchorAndRemounts(t *testing.T) {
	t.Parallel()

	src := newFakeSource(100, 10)
	v := newTestViewer(t, src)
	deliver(v, v.SetSize(30, 24))
	deliver(v, v.ScrollToPage(10))
	require.Equal(t, 120.0, v.Offset())
	require.Equal(t, 10, v.CurrentPage())
	before := src.loadCount(10)

	cmd, err := v.SetZoom(2)
	require.NoError(t, err)
	deliver(v, cmd)

	// Extent is now 10*2 + 2 = 22 rows.
	require.Equal(t, 2.0, v.Zoom())
	require.InDelta(t, 220.0, v.Offset(), 1e-9)
	require.Equal(t, 10, v.CurrentPage())
	require.Equal(t, before+1, src.loadCount(10))
	require.Equal(t, viewport.VisibleRange{Start: 9, End: 13, Total: 100}, v.VisibleRange())

	lines := plainLines(v.Render())
	require.Equal(t, "Page 11/100 · fake · 200%", lines[0])
	require.Equal(t, "p10 r19", lines[20])
}

func TestViewerSetZoomInvalid(t *testing.T) {
	t.Parallel()

	v := newTestViewer(t, newFakeSource(10, 10))
	v.SetSize(20, 20)

	for _, z := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := v.SetZoom(z)
		require.ErrorIs(t, err, viewport.ErrInvalidZoom)
	}
	require.Equal(t, 1.0, v.Zoom())
}

func TestViewerZoomSteps(t *testing.T) {
	t.Parallel()

	v := newTestViewer(t, newFakeSource(10, 10))
	v.SetSize(20, 20)

	v.ZoomIn()
	require.Equal(t, 1.25, v.Zoom())
	v.ZoomOut()
	v.ZoomOut()
	require.Equal(t, 0.75, v.Zoom())

	_, err := v.SetZoom(100)
	require.NoError(t, err)
	require.Equal(t, 4.0, v.Zoom())

	v.ResetZoom()
	require.Equal(t, 1.0, v.Zoom())
}

func TestViewerPageNavigation(t *testing.T) {
	t.Parallel()

	v := newTestViewer(t, newFakeSource(5, 4))
	v.SetSize(20, 6)

	v.NextPage()
	require.Equal(t, 1, v.CurrentPage())
	require.Equal(t, 6.0, v.Offset())

	v.ScrollBy(2)
	v.PrevPage()
	require.Equal(t, 1, v.CurrentPage())
	require.Equal(t, 6.0, v.Offset())

	v.PrevPage()
	require.Equal(t, 0, v.CurrentPage())
	require.True(t, v.AtTop())

	v.ScrollToBottom()
	require.True(t, v.AtBottom())
	require.Equal(t, 24.0, v.Offset())

	v.NextPage()
	require.Equal(t, 24.0, v.Offset())
}

func TestViewerOnScrollClamps(t *testing.T) {
	t.Parallel()

	v := newTestViewer(t, newFakeSource(5, 4))
	v.SetSize(20, 6)

	v.OnScroll(-10)
	require.Zero(t, v.Offset())
	v.OnScroll(1e9)
	require.Equal(t, 24.0, v.Offset())
}

func TestViewerPeakMounted(t *testing.T) {
	t.Parallel()

	v := newTestViewer(t, newFakeSource(500, 10))
	v.SetSize(20, 30)

	peak := 0
	for range 200 {
		v.ScrollBy(7)
		v.Render()
		peak = max(peak, v.Mounted())
	}
	// ceil(30/12) + 2
	require.LessOrEqual(t, peak, 5)
}

func TestNewViewerErrors(t *testing.T) {
	t.Parallel()

	_, err := NewViewer(t.Context(), nil, nil, DefaultOptions())
	require.Error(t, err)

	opts := DefaultOptions()
	opts.Zoom = 0
	_, err = NewViewer(t.Context(), newFakeSource(1, 1), nil, opts)
	require.ErrorIs(t, err, viewport.ErrInvalidZoom)

	opts = DefaultOptions()
	opts.MinZoom, opts.MaxZoom = 2, 1
	_, err = NewViewer(t.Context(), newFakeSource(1, 1), nil, opts)
	require.ErrorIs(t, err, viewport.ErrInvalidZoom)
}
