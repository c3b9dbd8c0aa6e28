package model

import (
	"cmp"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/crawlview/internal/archive"
	"github.com/charmbracelet/crawlview/internal/home"
	"github.com/charmbracelet/crawlview/internal/ui/common"
	uiimage "github.com/charmbracelet/crawlview/internal/ui/image"
	"github.com/charmbracelet/crawlview/internal/ui/list"
	"github.com/charmbracelet/crawlview/internal/ui/pages"
	"github.com/charmbracelet/crawlview/internal/ui/styles"
	"github.com/charmbracelet/crawlview/internal/uiutil"
	"github.com/charmbracelet/crawlview/internal/viewport"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/ultraviolet/screen"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/editor"
	"github.com/pkg/browser"
)

// Below this size only a notice is drawn.
const (
	minWidth  = 20
	minHeight = 5
)

type uiState uint8

// Possible uiState values.
const (
	uiBrowse uiState = iota
	uiView
)

type (
	entriesLoadedMsg struct {
		entries []archive.Entry
		err     error
	}
	documentOpenedMsg struct {
		path string
		src  pages.Source
		err  error
	}
	editorClosedMsg struct{}
)

// Options configures what the [UI] shows first.
type Options struct {
	// Root is the archive directory listed in the browser.
	Root string
	// Document, when set, is opened directly. Going back from it quits.
	Document string
}

// UI represents the main user interface model.
type UI struct {
	com  *common.Common
	ctx  context.Context
	opts Options

	// The width and height of the terminal in cells.
	width  int
	height int
	layout layout

	state  uiState
	keyMap KeyMap
	help   help.Model
	caps   uiimage.Capabilities

	// Browser components
	entries   []archive.Entry
	list      *list.List
	input     textinput.Model
	filtering bool
	scanned   bool

	// Viewer components
	viewer  *pages.Viewer
	docPath string

	status   *uiutil.InfoMsg
	statusID int
}

// New creates a new instance of the [UI] model. Everything it mounts is
// released when ctx is done.
func New(ctx context.Context, com *common.Common, opts Options) *UI {
	cfg := com.Config
	buffer := viewport.Buffer{Leading: cfg.Window.Leading, Trailing: cfg.Window.Trailing}

	l := list.New(ctx, nil,
		list.WithRowHeight(cfg.List.RowHeight),
		list.WithGap(cfg.List.Gap),
		list.WithBuffer(buffer),
	)
	l.Focus()

	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "Type to filter"
	input.SetStyles(com.Styles.TextInput)

	ui := &UI{
		com:    com,
		ctx:    ctx,
		opts:   opts,
		keyMap: DefaultKeyMap(),
		help:   help.New(),
		caps:   uiimage.DetectCapabilities(os.Environ()),
		list:   l,
		input:  input,
	}
	ui.help.Styles = com.Styles.Help
	return ui
}

// Init initializes the UI model.
func (m *UI) Init() tea.Cmd {
	if m.opts.Document != "" {
		return m.openDocument(m.opts.Document)
	}
	return m.scan()
}

// Update handles updates to the UI model.
func (m *UI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.EnvMsg:
		m.caps = uiimage.DetectCapabilities(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		cmds = append(cmds, m.updateLayoutAndSize())
	case entriesLoadedMsg:
		if msg.err != nil {
			cmds = append(cmds, uiutil.ReportError(msg.err))
			break
		}
		if m.scanned {
			cmds = append(cmds, uiutil.ReportInfo(fmt.Sprintf("Rescanned archive: %d entries", len(msg.entries))))
		}
		m.scanned = true
		m.setEntries(msg.entries)
	case documentOpenedMsg:
		cmds = append(cmds, m.handleDocumentOpened(msg))
	case pages.LoadedMsg:
		if m.viewer != nil {
			cmds = append(cmds, m.viewer.HandleLoaded(msg))
		}
	case editorClosedMsg:
		cmds = append(cmds, m.scan())
	case uiutil.InfoMsg:
		m.status = &msg
		m.statusID++
		cmds = append(cmds, uiutil.ClearStatusAfter(m.statusID, cmp.Or(msg.TTL, uiutil.DefaultStatusTTL)))
	case uiutil.ClearStatusMsg:
		if msg.ID == m.statusID {
			m.status = nil
		}
	case tea.MouseWheelMsg:
		cmds = append(cmds, m.handleWheel(msg))
	case tea.MouseClickMsg:
		if m.state == uiBrowse {
			x := msg.X - m.layout.main.Min.X
			y := msg.Y - m.layout.main.Min.Y
			if idx, _ := m.list.ItemIndexAtPosition(x, y); idx >= 0 {
				m.list.SetSelected(idx)
			}
		}
	case tea.KeyPressMsg:
		cmds = append(cmds, m.handleKeyPressMsg(msg))
	default:
		if m.filtering {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *UI) scan() tea.Cmd {
	ctx, root, opts := m.ctx, m.opts.Root, m.com.Config.List
	return func() tea.Msg {
		entries, err := archive.Scan(ctx, root, archive.ScanOptions{
			Match:       opts.Match,
			IgnoreFile:  opts.IgnoreFile,
			IncludeDirs: true,
			Hidden:      opts.Hidden,
		})
		return entriesLoadedMsg{entries: entries, err: err}
	}
}

// setEntries replaces the scanned entries, keeping the current filter and,
// when possible, the selected entry.
func (m *UI) setEntries(entries []archive.Entry) {
	var selected string
	if item := m.list.SelectedItem(); item != nil {
		selected = item.ID()
	}
	m.entries = entries
	m.applyFilter()
	if selected == "" {
		return
	}
	for i := range m.list.Len() {
		if m.list.ItemAt(i).ID() == selected {
			m.list.SetSelected(i)
			m.list.ScrollToSelected()
			return
		}
	}
}

func (m *UI) applyFilter() {
	cfg := m.com.Config.List
	matches := archive.FilterMatches(m.entries, strings.TrimSpace(m.input.Value()))
	items := list.FileItems(m.com.Styles, matches, list.FileItemOptions{
		ShowSize:     cfg.ShowSize,
		ShowModified: cfg.ShowModified,
	})
	m.list.SetItems(items...)
	m.list.SelectFirst()
	m.list.ScrollToTop()
}

func (m *UI) selectedEntry() (archive.Entry, bool) {
	fi, ok := m.list.SelectedItem().(*list.FileItem)
	if !ok {
		return archive.Entry{}, false
	}
	return fi.Entry, true
}

func (m *UI) openDocument(path string) tea.Cmd {
	cfg := m.com.Config.Pages
	enc, err := uiimage.ParseEncoding(cfg.Encoding, m.caps)
	if err != nil {
		return uiutil.ReportError(err)
	}
	t := m.com.Styles
	return func() tea.Msg {
		src, err := pages.Open(path, t, pages.SourceOptions{
			BaseExtent: cfg.BaseExtent,
			ImageSourceOptions: pages.ImageSourceOptions{
				CacheSize:  cfg.CacheSize,
				Workers:    cfg.Workers,
				Encoding:   enc,
				Background: t.Background,
			},
		})
		return documentOpenedMsg{path: path, src: src, err: err}
	}
}

func (m *UI) handleDocumentOpened(msg documentOpenedMsg) tea.Cmd {
	if msg.err != nil {
		if m.opts.Document != "" && m.viewer == nil {
			return tea.Sequence(uiutil.ReportError(msg.err), tea.Quit)
		}
		return uiutil.ReportError(msg.err)
	}

	cfg := m.com.Config
	viewer, err := pages.NewViewer(m.ctx, msg.src, m.com.Styles, pages.Options{
		Zoom:     cfg.Pages.Zoom,
		ZoomStep: cfg.Pages.ZoomStep,
		MinZoom:  cfg.Pages.MinZoom,
		MaxZoom:  cfg.Pages.MaxZoom,
		Chrome:   int(cfg.Pages.Chrome),
		Buffer:   viewport.Buffer{Leading: cfg.Window.Leading, Trailing: cfg.Window.Trailing},
	})
	if err != nil {
		return uiutil.ReportError(err)
	}

	var cmds []tea.Cmd
	if m.viewer != nil {
		cmds = append(cmds, m.viewer.Close())
	}
	m.viewer = viewer
	m.docPath = msg.path
	m.state = uiView
	cmds = append(cmds, m.updateLayoutAndSize())
	return tea.Batch(cmds...)
}

func (m *UI) closeViewer() tea.Cmd {
	if m.viewer == nil {
		return nil
	}
	cmd := m.viewer.Close()
	m.viewer = nil
	m.docPath = ""
	m.state = uiBrowse
	if m.opts.Document != "" {
		return tea.Sequence(cmd, tea.Quit)
	}
	if !m.scanned {
		return tea.Batch(cmd, m.scan())
	}
	return cmd
}

func (m *UI) handleWheel(msg tea.MouseWheelMsg) tea.Cmd {
	step := max(1, m.com.Config.Options.WheelStep)
	switch msg.Button {
	case tea.MouseWheelUp:
		step = -step
	case tea.MouseWheelDown:
	default:
		return nil
	}

	switch m.state {
	case uiBrowse:
		m.list.ScrollBy(step)
		if !m.list.SelectedItemInView() {
			if step < 0 {
				m.list.SelectLastInView()
			} else {
				m.list.SelectFirstInView()
			}
		}
	case uiView:
		return m.viewer.ScrollBy(step)
	}
	return nil
}

func (m *UI) handleKeyPressMsg(msg tea.KeyPressMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if m.filtering {
		return m.handleFilterKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return tea.Quit
	case key.Matches(msg, m.keyMap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m.updateLayoutAndSize()
	}

	switch m.state {
	case uiBrowse:
		return m.handleListKeys(msg)
	case uiView:
		return m.handlePageKeys(msg)
	}
	return nil
}

func (m *UI) handleFilterKeys(msg tea.KeyPressMsg) tea.Cmd {
	k := &m.keyMap.Filter
	switch {
	case key.Matches(msg, k.Cancel):
		m.filtering = false
		m.input.Blur()
		m.input.Reset()
		m.applyFilter()
		return nil
	case key.Matches(msg, k.Accept):
		m.filtering = false
		m.input.Blur()
		return nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.applyFilter()
	}
	return cmd
}

func (m *UI) handleListKeys(msg tea.KeyPressMsg) tea.Cmd {
	k := &m.keyMap.List
	switch {
	case key.Matches(msg, k.Up):
		if m.list.SelectPrev() {
			m.list.ScrollToSelected()
		}
	case key.Matches(msg, k.Down):
		if m.list.SelectNext() {
			m.list.ScrollToSelected()
		}
	case key.Matches(msg, k.PageUp):
		m.list.ScrollBy(-m.list.Height())
		m.list.SelectFirstInView()
	case key.Matches(msg, k.PageDown):
		m.list.ScrollBy(m.list.Height())
		m.list.SelectLastInView()
	case key.Matches(msg, k.Home):
		m.list.SelectFirst()
		m.list.ScrollToTop()
	case key.Matches(msg, k.End):
		m.list.SelectLast()
		m.list.ScrollToBottom()
	case key.Matches(msg, k.Filter):
		m.filtering = true
		return m.input.Focus()
	case key.Matches(msg, m.keyMap.Back):
		if m.input.Value() != "" {
			m.input.Reset()
			m.applyFilter()
		}
	case key.Matches(msg, k.Refresh):
		return m.scan()
	case key.Matches(msg, k.Open):
		e, ok := m.selectedEntry()
		if !ok {
			return nil
		}
		if !archive.Viewable(e) {
			return uiutil.ReportWarn(fmt.Sprintf("%s can't be viewed", e.RelPath))
		}
		return m.openDocument(e.Path)
	case key.Matches(msg, k.Copy):
		e, ok := m.selectedEntry()
		if !ok {
			return nil
		}
		if err := clipboard.WriteAll(e.Path); err != nil {
			return uiutil.ReportError(fmt.Errorf("failed to copy path: %w", err))
		}
		return uiutil.ReportSuccess("Copied " + home.Short(e.Path))
	case key.Matches(msg, k.Browser):
		e, ok := m.selectedEntry()
		if !ok {
			return nil
		}
		return openExternally(e.Path)
	case key.Matches(msg, k.Edit):
		e, ok := m.selectedEntry()
		if !ok {
			return nil
		}
		return m.edit(e)
	}
	return nil
}

func openExternally(path string) tea.Cmd {
	return func() tea.Msg {
		browser.Stdout, browser.Stderr = io.Discard, io.Discard
		if err := browser.OpenFile(path); err != nil {
			return uiutil.InfoMsg{Type: uiutil.InfoTypeError, Msg: fmt.Sprintf("failed to open %s: %v", home.Short(path), err)}
		}
		return nil
	}
}

func (m *UI) edit(e archive.Entry) tea.Cmd {
	if e.IsDir {
		return uiutil.ReportWarn(fmt.Sprintf("%s is a directory", e.RelPath))
	}
	c, err := editor.Cmd("crawlview", e.Path)
	if err != nil {
		return uiutil.ReportError(err)
	}
	return tea.ExecProcess(c, func(err error) tea.Msg {
		if err != nil {
			return uiutil.InfoMsg{Type: uiutil.InfoTypeError, Msg: err.Error()}
		}
		return editorClosedMsg{}
	})
}

func (m *UI) handlePageKeys(msg tea.KeyPressMsg) tea.Cmd {
	if m.viewer == nil {
		return nil
	}
	k := &m.keyMap.Pages
	v := m.viewer
	switch {
	case key.Matches(msg, m.keyMap.Back):
		return m.closeViewer()
	case key.Matches(msg, k.Up):
		return v.ScrollBy(-1)
	case key.Matches(msg, k.Down):
		return v.ScrollBy(1)
	case key.Matches(msg, k.PageUp):
		return v.ScrollBy(-m.layout.main.Dy())
	case key.Matches(msg, k.PageDown):
		return v.ScrollBy(m.layout.main.Dy())
	case key.Matches(msg, k.NextPage):
		return v.NextPage()
	case key.Matches(msg, k.PrevPage):
		return v.PrevPage()
	case key.Matches(msg, k.Home):
		return v.ScrollToTop()
	case key.Matches(msg, k.End):
		return v.ScrollToBottom()
	case key.Matches(msg, k.ZoomIn):
		return v.ZoomIn()
	case key.Matches(msg, k.ZoomOut):
		return v.ZoomOut()
	case key.Matches(msg, k.ZoomReset):
		return v.ResetZoom()
	}
	return nil
}

// Draw implements [uv.Drawable] and draws the UI model.
func (m *UI) Draw(scr uv.Screen, area uv.Rectangle) {
	layout := m.generateLayout(area.Dx(), area.Dy())
	if m.layout != layout {
		m.layout = layout
		m.updateSize()
	}

	// Clear the screen first
	screen.Clear(scr)

	if area.Dx() < minWidth || area.Dy() < minHeight {
		msg := m.com.Styles.WindowTooSmall.Render("Window too small!")
		uv.NewStyledString(msg).Draw(scr, common.CenterRect(area, ansi.StringWidth(msg), 1))
		return
	}

	uv.NewStyledString(m.headerView(layout.header.Dx())).Draw(scr, layout.header)

	switch m.state {
	case uiBrowse:
		if m.list.Len() == 0 {
			empty := m.emptyView()
			uv.NewStyledString(empty).Draw(scr, common.CenterRect(layout.main, ansi.StringWidth(empty), 1))
		} else {
			m.list.Draw(scr, layout.main)
		}
	case uiView:
		if m.viewer != nil {
			m.viewer.Draw(scr, layout.main)
		}
	}

	uv.NewStyledString(m.footerView(layout.footer.Dx())).Draw(scr, layout.footer)

	// Add help layer
	uv.NewStyledString(m.help.View(m)).Draw(scr, layout.help)
}

func (m *UI) headerView(width int) string {
	t := m.com.Styles
	title := t.Header.Title.Render("crawlview")

	var path, info string
	switch m.state {
	case uiBrowse:
		path = m.opts.Root
		info = fmt.Sprintf("%d/%d", m.list.Selected()+1, m.list.Len())
		if m.list.Len() != len(m.entries) {
			info = fmt.Sprintf("%s of %d", info, len(m.entries))
		}
	case uiView:
		path = m.docPath
		if m.viewer != nil {
			info = fmt.Sprintf("page %d/%d · %d%%", m.viewer.CurrentPage()+1, m.viewer.Len(), int(m.viewer.Zoom()*100+0.5))
		}
	}
	info = t.Header.Info.Render(info)

	pathWidth := max(0, width-ansi.StringWidth(title)-ansi.StringWidth(info)-2)
	pathView := " " + common.PrettyPath(t, path, pathWidth)
	gap := max(0, width-ansi.StringWidth(title)-ansi.StringWidth(pathView)-ansi.StringWidth(info))
	return title + pathView + strings.Repeat(" ", gap) + info
}

func (m *UI) emptyView() string {
	t := m.com.Styles
	switch {
	case !m.scanned:
		return t.List.Empty.Render(styles.LoadingIcon + " Scanning archive…")
	case m.input.Value() != "":
		return t.List.Empty.Render("No entries match " + m.input.Value())
	}
	return t.List.Empty.Render("The archive is empty")
}

func (m *UI) footerView(width int) string {
	t := m.com.Styles
	switch {
	case m.filtering:
		m.input.SetWidth(max(0, width-ansi.StringWidth(m.input.Prompt)-1))
		return m.input.View()
	case m.status != nil:
		tag := t.Status.Info.Render(styles.InfoIcon + " INFO")
		switch m.status.Type {
		case uiutil.InfoTypeSuccess:
			tag = t.Status.Info.Render(styles.CheckIcon + " OK")
		case uiutil.InfoTypeWarn:
			tag = t.Status.Warn.Render(styles.WarningIcon + " WARN")
		case uiutil.InfoTypeError:
			tag = t.Status.Error.Render(styles.ErrorIcon + " ERROR")
		}
		return common.Status(t, common.StatusOpts{
			Icon:       tag,
			Title:      ansi.Truncate(m.status.Msg, max(0, width-ansi.StringWidth(tag)-1), "…"),
			TitleColor: t.Base.GetForeground(),
		}, width)
	case m.state == uiBrowse && m.input.Value() != "":
		return t.Filter.Prompt.String() + t.Filter.Query.Render(m.input.Value()) +
			t.Filter.Count.Render(fmt.Sprintf("%d matches", m.list.Len()))
	}
	return ""
}

// View renders the UI model's view.
func (m *UI) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.BackgroundColor = m.com.Styles.Background
	v.MouseMode = tea.MouseModeCellMotion

	canvas := uv.NewScreenBuffer(m.width, m.height)
	m.Draw(canvas, canvas.Bounds())

	content := strings.ReplaceAll(canvas.Render(), "\r\n", "\n") // normalize newlines
	contentLines := strings.Split(content, "\n")
	for i, line := range contentLines {
		// Trim trailing spaces for concise rendering
		contentLines[i] = strings.TrimRight(line, " ")
	}

	v.Content = strings.Join(contentLines, "\n")
	return v
}

// ShortHelp implements [help.KeyMap].
func (m *UI) ShortHelp() []key.Binding {
	k := &m.keyMap
	var binds []key.Binding
	switch {
	case m.filtering:
		binds = append(binds, k.Filter.Accept, k.Filter.Cancel)
	case m.state == uiBrowse:
		binds = append(binds, k.List.Up, k.List.Down, k.List.Open, k.List.Filter)
	case m.state == uiView:
		binds = append(binds, k.Pages.NextPage, k.Pages.PrevPage, k.Pages.ZoomIn, k.Pages.ZoomOut, k.Back)
	}
	return append(binds, k.Quit, k.Help)
}

// FullHelp implements [help.KeyMap].
func (m *UI) FullHelp() [][]key.Binding {
	k := &m.keyMap
	helpKey := k.Help
	helpKey.SetHelp("?", "less")

	var binds [][]key.Binding
	switch m.state {
	case uiBrowse:
		binds = append(binds,
			[]key.Binding{k.List.Up, k.List.Down, k.List.PageUp, k.List.PageDown},
			[]key.Binding{k.List.Home, k.List.End, k.List.Open, k.List.Filter},
			[]key.Binding{k.List.Copy, k.List.Browser, k.List.Edit, k.List.Refresh},
		)
	case uiView:
		binds = append(binds,
			[]key.Binding{k.Pages.Up, k.Pages.Down, k.Pages.PageUp, k.Pages.PageDown},
			[]key.Binding{k.Pages.NextPage, k.Pages.PrevPage, k.Pages.Home, k.Pages.End},
			[]key.Binding{k.Pages.ZoomIn, k.Pages.ZoomOut, k.Pages.ZoomReset, k.Back},
		)
	}
	return append(binds, []key.Binding{helpKey, k.Quit})
}

// updateLayoutAndSize updates the layout and sizes of UI components.
func (m *UI) updateLayoutAndSize() tea.Cmd {
	m.layout = m.generateLayout(m.width, m.height)
	return m.updateSize()
}

// updateSize updates the sizes of UI components based on the current layout.
func (m *UI) updateSize() tea.Cmd {
	m.help.SetWidth(m.layout.help.Dx())
	m.list.SetSize(m.layout.main.Dx(), m.layout.main.Dy())
	if m.viewer != nil {
		return m.viewer.SetSize(m.layout.main.Dx(), m.layout.main.Dy())
	}
	return nil
}

// generateLayout calculates the layout rectangles for all UI components based
// on the current UI state and terminal dimensions.
func (m *UI) generateLayout(w, h int) layout {
	// The screen area we're working with
	area := image.Rect(0, 0, w, h)

	helpHeight := 1
	var helpKeyMap help.KeyMap = m
	if m.help.ShowAll {
		for _, row := range helpKeyMap.FullHelp() {
			helpHeight = max(helpHeight, len(row))
		}
	}

	// Add app margins
	appRect := area
	appRect.Min.X += 1
	appRect.Max.X -= 1
	if appRect.Dx() < 0 {
		appRect.Max.X = appRect.Min.X
	}

	// Layout
	//
	// header
	// ------
	// main
	// ------
	// footer
	// help
	headerRect, mainRect := uv.SplitVertical(appRect, uv.Fixed(1))
	mainRect, bottomRect := uv.SplitVertical(mainRect, uv.Fixed(max(0, mainRect.Dy()-1-helpHeight)))
	footerRect, helpRect := uv.SplitVertical(bottomRect, uv.Fixed(1))

	return layout{
		area:   area,
		header: headerRect,
		main:   mainRect,
		footer: footerRect,
		help:   helpRect,
	}
}

// layout defines the positioning of UI elements.
type layout struct {
	// area is the overall available area.
	area uv.Rectangle

	// header shows the archive or document path.
	header uv.Rectangle

	// main is the area for the file list or the page viewer.
	main uv.Rectangle

	// footer shows the filter input and status messages.
	footer uv.Rectangle

	// help is the area for the help view.
	help uv.Rectangle
}
