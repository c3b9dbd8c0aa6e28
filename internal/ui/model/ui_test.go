package model

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/crawlview/internal/config"
	"github.com/charmbracelet/crawlview/internal/ui/common"
	"github.com/charmbracelet/crawlview/internal/ui/pages"
	"github.com/charmbracelet/crawlview/internal/uiutil"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newTestUI(t *testing.T, opts Options) *UI {
	t.Helper()
	cfg := config.Default()
	cfg.Pages.BaseExtent = 10
	m := New(t.Context(), common.DefaultCommon(cfg), opts)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	drain(t, m, m.Init())
	return m
}

// drain runs cmd and feeds the scan, open and load results it produces back
// into the model until nothing is left.
func drain(t *testing.T, m *UI, cmd tea.Cmd) {
	t.Helper()
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case entriesLoadedMsg, documentOpenedMsg, pages.LoadedMsg:
			_, next := m.Update(msg)
			drain(t, m, next)
		}
	}
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, collect(c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func press(m *UI, text string) tea.Cmd {
	var msg tea.KeyPressMsg
	switch text {
	case "enter":
		msg = tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		msg = tea.KeyPressMsg{Code: tea.KeyEscape}
	case "down":
		msg = tea.KeyPressMsg{Code: tea.KeyDown}
	default:
		r := []rune(text)[0]
		msg = tea.KeyPressMsg{Code: r, Text: text}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func screenText(m *UI) string {
	return ansi.Strip(m.View().Content)
}

func TestBrowseListsArchive(t *testing.T) {
	t.Parallel()

	root := writeArchive(t, map[string]string{
		"alpha.md":    "# Alpha",
		"beta.txt":    "beta",
		"scans/1.png": "",
	})
	m := newTestUI(t, Options{Root: root})

	require.True(t, m.scanned)
	require.Equal(t, uiBrowse, m.state)
	require.Equal(t, 4, m.list.Len())
	require.Equal(t, 0, m.list.Selected())

	out := screenText(m)
	require.Contains(t, out, "crawlview")
	require.Contains(t, out, "alpha.md")
	require.Contains(t, out, "beta.txt")
	require.Contains(t, out, "1/4")
}

func TestBrowseLayout(t *testing.T) {
	t.Parallel()

	m := newTestUI(t, Options{Root: writeArchive(t, map[string]string{"a.txt": "a"})})
	require.Equal(t, 0, m.layout.header.Min.Y)
	require.Equal(t, 1, m.layout.main.Min.Y)
	require.Equal(t, 21, m.layout.main.Dy())
	require.Equal(t, 78, m.layout.main.Dx())
	require.Equal(t, 21, m.list.Height())
	require.Equal(t, 23, m.layout.help.Min.Y)
}

func TestBrowseFilter(t *testing.T) {
	t.Parallel()

	root := writeArchive(t, map[string]string{
		"alpha.md": "# Alpha",
		"beta.txt": "beta",
		"gamma.md": "# Gamma",
	})
	m := newTestUI(t, Options{Root: root})
	require.Equal(t, 3, m.list.Len())

	press(m, "/")
	require.True(t, m.filtering)
	for _, r := range "beta" {
		press(m, string(r))
	}
	require.Equal(t, 1, m.list.Len())
	require.Equal(t, 0, m.list.Selected())
	e, ok := m.selectedEntry()
	require.True(t, ok)
	require.Equal(t, "beta.txt", e.RelPath)

	// Accepting keeps the filter, clearing drops it.
	press(m, "enter")
	require.False(t, m.filtering)
	require.Equal(t, 1, m.list.Len())
	require.Contains(t, screenText(m), "1 matches")

	press(m, "esc")
	require.Equal(t, 3, m.list.Len())
}

func TestBrowseNoMatches(t *testing.T) {
	t.Parallel()

	m := newTestUI(t, Options{Root: writeArchive(t, map[string]string{"a.txt": "a"})})
	press(m, "/")
	for _, r := range "zzz" {
		press(m, string(r))
	}
	require.Zero(t, m.list.Len())
	require.Contains(t, screenText(m), "No entries match zzz")
}

func TestOpenDocumentAndBack(t *testing.T) {
	t.Parallel()

	root := writeArchive(t, map[string]string{
		"alpha.txt": "first line\nsecond line\n",
		"beta.txt":  "beta",
	})
	m := newTestUI(t, Options{Root: root})

	drain(t, m, press(m, "enter"))
	require.Equal(t, uiView, m.state)
	require.NotNil(t, m.viewer)
	require.Equal(t, 1, m.viewer.Len())

	out := screenText(m)
	require.Contains(t, out, "Page 1/1")
	require.Contains(t, out, "first line")
	require.Contains(t, out, "page 1/1 · 100%")

	press(m, "+")
	require.Equal(t, 1.25, m.viewer.Zoom())

	press(m, "esc")
	require.Equal(t, uiBrowse, m.state)
	require.Nil(t, m.viewer)
	require.Contains(t, screenText(m), "beta.txt")
}

func TestOpenUnsupportedWarns(t *testing.T) {
	t.Parallel()

	m := newTestUI(t, Options{Root: writeArchive(t, map[string]string{"blob.bin": "??"})})
	msgs := collect(press(m, "enter"))
	require.Len(t, msgs, 1)
	info, ok := msgs[0].(uiutil.InfoMsg)
	require.True(t, ok)
	require.Equal(t, uiutil.InfoTypeWarn, info.Type)
	require.Equal(t, uiBrowse, m.state)
}

func TestOpenDirectDocument(t *testing.T) {
	t.Parallel()

	root := writeArchive(t, map[string]string{"notes.md": "# Notes\n\nhello"})
	m := newTestUI(t, Options{Document: filepath.Join(root, "notes.md")})
	require.Equal(t, uiView, m.state)
	require.False(t, m.scanned)
	require.Contains(t, screenText(m), "hello")

	// Leaving a directly opened document quits.
	require.NotNil(t, press(m, "esc"))
	require.Nil(t, m.viewer)
}

func TestMouseWheelScrollsList(t *testing.T) {
	t.Parallel()

	files := map[string]string{}
	for i := range 50 {
		files[fmt.Sprintf("file-%02d.txt", i)] = "x"
	}
	m := newTestUI(t, Options{Root: writeArchive(t, files)})

	m.Update(tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	require.Equal(t, 3.0, m.list.Offset())
	require.Equal(t, 3, m.list.Selected())

	m.Update(tea.MouseWheelMsg{Button: tea.MouseWheelUp})
	require.Zero(t, m.list.Offset())
}

func TestMouseClickSelects(t *testing.T) {
	t.Parallel()

	m := newTestUI(t, Options{Root: writeArchive(t, map[string]string{
		"a.txt": "a",
		"b.txt": "b",
		"c.txt": "c",
	})})
	m.Update(tea.MouseClickMsg{X: 4, Y: 3})
	require.Equal(t, 2, m.list.Selected())
}

func TestStatusMessages(t *testing.T) {
	t.Parallel()

	m := newTestUI(t, Options{Root: writeArchive(t, map[string]string{"a.txt": "a"})})

	_, cmd := m.Update(uiutil.InfoMsg{Type: uiutil.InfoTypeWarn, Msg: "careful now"})
	require.NotNil(t, cmd)
	require.Contains(t, screenText(m), "careful now")

	// A clear for an older message is ignored.
	m.Update(uiutil.ClearStatusMsg{ID: m.statusID - 1})
	require.Contains(t, screenText(m), "careful now")

	m.Update(uiutil.ClearStatusMsg{ID: m.statusID})
	require.NotContains(t, screenText(m), "careful now")
}

func TestHelpToggle(t *testing.T) {
	t.Parallel()

	m := newTestUI(t, Options{Root: writeArchive(t, map[string]string{"a.txt": "a"})})
	before := m.layout.main.Dy()
	press(m, "?")
	require.True(t, m.help.ShowAll)
	require.Less(t, m.layout.main.Dy(), before)
	require.Contains(t, screenText(m), "rescan")
}

func TestRescanKeepsSelection(t *testing.T) {
	t.Parallel()

	root := writeArchive(t, map[string]string{"b.txt": "b", "c.txt": "c"})
	m := newTestUI(t, Options{Root: root})
	press(m, "down")
	e, _ := m.selectedEntry()
	require.Equal(t, "c.txt", e.RelPath)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	drain(t, m, press(m, "r"))
	require.Equal(t, 3, m.list.Len())
	e, _ = m.selectedEntry()
	require.Equal(t, "c.txt", e.RelPath)
}

func TestRescanReportsEntries(t *testing.T) {
	t.Parallel()

	root := writeArchive(t, map[string]string{"a.txt": "a", "b.txt": "b"})
	m := newTestUI(t, Options{Root: root})
	require.Nil(t, m.status, "first scan is silent")

	var infos []uiutil.InfoMsg
	for _, msg := range collect(press(m, "r")) {
		_, cmd := m.Update(msg)
		for _, next := range collect(cmd) {
			if info, ok := next.(uiutil.InfoMsg); ok {
				infos = append(infos, info)
			}
		}
	}
	require.Equal(t, []uiutil.InfoMsg{{Type: uiutil.InfoTypeInfo, Msg: "Rescanned archive: 2 entries"}}, infos)
}
