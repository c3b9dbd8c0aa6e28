package list

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/crawlview/internal/archive"
	"github.com/charmbracelet/crawlview/internal/ui/styles"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestFileItemRender(t *testing.T) {
	t.Parallel()

	st := styles.DefaultStyles()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := archive.Entry{
		RelPath: "pages/notes.txt",
		Name:    "notes.txt",
		Size:    2048,
		ModTime: now.Add(-2 * time.Hour),
	}

	fi := NewFileItem(&st, e, FileItemOptions{ShowSize: true, ShowModified: true})
	fi.now = func() time.Time { return now }

	out := fi.Render(60)
	plain := ansi.Strip(out)
	require.Contains(t, plain, styles.DocumentIcon+" pages/notes.txt")
	require.Contains(t, plain, "2.0 kB")
	require.Contains(t, plain, "2 hours ago")
	require.Equal(t, 60, ansi.StringWidth(out))
	require.Equal(t, out, fi.Render(60), "cached")

	narrow := ansi.Strip(fi.Render(12))
	require.NotContains(t, narrow, "\n")
	require.LessOrEqual(t, ansi.StringWidth(narrow), 12)
	require.Contains(t, narrow, "…")

	fi.SetFocused(true)
	require.NotEqual(t, out, fi.Render(60))
	require.Equal(t, "pages/notes.txt", fi.ID())
}

func TestFileItemDirectory(t *testing.T) {
	t.Parallel()

	st := styles.DefaultStyles()
	fi := NewFileItem(&st, archive.Entry{RelPath: "pages", Name: "pages", IsDir: true, Size: 4096}, FileItemOptions{ShowSize: true})

	plain := ansi.Strip(fi.Render(40))
	require.Contains(t, plain, styles.DirIcon+" pages/")
	require.NotContains(t, plain, "kB")
}

func TestFileItemHighlight(t *testing.T) {
	t.Parallel()

	st := styles.DefaultStyles()
	matches := archive.FilterMatches([]archive.Entry{{RelPath: "docs/intro.md", Name: "intro.md"}}, "intro")
	items := FileItems(&st, matches, FileItemOptions{})
	require.Len(t, items, 1)

	out := items[0].Render(40)
	require.Contains(t, out, ansi.NewStyle().Underline(true).String())
	require.Contains(t, ansi.Strip(out), "docs/intro.md")
}

func TestHighlight(t *testing.T) {
	t.Parallel()

	on := ansi.NewStyle().Underline(true).String()
	off := ansi.NewStyle().Underline(false).String()

	require.Equal(t, "plain", highlight("plain", nil))
	require.Equal(t, "a"+on+"bc"+off+"d", highlight("abcd", []int{1, 2}))

	// A match inside a multi-byte cluster underlines the whole cluster.
	out := highlight("xéy", []int{2})
	require.True(t, strings.HasPrefix(out, "x"+on+"é"+off))
}

func TestStringItem(t *testing.T) {
	t.Parallel()

	item := NewStringItem("1", "a fairly long line\nshort")
	require.Equal(t, "a fairl…\nshort", item.Render(8))
	require.Equal(t, "1", item.ID())

	st := styles.DefaultStyles()
	item = NewStringItem("2", "styled").WithFocusStyles(&st.List.SelectedItem, &st.List.NormalItem)
	blurred := item.Render(20)
	item.SetFocused(true)
	require.NotEqual(t, blurred, item.Render(20))
	require.Equal(t, "styled", strings.TrimSpace(ansi.Strip(item.Render(20))))
}
