package list

import (
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/crawlview/internal/archive"
	"github.com/charmbracelet/crawlview/internal/ui/styles"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/rivo/uniseg"
)

// FileItem is a row showing an archive entry.
type FileItem struct {
	archive.Entry

	t            *styles.Styles
	showSize     bool
	showModified bool
	now          func() time.Time

	matched []int
	focused bool
	cache   map[int]string
}

var (
	_ Item          = (*FileItem)(nil)
	_ Focusable     = (*FileItem)(nil)
	_ MatchSettable = (*FileItem)(nil)
)

// FileItemOptions controls which metadata a [FileItem] shows.
type FileItemOptions struct {
	ShowSize     bool
	ShowModified bool
}

// NewFileItem wraps an archive entry.
func NewFileItem(t *styles.Styles, e archive.Entry, opts FileItemOptions) *FileItem {
	return &FileItem{
		Entry:        e,
		t:            t,
		showSize:     opts.ShowSize,
		showModified: opts.ShowModified,
		now:          time.Now,
	}
}

// FileItems wraps archive matches, copying their match positions.
func FileItems(t *styles.Styles, matches []archive.Match, opts FileItemOptions) []Item {
	items := make([]Item, len(matches))
	for i, m := range matches {
		fi := NewFileItem(t, m.Entry, opts)
		fi.SetMatch(m.MatchedIndexes)
		items[i] = fi
	}
	return items
}

// ID implements Item.
func (f *FileItem) ID() string {
	return f.Entry.ID()
}

// SetFocused implements Focusable.
func (f *FileItem) SetFocused(focused bool) {
	if f.focused != focused {
		f.cache = nil
	}
	f.focused = focused
}

// SetMatch implements MatchSettable. Indexes are byte offsets into RelPath.
func (f *FileItem) SetMatch(indexes []int) {
	f.cache = nil
	f.matched = indexes
}

// Render implements Item.
func (f *FileItem) Render(width int) string {
	if f.cache == nil {
		f.cache = make(map[int]string)
	}
	if cached, ok := f.cache[width]; ok {
		return cached
	}
	cacheKey := width

	style := f.t.List.NormalItem
	metaStyle := f.t.List.Meta
	if f.focused {
		style = f.t.List.SelectedItem
		metaStyle = f.t.List.MetaSelected
	}

	width -= style.GetHorizontalFrameSize()

	var meta []string
	if f.showSize && !f.IsDir {
		meta = append(meta, humanize.Bytes(uint64(max(0, f.Size)))) //nolint:gosec
	}
	if f.showModified && !f.ModTime.IsZero() {
		meta = append(meta, humanize.RelTime(f.ModTime, f.now(), "ago", "from now"))
	}
	var right string
	if len(meta) > 0 {
		right = " " + metaStyle.Render(strings.Join(meta, "  "))
	}
	rightLen := lipgloss.Width(right)
	if rightLen > width/2 {
		// Not enough room for metadata.
		right, rightLen = "", 0
	}

	icon := iconFor(f.Entry)
	name := f.RelPath
	if f.IsDir {
		name += "/"
	}
	name = highlight(name, f.matched)
	if f.IsDir {
		name = f.t.List.Dir.Render(name)
	}
	title := ansi.Truncate(icon+" "+name, max(0, width-rightLen), "…")
	titleLen := lipgloss.Width(title)

	pad := lipgloss.NewStyle().AlignHorizontal(lipgloss.Right).Width(max(0, width-titleLen)).Render(right)
	content := style.Render(title + pad)
	f.cache[cacheKey] = content
	return content
}

func iconFor(e archive.Entry) string {
	switch archive.Kind(e) {
	case archive.KindDir:
		return styles.DirIcon
	case archive.KindImage:
		return styles.ImageIcon
	case archive.KindMarkdown, archive.KindHTML, archive.KindText:
		return styles.DocumentIcon
	}
	return styles.FileIcon
}

// highlight underlines every grapheme cluster of s that contains a matched
// byte offset.
func highlight(s string, matched []int) string {
	if len(matched) == 0 {
		return s
	}
	set := make(map[int]struct{}, len(matched))
	for _, i := range matched {
		set[i] = struct{}{}
	}

	var (
		b     strings.Builder
		on    bool
		state = -1
		pos   int
	)
	underline := func(v bool) {
		if v != on {
			b.WriteString(ansi.NewStyle().Underline(v).String())
			on = v
		}
	}
	for s != "" {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		hit := false
		for j := pos; j < pos+len(cluster); j++ {
			if _, ok := set[j]; ok {
				hit = true
				break
			}
		}
		underline(hit)
		b.WriteString(cluster)
		pos += len(cluster)
	}
	underline(false)
	return b.String()
}
