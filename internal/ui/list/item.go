package list

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// Item is a row of a [List].
type Item interface {
	// ID returns the unique identifier of the item. It keeps the item
	// materialized across list updates while it stays in view.
	ID() string

	// Render returns the item content for the given width.
	Render(width int) string
}

// Focusable is an optional interface for items that render differently when
// selected in a focused list.
type Focusable interface {
	SetFocused(focused bool)
}

// MatchSettable is an optional interface for items that highlight fuzzy
// matches.
type MatchSettable interface {
	SetMatch(indexes []int)
}

// StringItem is a plain string row. It caches rendered content by width.
type StringItem struct {
	id      string
	content string

	focused    bool
	focusStyle *lipgloss.Style
	blurStyle  *lipgloss.Style

	cache map[int]string
}

var (
	_ Item      = (*StringItem)(nil)
	_ Focusable = (*StringItem)(nil)
)

// NewStringItem creates a new string item with the given ID and content.
func NewStringItem(id, content string) *StringItem {
	return &StringItem{
		id:      id,
		content: content,
		cache:   make(map[int]string),
	}
}

// WithFocusStyles sets the styles used when the item is focused and blurred.
func (s *StringItem) WithFocusStyles(focusStyle, blurStyle *lipgloss.Style) *StringItem {
	s.focusStyle = focusStyle
	s.blurStyle = blurStyle
	s.cache = make(map[int]string)
	return s
}

// ID implements Item.
func (s *StringItem) ID() string {
	return s.id
}

// SetFocused implements Focusable.
func (s *StringItem) SetFocused(focused bool) {
	if s.focused != focused {
		s.cache = make(map[int]string)
	}
	s.focused = focused
}

// Render implements Item. Lines longer than width are truncated.
func (s *StringItem) Render(width int) string {
	if cached, ok := s.cache[width]; ok {
		return cached
	}

	style := s.blurStyle
	if s.focused {
		style = s.focusStyle
	}

	contentWidth := width
	if style != nil {
		contentWidth -= style.GetHorizontalFrameSize()
	}

	lines := strings.Split(s.content, "\n")
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, max(0, contentWidth), "…")
	}
	content := strings.Join(lines, "\n")
	if style != nil {
		content = style.Width(width).Render(content)
	}

	s.cache[width] = content
	return content
}
