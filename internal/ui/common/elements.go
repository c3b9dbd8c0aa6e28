package common

import (
	"cmp"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/crawlview/internal/home"
	"github.com/charmbracelet/crawlview/internal/ui/styles"
	"github.com/charmbracelet/x/ansi"
)

// PrettyPath renders path with the home directory shortened, truncated from
// the left to width.
func PrettyPath(t *styles.Styles, path string, width int) string {
	formatted := home.Short(path)
	if width > 0 && ansi.StringWidth(formatted) > width {
		formatted = ansi.TruncateLeft(formatted, ansi.StringWidth(formatted)-width+1, "…")
	}
	return t.Muted.Render(formatted)
}

type StatusOpts struct {
	Icon             string // if empty no icon will be shown
	Title            string
	TitleColor       color.Color
	Description      string
	DescriptionColor color.Color
}

// Status renders a one line status made of an icon, a title and a
// description truncated to fit width.
func Status(t *styles.Styles, opts StatusOpts, width int) string {
	icon := opts.Icon
	title := opts.Title
	description := opts.Description

	titleColor := cmp.Or(opts.TitleColor, t.Muted.GetForeground())
	descriptionColor := cmp.Or(opts.DescriptionColor, t.Subtle.GetForeground())

	title = t.Base.Foreground(titleColor).Render(title)

	if description != "" {
		description = ansi.Truncate(description, max(0, width-lipgloss.Width(icon)-lipgloss.Width(title)-2), "…")
		description = t.Base.Foreground(descriptionColor).Render(description)
	}

	content := []string{}
	if icon != "" {
		content = append(content, icon)
	}
	content = append(content, title)
	if description != "" {
		content = append(content, description)
	}

	return strings.Join(content, " ")
}
