package styles

import (
	"image/color"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/glamour/v2/ansi"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

const (
	CheckIcon   string = "✓"
	ErrorIcon   string = "×"
	WarningIcon string = "⚠"
	InfoIcon    string = "ⓘ"
	LoadingIcon string = "⟳"

	DirIcon      string = "▸"
	DocumentIcon string = "≡"
	ImageIcon    string = "▣"
	FileIcon     string = "·"
)

type Styles struct {
	WindowTooSmall lipgloss.Style

	// Reusable text styles
	Base   lipgloss.Style
	Muted  lipgloss.Style
	Subtle lipgloss.Style

	// Tags
	TagBase  lipgloss.Style
	TagError lipgloss.Style
	TagInfo  lipgloss.Style

	// Markdown
	Markdown ansi.StyleConfig

	// Help
	Help help.Styles

	// Inputs
	TextInput textinput.Styles

	// Background
	Background color.Color

	// Header bar
	Header struct {
		Title lipgloss.Style
		Info  lipgloss.Style
	}

	// File list
	List struct {
		NormalItem   lipgloss.Style
		SelectedItem lipgloss.Style
		Dir          lipgloss.Style
		Meta         lipgloss.Style
		MetaSelected lipgloss.Style
		Empty        lipgloss.Style
	}

	// Page viewer
	Pages struct {
		Label        lipgloss.Style
		LabelCurrent lipgloss.Style
		Loading      lipgloss.Style
		Error        lipgloss.Style
	}

	// Filter input
	Filter struct {
		Prompt lipgloss.Style
		Query  lipgloss.Style
		Count  lipgloss.Style
	}

	// Status line
	Status struct {
		Info  lipgloss.Style
		Warn  lipgloss.Style
		Error lipgloss.Style
	}
}

func DefaultStyles() Styles {
	var (
		primary   = charmtone.Charple
		secondary = charmtone.Dolly
		tertiary  = charmtone.Bok

		// Backgrounds
		bgBase        = charmtone.Pepper
		bgBaseLighter = charmtone.BBQ

		// Foregrounds
		fgBase      = charmtone.Ash
		fgMuted     = charmtone.Squid
		fgHalfMuted = charmtone.Smoke
		fgSubtle    = charmtone.Oyster

		// Borders
		border = charmtone.Charcoal

		// Status
		warning = charmtone.Zest
		info    = charmtone.Malibu

		// Colors
		white     = charmtone.Butter
		blueLight = charmtone.Sardine
		redDark   = charmtone.Sriracha
		red       = charmtone.Coral
	)

	base := lipgloss.NewStyle().Foreground(fgBase)

	s := Styles{}

	s.Background = bgBase

	s.Base = base
	s.Muted = lipgloss.NewStyle().Foreground(fgMuted)
	s.Subtle = lipgloss.NewStyle().Foreground(fgSubtle)
	s.WindowTooSmall = s.Muted

	s.TagBase = lipgloss.NewStyle().Padding(0, 1).Foreground(white)
	s.TagError = s.TagBase.Background(redDark)
	s.TagInfo = s.TagBase.Background(blueLight)

	s.Help = help.Styles{
		ShortKey:       base.Foreground(fgMuted),
		ShortDesc:      base.Foreground(fgSubtle),
		ShortSeparator: base.Foreground(border),
		Ellipsis:       base.Foreground(border),
		FullKey:        base.Foreground(fgMuted),
		FullDesc:       base.Foreground(fgSubtle),
		FullSeparator:  base.Foreground(border),
	}

	s.TextInput = textinput.Styles{
		Focused: textinput.StyleState{
			Text:        base,
			Placeholder: base.Foreground(fgSubtle),
			Prompt:      base.Foreground(tertiary),
			Suggestion:  base.Foreground(fgSubtle),
		},
		Blurred: textinput.StyleState{
			Text:        base.Foreground(fgMuted),
			Placeholder: base.Foreground(fgSubtle),
			Prompt:      base.Foreground(fgMuted),
			Suggestion:  base.Foreground(fgSubtle),
		},
		Cursor: textinput.CursorStyle{
			Color: secondary,
			Shape: tea.CursorBar,
			Blink: true,
		},
	}

	s.Markdown = ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr(charmtone.Smoke.Hex()),
			},
		},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				BlockSuffix: "\n",
				Color:       stringPtr(charmtone.Malibu.Hex()),
				Bold:        boolPtr(true),
			},
		},
		H1: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix:          " ",
				Suffix:          " ",
				Color:           stringPtr(charmtone.Zest.Hex()),
				BackgroundColor: stringPtr(charmtone.Charple.Hex()),
				Bold:            boolPtr(true),
			},
		},
		H2: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix: "## ",
			},
		},
		H3: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix: "### ",
			},
		},
		Emph: ansi.StylePrimitive{
			Italic: boolPtr(true),
		},
		Strong: ansi.StylePrimitive{
			Bold: boolPtr(true),
		},
		Link: ansi.StylePrimitive{
			Color:     stringPtr(charmtone.Zinc.Hex()),
			Underline: boolPtr(true),
		},
		LinkText: ansi.StylePrimitive{
			Color: stringPtr(charmtone.Guac.Hex()),
			Bold:  boolPtr(true),
		},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix: " ",
				Suffix: " ",
				Color:  stringPtr(charmtone.Coral.Hex()),
			},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{
					Color: stringPtr(charmtone.Charcoal.Hex()),
				},
				Margin: uintPtr(2),
			},
		},
		Item: ansi.StylePrimitive{
			BlockPrefix: "• ",
		},
		Enumeration: ansi.StylePrimitive{
			BlockPrefix: ". ",
		},
		HorizontalRule: ansi.StylePrimitive{
			Color:  stringPtr(charmtone.Charcoal.Hex()),
			Format: "\n--------\n",
		},
	}

	s.Header.Title = lipgloss.NewStyle().Foreground(white).Background(primary).Bold(true).Padding(0, 1)
	s.Header.Info = s.Subtle.PaddingLeft(1)

	s.List.NormalItem = base.PaddingLeft(1)
	s.List.SelectedItem = base.Foreground(white).Background(bgBaseLighter).PaddingLeft(1)
	s.List.Dir = base.Foreground(info).Bold(true)
	s.List.Meta = s.Subtle
	s.List.MetaSelected = lipgloss.NewStyle().Foreground(fgHalfMuted).Background(bgBaseLighter)
	s.List.Empty = s.Muted.Italic(true).PaddingLeft(1)

	s.Pages.Label = s.Subtle
	s.Pages.LabelCurrent = lipgloss.NewStyle().Foreground(tertiary).Bold(true)
	s.Pages.Loading = s.Muted.Italic(true)
	s.Pages.Error = lipgloss.NewStyle().Foreground(red)

	s.Filter.Prompt = lipgloss.NewStyle().Foreground(tertiary).SetString("/")
	s.Filter.Query = base
	s.Filter.Count = s.Subtle.PaddingLeft(1)

	s.Status.Info = s.TagInfo
	s.Status.Warn = s.TagBase.Background(warning).Foreground(bgBase)
	s.Status.Error = s.TagError

	return s
}

// Helper functions for style pointers
func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }
func uintPtr(u uint) *uint       { return &u }
