// Package pages implements the zoomable document page viewer.
package pages

import (
	"context"
	"fmt"
	"image"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/crawlview/internal/archive"
	"github.com/charmbracelet/crawlview/internal/ui/styles"
)

// Source provides the pages of a document.
type Source interface {
	// Len returns the number of pages.
	Len() int
	// Title returns a human readable name for the document.
	Title() string
	// BaseExtent returns the height of a page's content, in rows, at zoom 1.
	BaseExtent() float64
	// Load materializes the page at index for a content frame of size
	// cells. It must return promptly once ctx is done.
	Load(ctx context.Context, index int, size image.Point) (Content, error)
}

// Reflower is implemented by sources whose page count depends on the
// surface width.
type Reflower interface {
	Reflow(width int)
}

// Content is a loaded page.
type Content interface {
	// Render returns the page content. It has at most as many lines as the
	// frame it was loaded for.
	Render() string
	// Init returns a command to run once the page is shown, or nil.
	Init() tea.Cmd
	// Release returns a command that frees terminal resources held by the
	// page, or nil.
	Release() tea.Cmd
}

// SourceOptions configures [Open].
type SourceOptions struct {
	BaseExtent float64
	ImageSourceOptions
}

// Open builds the [Source] for a page-image directory or a text document.
func Open(path string, t *styles.Styles, opts SourceOptions) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	if info.IsDir() {
		return NewImageSource(path, opts.BaseExtent, opts.ImageSourceOptions)
	}
	switch archive.KindOf(path) {
	case archive.KindImage:
		return NewImageFileSource(path, opts.BaseExtent, opts.ImageSourceOptions)
	case archive.KindMarkdown, archive.KindHTML, archive.KindText:
		return NewTextSource(path, t, opts.BaseExtent)
	}
	return nil, fmt.Errorf("unsupported document %q", path)
}
