package pages

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tea "charm.land/bubbletea/v2"
	"charm.land/glamour/v2"
	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/crawlview/internal/archive"
	"github.com/charmbracelet/crawlview/internal/ui/common"
	"github.com/charmbracelet/crawlview/internal/ui/styles"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/net/html/charset"
)

// codeStyle is the chroma style used for source files.
const codeStyle = "monokai"

// TextSource serves a text document split into pages of BaseExtent lines.
// Markdown and HTML are rendered with glamour at the surface width.
type TextSource struct {
	path  string
	title string
	kind  archive.EntryKind
	base  int
	t     *styles.Styles

	// markdown holds the document as markdown for markdown and HTML
	// documents, and the raw text otherwise.
	markdown string

	mu    sync.RWMutex
	width int
	lines []string
}

var (
	_ Source   = (*TextSource)(nil)
	_ Reflower = (*TextSource)(nil)
)

// NewTextSource reads the document at path. A nil t renders markdown without
// colors.
func NewTextSource(path string, t *styles.Styles, base float64) (*TextSource, error) {
	if base < 1 || math.IsInf(base, 0) || math.IsNaN(base) {
		return nil, fmt.Errorf("invalid page extent %v", base)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	s := &TextSource{
		path:  path,
		title: filepath.Base(path),
		kind:  archive.KindOf(path),
		base:  int(math.Floor(base)),
		t:     t,
	}
	switch s.kind {
	case archive.KindHTML:
		if err := s.readHTML(f); err != nil {
			return nil, err
		}
	default:
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		s.markdown = strings.ReplaceAll(string(data), "\r\n", "\n")
	}
	return s, nil
}

func (s *TextSource) readHTML(r io.Reader) error {
	utf8, err := charset.NewReader(r, "text/html")
	if err != nil {
		return fmt.Errorf("failed to detect document charset: %w", err)
	}
	data, err := io.ReadAll(utf8)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse html: %w", err)
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		s.title = title
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(string(data))
	if err != nil {
		return fmt.Errorf("failed to convert html: %w", err)
	}
	s.markdown = markdown
	return nil
}

// Title implements [Source].
func (s *TextSource) Title() string {
	return s.title
}

// BaseExtent implements [Source].
func (s *TextSource) BaseExtent() float64 {
	return float64(s.base)
}

// Len implements [Source]. A document always has at least one page.
func (s *TextSource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return max(1, (len(s.lines)+s.base-1)/s.base)
}

// Reflow implements [Reflower]. It renders the document for width.
func (s *TextSource) Reflow(width int) {
	if width <= 0 {
		return
	}
	s.mu.RLock()
	same := width == s.width && s.lines != nil
	s.mu.RUnlock()
	if same {
		return
	}

	lines := s.render(width)
	s.mu.Lock()
	s.width = width
	s.lines = lines
	s.mu.Unlock()
}

func (s *TextSource) render(width int) []string {
	var out string
	switch s.kind {
	case archive.KindMarkdown, archive.KindHTML:
		out = s.renderMarkdown(width)
	default:
		out = s.renderText()
	}
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return []string{}
	}
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if ansi.StringWidth(line) > width {
			lines[i] = ansi.Truncate(line, width, "…")
		}
	}
	return lines
}

func (s *TextSource) renderMarkdown(width int) string {
	var (
		r   *glamour.TermRenderer
		err error
	)
	if s.t != nil {
		r, err = common.MarkdownRenderer(s.t, width)
	} else {
		r, err = common.PlainMarkdownRenderer(width)
	}
	if err == nil {
		var out string
		if out, err = r.Render(s.markdown); err == nil {
			return out
		}
	}
	slog.Warn("Failed to render markdown, showing source", "path", s.path, "error", err)
	return s.markdown
}

func (s *TextSource) renderText() string {
	if s.t == nil || filepath.Ext(s.path) == ".txt" || lexers.Match(s.title) == nil {
		return s.markdown
	}
	var buf bytes.Buffer
	lexer := lexers.Match(s.title).Config().Name
	if err := quick.Highlight(&buf, s.markdown, lexer, "terminal256", codeStyle); err != nil {
		slog.Debug("Failed to highlight document", "path", s.path, "error", err)
		return s.markdown
	}
	return buf.String()
}

// Load implements [Source]. The page's lines are cropped or padded to the
// frame height.
func (s *TextSource) Load(ctx context.Context, index int, size image.Point) (Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	lines := s.lines
	width := s.width
	s.mu.RUnlock()

	if lines == nil || (size.X > 0 && size.X != width) {
		lines = s.render(max(1, size.X))
	}

	start := index * s.base
	if index < 0 || (start >= len(lines) && index > 0) {
		return nil, fmt.Errorf("page %d out of range", index)
	}
	end := min(len(lines), start+s.base)
	page := make([]string, 0, max(0, size.Y))
	if start < end {
		page = append(page, lines[start:end]...)
	}
	if len(page) > size.Y {
		page = page[:max(0, size.Y)]
	}
	for len(page) < size.Y {
		page = append(page, "")
	}
	return textContent(page), nil
}

type textContent []string

func (c textContent) Render() string   { return strings.Join(c, "\n") }
func (c textContent) Init() tea.Cmd    { return nil }
func (c textContent) Release() tea.Cmd { return nil }
