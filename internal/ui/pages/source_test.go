package pages

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestImageSource(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "scan-0042")
	require.NoError(t, os.Mkdir(dir, 0o755))
	for _, name := range []string{"page-10.png", "page-2.png", "page-1.png"} {
		writePNG(t, filepath.Join(dir, name), 16, 24, color.RGBA{G: 200, A: 255})
	}
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a page")

	src, err := NewImageSource(dir, 8, ImageSourceOptions{CacheSize: 2, Workers: 1})
	require.NoError(t, err)
	require.Equal(t, 3, src.Len())
	require.Equal(t, "scan-0042", src.Title())
	require.Equal(t, 8.0, src.BaseExtent())
	require.Equal(t, []string{"page-1.png", "page-2.png", "page-10.png"}, []string{
		filepath.Base(src.files[0]),
		filepath.Base(src.files[1]),
		filepath.Base(src.files[2]),
	})

	require.False(t, src.Cached(0))
	content, err := src.Load(t.Context(), 0, image.Pt(10, 8))
	require.NoError(t, err)
	require.True(t, src.Cached(0))

	lines := strings.Split(content.Render(), "\n")
	require.Len(t, lines, 8)
	for _, line := range lines {
		require.Equal(t, 10, ansi.StringWidth(line))
	}
	require.Nil(t, content.Init())
	require.Nil(t, content.Release())
}

func TestImageSourceCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for i := range 3 {
		writePNG(t, filepath.Join(dir, fmt.Sprintf("%d.png", i)), 4, 4, color.White)
	}
	src, err := NewImageSource(dir, 4, ImageSourceOptions{CacheSize: 2, Workers: 2})
	require.NoError(t, err)

	for i := range 3 {
		_, err := src.Load(t.Context(), i, image.Pt(4, 2))
		require.NoError(t, err)
	}
	// The oldest page was evicted.
	require.False(t, src.Cached(0))
	require.True(t, src.Cached(1))
	require.True(t, src.Cached(2))

	// A cached page is served even when the file is gone.
	require.NoError(t, os.Remove(src.files[2]))
	_, err = src.Load(t.Context(), 2, image.Pt(4, 2))
	require.NoError(t, err)
}

func TestImageSourceCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "1.png"), 4, 4, color.White)
	src, err := NewImageSource(dir, 4, ImageSourceOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = src.Load(ctx, 0, image.Pt(4, 2))
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, src.Cached(0))
}

func TestImageSourceErrors(t *testing.T) {
	t.Parallel()

	_, err := NewImageSource(t.TempDir(), 4, ImageSourceOptions{})
	require.ErrorIs(t, err, ErrNoPages)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.png"), "not a png")
	src, err := NewImageSource(dir, 4, ImageSourceOptions{})
	require.NoError(t, err)
	_, err = src.Load(t.Context(), 0, image.Pt(4, 2))
	require.ErrorContains(t, err, "failed to decode page 1")

	_, err = src.Load(t.Context(), 5, image.Pt(4, 2))
	require.Error(t, err)
}

func TestImageSourceSVG(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "diagram.svg")
	writeFile(t, path, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 20 10"><rect x="0" y="0" width="20" height="10" fill="#ff0000"/></svg>`)

	src, err := NewImageFileSource(path, 4, ImageSourceOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, src.Len())

	content, err := src.Load(t.Context(), 0, image.Pt(8, 4))
	require.NoError(t, err)
	require.Contains(t, content.Render(), "▀")
}

func TestTextSourcePages(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := range 25 {
		fmt.Fprintf(&b, "line %02d\n", i)
	}
	path := filepath.Join(t.TempDir(), "report.txt")
	writeFile(t, path, b.String())

	src, err := NewTextSource(path, nil, 10)
	require.NoError(t, err)
	require.Equal(t, "report.txt", src.Title())
	require.Equal(t, 1, src.Len())

	src.Reflow(40)
	require.Equal(t, 3, src.Len())

	content, err := src.Load(t.Context(), 2, image.Pt(40, 10))
	require.NoError(t, err)
	lines := strings.Split(content.Render(), "\n")
	require.Len(t, lines, 10)
	require.Equal(t, "line 20", lines[0])
	require.Equal(t, "line 24", lines[4])
	require.Equal(t, "", lines[5])

	// A frame smaller than the page crops it.
	content, err = src.Load(t.Context(), 1, image.Pt(40, 5))
	require.NoError(t, err)
	require.Equal(t, "line 10\nline 11\nline 12\nline 13\nline 14", content.Render())

	// A larger frame pads it.
	content, err = src.Load(t.Context(), 0, image.Pt(40, 15))
	require.NoError(t, err)
	lines = strings.Split(content.Render(), "\n")
	require.Len(t, lines, 15)
	require.Equal(t, "line 09", lines[9])
	require.Equal(t, "", lines[10])

	_, err = src.Load(t.Context(), 3, image.Pt(40, 10))
	require.Error(t, err)
}

func TestTextSourceTruncatesToWidth(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "wide.txt")
	writeFile(t, path, strings.Repeat("x", 50)+"\n")

	src, err := NewTextSource(path, nil, 5)
	require.NoError(t, err)
	src.Reflow(10)

	content, err := src.Load(t.Context(), 0, image.Pt(10, 1))
	require.NoError(t, err)
	require.Equal(t, 10, ansi.StringWidth(content.Render()))
}

func TestTextSourceHTML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.html")
	writeFile(t, path, `<html><head><title>Consumer Prices</title></head><body><h1>Overview</h1><p>Bread went up.</p></body></html>`)

	src, err := NewTextSource(path, nil, 20)
	require.NoError(t, err)
	require.Equal(t, "Consumer Prices", src.Title())

	src.Reflow(40)
	content, err := src.Load(t.Context(), 0, image.Pt(40, 20))
	require.NoError(t, err)
	out := ansi.Strip(content.Render())
	require.Contains(t, out, "Overview")
	require.Contains(t, out, "Bread went up.")
}

func TestTextSourceMarkdown(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "README.md")
	writeFile(t, path, "# Crawl\n\nSome *notes* about the crawl.\n")

	src, err := NewTextSource(path, nil, 10)
	require.NoError(t, err)
	src.Reflow(30)
	require.Equal(t, 1, src.Len())

	content, err := src.Load(t.Context(), 0, image.Pt(30, 10))
	require.NoError(t, err)
	out := ansi.Strip(content.Render())
	require.Contains(t, out, "Crawl")
	require.Contains(t, out, "notes")
}

func TestTextSourceInvalidExtent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.txt")
	writeFile(t, path, "a")
	_, err := NewTextSource(path, nil, 0)
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pagesDir := filepath.Join(dir, "pages")
	require.NoError(t, os.Mkdir(pagesDir, 0o755))
	writePNG(t, filepath.Join(pagesDir, "1.png"), 2, 2, color.White)
	writeFile(t, filepath.Join(dir, "notes.md"), "# Notes")
	writeFile(t, filepath.Join(dir, "blob.zzz"), "??")

	opts := SourceOptions{BaseExtent: 10, ImageSourceOptions: ImageSourceOptions{CacheSize: 4, Workers: 1}}

	src, err := Open(pagesDir, nil, opts)
	require.NoError(t, err)
	require.IsType(t, &ImageSource{}, src)

	src, err = Open(filepath.Join(dir, "notes.md"), nil, opts)
	require.NoError(t, err)
	require.IsType(t, &TextSource{}, src)

	_, err = Open(filepath.Join(dir, "blob.zzz"), nil, opts)
	require.Error(t, err)

	_, err = Open(filepath.Join(dir, "missing"), nil, opts)
	require.ErrorIs(t, err, os.ErrNotExist)
}
