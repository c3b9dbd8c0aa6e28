package pages

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	// Register decoders for the page formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/crawlview/internal/archive"
	uiimage "github.com/charmbracelet/crawlview/internal/ui/image"
	"github.com/disintegration/imageorient"
	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/sync/semaphore"
)

// svgRasterSize is the length, in pixels, of the longer side of a rasterized
// SVG page.
const svgRasterSize = 1024

// Approximate size of a terminal cell in pixels. Kitty pages are scaled down
// to this before transmission.
const (
	cellWidth  = 10
	cellHeight = 20
)

// ErrNoPages is returned for a page directory without page images.
var ErrNoPages = errors.New("no page images found")

// ImageSourceOptions configures an [ImageSource].
type ImageSourceOptions struct {
	// CacheSize is the number of decoded pages to keep.
	CacheSize int
	// Workers bounds concurrent decodes.
	Workers int
	// Encoding is how pages are drawn on the terminal.
	Encoding uiimage.Encoding
	// Background is blended under translucent pixels.
	Background color.Color
}

// ImageSource serves pages from image files, one page per file.
type ImageSource struct {
	title string
	files []string
	base  float64
	opts  ImageSourceOptions

	cache *lru.Cache[int, image.Image]
	sem   *semaphore.Weighted
}

var _ Source = (*ImageSource)(nil)

// NewImageSource creates a source for the page images in dir.
func NewImageSource(dir string, base float64, opts ImageSourceOptions) (*ImageSource, error) {
	files, err := archive.PageFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoPages, dir)
	}
	return newImageSource(filepath.Base(dir), files, base, opts)
}

// NewImageFileSource creates a single page source for an image file.
func NewImageFileSource(path string, base float64, opts ImageSourceOptions) (*ImageSource, error) {
	return newImageSource(filepath.Base(path), []string{path}, base, opts)
}

func newImageSource(title string, files []string, base float64, opts ImageSourceOptions) (*ImageSource, error) {
	opts.CacheSize = max(1, opts.CacheSize)
	opts.Workers = max(1, opts.Workers)
	cache, err := lru.New[int, image.Image](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}
	return &ImageSource{
		title: title,
		files: files,
		base:  base,
		opts:  opts,
		cache: cache,
		sem:   semaphore.NewWeighted(int64(opts.Workers)),
	}, nil
}

// Len implements [Source].
func (s *ImageSource) Len() int {
	return len(s.files)
}

// Title implements [Source].
func (s *ImageSource) Title() string {
	return s.title
}

// BaseExtent implements [Source].
func (s *ImageSource) BaseExtent() float64 {
	return s.base
}

// Cached reports whether the page at index is decoded and cached.
func (s *ImageSource) Cached(index int) bool {
	return s.cache.Contains(index)
}

// Load implements [Source].
func (s *ImageSource) Load(ctx context.Context, index int, size image.Point) (Content, error) {
	if index < 0 || index >= len(s.files) {
		return nil, fmt.Errorf("page %d out of range", index)
	}
	img, err := s.decode(ctx, index)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.opts.Encoding == uiimage.EncodingKitty {
		img = imaging.Fit(img, size.X*cellWidth, size.Y*cellHeight, imaging.Lanczos)
	}
	key := fmt.Sprintf("%s#%d@%dx%d", s.files[index], index, size.X, size.Y)
	pic := uiimage.New(key, img, size.X, size.Y)
	pic.SetEncoding(s.opts.Encoding)
	if s.opts.Background != nil {
		pic.SetBackground(s.opts.Background)
	}
	// Render once here so the UI goroutine only reads the cached string.
	pic.Render()
	return imageContent{pic}, nil
}

func (s *ImageSource) decode(ctx context.Context, index int) (image.Image, error) {
	if img, ok := s.cache.Get(index); ok {
		return img, nil
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	// Another load may have decoded the page while we waited.
	if img, ok := s.cache.Get(index); ok {
		return img, nil
	}

	img, err := decodeFile(s.files[index])
	if err != nil {
		return nil, fmt.Errorf("failed to decode page %d: %w", index+1, err)
	}
	s.cache.Add(index, img)
	slog.Debug("Decoded page", "file", s.files[index], "bounds", img.Bounds().String())
	return img, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return rasterizeSVG(f)
	}
	img, _, err := imageorient.Decode(f)
	return img, err
}

func rasterizeSVG(f *os.File) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(f)
	if err != nil {
		return nil, err
	}
	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 {
		vw, vh = svgRasterSize, svgRasterSize
	}
	w, h := svgRasterSize, svgRasterSize
	if vw > vh {
		h = max(1, int(float64(svgRasterSize)*vh/vw))
	} else {
		w = max(1, int(float64(svgRasterSize)*vw/vh))
	}
	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.Draw(rasterx.NewDasher(w, h, rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())), 1)
	return rgba, nil
}

type imageContent struct {
	img *uiimage.Image
}

func (c imageContent) Render() string   { return c.img.Render() }
func (c imageContent) Init() tea.Cmd    { return c.img.Transmit() }
func (c imageContent) Release() tea.Cmd { return c.img.Delete() }
