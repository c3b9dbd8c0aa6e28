package image

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/crawlview/internal/uiutil"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/ansi/kitty"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/zeebo/xxh3"
)

// Capabilities represents the capabilities of displaying images on the
// terminal.
type Capabilities struct {
	// SupportsKittyGraphics indicates whether the terminal supports the Kitty
	// graphics protocol.
	SupportsKittyGraphics bool
}

// DetectCapabilities guesses the terminal image capabilities from the
// environment.
func DetectCapabilities(environ []string) Capabilities {
	var caps Capabilities
	for _, kv := range environ {
		k, v, _ := strings.Cut(kv, "=")
		switch k {
		case "KITTY_WINDOW_ID", "GHOSTTY_RESOURCES_DIR":
			caps.SupportsKittyGraphics = true
		case "TERM":
			if v == "xterm-kitty" || v == "xterm-ghostty" {
				caps.SupportsKittyGraphics = true
			}
		case "TERM_PROGRAM":
			if v == "WezTerm" || v == "ghostty" {
				caps.SupportsKittyGraphics = true
			}
		}
	}
	return caps
}

// Encoding represents the encoding format of the image.
type Encoding byte

// Image encodings.
const (
	EncodingBlocks Encoding = iota
	EncodingKitty
)

// ParseEncoding maps a configured encoding name to an [Encoding]. "auto"
// selects Kitty graphics when caps supports them.
func ParseEncoding(name string, caps Capabilities) (Encoding, error) {
	switch name {
	case "blocks":
		return EncodingBlocks, nil
	case "kitty":
		return EncodingKitty, nil
	case "", "auto":
		if caps.SupportsKittyGraphics {
			return EncodingKitty, nil
		}
		return EncodingBlocks, nil
	}
	return EncodingBlocks, fmt.Errorf("unknown image encoding %q", name)
}

func (e Encoding) String() string {
	if e == EncodingKitty {
		return "kitty"
	}
	return "blocks"
}

// Image represents an image that can be displayed on the terminal.
type Image struct {
	id         int
	img        image.Image
	cols, rows int // in terminal cells
	enc        Encoding
	bg         colorful.Color

	rendered string
}

// New creates a new [Image] instance with the given unique id, image, and
// dimensions in terminal cells.
func New(id string, img image.Image, cols, rows int) *Image {
	return &Image{
		id:   imageID(id),
		img:  img,
		cols: max(0, cols),
		rows: max(0, rows),
	}
}

// imageID maps a key to a non-zero 32 bit Kitty image id.
func imageID(key string) int {
	id := int(xxh3.HashString(key) & 0xffffffff)
	if id == 0 {
		id = 1
	}
	return id
}

// SetEncoding sets the encoding format for the image.
func (i *Image) SetEncoding(enc Encoding) {
	if i.enc != enc {
		i.rendered = ""
	}
	i.enc = enc
}

// Encoding returns the encoding format of the image.
func (i *Image) Encoding() Encoding {
	return i.enc
}

// SetBackground sets the color translucent pixels are blended with.
func (i *Image) SetBackground(c color.Color) {
	if bg, ok := colorful.MakeColor(c); ok {
		i.bg = bg
		i.rendered = ""
	}
}

// ID returns the Kitty image id.
func (i *Image) ID() int {
	return i.id
}

// Size returns the image size in terminal cells.
func (i *Image) Size() (cols, rows int) {
	return i.cols, i.rows
}

// Transmit returns a [tea.Cmd] that sends the image data to the terminal.
// This is needed for the [EncodingKitty] protocol so that the terminal can
// cache the image for later rendering.
//
// This should only happen once per image.
func (i *Image) Transmit() tea.Cmd {
	if i.enc != EncodingKitty || i.img == nil {
		return nil
	}

	var buf bytes.Buffer
	bounds := i.img.Bounds()
	imgWidth := bounds.Dx()
	imgHeight := bounds.Dy()

	// RGBA is 4 bytes per pixel
	imgSize := imgWidth * imgHeight * 4

	if err := kitty.EncodeGraphics(&buf, i.img, &kitty.Options{
		ID:               i.id,
		Action:           kitty.TransmitAndPut,
		Transmission:     kitty.Direct,
		Format:           kitty.RGBA,
		Size:             imgSize,
		Width:            imgWidth,
		Height:           imgHeight,
		Columns:          i.cols,
		Rows:             i.rows,
		VirtualPlacement: true,
		Quite:            2,
	}); err != nil {
		slog.Error("Failed to encode image for kitty graphics", "id", i.id, "error", err)
		return uiutil.ReportError(fmt.Errorf("failed to encode image"))
	}

	return tea.Raw(buf.String())
}

// Delete returns a [tea.Cmd] that frees the image data held by the terminal.
func (i *Image) Delete() tea.Cmd {
	if i.enc != EncodingKitty {
		return nil
	}
	return tea.Raw(ansi.KittyGraphics(nil, "a=d", "d=I", fmt.Sprintf("i=%d", i.id), "q=2"))
}

// Render renders the image to a string that can be displayed on the
// terminal. The result has exactly rows lines.
func (i *Image) Render() string {
	if i.rendered != "" {
		return i.rendered
	}
	if i.cols == 0 || i.rows == 0 || i.img == nil {
		return ""
	}

	switch i.enc {
	case EncodingBlocks:
		i.rendered = i.renderBlocks()
	case EncodingKitty:
		i.rendered = i.renderPlaceholders()
	}
	return i.rendered
}

// renderBlocks draws two pixel rows per cell with the upper half block,
// using the foreground for the top pixel and the background for the bottom
// one. The image is fitted and centered in the cell grid.
func (i *Image) renderBlocks() string {
	pw, ph := i.cols, i.rows*2
	fitted := imaging.Fit(i.img, pw, ph, imaging.Lanczos)
	canvas := imaging.New(pw, ph, color.Transparent)
	canvas = imaging.PasteCenter(canvas, fitted)

	var buf strings.Builder
	for y := 0; y < i.rows; y++ {
		for x := 0; x < i.cols; x++ {
			top, topOK := i.blend(canvas.At(x, 2*y))
			bottom, bottomOK := i.blend(canvas.At(x, 2*y+1))
			switch {
			case !topOK && !bottomOK:
				buf.WriteString(ansi.ResetStyle)
				buf.WriteByte(' ')
			case !bottomOK:
				buf.WriteString(ansi.ResetStyle)
				buf.WriteString(ansi.NewStyle().ForegroundColor(top).String())
				buf.WriteRune('▀')
			case !topOK:
				buf.WriteString(ansi.ResetStyle)
				buf.WriteString(ansi.NewStyle().ForegroundColor(bottom).String())
				buf.WriteRune('▄')
			default:
				buf.WriteString(ansi.NewStyle().ForegroundColor(top).BackgroundColor(bottom).String())
				buf.WriteRune('▀')
			}
		}
		buf.WriteString(ansi.ResetStyle)
		if y < i.rows-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// blend returns c composited over the background. It reports false for fully
// transparent pixels.
func (i *Image) blend(c color.Color) (color.Color, bool) {
	_, _, _, a := c.RGBA()
	if a == 0 {
		return nil, false
	}
	col, _ := colorful.MakeColor(c)
	if a < 0xffff {
		col = i.bg.BlendRgb(col, float64(a)/0xffff)
	}
	r, g, b := col.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, true
}

// renderPlaceholders builds Kitty graphics unicode placeholders.
func (i *Image) renderPlaceholders() string {
	var fg color.Color
	var extra int
	var r, g, b int
	extra, r, g, b = i.id>>24&0xff, i.id>>16&0xff, i.id>>8&0xff, i.id&0xff

	if r == 0 && g == 0 {
		fg = ansi.IndexedColor(b)
	} else {
		fg = color.RGBA{
			R: uint8(r), //nolint:gosec
			G: uint8(g), //nolint:gosec
			B: uint8(b), //nolint:gosec
			A: 0xff,
		}
	}

	fgStyle := ansi.NewStyle().ForegroundColor(fg).String()

	var buf bytes.Buffer
	for y := 0; y < i.rows; y++ {
		// As an optimization, we only write the fg color sequence id, and
		// column-row data once on the first cell. The terminal will handle
		// the rest.
		buf.WriteString(fgStyle)
		buf.WriteRune(kitty.Placeholder)
		buf.WriteRune(kitty.Diacritic(y))
		buf.WriteRune(kitty.Diacritic(0))
		if extra > 0 {
			buf.WriteRune(kitty.Diacritic(extra))
		}
		for x := 1; x < i.cols; x++ {
			buf.WriteString(fgStyle)
			buf.WriteRune(kitty.Placeholder)
		}
		buf.WriteString(ansi.ResetStyle)
		if y < i.rows-1 {
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}
