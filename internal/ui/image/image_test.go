package image

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDetectCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		environ []string
		kitty   bool
	}{
		{"empty", nil, false},
		{"xterm", []string{"TERM=xterm-256color"}, false},
		{"kitty term", []string{"TERM=xterm-kitty"}, true},
		{"kitty window", []string{"KITTY_WINDOW_ID=1"}, true},
		{"wezterm", []string{"TERM_PROGRAM=WezTerm"}, true},
		{"ghostty", []string{"TERM_PROGRAM=ghostty"}, true},
		{"apple", []string{"TERM_PROGRAM=Apple_Terminal"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.kitty, DetectCapabilities(tt.environ).SupportsKittyGraphics)
		})
	}
}

func TestParseEncoding(t *testing.T) {
	t.Parallel()

	enc, err := ParseEncoding("auto", Capabilities{})
	require.NoError(t, err)
	require.Equal(t, EncodingBlocks, enc)

	enc, err = ParseEncoding("auto", Capabilities{SupportsKittyGraphics: true})
	require.NoError(t, err)
	require.Equal(t, EncodingKitty, enc)

	enc, err = ParseEncoding("kitty", Capabilities{})
	require.NoError(t, err)
	require.Equal(t, EncodingKitty, enc)
	require.Equal(t, "kitty", enc.String())

	_, err = ParseEncoding("sixel", Capabilities{})
	require.Error(t, err)
}

func TestImageID(t *testing.T) {
	t.Parallel()

	a := New("doc/page-1", nil, 1, 1)
	b := New("doc/page-1", nil, 1, 1)
	c := New("doc/page-2", nil, 1, 1)
	require.Equal(t, a.ID(), b.ID())
	require.NotEqual(t, a.ID(), c.ID())
	require.NotZero(t, a.ID())
	require.LessOrEqual(t, a.ID(), 0xffffffff)
}

func TestRenderBlocks(t *testing.T) {
	t.Parallel()

	img := New("red", solid(8, 8, color.RGBA{R: 255, A: 255}), 6, 3)
	out := img.Render()

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		require.Equal(t, 6, ansi.StringWidth(line))
	}
	require.Contains(t, out, "▀")
	require.Equal(t, out, img.Render(), "render is cached")
}

func TestRenderBlocksTransparent(t *testing.T) {
	t.Parallel()

	img := New("clear", solid(4, 4, color.Transparent), 4, 2)
	out := ansi.Strip(img.Render())
	require.Equal(t, "    \n    ", out)
}

func TestRenderEmpty(t *testing.T) {
	t.Parallel()

	require.Empty(t, New("nil", nil, 4, 4).Render())
	require.Empty(t, New("zero", solid(2, 2, color.White), 0, 4).Render())
}

func TestRenderPlaceholders(t *testing.T) {
	t.Parallel()

	img := New("kitty", solid(4, 4, color.White), 5, 2)
	img.SetEncoding(EncodingKitty)
	out := img.Render()

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	require.NotNil(t, img.Transmit())
	require.NotNil(t, img.Delete())
}

func TestBlocksHaveNoTerminalCommands(t *testing.T) {
	t.Parallel()

	img := New("blocks", solid(2, 2, color.White), 2, 1)
	require.Nil(t, img.Transmit())
	require.Nil(t, img.Delete())
}
