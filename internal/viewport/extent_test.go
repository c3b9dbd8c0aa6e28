package viewport

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEffectiveItemExtent(t *testing.T) {
	t.Parallel()

	extent, err := EffectiveItemExtent(1100, 1.5, 0)
	require.NoError(t, err)
	require.Equal(t, 1650.0, extent)
	require.Equal(t, 3300.0, Position(2, extent))

	// Chrome is added after scaling.
	extent, err = EffectiveItemExtent(40, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 82.0, extent)
}

func TestEffectiveItemExtent_Errors(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name               string
		base, zoom, chrome float64
		want               error
	}{
		{"zero zoom", 1100, 0, 0, ErrInvalidZoom},
		{"negative zoom", 1100, -1, 0, ErrInvalidZoom},
		{"NaN zoom", 1100, math.NaN(), 0, ErrInvalidZoom},
		{"infinite zoom", 1100, math.Inf(1), 0, ErrInvalidZoom},
		{"zero base", 0, 1, 0, ErrInvalidGeometry},
		{"negative chrome", 10, 1, -1, ErrInvalidGeometry},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := EffectiveItemExtent(tt.base, tt.zoom, tt.chrome)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestScaledExtent(t *testing.T) {
	t.Parallel()

	s := ScaledExtent{Base: 10, Zoom: 1, Chrome: 2}
	v, err := s.Extent()
	require.NoError(t, err)
	require.Equal(t, 12.0, v)

	v, err = s.WithZoom(2.5).Extent()
	require.NoError(t, err)
	require.Equal(t, 27.0, v)

	content, err := s.WithZoom(2.5).Content()
	require.NoError(t, err)
	require.Equal(t, 25.0, content)

	// WithZoom does not mutate the receiver.
	require.Equal(t, 1.0, s.Zoom)

	_, err = s.WithZoom(0).Extent()
	require.ErrorIs(t, err, ErrInvalidZoom)
}

func TestFixedExtent(t *testing.T) {
	t.Parallel()

	v, err := FixedExtent(3).Extent()
	require.NoError(t, err)
	require.Equal(t, 3.0, v)

	_, err = FixedExtent(0).Extent()
	require.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestLayout_PlacementMatchesRange(t *testing.T) {
	t.Parallel()

	l, err := NewLayout(Geometry{
		Count:     50,
		Container: 2000,
		Extent:    ScaledExtent{Base: 1100, Zoom: 1.5},
		Buffer:    DefaultBuffer(),
	})
	require.NoError(t, err)
	require.Equal(t, 1650.0, l.ItemExtent())
	require.Equal(t, 50*1650.0, l.ContentExtent())
	require.Equal(t, 50*1650.0-2000, l.MaxOffset())

	r := l.Range(3300)
	require.Equal(t, VisibleRange{Start: 1, End: 5, Total: 50}, r)
	for i := range r.Indices() {
		require.Equal(t, float64(i)*1650, l.Position(i))
		require.Equal(t, i, l.IndexAt(l.Position(i)))
	}
}

func TestNewLayout_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewLayout(Geometry{Count: 1, Container: 10, Extent: ScaledExtent{Base: 1, Zoom: 0}})
	require.ErrorIs(t, err, ErrInvalidZoom)

	_, err = NewLayout(Geometry{Count: 1, Container: 0, Extent: FixedExtent(1)})
	require.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = NewLayout(Geometry{Count: 1, Container: 10})
	require.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestValidateZoom(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateZoom(0.25))
	require.ErrorIs(t, ValidateZoom(0), ErrInvalidZoom)
}
