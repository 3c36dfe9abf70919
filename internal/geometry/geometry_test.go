package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorRoundTrip(t *testing.T) {
	for v := 1; v <= 7; v++ {
		c, ok := ParseColorCode(v)
		require.True(t, ok, "code %d should be in the palette", v)
		assert.Equal(t, v, int(c))

		back, ok := ColorByName(c.Name())
		require.True(t, ok)
		assert.Equal(t, c, back)
	}
}

func TestColorPaletteNames(t *testing.T) {
	want := map[ColorCode]string{
		1: "Red", 2: "Yellow", 3: "Green", 4: "Cyan", 5: "Blue", 6: "Magenta", 7: "White",
	}
	for code, name := range want {
		assert.Equal(t, name, code.Name())
	}
}

func TestColorOutsidePalette(t *testing.T) {
	for _, v := range []int{-1, 0, 8, 30, 250, 256} {
		_, ok := ParseColorCode(v)
		assert.False(t, ok, "code %d must not decode", v)
		assert.Empty(t, ColorCode(v).Name())
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{90, 90},
		{360, 0},
		{450, 90},
		{-90, 270},
		{-720, 0},
		{359.5, 359.5},
	}
	for _, tt := range tests {
		got := NormalizeAngle(tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, "NormalizeAngle(%v)", tt.in)
		assert.True(t, got >= 0 && got < 360)
	}
}

func TestPointHelpers(t *testing.T) {
	p := Pt(0, 0)
	q := Pt(200, 100)

	assert.Equal(t, Pt(100, 50), p.Midpoint(q))
	assert.Equal(t, Pt(10, 20), p.Offset(10, 20))
	assert.True(t, p.Equal(Pt(0, 0)))
	assert.Equal(t, "200,100", q.String())
	assert.Equal(t, "1.5,-2", Pt(1.5, -2).String())

	east := p.Polar(10, 0)
	assert.InDelta(t, 10, east.X, 1e-9)
	assert.InDelta(t, 0, east.Y, 1e-9)

	assert.False(t, Pt(math.NaN(), 0).IsFinite())
	assert.False(t, Pt(0, math.Inf(1)).IsFinite())
}

func TestPointFromSlice(t *testing.T) {
	p, err := PointFromSlice([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, Pt(1, 2), p)

	_, err = PointFromSlice([]float64{1})
	assert.Error(t, err)
}

func TestValidLineweight(t *testing.T) {
	assert.True(t, ValidLineweight(0))
	assert.True(t, ValidLineweight(25))
	assert.True(t, ValidLineweight(211))
	assert.False(t, ValidLineweight(26))
	assert.False(t, ValidLineweight(-5))
}
