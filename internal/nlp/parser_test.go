package nlp

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Porta048/AutoCad-MCP/internal/geometry"
	"github.com/Porta048/AutoCad-MCP/internal/intent"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New(Options{DefaultSavePath: "out/drawing.dwg"})
	require.NoError(t, err)
	return p
}

func requireParseError(t *testing.T, err error, reason Reason) *ParseError {
	t.Helper()
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected *ParseError, got %v", err)
	assert.Equal(t, reason, pe.Reason)
	return pe
}

func TestParseCircleWithColor(t *testing.T) {
	in, err := newParser(t).Parse("Draw a red circle at (100, 100) with radius 50")
	require.NoError(t, err)

	c, ok := in.(intent.Circle)
	require.True(t, ok, "got %T", in)
	assert.Equal(t, geometry.Pt(100, 100), c.Center)
	assert.Equal(t, 50.0, c.Radius)
	require.NotNil(t, c.Color)
	assert.Equal(t, geometry.Red, *c.Color)
}

func TestParseRectangleWithoutColor(t *testing.T) {
	in, err := newParser(t).Parse("Create a rectangle from (0, 0) to (200, 100)")
	require.NoError(t, err)

	r, ok := in.(intent.Rectangle)
	require.True(t, ok, "got %T", in)
	assert.Equal(t, geometry.Pt(0, 0), r.Corner1)
	assert.Equal(t, geometry.Pt(200, 100), r.Corner2)
	assert.Nil(t, r.Color)
}

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want intent.DrawIntent
	}{
		{
			name: "line",
			text: "draw a line from 0,0 to 100,50",
			want: intent.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(100, 50)},
		},
		{
			name: "arc positional angles",
			text: "draw an arc at (0, 0) radius 25 from 30 to 120",
			want: intent.Arc{Center: geometry.Pt(0, 0), Radius: 25, StartAngle: 30, EndAngle: 120},
		},
		{
			name: "arc labelled angles",
			text: "arc center 5,5 start angle 10 end angle 200 radius=3",
			want: intent.Arc{Center: geometry.Pt(5, 5), Radius: 3, StartAngle: 10, EndAngle: 200},
		},
		{
			name: "ellipse labelled axes",
			text: "ellipse at (10, 10) major axis 80 minor axis 40 rotation 15",
			want: intent.Ellipse{Center: geometry.Pt(10, 10), MajorAxis: 80, MinorAxis: 40, Rotation: 15},
		},
		{
			name: "ellipse default rotation",
			text: "ellipse 0 0 30 20",
			want: intent.Ellipse{Center: geometry.Pt(0, 0), MajorAxis: 30, MinorAxis: 20},
		},
		{
			name: "rectangle width height",
			text: "rectangle at (10, 10) width 100 height 50",
			want: intent.Rectangle{Corner1: geometry.Pt(10, 10), Corner2: geometry.Pt(110, 60)},
		},
		{
			name: "closed polyline",
			text: "closed polyline (0,0) (50,50) (100,0)",
			want: intent.Polyline{
				Points: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(50, 50), geometry.Pt(100, 0)},
				Closed: true,
			},
		},
		{
			name: "text with height",
			text: `add text "Hello World" at (10, 20) height 5`,
			want: intent.Text{Position: geometry.Pt(10, 20), Content: "Hello World", Height: 5},
		},
		{
			name: "text default height",
			text: "text 'Room 101' at 0,0",
			want: intent.Text{Position: geometry.Pt(0, 0), Content: "Room 101", Height: intent.DefaultTextHeight},
		},
		{
			name: "hatch with pattern",
			text: "hatch (0,0) (10,0) (10,10) (0,10) pattern ansi31 scale 2",
			want: intent.Hatch{
				Boundary: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 10), geometry.Pt(0, 10)},
				Pattern:  "ANSI31",
				Scale:    2,
			},
		},
		{
			name: "hatch defaults",
			text: "fill 0,0 5,0 5,5",
			want: intent.Hatch{
				Boundary: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(5, 0), geometry.Pt(5, 5)},
				Pattern:  intent.DefaultHatchPattern,
				Scale:    intent.DefaultHatchScale,
			},
		},
		{
			name: "dimension default text position",
			text: "add a dimension from (0,0) to (100,0)",
			want: intent.Dimension{Start: geometry.Pt(0, 0), End: geometry.Pt(100, 0), TextPosition: geometry.Pt(50, 10)},
		},
		{
			name: "dimension explicit text position",
			text: "dimension 0 0 100 0 50 -20",
			want: intent.Dimension{Start: geometry.Pt(0, 0), End: geometry.Pt(100, 0), TextPosition: geometry.Pt(50, -20)},
		},
	}
	p := newParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMultilingual(t *testing.T) {
	p := newParser(t)

	t.Run("italian line", func(t *testing.T) {
		got, err := p.Parse("disegna una linea blu da 0,0 a 10,10")
		require.NoError(t, err)
		l, ok := got.(intent.Line)
		require.True(t, ok)
		assert.Equal(t, geometry.Pt(10, 10), l.End)
		require.NotNil(t, l.Color)
		assert.Equal(t, geometry.Blue, *l.Color)
	})

	t.Run("italian circle", func(t *testing.T) {
		got, err := p.Parse("crea un cerchio in (5, 5) con raggio 12")
		require.NoError(t, err)
		assert.Equal(t, intent.Circle{Center: geometry.Pt(5, 5), Radius: 12}, got)
	})

	t.Run("chinese circle", func(t *testing.T) {
		got, err := p.Parse("画一个红色的圆，圆心(100,100)，半径50")
		require.NoError(t, err)
		c, ok := got.(intent.Circle)
		require.True(t, ok, "got %T", got)
		assert.Equal(t, geometry.Pt(100, 100), c.Center)
		assert.Equal(t, 50.0, c.Radius)
		require.NotNil(t, c.Color)
		assert.Equal(t, geometry.Red, *c.Color)
	})

	t.Run("chinese arc beats circle", func(t *testing.T) {
		got, err := p.Parse("画圆弧 (0,0) 半径10 起始角0 终止角90")
		require.NoError(t, err)
		assert.Equal(t, intent.Arc{Center: geometry.Pt(0, 0), Radius: 10, StartAngle: 0, EndAngle: 90}, got)
	})
}

func TestParseKeywordPrecedence(t *testing.T) {
	p := newParser(t)

	got, err := p.Parse("draw a polyline 0,0 10,10 20,0")
	require.NoError(t, err)
	assert.Equal(t, intent.KindPolyline, got.Kind())

	got, err = p.Parse("draw an ellipse 0 0 10 5")
	require.NoError(t, err)
	assert.Equal(t, intent.KindEllipse, got.Kind())

	// "arc" must not match inside "search".
	_, err = p.Parse("search 1 2 3")
	requireParseError(t, err, ReasonUnrecognizedShape)
}

func TestParseNumberForms(t *testing.T) {
	p := newParser(t)

	got, err := p.Parse("Draw a circle at (0, 0) with radius 1e3")
	require.NoError(t, err)
	assert.Equal(t, intent.Circle{Center: geometry.Pt(0, 0), Radius: 1000}, got)

	got, err = p.Parse("circle at 2.5E1, -1e-1 radius .5")
	require.NoError(t, err)
	assert.Equal(t, intent.Circle{Center: geometry.Pt(25, -0.1), Radius: 0.5}, got)
}

func TestParseRotatedText(t *testing.T) {
	p := newParser(t)

	got, err := p.Parse("Add text 'Hello' at 10,20 rotated 45")
	require.NoError(t, err)
	text, ok := got.(intent.Text)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, 45.0, text.Rotation)
	assert.Equal(t, intent.DefaultTextHeight, text.Height)

	got, err = p.Parse("scrivi testo 'Ciao' in 0,0 ruotato di 30")
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.(intent.Text).Rotation)
}

func TestParseChineseColorOnlyBeforeShape(t *testing.T) {
	p := newParser(t)

	got, err := p.Parse("画一个圆，圆心(0,0)，半径5，白色背景")
	require.NoError(t, err)
	assert.Nil(t, got.Appearance().Color)

	got, err = p.Parse("画一个红圆，圆心(0,0)，半径5")
	require.NoError(t, err)
	require.NotNil(t, got.Appearance().Color)
	assert.Equal(t, geometry.Red, *got.Appearance().Color)
}

func TestParseNonPaletteColorKeptRaw(t *testing.T) {
	got, err := newParser(t).Parse("draw an orange circle at 0,0 radius 5")
	require.NoError(t, err)
	c := got.(intent.Circle)
	require.NotNil(t, c.Color)
	assert.Equal(t, geometry.ColorCode(30), *c.Color)

	validated, err := intent.Validate(c)
	require.NoError(t, err)
	assert.Nil(t, validated.Appearance().Color)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		reason Reason
		slot   string
	}{
		{"no shape", "make something nice at 10, 10", ReasonUnrecognizedShape, ""},
		{"empty", "", ReasonUnrecognizedShape, ""},
		{"circle missing radius", "circle at (10, 10)", ReasonMissingParameter, "radius"},
		{"line missing end", "line from 0,0", ReasonMissingParameter, "end"},
		{"polyline odd coordinates", "polyline 0,0 10", ReasonMissingParameter, "points"},
		{"polyline one point", "polyline 0,0", ReasonMissingParameter, "points"},
		{"hatch two points", "hatch 0,0 1,1", ReasonMissingParameter, "boundary_points"},
		{"text without quotes", "text at 10,10", ReasonMissingParameter, "text"},
		{"rectangle width only", "rectangle width 10", ReasonMissingParameter, "height"},
		{"too many numbers", "circle at 1,2 radius 3 and 4", ReasonOutOfRange, ""},
		{"huge number", "line 0 0 1 9" + strings.Repeat("0", 400), ReasonOutOfRange, ""},
		{"huge exponent", "circle at 0,0 radius 1e999", ReasonOutOfRange, "radius"},
	}
	p := newParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.text)
			assert.Nil(t, got, "no partial intent on failure")
			pe := requireParseError(t, err, tt.reason)
			assert.Equal(t, tt.slot, pe.Slot)
			assert.Equal(t, tt.text, pe.Text)
		})
	}
}

func TestParseSave(t *testing.T) {
	p := newParser(t)

	got, err := p.Parse(`save the drawing as "plans/floor.dwg"`)
	require.NoError(t, err)
	assert.Equal(t, intent.SaveDrawing{Path: "plans/floor.dwg"}, got)

	got, err = p.Parse("salva il disegno come Progetto.DWG")
	require.NoError(t, err)
	assert.Equal(t, intent.SaveDrawing{Path: "Progetto.DWG"}, got)

	got, err = p.Parse("保存")
	require.NoError(t, err)
	assert.Equal(t, intent.SaveDrawing{Path: "out/drawing.dwg"}, got)
}

func TestParseCache(t *testing.T) {
	hits := 0
	p, err := New(Options{CacheSize: 8, OnCacheHit: func() { hits++ }})
	require.NoError(t, err)

	first, err := p.Parse("circle 0,0 radius 5")
	require.NoError(t, err)
	second, err := p.Parse("circle 0,0 radius 5")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, hits)

	_, err = p.Parse("nothing here")
	requireParseError(t, err, ReasonUnrecognizedShape)
	_, err = p.Parse("nothing here")
	requireParseError(t, err, ReasonUnrecognizedShape)
	assert.Equal(t, 2, hits)
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Reason: ReasonMissingParameter, Slot: "radius", Detail: "expected a value for radius"}
	assert.Equal(t, "missing_parameter (radius): expected a value for radius", err.Error())
}
