// Package intent defines DrawIntent, the typed description of one drawing
// operation, together with the validator that guards every intent before it
// reaches a CAD driver.
//
// DrawIntent is a closed tagged union: the concrete variants are the structs in
// this file and nothing outside the package can add one. An intent is only
// considered ready for a driver after Validate (or one of the New* constructors)
// returned it without error.
package intent

import (
	"fmt"
	"strings"

	"github.com/Porta048/AutoCad-MCP/internal/geometry"
)

// Kind names a drawing operation. The values double as the public tool names.
type Kind string

const (
	KindLine        Kind = "draw_line"
	KindCircle      Kind = "draw_circle"
	KindArc         Kind = "draw_arc"
	KindEllipse     Kind = "draw_ellipse"
	KindRectangle   Kind = "draw_rectangle"
	KindPolyline    Kind = "draw_polyline"
	KindText        Kind = "draw_text"
	KindHatch       Kind = "draw_hatch"
	KindDimension   Kind = "add_dimension"
	KindSaveDrawing Kind = "save_drawing"
)

// Kinds returns every kind in tool-table order.
func Kinds() []Kind {
	return []Kind{
		KindLine, KindCircle, KindArc, KindEllipse, KindRectangle,
		KindPolyline, KindText, KindHatch, KindDimension, KindSaveDrawing,
	}
}

// ParseKind resolves a tool name into a Kind.
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// Defaults applied when a client omits the optional parameter.
const (
	DefaultTextHeight   = 2.5
	DefaultHatchPattern = "SOLID"
	DefaultHatchScale   = 1.0
	// DimensionTextLift is how far above the midpoint a dimension label is
	// placed when no explicit text position is given.
	DimensionTextLift = 10.0
)

// Style carries the optional appearance overrides shared by drawing intents.
// A nil Color means "no override": the driver keeps the layer colour.
type Style struct {
	Color      *geometry.ColorCode `json:"color,omitempty"`
	Layer      string              `json:"layer,omitempty"`
	Lineweight *int                `json:"lineweight,omitempty"`
}

// Appearance returns the style. It is promoted into every intent that embeds Style.
func (s Style) Appearance() Style { return s }

// WithColor returns a copy of s with the colour override set.
func (s Style) WithColor(c geometry.ColorCode) Style {
	s.Color = &c
	return s
}

// DrawIntent is implemented by every intent variant.
type DrawIntent interface {
	Kind() Kind
	Appearance() Style
	validate() (DrawIntent, error)
}

type Line struct {
	Start geometry.Point2D `json:"start"`
	End   geometry.Point2D `json:"end"`
	Style
}

type Circle struct {
	Center geometry.Point2D `json:"center"`
	Radius float64          `json:"radius"`
	Style
}

// Arc angles are in degrees, counter-clockwise from the positive X axis.
type Arc struct {
	Center     geometry.Point2D `json:"center"`
	Radius     float64          `json:"radius"`
	StartAngle float64          `json:"start_angle"`
	EndAngle   float64          `json:"end_angle"`
	Style
}

// Ellipse axes are semi-axis lengths measured from the centre.
type Ellipse struct {
	Center    geometry.Point2D `json:"center"`
	MajorAxis float64          `json:"major_axis"`
	MinorAxis float64          `json:"minor_axis"`
	Rotation  float64          `json:"rotation"`
	Style
}

type Rectangle struct {
	Corner1 geometry.Point2D `json:"corner1"`
	Corner2 geometry.Point2D `json:"corner2"`
	Style
}

type Polyline struct {
	Points []geometry.Point2D `json:"points"`
	Closed bool               `json:"closed"`
	Style
}

type Text struct {
	Position geometry.Point2D `json:"position"`
	Content  string           `json:"text"`
	Height   float64          `json:"height"`
	Rotation float64          `json:"rotation"`
	Style
}

type Hatch struct {
	Boundary []geometry.Point2D `json:"boundary_points"`
	Pattern  string             `json:"pattern_name"`
	Scale    float64            `json:"pattern_scale"`
	Style
}

type Dimension struct {
	Start        geometry.Point2D `json:"start"`
	End          geometry.Point2D `json:"end"`
	TextPosition geometry.Point2D `json:"text_position"`
	Style
}

// SaveDrawing has no style; the embedded zero Style only satisfies the interface.
type SaveDrawing struct {
	Path string `json:"file_path"`
	Style
}

func (Line) Kind() Kind        { return KindLine }
func (Circle) Kind() Kind      { return KindCircle }
func (Arc) Kind() Kind         { return KindArc }
func (Ellipse) Kind() Kind     { return KindEllipse }
func (Rectangle) Kind() Kind   { return KindRectangle }
func (Polyline) Kind() Kind    { return KindPolyline }
func (Text) Kind() Kind        { return KindText }
func (Hatch) Kind() Kind       { return KindHatch }
func (Dimension) Kind() Kind   { return KindDimension }
func (SaveDrawing) Kind() Kind { return KindSaveDrawing }

// DefaultTextPosition places a dimension label above the midpoint of its
// reference points.
func DefaultTextPosition(start, end geometry.Point2D) geometry.Point2D {
	return start.Midpoint(end).Offset(0, DimensionTextLift)
}

// Summary renders a short human readable description, used for journals and logs.
func Summary(in DrawIntent) string {
	switch v := in.(type) {
	case Line:
		return fmt.Sprintf("draw_line(%s -> %s)", v.Start, v.End)
	case Circle:
		return fmt.Sprintf("draw_circle(%s, r=%s)", v.Center, geometry.FormatFloat(v.Radius))
	case Arc:
		return fmt.Sprintf("draw_arc(%s, r=%s, %s..%s)", v.Center, geometry.FormatFloat(v.Radius),
			geometry.FormatFloat(v.StartAngle), geometry.FormatFloat(v.EndAngle))
	case Ellipse:
		return fmt.Sprintf("draw_ellipse(%s, %s/%s)", v.Center,
			geometry.FormatFloat(v.MajorAxis), geometry.FormatFloat(v.MinorAxis))
	case Rectangle:
		return fmt.Sprintf("draw_rectangle(%s, %s)", v.Corner1, v.Corner2)
	case Polyline:
		return fmt.Sprintf("draw_polyline(%d points, closed=%t)", len(v.Points), v.Closed)
	case Text:
		return fmt.Sprintf("draw_text(%q at %s)", v.Content, v.Position)
	case Hatch:
		return fmt.Sprintf("draw_hatch(%s, %d points)", v.Pattern, len(v.Boundary))
	case Dimension:
		return fmt.Sprintf("add_dimension(%s -> %s)", v.Start, v.End)
	case SaveDrawing:
		return fmt.Sprintf("save_drawing(%q)", v.Path)
	case nil:
		return "<nil>"
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", in))
	}
}
