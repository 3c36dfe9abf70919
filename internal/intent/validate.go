package intent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Porta048/AutoCad-MCP/internal/geometry"
)

// ValidationError reports the first constraint an intent violated.
type ValidationError struct {
	Field      string
	Constraint string
	Value      any
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Constraint
}

// ErrNilIntent is returned by Validate when called without an intent.
var ErrNilIntent = errors.New("intent is required")

// layerForbidden lists the characters CAD hosts refuse in layer names.
const layerForbidden = "<>/\\\":;?*|,=`"

func invalid(field, constraint string, value any) error {
	return &ValidationError{Field: field, Constraint: constraint, Value: value}
}

// Validate checks every parameter of in and returns the normalised intent:
// angles in [0, 360), pattern names upper-cased, colours outside the palette
// dropped. Validating an already validated intent returns it unchanged.
func Validate(in DrawIntent) (DrawIntent, error) {
	if in == nil {
		return nil, ErrNilIntent
	}
	return in.validate()
}

// build validates a concrete intent and keeps its static type.
func build[T DrawIntent](in T) (T, error) {
	out, err := in.validate()
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

func NewLine(start, end geometry.Point2D, style Style) (Line, error) {
	return build(Line{Start: start, End: end, Style: style})
}

func NewCircle(center geometry.Point2D, radius float64, style Style) (Circle, error) {
	return build(Circle{Center: center, Radius: radius, Style: style})
}

func NewArc(center geometry.Point2D, radius, startAngle, endAngle float64, style Style) (Arc, error) {
	return build(Arc{Center: center, Radius: radius, StartAngle: startAngle, EndAngle: endAngle, Style: style})
}

func NewEllipse(center geometry.Point2D, major, minor, rotation float64, style Style) (Ellipse, error) {
	return build(Ellipse{Center: center, MajorAxis: major, MinorAxis: minor, Rotation: rotation, Style: style})
}

func NewRectangle(corner1, corner2 geometry.Point2D, style Style) (Rectangle, error) {
	return build(Rectangle{Corner1: corner1, Corner2: corner2, Style: style})
}

func NewPolyline(points []geometry.Point2D, closed bool, style Style) (Polyline, error) {
	return build(Polyline{Points: points, Closed: closed, Style: style})
}

func NewText(position geometry.Point2D, content string, height, rotation float64, style Style) (Text, error) {
	return build(Text{Position: position, Content: content, Height: height, Rotation: rotation, Style: style})
}

func NewHatch(boundary []geometry.Point2D, pattern string, scale float64, style Style) (Hatch, error) {
	return build(Hatch{Boundary: boundary, Pattern: pattern, Scale: scale, Style: style})
}

func NewDimension(start, end, textPosition geometry.Point2D, style Style) (Dimension, error) {
	return build(Dimension{Start: start, End: end, TextPosition: textPosition, Style: style})
}

func NewSaveDrawing(path string) (SaveDrawing, error) {
	return build(SaveDrawing{Path: path})
}

func (s Style) normalize() (Style, error) {
	out := Style{Layer: strings.TrimSpace(s.Layer)}
	if s.Color != nil && s.Color.Valid() {
		c := *s.Color
		out.Color = &c
	}
	if s.Lineweight != nil {
		if !geometry.ValidLineweight(*s.Lineweight) {
			return Style{}, invalid("lineweight", "must be a standard lineweight", *s.Lineweight)
		}
		lw := *s.Lineweight
		out.Lineweight = &lw
	}
	if strings.ContainsAny(out.Layer, layerForbidden) {
		return Style{}, invalid("layer", "contains a forbidden character", out.Layer)
	}
	return out, nil
}

func checkPoint(field string, p geometry.Point2D) error {
	if !p.IsFinite() {
		return invalid(field, "must be finite", p)
	}
	return nil
}

func checkPositive(field string, v float64) error {
	if !geometry.IsFinite(v) {
		return invalid(field, "must be finite", v)
	}
	if v <= 0 {
		return invalid(field, "must be > 0", v)
	}
	return nil
}

func checkAngle(field string, v float64) (float64, error) {
	if !geometry.IsFinite(v) {
		return 0, invalid(field, "must be finite", v)
	}
	return geometry.NormalizeAngle(v), nil
}

func checkPoints(field string, pts []geometry.Point2D, min int) ([]geometry.Point2D, error) {
	if len(pts) < min {
		return nil, invalid(field, fmt.Sprintf("must contain at least %d points", min), len(pts))
	}
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		if err := checkPoint(fmt.Sprintf("%s[%d]", field, i), p); err != nil {
			return nil, err
		}
		out[i] = p
	}
	for _, p := range out[1:] {
		if !p.Equal(out[0]) {
			return out, nil
		}
	}
	return nil, invalid(field, "must not all coincide", len(pts))
}

func (l Line) validate() (DrawIntent, error) {
	if err := checkPoint("start", l.Start); err != nil {
		return nil, err
	}
	if err := checkPoint("end", l.End); err != nil {
		return nil, err
	}
	if l.Start.Equal(l.End) {
		return nil, invalid("end", "must differ from start", l.End)
	}
	style, err := l.Style.normalize()
	if err != nil {
		return nil, err
	}
	l.Style = style
	return l, nil
}

func (c Circle) validate() (DrawIntent, error) {
	if err := checkPoint("center", c.Center); err != nil {
		return nil, err
	}
	if err := checkPositive("radius", c.Radius); err != nil {
		return nil, err
	}
	style, err := c.Style.normalize()
	if err != nil {
		return nil, err
	}
	c.Style = style
	return c, nil
}

func (a Arc) validate() (DrawIntent, error) {
	if err := checkPoint("center", a.Center); err != nil {
		return nil, err
	}
	if err := checkPositive("radius", a.Radius); err != nil {
		return nil, err
	}
	var err error
	if a.StartAngle, err = checkAngle("start_angle", a.StartAngle); err != nil {
		return nil, err
	}
	if a.EndAngle, err = checkAngle("end_angle", a.EndAngle); err != nil {
		return nil, err
	}
	if a.StartAngle == a.EndAngle {
		return nil, invalid("end_angle", "must differ from start_angle", a.EndAngle)
	}
	if a.Style, err = a.Style.normalize(); err != nil {
		return nil, err
	}
	return a, nil
}

func (e Ellipse) validate() (DrawIntent, error) {
	if err := checkPoint("center", e.Center); err != nil {
		return nil, err
	}
	if err := checkPositive("major_axis", e.MajorAxis); err != nil {
		return nil, err
	}
	if err := checkPositive("minor_axis", e.MinorAxis); err != nil {
		return nil, err
	}
	if !geometry.IsFinite(e.Rotation) {
		return nil, invalid("rotation", "must be finite", e.Rotation)
	}
	// Same curve with the axes swapped and a quarter turn.
	if e.MinorAxis > e.MajorAxis {
		e.MajorAxis, e.MinorAxis = e.MinorAxis, e.MajorAxis
		e.Rotation += 90
	}
	e.Rotation = geometry.NormalizeAngle(e.Rotation)
	style, err := e.Style.normalize()
	if err != nil {
		return nil, err
	}
	e.Style = style
	return e, nil
}

func (r Rectangle) validate() (DrawIntent, error) {
	if err := checkPoint("corner1", r.Corner1); err != nil {
		return nil, err
	}
	if err := checkPoint("corner2", r.Corner2); err != nil {
		return nil, err
	}
	if r.Corner1.X == r.Corner2.X || r.Corner1.Y == r.Corner2.Y {
		return nil, invalid("corner2", "must span a non-zero width and height", r.Corner2)
	}
	style, err := r.Style.normalize()
	if err != nil {
		return nil, err
	}
	r.Style = style
	return r, nil
}

func (p Polyline) validate() (DrawIntent, error) {
	pts, err := checkPoints("points", p.Points, 2)
	if err != nil {
		return nil, err
	}
	p.Points = pts
	if p.Style, err = p.Style.normalize(); err != nil {
		return nil, err
	}
	return p, nil
}

func (t Text) validate() (DrawIntent, error) {
	if err := checkPoint("position", t.Position); err != nil {
		return nil, err
	}
	if strings.TrimSpace(t.Content) == "" {
		return nil, invalid("text", "must not be empty", t.Content)
	}
	if err := checkPositive("height", t.Height); err != nil {
		return nil, err
	}
	var err error
	if t.Rotation, err = checkAngle("rotation", t.Rotation); err != nil {
		return nil, err
	}
	if t.Style, err = t.Style.normalize(); err != nil {
		return nil, err
	}
	return t, nil
}

func (h Hatch) validate() (DrawIntent, error) {
	pts, err := checkPoints("boundary_points", h.Boundary, 3)
	if err != nil {
		return nil, err
	}
	h.Boundary = pts
	h.Pattern = strings.ToUpper(strings.TrimSpace(h.Pattern))
	if h.Pattern == "" {
		return nil, invalid("pattern_name", "must not be empty", h.Pattern)
	}
	if strings.ContainsAny(h.Pattern, " \t\n") {
		return nil, invalid("pattern_name", "must be a single word", h.Pattern)
	}
	if err := checkPositive("pattern_scale", h.Scale); err != nil {
		return nil, err
	}
	if h.Style, err = h.Style.normalize(); err != nil {
		return nil, err
	}
	return h, nil
}

func (d Dimension) validate() (DrawIntent, error) {
	if err := checkPoint("start", d.Start); err != nil {
		return nil, err
	}
	if err := checkPoint("end", d.End); err != nil {
		return nil, err
	}
	if err := checkPoint("text_position", d.TextPosition); err != nil {
		return nil, err
	}
	if d.Start.Equal(d.End) {
		return nil, invalid("end", "must differ from start", d.End)
	}
	style, err := d.Style.normalize()
	if err != nil {
		return nil, err
	}
	d.Style = style
	return d, nil
}

func (s SaveDrawing) validate() (DrawIntent, error) {
	s.Path = strings.TrimSpace(s.Path)
	if s.Path == "" {
		return nil, invalid("file_path", "must not be empty", s.Path)
	}
	s.Style = Style{}
	return s, nil
}
