// Package geometry holds the value types shared by every drawing operation:
// points in drawing units, the fixed colour palette, angle normalisation and
// the lineweight whitelist of the supported CAD hosts.
package geometry

import (
	"fmt"
	"math"
	"strconv"
)

// Point2D is an immutable coordinate pair in the units of the active document.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for building a Point2D.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Equal reports whether p and q are the same point.
func (p Point2D) Equal(q Point2D) bool {
	return p.X == q.X && p.Y == q.Y
}

// IsFinite reports whether both coordinates are real numbers.
func (p Point2D) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Offset returns p translated by (dx, dy).
func (p Point2D) Offset(dx, dy float64) Point2D {
	return Point2D{X: p.X + dx, Y: p.Y + dy}
}

// Midpoint returns the point halfway between p and q.
func (p Point2D) Midpoint(q Point2D) Point2D {
	return Point2D{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Polar returns the point at distance r from p along the given angle in degrees.
func (p Point2D) Polar(r, degrees float64) Point2D {
	rad := degrees * math.Pi / 180
	return Point2D{X: p.X + r*math.Cos(rad), Y: p.Y + r*math.Sin(rad)}
}

// String renders the point the way CAD command lines expect it: "x,y".
func (p Point2D) String() string {
	return FormatFloat(p.X) + "," + FormatFloat(p.Y)
}

// FormatFloat renders v with the shortest exact decimal representation.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return isFinite(v)
}

// NormalizeAngle maps an angle in degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	// math.Mod of a tiny negative value can round back up to 360.
	if a >= 360 {
		a = 0
	}
	return a
}

// validLineweights lists the lineweights accepted by AutoCAD-compatible hosts,
// in hundredths of a millimetre.
var validLineweights = map[int]struct{}{
	0: {}, 5: {}, 9: {}, 13: {}, 15: {}, 18: {}, 20: {}, 25: {}, 30: {}, 35: {},
	40: {}, 50: {}, 53: {}, 60: {}, 70: {}, 80: {}, 90: {}, 100: {}, 106: {},
	120: {}, 140: {}, 158: {}, 200: {}, 211: {},
}

// ValidLineweight reports whether lw is one of the host's lineweight values.
func ValidLineweight(lw int) bool {
	_, ok := validLineweights[lw]
	return ok
}

// PointFromSlice converts a JSON-style coordinate array ([x, y] or [x, y, z])
// into a Point2D. The z component is ignored.
func PointFromSlice(v []float64) (Point2D, error) {
	if len(v) < 2 || len(v) > 3 {
		return Point2D{}, fmt.Errorf("expected 2 or 3 coordinates, got %d", len(v))
	}
	return Point2D{X: v[0], Y: v[1]}, nil
}
