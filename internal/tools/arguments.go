package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Porta048/AutoCad-MCP/internal/geometry"
	"github.com/Porta048/AutoCad-MCP/internal/intent"
)

// arguments reads tool call arguments field by field. The first problem is
// kept and every later read becomes a no-op, so decoders can read all fields
// and check err once.
type arguments struct {
	fields map[string]json.RawMessage
	err    error
}

func parseArguments(data json.RawMessage) *arguments {
	a := &arguments{fields: map[string]json.RawMessage{}}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return a
	}
	if err := json.Unmarshal(data, &a.fields); err != nil {
		a.err = &intent.ValidationError{Field: "arguments", Constraint: "must be a JSON object", Value: string(data)}
	}
	return a
}

// lookup returns the raw value of name, treating JSON null as absent.
func (a *arguments) lookup(name string) (json.RawMessage, bool) {
	if a.err != nil {
		return nil, false
	}
	raw, ok := a.fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (a *arguments) fail(name, constraint string, value json.RawMessage) {
	if a.err == nil {
		a.err = &intent.ValidationError{Field: name, Constraint: constraint, Value: string(value)}
	}
}

func (a *arguments) missing(name string) {
	if a.err == nil {
		a.err = &intent.ValidationError{Field: name, Constraint: "is required"}
	}
}

func (a *arguments) point(name string) geometry.Point2D {
	p, ok := a.optionalPoint(name)
	if !ok {
		a.missing(name)
	}
	return p
}

func (a *arguments) optionalPoint(name string) (geometry.Point2D, bool) {
	raw, ok := a.lookup(name)
	if !ok {
		return geometry.Point2D{}, false
	}
	var coords []float64
	if err := json.Unmarshal(raw, &coords); err != nil {
		a.fail(name, "must be an array of numbers [x, y]", raw)
		return geometry.Point2D{}, false
	}
	p, err := geometry.PointFromSlice(coords)
	if err != nil {
		a.fail(name, "must have 2 or 3 coordinates", raw)
		return geometry.Point2D{}, false
	}
	return p, true
}

func (a *arguments) points(name string) []geometry.Point2D {
	raw, ok := a.lookup(name)
	if !ok {
		a.missing(name)
		return nil
	}
	var list [][]float64
	if err := json.Unmarshal(raw, &list); err != nil {
		a.fail(name, "must be an array of points [[x, y], ...]", raw)
		return nil
	}
	pts := make([]geometry.Point2D, 0, len(list))
	for i, coords := range list {
		p, err := geometry.PointFromSlice(coords)
		if err != nil {
			a.fail(fmt.Sprintf("%s[%d]", name, i), "must have 2 or 3 coordinates", raw)
			return nil
		}
		pts = append(pts, p)
	}
	return pts
}

func (a *arguments) number(name string) float64 {
	raw, ok := a.lookup(name)
	if !ok {
		a.missing(name)
		return 0
	}
	return a.decodeNumber(name, raw)
}

func (a *arguments) numberOr(name string, def float64) float64 {
	raw, ok := a.lookup(name)
	if !ok {
		return def
	}
	return a.decodeNumber(name, raw)
}

func (a *arguments) decodeNumber(name string, raw json.RawMessage) float64 {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		a.fail(name, "must be a number", raw)
	}
	return v
}

func (a *arguments) str(name string) string {
	raw, ok := a.lookup(name)
	if !ok {
		a.missing(name)
		return ""
	}
	return a.decodeString(name, raw)
}

func (a *arguments) strOr(name, def string) string {
	raw, ok := a.lookup(name)
	if !ok {
		return def
	}
	return a.decodeString(name, raw)
}

func (a *arguments) decodeString(name string, raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		a.fail(name, "must be a string", raw)
	}
	return s
}

func (a *arguments) boolOr(name string, def bool) bool {
	raw, ok := a.lookup(name)
	if !ok {
		return def
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		a.fail(name, "must be a boolean", raw)
	}
	return v
}

// style reads layer, color and lineweight. Colours may be given as an index or
// a palette name. Unknown names and fractional indexes leave the colour unset;
// integral indexes outside the palette are left to the validator, which drops
// them.
func (a *arguments) style() intent.Style {
	var s intent.Style
	s.Layer = a.strOr("layer", "")

	if raw, ok := a.lookup("color"); ok {
		var code float64
		var name string
		switch {
		case json.Unmarshal(raw, &code) == nil:
			if code == math.Trunc(code) && math.Abs(code) <= math.MaxInt32 {
				c := geometry.ColorCode(int(code))
				s.Color = &c
			}
		case json.Unmarshal(raw, &name) == nil:
			if c, ok := geometry.ColorByName(name); ok {
				s.Color = &c
			}
		default:
			a.fail("color", "must be a colour index or name", raw)
		}
	}

	if raw, ok := a.lookup("lineweight"); ok {
		var lw int
		if err := json.Unmarshal(raw, &lw); err != nil {
			a.fail("lineweight", "must be an integer", raw)
		} else {
			s.Lineweight = &lw
		}
	}
	return s
}
