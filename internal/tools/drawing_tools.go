package tools

import (
	"encoding/json"

	"github.com/Porta048/AutoCad-MCP/internal/intent"
)

// drawingTool is a tool whose arguments map directly onto one intent kind.
type drawingTool struct {
	def    Tool
	decode func(a *arguments) intent.DrawIntent
}

var _ ToolExecutor = (*drawingTool)(nil)

func (t *drawingTool) Definition() Tool {
	return t.def
}

func (t *drawingTool) Decode(data json.RawMessage) (intent.DrawIntent, error) {
	a := parseArguments(data)
	if a.err != nil {
		return nil, a.err
	}
	in := t.decode(a)
	if a.err != nil {
		return nil, a.err
	}
	return in, nil
}

// NewDrawingTools returns the ten drawing tools in tool-table order.
// save_drawing falls back to defaultSavePath when no file_path is given.
func NewDrawingTools(defaultSavePath string) []ToolExecutor {
	return []ToolExecutor{
		lineTool(),
		circleTool(),
		arcTool(),
		ellipseTool(),
		rectangleTool(),
		polylineTool(),
		textTool(),
		hatchTool(),
		dimensionTool(),
		saveTool(defaultSavePath),
	}
}

func lineTool() *drawingTool {
	return &drawingTool{
		def: NewFunctionTool(string(intent.KindLine),
			"Draw a straight line between two points",
			objectSchema([]string{"start", "end"}, withStyle(map[string]*JSONSchema{
				"start": pointSchema("Start point coordinates [x, y] or [x, y, z]"),
				"end":   pointSchema("End point coordinates [x, y] or [x, y, z]"),
			}))),
		decode: func(a *arguments) intent.DrawIntent {
			return intent.Line{Start: a.point("start"), End: a.point("end"), Style: a.style()}
		},
	}
}

func circleTool() *drawingTool {
	return &drawingTool{
		def: NewFunctionTool(string(intent.KindCircle),
			"Draw a circle with specified center and radius",
			objectSchema([]string{"center", "radius"}, withStyle(map[string]*JSONSchema{
				"center": pointSchema("Center point coordinates [x, y] or [x, y, z]"),
				"radius": positiveSchema("Circle radius"),
			}))),
		decode: func(a *arguments) intent.DrawIntent {
			return intent.Circle{Center: a.point("center"), Radius: a.number("radius"), Style: a.style()}
		},
	}
}

func arcTool() *drawingTool {
	return &drawingTool{
		def: NewFunctionTool(string(intent.KindArc),
			"Draw an arc with specified center, radius, and angles. The arc runs counter-clockwise from start_angle to end_angle.",
			objectSchema([]string{"center", "radius", "start_angle", "end_angle"}, withStyle(map[string]*JSONSchema{
				"center":      pointSchema("Center point coordinates [x, y] or [x, y, z]"),
				"radius":      positiveSchema("Arc radius"),
				"start_angle": numberSchema("Start angle in degrees"),
				"end_angle":   numberSchema("End angle in degrees"),
			}))),
		decode: func(a *arguments) intent.DrawIntent {
			return intent.Arc{
				Center:     a.point("center"),
				Radius:     a.number("radius"),
				StartAngle: a.number("start_angle"),
				EndAngle:   a.number("end_angle"),
				Style:      a.style(),
			}
		},
	}
}

func ellipseTool() *drawingTool {
	rotation := numberSchema("Rotation angle in degrees (optional)")
	rotation.Default = 0
	return &drawingTool{
		def: NewFunctionTool(string(intent.KindEllipse),
			"Draw an ellipse with specified center and semi-axis lengths",
			objectSchema([]string{"center", "major_axis", "minor_axis"}, withStyle(map[string]*JSONSchema{
				"center":     pointSchema("Center point coordinates [x, y] or [x, y, z]"),
				"major_axis": positiveSchema("Length of the major semi-axis"),
				"minor_axis": positiveSchema("Length of the minor semi-axis"),
				"rotation":   rotation,
			}))),
		decode: func(a *arguments) intent.DrawIntent {
			return intent.Ellipse{
				Center:    a.point("center"),
				MajorAxis: a.number("major_axis"),
				MinorAxis: a.number("minor_axis"),
				Rotation:  a.numberOr("rotation", 0),
				Style:     a.style(),
			}
		},
	}
}

func rectangleTool() *drawingTool {
	return &drawingTool{
		def: NewFunctionTool(string(intent.KindRectangle),
			"Draw a rectangle defined by two opposite corners",
			objectSchema([]string{"corner1", "corner2"}, withStyle(map[string]*JSONSchema{
				"corner1": pointSchema("First corner coordinates [x, y]"),
				"corner2": pointSchema("Opposite corner coordinates [x, y]"),
			}))),
		decode: func(a *arguments) intent.DrawIntent {
			return intent.Rectangle{Corner1: a.point("corner1"), Corner2: a.point("corner2"), Style: a.style()}
		},
	}
}

func polylineTool() *drawingTool {
	closed := &JSONSchema{Type: "boolean", Description: "Close the polyline back to its first point", Default: false}
	return &drawingTool{
		def: NewFunctionTool(string(intent.KindPolyline),
			"Draw a polyline through a list of points",
			objectSchema([]string{"points"}, withStyle(map[string]*JSONSchema{
				"points": pointListSchema("Vertices [[x1, y1], [x2, y2], ...]", 2),
				"closed": closed,
			}))),
		decode: func(a *arguments) intent.DrawIntent {
			return intent.Polyline{Points: a.points("points"), Closed: a.boolOr("closed", false), Style: a.style()}
		},
	}
}

func textTool() *drawingTool {
	height := positiveSchema("Text height (optional)")
	height.Default = intent.DefaultTextHeight
	rotation := numberSchema("Rotation angle in degrees (optional)")
	rotation.Default = 0
	return &drawingTool{
		def: NewFunctionTool(string(intent.KindText),
			"Add single-line text at a position",
			objectSchema([]string{"position", "text"}, withStyle(map[string]*JSONSchema{
				"position": pointSchema("Insertion point coordinates [x, y]"),
				"text":     stringSchema("Text content"),
				"height":   height,
				"rotation": rotation,
			}))),
		decode: func(a *arguments) intent.DrawIntent {
			return intent.Text{
				Position: a.point("position"),
				Content:  a.str("text"),
				Height:   a.numberOr("height", intent.DefaultTextHeight),
				Rotation: a.numberOr("rotation", 0),
				Style:    a.style(),
			}
		},
	}
}

func hatchTool() *drawingTool {
	pattern := stringSchema("Hatch pattern name, e.g. SOLID, ANSI31 (optional)")
	pattern.Default = intent.DefaultHatchPattern
	scale := positiveSchema("Pattern scale (optional)")
	scale.Default = intent.DefaultHatchScale
	return &drawingTool{
		def: NewFunctionTool(string(intent.KindHatch),
			"Fill a closed boundary with a hatch pattern",
			objectSchema([]string{"boundary_points"}, withStyle(map[string]*JSONSchema{
				"boundary_points": pointListSchema("Boundary vertices [[x1, y1], [x2, y2], ...]", 3),
				"pattern_name":    pattern,
				"pattern_scale":   scale,
			}))),
		decode: func(a *arguments) intent.DrawIntent {
			return intent.Hatch{
				Boundary: a.points("boundary_points"),
				Pattern:  a.strOr("pattern_name", intent.DefaultHatchPattern),
				Scale:    a.numberOr("pattern_scale", intent.DefaultHatchScale),
				Style:    a.style(),
			}
		},
	}
}

func dimensionTool() *drawingTool {
	return &drawingTool{
		def: NewFunctionTool(string(intent.KindDimension),
			"Add an aligned dimension between two points",
			objectSchema([]string{"start", "end"}, withStyle(map[string]*JSONSchema{
				"start":         pointSchema("First measured point [x, y]"),
				"end":           pointSchema("Second measured point [x, y]"),
				"text_position": pointSchema("Dimension text position [x, y] (optional, defaults to 10 units above the midpoint)"),
			}))),
		decode: func(a *arguments) intent.DrawIntent {
			d := intent.Dimension{Start: a.point("start"), End: a.point("end"), Style: a.style()}
			if p, ok := a.optionalPoint("text_position"); ok {
				d.TextPosition = p
			} else {
				d.TextPosition = intent.DefaultTextPosition(d.Start, d.End)
			}
			return d
		},
	}
}

func saveTool(defaultPath string) *drawingTool {
	path := stringSchema("Path of the DWG file; relative paths are saved under the output directory")
	path.Default = defaultPath
	return &drawingTool{
		def: NewFunctionTool(string(intent.KindSaveDrawing),
			"Save the current drawing to a DWG file",
			objectSchema(nil, map[string]*JSONSchema{
				"file_path": path,
			})),
		decode: func(a *arguments) intent.DrawIntent {
			return intent.SaveDrawing{Path: a.strOr("file_path", defaultPath)}
		},
	}
}
