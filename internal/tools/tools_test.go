package tools

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Porta048/AutoCad-MCP/internal/geometry"
	"github.com/Porta048/AutoCad-MCP/internal/intent"
	"github.com/Porta048/AutoCad-MCP/internal/nlp"
)

func newTestManager(t *testing.T) *ToolManager {
	t.Helper()
	parser, err := nlp.New(nlp.Options{})
	require.NoError(t, err)
	return NewManager("drawing.dwg", parser)
}

func requireArgError(t *testing.T, err error, field, constraint string) {
	t.Helper()
	var ve *intent.ValidationError
	require.True(t, errors.As(err, &ve), "expected *intent.ValidationError, got %T: %v", err, err)
	assert.Equal(t, field, ve.Field)
	assert.Equal(t, constraint, ve.Constraint)
}

func TestManagerListsToolsInOrder(t *testing.T) {
	tm := newTestManager(t)

	var names []string
	for _, def := range tm.GetDefinitions() {
		assert.Equal(t, ToolTypeFunction, def.Type)
		assert.Equal(t, "object", def.Function.Parameters.Type)
		names = append(names, def.Name())
	}
	assert.Equal(t, []string{
		"draw_line", "draw_circle", "draw_arc", "draw_ellipse", "draw_rectangle",
		"draw_polyline", "draw_text", "draw_hatch", "add_dimension", "save_drawing",
		"process_command",
	}, names)
	assert.Equal(t, 11, tm.ToolCount())
	assert.True(t, tm.Has("draw_arc"))
	assert.False(t, tm.Has("draw_spline"))
}

func TestRegisterReplacesInPlace(t *testing.T) {
	tm := NewToolManager()
	tm.Register(lineTool())
	tm.Register(circleTool())
	tm.Register(lineTool())
	assert.Equal(t, 2, tm.ToolCount())
	assert.Equal(t, "draw_line", tm.GetDefinitions()[0].Name())
}

func TestDecodeUnknownTool(t *testing.T) {
	_, err := newTestManager(t).Decode("draw_spline", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestDecodeDrawingTools(t *testing.T) {
	tm := newTestManager(t)
	red := geometry.Red

	tests := []struct {
		tool string
		args string
		want intent.DrawIntent
	}{
		{
			tool: "draw_line",
			args: `{"start": [0, 0], "end": [100, 50, 7], "layer": "Walls"}`,
			want: intent.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(100, 50), Style: intent.Style{Layer: "Walls"}},
		},
		{
			tool: "draw_circle",
			args: `{"center": [100, 100], "radius": 50, "color": 1}`,
			want: intent.Circle{Center: geometry.Pt(100, 100), Radius: 50, Style: intent.Style{Color: &red}},
		},
		{
			tool: "draw_circle",
			args: `{"center": [0, 0], "radius": 5, "color": "red"}`,
			want: intent.Circle{Center: geometry.Pt(0, 0), Radius: 5, Style: intent.Style{Color: &red}},
		},
		{
			tool: "draw_arc",
			args: `{"center": [0, 0], "radius": 10, "start_angle": 0, "end_angle": 90}`,
			want: intent.Arc{Center: geometry.Pt(0, 0), Radius: 10, StartAngle: 0, EndAngle: 90},
		},
		{
			tool: "draw_ellipse",
			args: `{"center": [5, 5], "major_axis": 30, "minor_axis": 10}`,
			want: intent.Ellipse{Center: geometry.Pt(5, 5), MajorAxis: 30, MinorAxis: 10},
		},
		{
			tool: "draw_rectangle",
			args: `{"corner1": [0, 0], "corner2": [200, 100]}`,
			want: intent.Rectangle{Corner1: geometry.Pt(0, 0), Corner2: geometry.Pt(200, 100)},
		},
		{
			tool: "draw_polyline",
			args: `{"points": [[0, 0], [10, 0], [10, 10]], "closed": true}`,
			want: intent.Polyline{Points: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 10)}, Closed: true},
		},
		{
			tool: "draw_text",
			args: `{"position": [1, 2], "text": "Room 101"}`,
			want: intent.Text{Position: geometry.Pt(1, 2), Content: "Room 101", Height: intent.DefaultTextHeight},
		},
		{
			tool: "draw_hatch",
			args: `{"boundary_points": [[0, 0], [10, 0], [10, 10]]}`,
			want: intent.Hatch{
				Boundary: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 10)},
				Pattern:  intent.DefaultHatchPattern,
				Scale:    intent.DefaultHatchScale,
			},
		},
		{
			tool: "add_dimension",
			args: `{"start": [0, 0], "end": [100, 0]}`,
			want: intent.Dimension{Start: geometry.Pt(0, 0), End: geometry.Pt(100, 0), TextPosition: geometry.Pt(50, 10)},
		},
		{
			tool: "add_dimension",
			args: `{"start": [0, 0], "end": [100, 0], "text_position": [50, -20]}`,
			want: intent.Dimension{Start: geometry.Pt(0, 0), End: geometry.Pt(100, 0), TextPosition: geometry.Pt(50, -20)},
		},
		{
			tool: "save_drawing",
			args: `{"file_path": "C:/drawings/plan.dwg"}`,
			want: intent.SaveDrawing{Path: "C:/drawings/plan.dwg"},
		},
		{
			tool: "save_drawing",
			args: ``,
			want: intent.SaveDrawing{Path: "drawing.dwg"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			got, err := tm.Decode(tt.tool, json.RawMessage(tt.args))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeArgumentErrors(t *testing.T) {
	tm := newTestManager(t)

	tests := []struct {
		name       string
		tool       string
		args       string
		field      string
		constraint string
	}{
		{"missing radius", "draw_circle", `{"center": [0, 0]}`, "radius", "is required"},
		{"null counts as missing", "draw_line", `{"start": [0, 0], "end": null}`, "end", "is required"},
		{"first missing wins", "draw_arc", `{}`, "center", "is required"},
		{"short point", "draw_line", `{"start": [0], "end": [1, 1]}`, "start", "must have 2 or 3 coordinates"},
		{"point not array", "draw_line", `{"start": "0,0", "end": [1, 1]}`, "start", "must be an array of numbers [x, y]"},
		{"bad vertex", "draw_polyline", `{"points": [[0, 0], [1]]}`, "points[1]", "must have 2 or 3 coordinates"},
		{"radius not number", "draw_circle", `{"center": [0, 0], "radius": "big"}`, "radius", "must be a number"},
		{"text missing", "draw_text", `{"position": [0, 0]}`, "text", "is required"},
		{"bad lineweight type", "draw_line", `{"start": [0, 0], "end": [1, 1], "lineweight": "thin"}`, "lineweight", "must be an integer"},
		{"not an object", "draw_circle", `[1, 2, 3]`, "arguments", "must be a JSON object"},
		{"command missing", "process_command", `{}`, "command", "is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.Decode(tt.tool, json.RawMessage(tt.args))
			requireArgError(t, err, tt.field, tt.constraint)
		})
	}
}

func TestDecodeLeavesRangeChecksToValidator(t *testing.T) {
	tm := newTestManager(t)

	in, err := tm.Decode("draw_circle", json.RawMessage(`{"center": [0, 0], "radius": 0, "color": 42}`))
	require.NoError(t, err)

	_, err = intent.Validate(in)
	requireArgError(t, err, "radius", "must be > 0")

	in, err = tm.Decode("draw_circle", json.RawMessage(`{"center": [0, 0], "radius": 1, "color": 42}`))
	require.NoError(t, err)
	out, err := intent.Validate(in)
	require.NoError(t, err)
	assert.Nil(t, out.Appearance().Color, "colours outside the palette are dropped")
}

func TestDecodeNumericColor(t *testing.T) {
	tm := newTestManager(t)
	red := geometry.Red

	tests := []struct {
		name  string
		color string
		want  *geometry.ColorCode
	}{
		{"integral float", `1.0`, &red},
		{"exponent form", `1e0`, &red},
		{"fractional", `3.5`, nil},
		{"beyond int range", `1e10`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := tm.Decode("draw_circle", json.RawMessage(`{"center": [0, 0], "radius": 1, "color": `+tt.color+`}`))
			require.NoError(t, err)
			assert.Equal(t, tt.want, in.Appearance().Color)
		})
	}
}

func TestProcessCommandUsesParser(t *testing.T) {
	tm := newTestManager(t)

	in, err := tm.Decode(ProcessCommand, json.RawMessage(`{"command": "Draw a red circle at (100, 100) with radius 50"}`))
	require.NoError(t, err)
	red := geometry.Red
	assert.Equal(t, intent.Circle{Center: geometry.Pt(100, 100), Radius: 50, Style: intent.Style{Color: &red}}, in)

	_, err = tm.Decode(ProcessCommand, json.RawMessage(`{"command": "make coffee"}`))
	var perr *nlp.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, nlp.ReasonUnrecognizedShape, perr.Reason)
}

func TestSchemaDocumentsStyleAndDefaults(t *testing.T) {
	tm := newTestManager(t)
	for _, def := range tm.GetDefinitions() {
		props := def.Function.Parameters.Properties
		switch def.Name() {
		case "save_drawing":
			assert.Equal(t, "drawing.dwg", props["file_path"].Default)
			assert.Empty(t, def.Function.Parameters.Required)
		case ProcessCommand:
			assert.Equal(t, []string{"command"}, def.Function.Parameters.Required)
		default:
			for _, p := range []string{"layer", "color", "lineweight"} {
				assert.Contains(t, props, p, def.Name())
			}
		}
	}

	data, err := json.Marshal(circleTool().Definition())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"minItems":2`)
	assert.Contains(t, string(data), `"required":["center","radius"]`)
}
