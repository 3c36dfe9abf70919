package cad

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Porta048/AutoCad-MCP/internal/geometry"
	"github.com/Porta048/AutoCad-MCP/internal/intent"
)

func TestCommandBuilders(t *testing.T) {
	square := []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 10)}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "line",
			got:  lineCommand(intent.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(100, 50)}),
			want: "_LINE _non 0,0 _non 100,50 \n",
		},
		{
			name: "circle",
			got:  circleCommand(intent.Circle{Center: geometry.Pt(100, 100), Radius: 50}),
			want: "_CIRCLE _non 100,100 50 ",
		},
		{
			name: "arc",
			got:  arcCommand(intent.Arc{Center: geometry.Pt(0, 0), Radius: 10, StartAngle: 90, EndAngle: 180}),
			want: "_ARC _C _non 0,0 _non 0,10 _A 90 ",
		},
		{
			name: "arc across zero",
			got:  arcCommand(intent.Arc{Center: geometry.Pt(0, 0), Radius: 10, StartAngle: 270, EndAngle: 90}),
			want: "_ARC _C _non 0,0 _non 0,-10 _A 180 ",
		},
		{
			name: "ellipse",
			got:  ellipseCommand(intent.Ellipse{Center: geometry.Pt(5, 5), MajorAxis: 30, MinorAxis: 10}),
			want: "_ELLIPSE _C _non 5,5 _non 35,5 10 ",
		},
		{
			name: "rotated ellipse",
			got:  ellipseCommand(intent.Ellipse{Center: geometry.Pt(0, 0), MajorAxis: 30, MinorAxis: 10, Rotation: 90}),
			want: "_ELLIPSE _C _non 0,0 _non 0,30 10 ",
		},
		{
			name: "rectangle",
			got:  rectangleCommand(intent.Rectangle{Corner1: geometry.Pt(0, 0), Corner2: geometry.Pt(200, 100)}),
			want: "_RECTANG _non 0,0 _non 200,100 ",
		},
		{
			name: "open polyline",
			got:  polylineCommand(intent.Polyline{Points: square}),
			want: "_PLINE _non 0,0 _non 10,0 _non 10,10 \n",
		},
		{
			name: "closed polyline",
			got:  polylineCommand(intent.Polyline{Points: square, Closed: true}),
			want: "_PLINE _non 0,0 _non 10,0 _non 10,10 _C ",
		},
		{
			name: "text",
			got:  textCommand(intent.Text{Position: geometry.Pt(10, 20), Content: "Room\n101", Height: 2.5, Rotation: 45}),
			want: "_TEXT _non 10,20 2.5 45 Room 101\n",
		},
		{
			name: "solid hatch",
			got:  hatchCommand(intent.Hatch{Boundary: square, Pattern: "SOLID", Scale: 1}),
			want: "-HATCH _P SOLID _W _N _non 0,0 _non 10,0 _non 10,10 _C \n\n",
		},
		{
			name: "pattern hatch",
			got:  hatchCommand(intent.Hatch{Boundary: square, Pattern: "ANSI31", Scale: 2}),
			want: "-HATCH _P ANSI31 2 0 _W _N _non 0,0 _non 10,0 _non 10,10 _C \n\n",
		},
		{
			name: "dimension",
			got: dimensionCommand(intent.Dimension{
				Start: geometry.Pt(0, 0), End: geometry.Pt(100, 0), TextPosition: geometry.Pt(50, 10),
			}),
			want: "_DIMALIGNED _non 0,0 _non 100,0 _non 50,10 ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]Type{"autocad": TypeAutoCAD, " GCAD ": TypeGCAD, "ZwCad": TypeZWCAD} {
		got, err := ParseType(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseType("bricscad")
	assert.Error(t, err)
}

func TestProfiles(t *testing.T) {
	for typ, progID := range map[Type]string{
		TypeAutoCAD: "AutoCAD.Application",
		TypeGCAD:    "GCAD.Application",
		TypeZWCAD:   "ZWCAD.Application",
	} {
		p, err := ProfileFor(typ)
		assert.NoError(t, err)
		assert.Equal(t, progID, p.ProgID)
	}
}
