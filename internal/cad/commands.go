package cad

import (
	"math"
	"strings"

	"github.com/Porta048/AutoCad-MCP/internal/geometry"
	"github.com/Porta048/AutoCad-MCP/internal/intent"
)

// Command strings for Document.SendCommand. A space acts as Enter on the host
// command line, so every argument is followed by one. Points are prefixed with
// "_non" to suspend running object snaps.

type commandBuilder struct {
	b strings.Builder
}

func newCommand(name string) *commandBuilder {
	c := &commandBuilder{}
	c.arg(name)
	return c
}

func (c *commandBuilder) arg(s string) *commandBuilder {
	c.b.WriteString(s)
	c.b.WriteByte(' ')
	return c
}

func (c *commandBuilder) point(p geometry.Point2D) *commandBuilder {
	return c.arg("_non").arg(geometry.Pt(round(p.X), round(p.Y)).String())
}

func (c *commandBuilder) number(v float64) *commandBuilder {
	return c.arg(geometry.FormatFloat(round(v)))
}

// round drops floating point noise from trigonometry (cos 90° is not exactly 0).
func round(v float64) float64 {
	r := math.Round(v*1e9) / 1e9
	if r == 0 {
		return 0
	}
	return r
}

// end sends a bare Enter to finish commands that keep prompting.
func (c *commandBuilder) end() *commandBuilder {
	c.b.WriteByte('\n')
	return c
}

func (c *commandBuilder) String() string { return c.b.String() }

func lineCommand(in intent.Line) string {
	return newCommand("_LINE").point(in.Start).point(in.End).end().String()
}

func circleCommand(in intent.Circle) string {
	return newCommand("_CIRCLE").point(in.Center).number(in.Radius).String()
}

// arcCommand uses centre, start point and included angle so the host draws
// counter-clockwise from StartAngle to EndAngle.
func arcCommand(in intent.Arc) string {
	start := in.Center.Polar(in.Radius, in.StartAngle)
	included := geometry.NormalizeAngle(in.EndAngle - in.StartAngle)
	return newCommand("_ARC").arg("_C").point(in.Center).point(start).
		arg("_A").number(included).String()
}

func ellipseCommand(in intent.Ellipse) string {
	axisEnd := in.Center.Polar(in.MajorAxis, in.Rotation)
	return newCommand("_ELLIPSE").arg("_C").point(in.Center).point(axisEnd).
		number(in.MinorAxis).String()
}

func rectangleCommand(in intent.Rectangle) string {
	return newCommand("_RECTANG").point(in.Corner1).point(in.Corner2).String()
}

func polylineCommand(in intent.Polyline) string {
	c := newCommand("_PLINE")
	for _, p := range in.Points {
		c.point(p)
	}
	if in.Closed {
		return c.arg("_C").String()
	}
	return c.end().String()
}

// textCommand ends with a newline because spaces are literal inside the content.
func textCommand(in intent.Text) string {
	content := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(in.Content)
	c := newCommand("_TEXT").point(in.Position).number(in.Height).number(in.Rotation)
	c.b.WriteString(content)
	return c.end().String()
}

// hatchCommand draws the boundary inline (draW option) without keeping it.
// SOLID takes no scale or angle prompts.
func hatchCommand(in intent.Hatch) string {
	c := newCommand("-HATCH").arg("_P").arg(in.Pattern)
	if in.Pattern != intent.DefaultHatchPattern {
		c.number(in.Scale).number(0)
	}
	c.arg("_W").arg("_N")
	for _, p := range in.Boundary {
		c.point(p)
	}
	return c.arg("_C").end().end().String()
}

func dimensionCommand(in intent.Dimension) string {
	return newCommand("_DIMALIGNED").point(in.Start).point(in.End).point(in.TextPosition).String()
}
