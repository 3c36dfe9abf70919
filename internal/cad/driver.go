// Package cad talks to the drafting host. Driver is the capability interface
// the dispatcher calls; Adapter implements it for every supported host on top
// of a COM Session, so nothing above this package ever branches on the host.
package cad

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Porta048/AutoCad-MCP/internal/intent"
)

// Driver executes validated intents against a drafting host. Implementations
// are called from a single goroutine at a time.
type Driver interface {
	DrawLine(ctx context.Context, in intent.Line) (Result, error)
	DrawCircle(ctx context.Context, in intent.Circle) (Result, error)
	DrawArc(ctx context.Context, in intent.Arc) (Result, error)
	DrawEllipse(ctx context.Context, in intent.Ellipse) (Result, error)
	DrawRectangle(ctx context.Context, in intent.Rectangle) (Result, error)
	DrawPolyline(ctx context.Context, in intent.Polyline) (Result, error)
	DrawText(ctx context.Context, in intent.Text) (Result, error)
	DrawHatch(ctx context.Context, in intent.Hatch) (Result, error)
	AddDimension(ctx context.Context, in intent.Dimension) (Result, error)
	SaveDrawing(ctx context.Context, in intent.SaveDrawing) (Result, error)
}

// Result describes what the host did.
type Result struct {
	Operation string `json:"operation"`
	EntityID  string `json:"entity_id,omitempty"`
	Path      string `json:"path,omitempty"`
}

// Call routes a validated intent to the matching driver operation.
func Call(ctx context.Context, d Driver, in intent.DrawIntent) (Result, error) {
	switch v := in.(type) {
	case intent.Line:
		return d.DrawLine(ctx, v)
	case intent.Circle:
		return d.DrawCircle(ctx, v)
	case intent.Arc:
		return d.DrawArc(ctx, v)
	case intent.Ellipse:
		return d.DrawEllipse(ctx, v)
	case intent.Rectangle:
		return d.DrawRectangle(ctx, v)
	case intent.Polyline:
		return d.DrawPolyline(ctx, v)
	case intent.Text:
		return d.DrawText(ctx, v)
	case intent.Hatch:
		return d.DrawHatch(ctx, v)
	case intent.Dimension:
		return d.AddDimension(ctx, v)
	case intent.SaveDrawing:
		return d.SaveDrawing(ctx, v)
	default:
		return Result{}, fmt.Errorf("no driver operation for %T", in)
	}
}

// ErrorKind classifies driver failures.
type ErrorKind string

const (
	// KindHostUnreachable means the host application could not be attached
	// or went away.
	KindHostUnreachable ErrorKind = "host_unreachable"
	// KindCallRejected means the host refused or failed the operation.
	KindCallRejected ErrorKind = "call_rejected"
	// KindInvalidDocument means no usable document or model space.
	KindInvalidDocument ErrorKind = "invalid_document"
)

// DriverError is returned by every Driver operation that fails. Message is safe
// to show to clients; Err keeps the raw host error for logs.
type DriverError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *DriverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, e.Message)
}

func (e *DriverError) Unwrap() error { return e.Err }

// NewDriverError builds a DriverError.
func NewDriverError(kind ErrorKind, op, message string, err error) *DriverError {
	return &DriverError{Kind: kind, Op: op, Message: message, Err: err}
}

// IsKind reports whether err is a DriverError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DriverError
	return errors.As(err, &de) && de.Kind == kind
}

// Type selects the host variant.
type Type string

const (
	TypeAutoCAD Type = "AUTOCAD"
	TypeGCAD    Type = "GCAD"
	TypeZWCAD   Type = "ZWCAD"
)

// Profile captures everything that differs between host variants.
type Profile struct {
	Type        Type
	ProgID      string
	DisplayName string
}

var profiles = map[Type]Profile{
	TypeAutoCAD: {Type: TypeAutoCAD, ProgID: "AutoCAD.Application", DisplayName: "AutoCAD"},
	TypeGCAD:    {Type: TypeGCAD, ProgID: "GCAD.Application", DisplayName: "GstarCAD"},
	TypeZWCAD:   {Type: TypeZWCAD, ProgID: "ZWCAD.Application", DisplayName: "ZWCAD"},
}

// ParseType resolves a configured host name, ignoring case.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := profiles[t]; !ok {
		return "", fmt.Errorf("unsupported cad type %q (want AUTOCAD, GCAD or ZWCAD)", s)
	}
	return t, nil
}

// ProfileFor returns the variant profile for t.
func ProfileFor(t Type) (Profile, error) {
	p, ok := profiles[t]
	if !ok {
		return Profile{}, fmt.Errorf("unsupported cad type %q", t)
	}
	return p, nil
}
