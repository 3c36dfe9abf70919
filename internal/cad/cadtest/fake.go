// Package cadtest provides a recording cad.Driver for tests.
package cadtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Porta048/AutoCad-MCP/internal/cad"
	"github.com/Porta048/AutoCad-MCP/internal/intent"
)

// Call is one recorded driver invocation.
type Call struct {
	Operation string
	Intent    intent.DrawIntent
}

// FakeDriver records every call and returns canned results. Errors set with
// FailWith are returned for the matching operation.
type FakeDriver struct {
	mu     sync.Mutex
	calls  []Call
	errs   map[string]error
	nextID int
	// Entered, when set, receives the operation name as each call begins.
	Entered chan string
	// Block, when set, is received from before every call returns.
	Block chan struct{}
}

var _ cad.Driver = (*FakeDriver)(nil)

func NewFakeDriver() *FakeDriver {
	return &FakeDriver{errs: make(map[string]error)}
}

// FailWith makes operation fail with err.
func (f *FakeDriver) FailWith(operation intent.Kind, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[string(operation)] = err
}

// Calls returns a copy of the recorded calls.
func (f *FakeDriver) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many calls were recorded.
func (f *FakeDriver) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *FakeDriver) record(in intent.DrawIntent) (cad.Result, error) {
	if f.Entered != nil {
		f.Entered <- string(in.Kind())
	}
	if f.Block != nil {
		<-f.Block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	op := string(in.Kind())
	f.calls = append(f.calls, Call{Operation: op, Intent: in})
	if err := f.errs[op]; err != nil {
		return cad.Result{}, err
	}
	if save, ok := in.(intent.SaveDrawing); ok {
		return cad.Result{Operation: op, Path: save.Path}, nil
	}
	f.nextID++
	return cad.Result{Operation: op, EntityID: fmt.Sprintf("%X", 0x1F0+f.nextID)}, nil
}

func (f *FakeDriver) DrawLine(_ context.Context, in intent.Line) (cad.Result, error) {
	return f.record(in)
}

func (f *FakeDriver) DrawCircle(_ context.Context, in intent.Circle) (cad.Result, error) {
	return f.record(in)
}

func (f *FakeDriver) DrawArc(_ context.Context, in intent.Arc) (cad.Result, error) {
	return f.record(in)
}

func (f *FakeDriver) DrawEllipse(_ context.Context, in intent.Ellipse) (cad.Result, error) {
	return f.record(in)
}

func (f *FakeDriver) DrawRectangle(_ context.Context, in intent.Rectangle) (cad.Result, error) {
	return f.record(in)
}

func (f *FakeDriver) DrawPolyline(_ context.Context, in intent.Polyline) (cad.Result, error) {
	return f.record(in)
}

func (f *FakeDriver) DrawText(_ context.Context, in intent.Text) (cad.Result, error) {
	return f.record(in)
}

func (f *FakeDriver) DrawHatch(_ context.Context, in intent.Hatch) (cad.Result, error) {
	return f.record(in)
}

func (f *FakeDriver) AddDimension(_ context.Context, in intent.Dimension) (cad.Result, error) {
	return f.record(in)
}

func (f *FakeDriver) SaveDrawing(_ context.Context, in intent.SaveDrawing) (cad.Result, error) {
	return f.record(in)
}
