package cad

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Porta048/AutoCad-MCP/internal/intent"
	"github.com/Porta048/AutoCad-MCP/internal/logging"
)

// Session is an attached host document. Every method may block on the host.
type Session interface {
	SendCommand(ctx context.Context, command string) error
	EntityCount(ctx context.Context) (int, error)
	// EntityHandle returns the handle of the model space entity at index.
	EntityHandle(ctx context.Context, index int) (string, error)
	ApplyStyle(ctx context.Context, handle string, style intent.Style) error
	SaveAs(ctx context.Context, path string) error
	Close() error
}

// Connector attaches to a host and opens its active document.
type Connector func(ctx context.Context) (Session, error)

// Config holds the host settings shared by every variant.
type Config struct {
	Type Type
	// StartupWait is how long to wait after launching a host that was not running.
	StartupWait time.Duration
	// CommandDelay is how long to wait after each command before reading back
	// the created entity.
	CommandDelay time.Duration
	// OutputDir anchors relative save paths.
	OutputDir string
	Logger    logging.Logger
}

// Adapter implements Driver for any host reachable through a Session. The
// session is opened lazily and re-opened after the host goes away.
type Adapter struct {
	profile Profile
	cfg     Config
	connect Connector
	logger  logging.Logger

	mu      sync.Mutex
	session Session
}

var _ Driver = (*Adapter)(nil)

// NewAdapter wires an adapter around an explicit connector.
func NewAdapter(cfg Config, connect Connector) (*Adapter, error) {
	profile, err := ProfileFor(cfg.Type)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		profile: profile,
		cfg:     cfg,
		connect: connect,
		logger:  logging.OrNop(cfg.Logger),
	}, nil
}

// Profile returns the host variant this adapter drives.
func (a *Adapter) Profile() Profile { return a.profile }

// Attach opens the host session now instead of on the first call.
func (a *Adapter) Attach(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := a.ensureSession(ctx, "attach")
	return err
}

// Connected reports whether a session is currently open.
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil
}

// Close releases the host session.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil
	}
	err := a.session.Close()
	a.session = nil
	return err
}

func (a *Adapter) ensureSession(ctx context.Context, op string) (Session, error) {
	if a.session != nil {
		return a.session, nil
	}
	s, err := a.connect(ctx)
	if err != nil {
		if IsKind(err, KindInvalidDocument) || IsKind(err, KindHostUnreachable) {
			return nil, err
		}
		return nil, NewDriverError(KindHostUnreachable, op, a.profile.DisplayName+" is not reachable", err)
	}
	a.logger.Info("attached to %s", a.profile.DisplayName)
	a.session = s
	return s, nil
}

// fail normalises err into a DriverError and drops the session when the host
// is gone so the next call re-attaches.
func (a *Adapter) fail(op string, err error) error {
	var de *DriverError
	if !errors.As(err, &de) {
		de = NewDriverError(KindCallRejected, op, "the host rejected the operation", err)
	}
	if de.Op == "" {
		de.Op = op
	}
	if de.Kind == KindHostUnreachable && a.session != nil {
		_ = a.session.Close()
		a.session = nil
	}
	a.logger.Warn("%s failed: %v", op, de)
	return de
}

// draw sends one drawing command and reads back the entity it created. The new
// entity is found by the model space count after CommandDelay, so a host that
// is still busy when the delay ends reports call_rejected.
func (a *Adapter) draw(ctx context.Context, kind intent.Kind, command string, style intent.Style) (Result, error) {
	op := string(kind)
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.ensureSession(ctx, op)
	if err != nil {
		return Result{}, err
	}
	before, err := s.EntityCount(ctx)
	if err != nil {
		return Result{}, a.fail(op, err)
	}
	a.logger.Debug("%s: %q", op, command)
	if err := s.SendCommand(ctx, command); err != nil {
		return Result{}, a.fail(op, err)
	}
	if err := sleep(ctx, a.cfg.CommandDelay); err != nil {
		return Result{}, err
	}
	after, err := s.EntityCount(ctx)
	if err != nil {
		return Result{}, a.fail(op, err)
	}
	if after <= before {
		return Result{}, a.fail(op, NewDriverError(KindCallRejected, op, "the host did not create an entity", nil))
	}
	handle, err := s.EntityHandle(ctx, after-1)
	if err != nil {
		return Result{}, a.fail(op, err)
	}
	if style != (intent.Style{}) {
		if err := s.ApplyStyle(ctx, handle, style); err != nil {
			return Result{}, a.fail(op, err)
		}
	}
	a.logger.Info("%s created entity %s", op, handle)
	return Result{Operation: op, EntityID: handle}, nil
}

func (a *Adapter) DrawLine(ctx context.Context, in intent.Line) (Result, error) {
	return a.draw(ctx, in.Kind(), lineCommand(in), in.Style)
}

func (a *Adapter) DrawCircle(ctx context.Context, in intent.Circle) (Result, error) {
	return a.draw(ctx, in.Kind(), circleCommand(in), in.Style)
}

func (a *Adapter) DrawArc(ctx context.Context, in intent.Arc) (Result, error) {
	return a.draw(ctx, in.Kind(), arcCommand(in), in.Style)
}

func (a *Adapter) DrawEllipse(ctx context.Context, in intent.Ellipse) (Result, error) {
	return a.draw(ctx, in.Kind(), ellipseCommand(in), in.Style)
}

func (a *Adapter) DrawRectangle(ctx context.Context, in intent.Rectangle) (Result, error) {
	return a.draw(ctx, in.Kind(), rectangleCommand(in), in.Style)
}

func (a *Adapter) DrawPolyline(ctx context.Context, in intent.Polyline) (Result, error) {
	return a.draw(ctx, in.Kind(), polylineCommand(in), in.Style)
}

func (a *Adapter) DrawText(ctx context.Context, in intent.Text) (Result, error) {
	return a.draw(ctx, in.Kind(), textCommand(in), in.Style)
}

func (a *Adapter) DrawHatch(ctx context.Context, in intent.Hatch) (Result, error) {
	return a.draw(ctx, in.Kind(), hatchCommand(in), in.Style)
}

func (a *Adapter) AddDimension(ctx context.Context, in intent.Dimension) (Result, error) {
	return a.draw(ctx, in.Kind(), dimensionCommand(in), in.Style)
}

// SaveDrawing writes the active document. Relative paths land under OutputDir
// and a missing .dwg extension is added.
func (a *Adapter) SaveDrawing(ctx context.Context, in intent.SaveDrawing) (Result, error) {
	op := string(in.Kind())
	path, err := a.resolvePath(in.Path)
	if err != nil {
		return Result{}, NewDriverError(KindInvalidDocument, op, "cannot prepare the output path", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.ensureSession(ctx, op)
	if err != nil {
		return Result{}, err
	}
	if err := s.SaveAs(ctx, path); err != nil {
		return Result{}, a.fail(op, err)
	}
	a.logger.Info("saved drawing to %s", path)
	return Result{Operation: op, Path: path}, nil
}

func (a *Adapter) resolvePath(p string) (string, error) {
	p = filepath.Clean(p)
	if !strings.EqualFold(filepath.Ext(p), ".dwg") {
		p += ".dwg"
	}
	if !filepath.IsAbs(p) {
		base := a.cfg.OutputDir
		if base == "" {
			base = "."
		}
		p = filepath.Join(base, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
