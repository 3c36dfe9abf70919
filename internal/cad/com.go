package cad

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"github.com/Porta048/AutoCad-MCP/internal/intent"
	"github.com/Porta048/AutoCad-MCP/internal/logging"
)

// HRESULTs meaning the host process is gone or not answering.
const (
	hrCallRejected      = 0x80010001
	hrDisconnected      = 0x80010108
	hrServerUnavailable = 0x800706BA
	hrObjectNotFound    = 0x800401FD
)

// New builds the driver for cfg.Type. The host is attached lazily on the
// first call; use Attach to connect eagerly.
func New(cfg Config) (*Adapter, error) {
	profile, err := ProfileFor(cfg.Type)
	if err != nil {
		return nil, err
	}
	logger := logging.OrNop(cfg.Logger)
	return NewAdapter(cfg, func(ctx context.Context) (Session, error) {
		return openCOMSession(ctx, profile, cfg.StartupWait, logger)
	})
}

// apartment runs every COM call on one locked OS thread. COM objects created
// in a single-threaded apartment may only be used from the thread that
// created them.
type apartment struct {
	calls chan func()
	done  chan struct{}
}

func startApartment() (*apartment, error) {
	a := &apartment{calls: make(chan func()), done: make(chan struct{})}
	ready := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(a.done)

		if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
			// S_FALSE (already initialised) still needs a matching uninitialise.
			var oleErr *ole.OleError
			if !errors.As(err, &oleErr) || oleErr.Code() != 1 {
				ready <- err
				return
			}
		}
		defer ole.CoUninitialize()
		ready <- nil

		for fn := range a.calls {
			fn()
		}
	}()
	if err := <-ready; err != nil {
		return nil, fmt.Errorf("failed to initialise COM: %w", err)
	}
	return a, nil
}

// do runs fn on the apartment thread. Once fn has started it runs to completion.
func (a *apartment) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	select {
	case a.calls <- func() { result <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-result
}

func (a *apartment) stop() {
	close(a.calls)
	<-a.done
}

// comSession holds the host application, its active document and model space.
type comSession struct {
	apt        *apartment
	profile    Profile
	app        *ole.IDispatch
	doc        *ole.IDispatch
	modelSpace *ole.IDispatch
}

var _ Session = (*comSession)(nil)

func openCOMSession(ctx context.Context, profile Profile, startupWait time.Duration, logger logging.Logger) (Session, error) {
	apt, err := startApartment()
	if err != nil {
		return nil, NewDriverError(KindHostUnreachable, "attach", "COM is not available on this system", err)
	}
	s := &comSession{apt: apt, profile: profile}

	launched := false
	err = apt.do(ctx, func() error {
		unknown, err := oleutil.GetActiveObject(profile.ProgID)
		if err != nil {
			logger.Info("no running %s instance, starting one", profile.DisplayName)
			unknown, err = oleutil.CreateObject(profile.ProgID)
			if err != nil {
				return NewDriverError(KindHostUnreachable, "attach", profile.DisplayName+" could not be started", err)
			}
			launched = true
		}
		defer unknown.Release()
		app, err := unknown.QueryInterface(ole.IID_IDispatch)
		if err != nil {
			return NewDriverError(KindHostUnreachable, "attach", profile.DisplayName+" has no automation interface", err)
		}
		s.app = app
		if launched {
			if _, err := oleutil.PutProperty(app, "Visible", true); err != nil {
				logger.Warn("could not make %s visible: %v", profile.DisplayName, err)
			}
		}
		return nil
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	if launched {
		logger.Info("waiting %s for %s startup", startupWait, profile.DisplayName)
		if err := sleep(ctx, startupWait); err != nil {
			s.Close()
			return nil, err
		}
	}

	if err := apt.do(ctx, s.openDocument); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *comSession) openDocument() error {
	docsV, err := oleutil.GetProperty(s.app, "Documents")
	if err != nil {
		return hostError("open document", err, KindInvalidDocument, "cannot list documents")
	}
	docs := docsV.ToIDispatch()
	if docs == nil {
		return NewDriverError(KindInvalidDocument, "open document", "cannot list documents", nil)
	}
	defer docs.Release()

	countV, err := oleutil.GetProperty(docs, "Count")
	if err != nil {
		return hostError("open document", err, KindInvalidDocument, "cannot count documents")
	}
	var docV *ole.VARIANT
	if toInt(countV.Value()) == 0 {
		docV, err = oleutil.CallMethod(docs, "Add")
	} else {
		docV, err = oleutil.GetProperty(s.app, "ActiveDocument")
	}
	if err != nil {
		return hostError("open document", err, KindInvalidDocument, "no active document")
	}
	s.doc = docV.ToIDispatch()

	msV, err := oleutil.GetProperty(s.doc, "ModelSpace")
	if err != nil {
		return hostError("open document", err, KindInvalidDocument, "document has no model space")
	}
	s.modelSpace = msV.ToIDispatch()
	if s.doc == nil || s.modelSpace == nil {
		return NewDriverError(KindInvalidDocument, "open document", "document has no model space", nil)
	}
	return nil
}

func (s *comSession) SendCommand(ctx context.Context, command string) error {
	return s.apt.do(ctx, func() error {
		if _, err := oleutil.CallMethod(s.doc, "SendCommand", command); err != nil {
			return hostError("send command", err, KindCallRejected, "the host rejected the command")
		}
		return nil
	})
}

func (s *comSession) EntityCount(ctx context.Context) (int, error) {
	var n int
	err := s.apt.do(ctx, func() error {
		v, err := oleutil.GetProperty(s.modelSpace, "Count")
		if err != nil {
			return hostError("count entities", err, KindInvalidDocument, "cannot read the model space")
		}
		n = toInt(v.Value())
		return nil
	})
	return n, err
}

func (s *comSession) EntityHandle(ctx context.Context, index int) (string, error) {
	var handle string
	err := s.apt.do(ctx, func() error {
		itemV, err := oleutil.CallMethod(s.modelSpace, "Item", index)
		if err != nil {
			return hostError("read entity", err, KindCallRejected, "cannot read the created entity")
		}
		item := itemV.ToIDispatch()
		if item == nil {
			return NewDriverError(KindCallRejected, "read entity", "cannot read the created entity", nil)
		}
		defer item.Release()
		hV, err := oleutil.GetProperty(item, "Handle")
		if err != nil {
			return hostError("read entity", err, KindCallRejected, "cannot read the entity handle")
		}
		handle = hV.ToString()
		return nil
	})
	return handle, err
}

func (s *comSession) ApplyStyle(ctx context.Context, handle string, style intent.Style) error {
	return s.apt.do(ctx, func() error {
		objV, err := oleutil.CallMethod(s.doc, "HandleToObject", handle)
		if err != nil {
			return hostError("apply style", err, KindCallRejected, "cannot find the created entity")
		}
		obj := objV.ToIDispatch()
		if obj == nil {
			return NewDriverError(KindCallRejected, "apply style", "cannot find the created entity", nil)
		}
		defer obj.Release()

		if style.Layer != "" {
			if err := s.ensureLayer(style.Layer); err != nil {
				return err
			}
			if _, err := oleutil.PutProperty(obj, "Layer", style.Layer); err != nil {
				return hostError("apply style", err, KindCallRejected, "cannot set the layer")
			}
		}
		if style.Color != nil {
			if _, err := oleutil.PutProperty(obj, "Color", int32(*style.Color)); err != nil {
				return hostError("apply style", err, KindCallRejected, "cannot set the colour")
			}
		}
		if style.Lineweight != nil {
			if _, err := oleutil.PutProperty(obj, "Lineweight", int32(*style.Lineweight)); err != nil {
				return hostError("apply style", err, KindCallRejected, "cannot set the lineweight")
			}
		}
		return nil
	})
}

// ensureLayer creates the layer if needed. Layers.Add returns the existing
// layer when the name is taken.
func (s *comSession) ensureLayer(name string) error {
	layersV, err := oleutil.GetProperty(s.doc, "Layers")
	if err != nil {
		return hostError("apply style", err, KindInvalidDocument, "cannot list layers")
	}
	layers := layersV.ToIDispatch()
	if layers == nil {
		return NewDriverError(KindInvalidDocument, "apply style", "cannot list layers", nil)
	}
	defer layers.Release()
	layerV, err := oleutil.CallMethod(layers, "Add", name)
	if err != nil {
		return hostError("apply style", err, KindCallRejected, "cannot create the layer")
	}
	if l := layerV.ToIDispatch(); l != nil {
		l.Release()
	}
	return nil
}

func (s *comSession) SaveAs(ctx context.Context, path string) error {
	return s.apt.do(ctx, func() error {
		if _, err := oleutil.CallMethod(s.doc, "SaveAs", path); err != nil {
			return hostError("save", err, KindCallRejected, "the host could not save the drawing")
		}
		return nil
	})
}

func (s *comSession) Close() error {
	if s.apt == nil {
		return nil
	}
	_ = s.apt.do(context.Background(), func() error {
		for _, d := range []*ole.IDispatch{s.modelSpace, s.doc, s.app} {
			if d != nil {
				d.Release()
			}
		}
		s.modelSpace, s.doc, s.app = nil, nil, nil
		return nil
	})
	s.apt.stop()
	s.apt = nil
	return nil
}

// hostError classifies a COM failure. Disconnection codes always mean the
// host is unreachable regardless of the operation's default kind.
func hostError(op string, err error, kind ErrorKind, message string) *DriverError {
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		switch uint32(oleErr.Code()) {
		case hrDisconnected, hrServerUnavailable, hrObjectNotFound:
			return NewDriverError(KindHostUnreachable, op, "the host is no longer reachable", err)
		case hrCallRejected:
			return NewDriverError(KindCallRejected, op, "the host is busy", err)
		}
	}
	return NewDriverError(kind, op, message, err)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint64:
		return int(n)
	default:
		return 0
	}
}
