// Package dispatch drives a request from arrival to a terminal state:
// decode or parse, validate, run on the CAD driver, report.
//
// Decoding, parsing and validation run on the caller's goroutine. Driver calls
// are serialised onto a single worker goroutine because the host session is
// not safe for concurrent use. There is no retry and no internal timeout.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Porta048/AutoCad-MCP/internal/cad"
	"github.com/Porta048/AutoCad-MCP/internal/intent"
	"github.com/Porta048/AutoCad-MCP/internal/logging"
	"github.com/Porta048/AutoCad-MCP/internal/nlp"
	"github.com/Porta048/AutoCad-MCP/internal/tools"
)

// ErrClosed is reported when a request arrives after Close.
var ErrClosed = errors.New("dispatcher is closed")

// Decoder turns a structured tool call into an intent.
type Decoder interface {
	Decode(tool string, arguments json.RawMessage) (intent.DrawIntent, error)
}

// TextParser turns an instruction into an intent.
type TextParser interface {
	Parse(text string) (intent.DrawIntent, error)
}

// Recorder observes every request that reached a terminal state.
type Recorder interface {
	Observe(ctx context.Context, ev Event)
}

type Options struct {
	Decoder   Decoder
	Parser    TextParser
	Driver    cad.Driver
	Recorders []Recorder
	Logger    logging.Logger
}

type Dispatcher struct {
	decoder   Decoder
	parser    TextParser
	driver    cad.Driver
	recorders []Recorder
	logger    logging.Logger

	jobs      chan job
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type job struct {
	ctx   context.Context
	in    intent.DrawIntent
	reply chan outcome
}

type outcome struct {
	result  cad.Result
	err     error
	elapsed time.Duration
}

// New starts the driver worker. Call Close to stop it.
func New(opts Options) (*Dispatcher, error) {
	if opts.Decoder == nil || opts.Parser == nil || opts.Driver == nil {
		return nil, errors.New("dispatch: decoder, parser and driver are required")
	}
	d := &Dispatcher{
		decoder:   opts.Decoder,
		parser:    opts.Parser,
		driver:    opts.Driver,
		recorders: opts.Recorders,
		logger:    logging.OrNop(opts.Logger),
		jobs:      make(chan job),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go d.work()
	return d, nil
}

// Close stops the worker after the job in flight, if any, has finished.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.quit)
		<-d.done
	})
}

func (d *Dispatcher) work() {
	defer close(d.done)
	for {
		select {
		case j := <-d.jobs:
			// A started job runs to completion even if its caller goes away.
			ctx := context.WithoutCancel(j.ctx)
			start := time.Now()
			res, err := cad.Call(ctx, d.driver, j.in)
			j.reply <- outcome{result: res, err: err, elapsed: time.Since(start)}
		case <-d.quit:
			return
		}
	}
}

// Handle runs req to a terminal state and returns the uniform response.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	ev := Event{Tool: req.Tool, Time: time.Now()}
	ev.Response = d.handle(ctx, req, &ev)
	d.observe(ctx, ev)
	return ev.Response
}

func (d *Dispatcher) handle(ctx context.Context, req Request, ev *Event) Response {
	in, err := d.decode(req)
	if err != nil {
		d.logger.Info("%s rejected: %v", req.Tool, err)
		return reject(req.Tool, err)
	}

	valid, err := intent.Validate(in)
	if err != nil {
		d.logger.Info("%s rejected: %v", req.Tool, err)
		return reject(req.Tool, err)
	}
	ev.Intent = valid

	out, err := d.submit(ctx, valid)
	if err != nil {
		d.logger.Warn("%s not run: %v", req.Tool, err)
		return Response{
			Status: StatusFailed,
			Tool:   req.Tool,
			Error:  &ErrorBody{Kind: KindCancelled, Message: cancelMessage(err)},
		}
	}
	ev.DriverDuration = out.elapsed

	if out.err != nil {
		d.logger.Error("%s failed after %s: %v", intent.Summary(valid), out.elapsed, out.err)
		return Response{Status: StatusFailed, Tool: req.Tool, Error: driverError(out.err)}
	}
	d.logger.Info("%s completed in %s", intent.Summary(valid), out.elapsed)
	result := out.result
	return Response{Status: StatusCompleted, Tool: req.Tool, Result: &result}
}

func (d *Dispatcher) decode(req Request) (intent.DrawIntent, error) {
	if req.raw {
		return d.parser.Parse(req.Text)
	}
	return d.decoder.Decode(req.Tool, req.Arguments)
}

// submit hands the intent to the worker and waits for the result. The job is
// skipped if ctx ends before the worker has taken it.
func (d *Dispatcher) submit(ctx context.Context, in intent.DrawIntent) (outcome, error) {
	if err := ctx.Err(); err != nil {
		return outcome{}, err
	}
	j := job{ctx: ctx, in: in, reply: make(chan outcome, 1)}
	select {
	case d.jobs <- j:
	case <-ctx.Done():
		return outcome{}, ctx.Err()
	case <-d.quit:
		return outcome{}, ErrClosed
	}
	return <-j.reply, nil
}

func (d *Dispatcher) observe(ctx context.Context, ev Event) {
	ctx = context.WithoutCancel(ctx)
	for _, r := range d.recorders {
		r.Observe(ctx, ev)
	}
}

// reject maps a decode, parse or validation error onto a rejected response.
func reject(tool string, err error) Response {
	body := &ErrorBody{Kind: KindValidationError, Message: err.Error()}

	var perr *nlp.ParseError
	var verr *intent.ValidationError
	switch {
	case errors.As(err, &perr):
		body.Kind = KindParseError
		body.Reason = string(perr.Reason)
		body.Field = perr.Slot
	case errors.As(err, &verr):
		body.Field = verr.Field
	case errors.Is(err, tools.ErrUnknownTool):
		body.Kind = KindUnknownTool
		body.Message = fmt.Sprintf("unknown tool %q", tool)
	}
	return Response{Status: StatusRejected, Tool: tool, Error: body}
}

// driverError keeps raw host errors out of the client message.
func driverError(err error) *ErrorBody {
	var de *cad.DriverError
	if errors.As(err, &de) {
		return &ErrorBody{Kind: KindDriverError, Message: de.Message, Reason: string(de.Kind)}
	}
	return &ErrorBody{Kind: KindDriverError, Message: "the CAD host failed the operation", Reason: string(cad.KindCallRejected)}
}

func cancelMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request deadline passed before the operation started"
	case errors.Is(err, ErrClosed):
		return "the gateway is shutting down"
	default:
		return "request cancelled before the operation started"
	}
}
