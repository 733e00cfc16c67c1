// Package plugin dispatches named method calls from the application runtime
// to the calendar store, guarding each call with the permission gate.
package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
	"github.com/sonroyaalmerol/device-calendar/pkg/handoff"
	"github.com/sonroyaalmerol/device-calendar/pkg/ics"
	"github.com/sonroyaalmerol/device-calendar/pkg/permission"
)

// MethodCall is one request from the application runtime.
type MethodCall struct {
	Method string
	Args   Args
}

// Response carries either Result or Err, never both.
type Response struct {
	Result any    `json:"result,omitempty"`
	Err    *Error `json:"error,omitempty"`
}

type handler func(ctx context.Context, args Args, done func(any, error))

type method struct {
	need permission.Capability
	run  handler
}

type Plugin struct {
	store     calendar.Store
	gate      *permission.Gate
	share     *handoff.Manager
	generator *ics.Generator
	logger    zerolog.Logger

	methods map[string]method
}

func New(store calendar.Store, gate *permission.Gate, share *handoff.Manager, gen *ics.Generator, logger zerolog.Logger) *Plugin {
	p := &Plugin{
		store:     store,
		gate:      gate,
		share:     share,
		generator: gen,
		logger:    logger.With().Str("component", "plugin").Logger(),
	}
	p.methods = map[string]method{
		"hasPermissions":     {run: p.hasPermissions},
		"requestPermissions": {run: p.requestPermissions},
		"retrieveCalendars":  {need: permission.Read, run: p.retrieveCalendars},
		"createCalendar":     {need: permission.ReadWrite, run: p.createCalendar},
		"deleteCalendar":     {need: permission.ReadWrite, run: p.deleteCalendar},
		"retrieveEvents":     {need: permission.Read, run: p.retrieveEvents},
		"createEvent":        {need: permission.ReadWrite, run: p.createEvent},
		"deleteEvent":        {need: permission.ReadWrite, run: p.deleteEvent},
		"createReminder":     {need: permission.ReadWrite, run: p.createReminder},
		"deleteReminder":     {need: permission.ReadWrite, run: p.deleteReminder},
		"shareEvent":         {run: p.shareEvent},
	}
	return p
}

// Bind attaches the foreground context. perm answers permission checks and
// view launches external viewers; either may be nil to detach it.
func (p *Plugin) Bind(perm permission.Host, view handoff.Host) {
	p.gate.Bind(perm)
	p.share.Bind(view)
}

// Foregrounded forwards the application's foreground signal.
func (p *Plugin) Foregrounded(hostID string) {
	p.share.Foregrounded(hostID)
}

// Handle runs call and invokes reply exactly once. reply may run on another
// goroutine when a permission prompt or a share is outstanding.
func (p *Plugin) Handle(ctx context.Context, call MethodCall, reply func(Response)) {
	var once sync.Once
	done := func(result any, err error) {
		once.Do(func() {
			if err != nil {
				resp := Response{Err: toError(err)}
				p.logger.Debug().Str("method", call.Method).Str("code", resp.Err.Code).Err(err).Msg("call failed")
				reply(resp)
				return
			}
			reply(Response{Result: result})
		})
	}

	m, ok := p.methods[call.Method]
	if !ok {
		done(nil, unknownMethod(call.Method))
		return
	}
	args := call.Args
	if args == nil {
		args = Args{}
	}
	p.logger.Debug().Str("method", call.Method).Msg("call")

	if m.need == 0 {
		m.run(ctx, args, done)
		return
	}
	p.gate.CheckThenExecute(ctx, m.need, permission.Callbacks{
		OnGranted: func() { m.run(ctx, args, done) },
		OnRefused: func() {
			done(nil, fmt.Errorf("%s: %w", call.Method, permission.ErrRefused))
		},
		OnError: func(err error) { done(nil, &permissionFault{err: err}) },
	})
}

// Call is the blocking form of Handle.
func (p *Plugin) Call(ctx context.Context, call MethodCall) Response {
	ch := make(chan Response, 1)
	p.Handle(ctx, call, func(r Response) { ch <- r })
	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		return Response{Err: toError(ctx.Err())}
	}
}
