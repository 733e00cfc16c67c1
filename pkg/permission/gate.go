package permission

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
)

// Callbacks receive the outcome of CheckThenExecute. Exactly one of them is
// invoked, once.
type Callbacks struct {
	OnGranted func()
	OnRefused func()
	OnError   func(error)
}

// Gate checks grant state on every call and prompts for the missing subset.
// A Gate is meant to be owned by one application session; it serialises
// requests so that at most one platform prompt is outstanding.
type Gate struct {
	mu      sync.Mutex
	host    Host
	pending bool
	logger  zerolog.Logger
}

func NewGate(logger zerolog.Logger) *Gate {
	return &Gate{logger: logger.With().Str("component", "permission").Logger()}
}

// Bind attaches the foreground context. Passing nil unbinds it.
func (g *Gate) Bind(h Host) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.host = h
}

func (g *Gate) currentHost() Host {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.host
}

// Missing returns the capabilities in need that are not currently granted.
func (g *Gate) Missing(ctx context.Context, need Capability) (Capability, error) {
	h := g.currentHost()
	if h == nil {
		return 0, calendar.State("checkPermissions")
	}
	return missing(ctx, h, need)
}

func missing(ctx context.Context, h Host, need Capability) (Capability, error) {
	var out Capability
	var ferr error
	need.Each(func(c Capability) {
		if ferr != nil {
			return
		}
		ok, err := h.Granted(ctx, c)
		if err != nil {
			ferr = err
			return
		}
		if !ok {
			out |= c
		}
	})
	return out, ferr
}

// HasPermissions reports whether every capability in need is granted,
// without prompting.
func (g *Gate) HasPermissions(ctx context.Context, need Capability) (bool, error) {
	m, err := g.Missing(ctx, need)
	if err != nil {
		return false, err
	}
	return m == 0, nil
}

// CheckThenExecute runs cb.OnGranted immediately when need is already
// satisfied. Otherwise it requests only the missing capabilities and
// reports the user's answer through OnGranted or OnRefused. Platform
// faults, a missing host, and overlapping requests go to OnError.
func (g *Gate) CheckThenExecute(ctx context.Context, need Capability, cb Callbacks) {
	fire := once(cb)

	g.mu.Lock()
	h := g.host
	if h == nil {
		g.mu.Unlock()
		fire.err(calendar.State("checkThenExecute"))
		return
	}
	g.mu.Unlock()

	miss, err := missing(ctx, h, need)
	if err != nil {
		g.logger.Error().Err(err).Str("need", need.String()).Msg("permission status check failed")
		fire.err(err)
		return
	}
	if miss == 0 {
		fire.granted()
		return
	}

	g.mu.Lock()
	if g.pending {
		g.mu.Unlock()
		g.logger.Warn().Str("need", need.String()).Msg("rejecting overlapping permission request")
		fire.err(ErrRequestInProgress)
		return
	}
	g.pending = true
	g.mu.Unlock()

	g.logger.Debug().Str("host", h.ID()).Str("missing", miss.String()).Msg("requesting permissions")
	ch, err := h.Request(ctx, miss)
	if err != nil {
		g.release()
		g.logger.Error().Err(err).Msg("permission request failed")
		fire.err(err)
		return
	}

	go func() {
		var res Result
		select {
		case res = <-ch:
		case <-ctx.Done():
			fire.err(ctx.Err())
			// the prompt is still on screen; the slot stays taken until it answers
			<-ch
			g.release()
			return
		}
		g.release()
		switch {
		case res.Err != nil:
			fire.err(res.Err)
		case res.Granted:
			fire.granted()
		default:
			g.logger.Info().Str("missing", miss.String()).Msg("permissions refused")
			fire.refused()
		}
	}()
}

func (g *Gate) release() {
	g.mu.Lock()
	g.pending = false
	g.mu.Unlock()
}

type onceCallbacks struct {
	once sync.Once
	cb   Callbacks
}

func once(cb Callbacks) *onceCallbacks { return &onceCallbacks{cb: cb} }

func (o *onceCallbacks) granted() {
	o.once.Do(func() {
		if o.cb.OnGranted != nil {
			o.cb.OnGranted()
		}
	})
}

func (o *onceCallbacks) refused() {
	o.once.Do(func() {
		if o.cb.OnRefused != nil {
			o.cb.OnRefused()
		}
	})
}

func (o *onceCallbacks) err(err error) {
	o.once.Do(func() {
		if o.cb.OnError != nil {
			o.cb.OnError(err)
		}
	})
}

// Require blocks until CheckThenExecute resolves. It returns nil when
// granted and ErrRefused when the user declined.
func (g *Gate) Require(ctx context.Context, need Capability) error {
	done := make(chan error, 1)
	g.CheckThenExecute(ctx, need, Callbacks{
		OnGranted: func() { done <- nil },
		OnRefused: func() { done <- ErrRefused },
		OnError:   func(err error) { done <- err },
	})
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
