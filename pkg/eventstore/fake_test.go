package eventstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// memNative is an in-memory Native with failure injection.
type memNative struct {
	status   AuthorizationStatus
	grant    bool
	sources  []*Source
	def      *Source
	cals     map[string]*Calendar
	events   map[string]*Event
	seq      int
	saveErr  error
	resets   int
	commits  int
	accessCh chan struct{}
}

func newMemNative(sources ...*Source) *memNative {
	n := &memNative{
		cals:    map[string]*Calendar{},
		events:  map[string]*Event{},
		sources: sources,
	}
	if len(sources) > 0 {
		n.def = sources[0]
	}
	return n
}

func (n *memNative) nextID(prefix string) string {
	n.seq++
	return fmt.Sprintf("%s-%d", prefix, n.seq)
}

func (n *memNative) AuthorizationStatus(EntityType) AuthorizationStatus { return n.status }

func (n *memNative) RequestAccess(ctx context.Context, _ EntityType) (bool, error) {
	if n.accessCh != nil {
		select {
		case <-n.accessCh:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if n.grant {
		n.status = Authorized
	} else {
		n.status = Denied
	}
	return n.grant, nil
}

func (n *memNative) Sources(context.Context) ([]*Source, error) { return n.sources, nil }

func (n *memNative) DefaultSource(context.Context) (*Source, error) { return n.def, nil }

func (n *memNative) Calendars(_ context.Context, entity EntityType) ([]*Calendar, error) {
	var out []*Calendar
	for _, c := range n.cals {
		if c.Entity == entity {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (n *memNative) Calendar(_ context.Context, id string) (*Calendar, error) {
	c, ok := n.cals[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (n *memNative) SaveCalendar(_ context.Context, c *Calendar, commit bool) error {
	if n.saveErr != nil {
		return n.saveErr
	}
	if c.ID == "" {
		c.ID = n.nextID("cal")
		c.AllowsContentModifications = true
	}
	cp := *c
	n.cals[c.ID] = &cp
	if commit {
		n.commits++
	}
	return nil
}

func (n *memNative) RemoveCalendar(_ context.Context, c *Calendar, commit bool) error {
	if n.saveErr != nil {
		return n.saveErr
	}
	delete(n.cals, c.ID)
	for id, e := range n.events {
		if e.CalendarID == c.ID {
			delete(n.events, id)
		}
	}
	if commit {
		n.commits++
	}
	return nil
}

func (n *memNative) Event(_ context.Context, id string) (*Event, error) {
	e, ok := n.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	cp.Alarms = append([]Alarm(nil), e.Alarms...)
	return &cp, nil
}

func (n *memNative) Events(_ context.Context, p Predicate) ([]*Event, error) {
	var out []*Event
	for _, e := range n.events {
		in := false
		for _, id := range p.CalendarIDs {
			if e.CalendarID == id {
				in = true
			}
		}
		if !in || e.End.Before(p.Start) || e.Start.After(p.End) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (n *memNative) SaveEvent(_ context.Context, e *Event, _ Span, commit bool) error {
	if n.saveErr != nil {
		return n.saveErr
	}
	if e.ID == "" {
		e.ID = n.nextID("evt")
	}
	cp := *e
	cp.Alarms = append([]Alarm(nil), e.Alarms...)
	n.events[e.ID] = &cp
	if commit {
		n.commits++
	}
	return nil
}

func (n *memNative) RemoveEvent(_ context.Context, e *Event, _ Span, commit bool) error {
	if n.saveErr != nil {
		return n.saveErr
	}
	delete(n.events, e.ID)
	if commit {
		n.commits++
	}
	return nil
}

func (n *memNative) Reset() { n.resets++ }

func (n *memNative) addCalendar(title string, writable bool, src *Source) *Calendar {
	c := &Calendar{ID: n.nextID("cal"), Title: title, Entity: EntityEvent, AllowsContentModifications: writable, Source: src}
	n.cals[c.ID] = c
	return c
}

func (n *memNative) addEvent(calID string, start, end time.Time) *Event {
	e := &Event{ID: n.nextID("evt"), CalendarID: calID, Title: "seeded", Start: start, End: end, TimeZone: time.UTC}
	n.events[e.ID] = e
	return e
}

var errDiskFull = errors.New("disk full")
