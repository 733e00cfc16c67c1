package plugin

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
	"github.com/sonroyaalmerol/device-calendar/pkg/permission"
)

type permHost struct {
	mu       sync.Mutex
	granted  permission.Capability
	answer   bool
	requests int
}

func (h *permHost) ID() string { return "main" }

func (h *permHost) Granted(_ context.Context, c permission.Capability) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.granted.Has(c), nil
}

func (h *permHost) Request(_ context.Context, missing permission.Capability) (<-chan permission.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests++
	if h.answer {
		h.granted |= missing
	}
	ch := make(chan permission.Result, 1)
	ch <- permission.Result{Granted: h.answer}
	return ch, nil
}

type viewHost struct {
	mu     sync.Mutex
	opened []string
}

func (h *viewHost) ID() string { return "main" }

func (h *viewHost) ShareURI(path string) (string, error) {
	return "content://share/" + filepath.Base(path), nil
}

func (h *viewHost) Open(_ context.Context, uri, _ string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opened = append(h.opened, uri)
	return nil
}

// memStore is a minimal calendar.Store keyed by id.
type memStore struct {
	mu     sync.Mutex
	cals   map[string]*calendar.Calendar
	events map[string]*calendar.Event
	calls  int
}

func newMemStore() *memStore {
	return &memStore{cals: map[string]*calendar.Calendar{}, events: map[string]*calendar.Event{}}
}

func (s *memStore) CreateCalendar(_ context.Context, title string, color uint32, acct *calendar.Account) (*calendar.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	a := calendar.Account{Name: "On My Device", Type: calendar.AccountLocal}
	if acct != nil {
		a = *acct
	}
	c := &calendar.Calendar{ID: "cal-" + title, Title: title, Color: color, IsWritable: true, Account: a}
	s.cals[c.ID] = c
	return c, nil
}

func (s *memStore) RetrieveCalendars(_ context.Context, onlyWritable bool) ([]*calendar.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	out := []*calendar.Calendar{}
	for _, c := range s.cals {
		if !onlyWritable || c.IsWritable {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) DeleteCalendar(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	c, ok := s.cals[id]
	if !ok {
		return calendar.NotFound("deleteCalendar", "calendar %s", id)
	}
	if !c.IsWritable {
		return calendar.NotEditable("deleteCalendar", "calendar %s is read-only", id)
	}
	delete(s.cals, id)
	return nil
}

func (s *memStore) CreateEvent(_ context.Context, ne calendar.NewEvent) (*calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if _, ok := s.cals[ne.CalendarID]; !ok {
		return nil, calendar.NotFound("createEvent", "calendar %s", ne.CalendarID)
	}
	e := &calendar.Event{ID: "ev-" + ne.Title, CalendarID: ne.CalendarID, Title: ne.Title, IsAllDay: ne.IsAllDay,
		StartDate: ne.StartDate, EndDate: ne.EndDate, Description: ne.Description, URL: ne.URL, Reminders: []int{}}
	s.events[e.ID] = e
	return e, nil
}

func (s *memStore) RetrieveEvents(_ context.Context, calID string, from, to int64) ([]*calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if _, ok := s.cals[calID]; !ok {
		return nil, calendar.NotFound("retrieveEvents", "calendar %s", calID)
	}
	out := []*calendar.Event{}
	for _, e := range s.events {
		if e.CalendarID == calID && calendar.Within(e.StartDate, e.EndDate, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if _, ok := s.events[id]; !ok {
		return calendar.NotFound("deleteEvent", "event %s", id)
	}
	delete(s.events, id)
	return nil
}

func (s *memStore) CreateReminder(_ context.Context, id string, minutes int) (*calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	e, ok := s.events[id]
	if !ok {
		return nil, calendar.NotFound("createReminder", "event %s", id)
	}
	e.Reminders = append(e.Reminders, minutes)
	return e, nil
}

func (s *memStore) DeleteReminder(_ context.Context, id string, minutes int) (*calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	e, ok := s.events[id]
	if !ok {
		return nil, calendar.NotFound("deleteReminder", "event %s", id)
	}
	kept := e.Reminders[:0]
	for _, m := range e.Reminders {
		if m != minutes {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(e.Reminders) {
		return nil, calendar.NotFound("deleteReminder", "no reminder at %d", minutes)
	}
	e.Reminders = kept
	return e, nil
}

func (s *memStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
