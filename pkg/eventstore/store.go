package eventstore

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
)

// Store implements calendar.Store on top of a Native event store.
type Store struct {
	native Native
	logger zerolog.Logger
}

var _ calendar.Store = (*Store)(nil)

func New(native Native, logger zerolog.Logger) *Store {
	return &Store{native: native, logger: logger.With().Str("adapter", "eventstore").Logger()}
}

// rollback resets the native transaction context and classifies err.
func (s *Store) rollback(op string, err error) error {
	s.native.Reset()
	s.logger.Warn().Err(err).Str("op", op).Msg("native save failed, transaction context reset")
	return calendar.Generic(op, err)
}

func (s *Store) CreateCalendar(ctx context.Context, title string, color uint32, account *calendar.Account) (*calendar.Calendar, error) {
	const op = "createCalendar"

	sources, err := s.native.Sources(ctx)
	if err != nil {
		return nil, calendar.Generic(op, err)
	}
	def, err := s.native.DefaultSource(ctx)
	if err != nil {
		return nil, calendar.Generic(op, err)
	}

	accounts := make([]calendar.Account, len(sources))
	for i, src := range sources {
		accounts[i] = toAccount(src)
	}
	var defAccount *calendar.Account
	if def != nil {
		a := toAccount(def)
		defAccount = &a
	}

	chosen, ok := calendar.ResolveSource(accounts, account, defAccount)
	if !ok {
		return nil, calendar.NotFound(op, "no calendar source available")
	}
	src := def
	for _, candidate := range sources {
		if toAccount(candidate) == chosen {
			src = candidate
			break
		}
	}

	c := &Calendar{
		Title:  title,
		Color:  color,
		Entity: EntityEvent,
		Source: src,
	}
	if err := s.native.SaveCalendar(ctx, c, true); err != nil {
		return nil, s.rollback(op, err)
	}
	s.logger.Debug().Str("id", c.ID).Str("source", src.Title).Msg("calendar created")
	return toCalendar(c), nil
}

func (s *Store) RetrieveCalendars(ctx context.Context, onlyWritable bool) ([]*calendar.Calendar, error) {
	cals, err := s.native.Calendars(ctx, EntityEvent)
	if err != nil {
		return nil, calendar.Generic("retrieveCalendars", err)
	}
	out := make([]*calendar.Calendar, 0, len(cals))
	for _, c := range cals {
		if onlyWritable && !c.AllowsContentModifications {
			continue
		}
		out = append(out, toCalendar(c))
	}
	return out, nil
}

func (s *Store) DeleteCalendar(ctx context.Context, id string) error {
	const op = "deleteCalendar"
	c, err := s.calendar(ctx, op, id)
	if err != nil {
		return err
	}
	if !c.AllowsContentModifications {
		return calendar.NotEditable(op, "calendar %s is read-only", id)
	}
	if err := s.native.RemoveCalendar(ctx, c, true); err != nil {
		return s.rollback(op, err)
	}
	s.logger.Debug().Str("id", id).Msg("calendar deleted")
	return nil
}

func (s *Store) CreateEvent(ctx context.Context, ne calendar.NewEvent) (*calendar.Event, error) {
	const op = "createEvent"
	if _, err := s.calendar(ctx, op, ne.CalendarID); err != nil {
		return nil, err
	}
	e := &Event{
		CalendarID: ne.CalendarID,
		Title:      ne.Title,
		Start:      time.UnixMilli(ne.StartDate).UTC(),
		End:        time.UnixMilli(ne.EndDate).UTC(),
		AllDay:     ne.IsAllDay,
		TimeZone:   time.UTC,
		Notes:      ne.Description,
		URL:        ne.URL,
	}
	if err := s.native.SaveEvent(ctx, e, ThisEvent, true); err != nil {
		return nil, s.rollback(op, err)
	}
	s.logger.Debug().Str("id", e.ID).Str("calendar", e.CalendarID).Msg("event created")
	return toEvent(e), nil
}

func (s *Store) RetrieveEvents(ctx context.Context, calendarID string, startDate, endDate int64) ([]*calendar.Event, error) {
	const op = "retrieveEvents"
	if _, err := s.calendar(ctx, op, calendarID); err != nil {
		return nil, err
	}
	evs, err := s.native.Events(ctx, Predicate{
		Start:       time.UnixMilli(startDate).UTC(),
		End:         time.UnixMilli(endDate).UTC(),
		CalendarIDs: []string{calendarID},
	})
	if err != nil {
		return nil, calendar.Generic(op, err)
	}
	out := make([]*calendar.Event, 0, len(evs))
	for _, e := range evs {
		ev := toEvent(e)
		if ev.CalendarID != calendarID || !calendar.Within(ev.StartDate, ev.EndDate, startDate, endDate) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	const op = "deleteEvent"
	e, err := s.event(ctx, op, id)
	if err != nil {
		return err
	}
	c, err := s.calendar(ctx, op, e.CalendarID)
	if err != nil {
		return err
	}
	if !c.AllowsContentModifications {
		return calendar.NotEditable(op, "calendar %s is read-only", c.ID)
	}
	if err := s.native.RemoveEvent(ctx, e, ThisEvent, true); err != nil {
		return s.rollback(op, err)
	}
	s.logger.Debug().Str("id", id).Msg("event deleted")
	return nil
}

func (s *Store) CreateReminder(ctx context.Context, eventID string, minuteOffset int) (*calendar.Event, error) {
	const op = "createReminder"
	e, err := s.event(ctx, op, eventID)
	if err != nil {
		return nil, err
	}
	e.Alarms = append(e.Alarms, Alarm{RelativeOffset: time.Duration(minuteOffset) * time.Minute})
	if err := s.native.SaveEvent(ctx, e, ThisEvent, true); err != nil {
		return nil, s.rollback(op, err)
	}
	return toEvent(e), nil
}

func (s *Store) DeleteReminder(ctx context.Context, eventID string, minuteOffset int) (*calendar.Event, error) {
	const op = "deleteReminder"
	e, err := s.event(ctx, op, eventID)
	if err != nil {
		return nil, err
	}
	offset := time.Duration(minuteOffset) * time.Minute
	kept := e.Alarms[:0:0]
	for _, a := range e.Alarms {
		if a.RelativeOffset != offset {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(e.Alarms) {
		return nil, calendar.NotFound(op, "event %s has no reminder at %d minutes", eventID, minuteOffset)
	}
	e.Alarms = kept
	if err := s.native.SaveEvent(ctx, e, ThisEvent, true); err != nil {
		return nil, s.rollback(op, err)
	}
	return toEvent(e), nil
}

func (s *Store) calendar(ctx context.Context, op, id string) (*Calendar, error) {
	c, err := s.native.Calendar(ctx, id)
	if err != nil {
		return nil, calendar.Generic(op, err)
	}
	if c == nil || c.Entity != EntityEvent {
		return nil, calendar.NotFound(op, "calendar %s", id)
	}
	return c, nil
}

func (s *Store) event(ctx context.Context, op, id string) (*Event, error) {
	e, err := s.native.Event(ctx, id)
	if err != nil {
		return nil, calendar.Generic(op, err)
	}
	if e == nil {
		return nil, calendar.NotFound(op, "event %s", id)
	}
	return e, nil
}

func toAccount(src *Source) calendar.Account {
	return calendar.Account{Name: src.Title, Type: src.Type}
}

func toCalendar(c *Calendar) *calendar.Calendar {
	out := &calendar.Calendar{
		ID:         c.ID,
		Title:      c.Title,
		Color:      c.Color,
		IsWritable: c.AllowsContentModifications,
	}
	if c.Source != nil {
		out.Account = toAccount(c.Source)
	}
	return out
}

func toEvent(e *Event) *calendar.Event {
	out := &calendar.Event{
		ID:          e.ID,
		CalendarID:  e.CalendarID,
		Title:       e.Title,
		IsAllDay:    e.AllDay,
		StartDate:   calendar.Millis(e.Start),
		EndDate:     calendar.Millis(e.End),
		Description: e.Notes,
		URL:         e.URL,
		Reminders:   make([]int, 0, len(e.Alarms)),
	}
	for _, a := range e.Alarms {
		out.Reminders = append(out.Reminders, int(a.RelativeOffset/time.Minute))
	}
	return out
}
