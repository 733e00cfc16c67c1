package provider

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
)

var calendarProjection = []string{
	ColID, ColCalendarDisplayName, ColCalendarColor, ColCalendarAccessLevel, ColAccountName, ColAccountType,
}

var eventProjection = []string{
	ColID, ColCalendarID, ColTitle, ColDescription, ColDTStart, ColDTEnd, ColAllDay, ColCustomAppURI,
}

// Store implements calendar.Store against a content Resolver.
type Store struct {
	resolver Resolver
	logger   zerolog.Logger
}

var _ calendar.Store = (*Store)(nil)

func New(resolver Resolver, logger zerolog.Logger) *Store {
	return &Store{resolver: resolver, logger: logger.With().Str("adapter", "provider").Logger()}
}

func (s *Store) fail(op string, err error) error {
	s.logger.Warn().Err(err).Str("op", op).Msg("provider write failed, batch rolled back")
	return calendar.Generic(op, err)
}

func (s *Store) CreateCalendar(ctx context.Context, title string, color uint32, acct *calendar.Account) (*calendar.Calendar, error) {
	const op = "createCalendar"

	rows, err := s.resolver.Query(ctx, AccountsURI, []string{ColAccountName, ColAccountType, ColIsDefault}, "", nil, ColID+" ASC")
	if err != nil {
		return nil, calendar.Generic(op, err)
	}
	accounts := make([]account, len(rows))
	unified := make([]calendar.Account, len(rows))
	var def *calendar.Account
	for i, r := range rows {
		accounts[i] = account{name: r.String(ColAccountName), providerType: r.String(ColAccountType), isDefault: r.Bool(ColIsDefault)}
		unified[i] = accounts[i].unified()
		if accounts[i].isDefault && def == nil {
			def = &unified[i]
		}
	}

	chosen, ok := calendar.ResolveSource(unified, acct, def)
	if !ok {
		return nil, calendar.NotFound(op, "no calendar account available")
	}
	var target account
	for i, u := range unified {
		if u == chosen {
			target = accounts[i]
			break
		}
	}

	id, err := s.resolver.Insert(ctx, CalendarsURI, Values{
		ColAccountName:         target.name,
		ColAccountType:         target.providerType,
		ColCalendarDisplayName: title,
		ColCalendarColor:       int64(color),
		ColCalendarAccessLevel: AccessOwner,
		ColOwnerAccount:        target.name,
		ColVisible:             1,
	})
	if err != nil {
		return nil, s.fail(op, err)
	}
	s.logger.Debug().Int64("id", id).Str("account", target.name).Msg("calendar created")

	c, err := s.calendar(ctx, op, strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}
	return toCalendar(c), nil
}

func (s *Store) RetrieveCalendars(ctx context.Context, onlyWritable bool) ([]*calendar.Calendar, error) {
	var selection string
	var args []any
	if onlyWritable {
		selection = ColCalendarAccessLevel + " >= ?"
		args = []any{AccessContributor}
	}
	rows, err := s.resolver.Query(ctx, CalendarsURI, calendarProjection, selection, args, ColID+" ASC")
	if err != nil {
		return nil, calendar.Generic("retrieveCalendars", err)
	}
	out := make([]*calendar.Calendar, 0, len(rows))
	for _, r := range rows {
		out = append(out, toCalendar(r))
	}
	return out, nil
}

func (s *Store) DeleteCalendar(ctx context.Context, id string) error {
	const op = "deleteCalendar"
	c, err := s.calendar(ctx, op, id)
	if err != nil {
		return err
	}
	if !writable(c) {
		return calendar.NotEditable(op, "calendar %s is read-only", id)
	}
	calID := c.Int64(ColID)
	err = s.resolver.ApplyBatch(ctx, []Operation{
		{Kind: OpDelete, URI: RemindersURI, Selection: ColEventID + " IN (SELECT " + ColID + " FROM events WHERE " + ColCalendarID + " = ?)", Args: []any{calID}},
		{Kind: OpDelete, URI: EventsURI, Selection: ColCalendarID + " = ?", Args: []any{calID}},
		{Kind: OpDelete, URI: CalendarsURI, Selection: ColID + " = ?", Args: []any{calID}},
	})
	if err != nil {
		return s.fail(op, err)
	}
	s.logger.Debug().Str("id", id).Msg("calendar deleted")
	return nil
}

func (s *Store) CreateEvent(ctx context.Context, ne calendar.NewEvent) (*calendar.Event, error) {
	const op = "createEvent"
	c, err := s.calendar(ctx, op, ne.CalendarID)
	if err != nil {
		return nil, err
	}
	values := Values{
		ColCalendarID:    c.Int64(ColID),
		ColTitle:         ne.Title,
		ColDTStart:       ne.StartDate,
		ColDTEnd:         ne.EndDate,
		ColAllDay:        boolInt(ne.IsAllDay),
		ColEventTimezone: "UTC",
		ColHasAlarm:      0,
		ColDescription:   nil,
		ColCustomAppURI:  nil,
	}
	if ne.Description != nil {
		values[ColDescription] = *ne.Description
	}
	if ne.URL != nil {
		values[ColCustomAppURI] = *ne.URL
	}
	id, err := s.resolver.Insert(ctx, EventsURI, values)
	if err != nil {
		return nil, s.fail(op, err)
	}
	s.logger.Debug().Int64("id", id).Str("calendar", ne.CalendarID).Msg("event created")
	return s.loadEvent(ctx, op, strconv.FormatInt(id, 10))
}

func (s *Store) RetrieveEvents(ctx context.Context, calendarID string, startDate, endDate int64) ([]*calendar.Event, error) {
	const op = "retrieveEvents"
	c, err := s.calendar(ctx, op, calendarID)
	if err != nil {
		return nil, err
	}
	window := ColCalendarID + " = ? AND " + ColDTStart + " >= ? AND " + ColDTEnd + " <= ?"
	args := []any{c.Int64(ColID), startDate, endDate}

	rows, err := s.resolver.Query(ctx, EventsURI, eventProjection, window, args, ColDTStart+" ASC, "+ColID+" ASC")
	if err != nil {
		return nil, calendar.Generic(op, err)
	}
	reminders, err := s.resolver.Query(ctx, RemindersURI, []string{ColEventID, ColMinutes},
		ColEventID+" IN (SELECT "+ColID+" FROM events WHERE "+window+")", args, ColID+" ASC")
	if err != nil {
		return nil, calendar.Generic(op, err)
	}
	byEvent := make(map[int64][]Values)
	for _, r := range reminders {
		byEvent[r.Int64(ColEventID)] = append(byEvent[r.Int64(ColEventID)], r)
	}

	out := make([]*calendar.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, toEvent(r, byEvent[r.Int64(ColID)]))
	}
	return out, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	const op = "deleteEvent"
	e, err := s.eventRow(ctx, op, id)
	if err != nil {
		return err
	}
	c, err := s.calendar(ctx, op, e.String(ColCalendarID))
	if err != nil {
		return err
	}
	if !writable(c) {
		return calendar.NotEditable(op, "calendar %s is read-only", c.String(ColID))
	}
	evID := e.Int64(ColID)
	err = s.resolver.ApplyBatch(ctx, []Operation{
		{Kind: OpDelete, URI: RemindersURI, Selection: ColEventID + " = ?", Args: []any{evID}},
		{Kind: OpDelete, URI: EventsURI, Selection: ColID + " = ?", Args: []any{evID}},
	})
	if err != nil {
		return s.fail(op, err)
	}
	s.logger.Debug().Str("id", id).Msg("event deleted")
	return nil
}

// CreateReminder stores the offset in provider form, minutes before start.
func (s *Store) CreateReminder(ctx context.Context, eventID string, minuteOffset int) (*calendar.Event, error) {
	const op = "createReminder"
	e, err := s.eventRow(ctx, op, eventID)
	if err != nil {
		return nil, err
	}
	evID := e.Int64(ColID)
	err = s.resolver.ApplyBatch(ctx, []Operation{
		{Kind: OpInsert, URI: RemindersURI, Values: Values{ColEventID: evID, ColMinutes: -minuteOffset, ColMethod: MethodAlert}},
		{Kind: OpUpdate, URI: EventsURI, Values: Values{ColHasAlarm: 1}, Selection: ColID + " = ?", Args: []any{evID}},
	})
	if err != nil {
		return nil, s.fail(op, err)
	}
	return s.loadEvent(ctx, op, eventID)
}

func (s *Store) DeleteReminder(ctx context.Context, eventID string, minuteOffset int) (*calendar.Event, error) {
	const op = "deleteReminder"
	e, err := s.eventRow(ctx, op, eventID)
	if err != nil {
		return nil, err
	}
	evID := e.Int64(ColID)
	rems, err := s.reminders(ctx, op, evID)
	if err != nil {
		return nil, err
	}
	matched := 0
	for _, r := range rems {
		if -int(r.Int64(ColMinutes)) == minuteOffset {
			matched++
		}
	}
	if matched == 0 {
		return nil, calendar.NotFound(op, "event %s has no reminder at %d minutes", eventID, minuteOffset)
	}
	err = s.resolver.ApplyBatch(ctx, []Operation{
		{Kind: OpDelete, URI: RemindersURI, Selection: ColEventID + " = ? AND " + ColMinutes + " = ?", Args: []any{evID, -minuteOffset}},
		{Kind: OpUpdate, URI: EventsURI, Values: Values{ColHasAlarm: boolInt(len(rems) > matched)}, Selection: ColID + " = ?", Args: []any{evID}},
	})
	if err != nil {
		return nil, s.fail(op, err)
	}
	return s.loadEvent(ctx, op, eventID)
}

func (s *Store) calendar(ctx context.Context, op, id string) (Values, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, calendar.NotFound(op, "calendar %s", id)
	}
	rows, err := s.resolver.Query(ctx, CalendarsURI, calendarProjection, ColID+" = ?", []any{n}, "")
	if err != nil {
		return nil, calendar.Generic(op, err)
	}
	if len(rows) == 0 {
		return nil, calendar.NotFound(op, "calendar %s", id)
	}
	return rows[0], nil
}

func (s *Store) eventRow(ctx context.Context, op, id string) (Values, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, calendar.NotFound(op, "event %s", id)
	}
	rows, err := s.resolver.Query(ctx, EventsURI, eventProjection, ColID+" = ?", []any{n}, "")
	if err != nil {
		return nil, calendar.Generic(op, err)
	}
	if len(rows) == 0 {
		return nil, calendar.NotFound(op, "event %s", id)
	}
	return rows[0], nil
}

func (s *Store) reminders(ctx context.Context, op string, eventID int64) ([]Values, error) {
	rows, err := s.resolver.Query(ctx, RemindersURI, []string{ColEventID, ColMinutes}, ColEventID+" = ?", []any{eventID}, ColID+" ASC")
	if err != nil {
		return nil, calendar.Generic(op, err)
	}
	return rows, nil
}

func (s *Store) loadEvent(ctx context.Context, op, id string) (*calendar.Event, error) {
	e, err := s.eventRow(ctx, op, id)
	if err != nil {
		return nil, err
	}
	rems, err := s.reminders(ctx, op, e.Int64(ColID))
	if err != nil {
		return nil, err
	}
	return toEvent(e, rems), nil
}

func writable(c Values) bool {
	return c.Int64(ColCalendarAccessLevel) >= AccessContributor
}

func toCalendar(r Values) *calendar.Calendar {
	return &calendar.Calendar{
		ID:         r.String(ColID),
		Title:      r.String(ColCalendarDisplayName),
		Color:      uint32(r.Int64(ColCalendarColor)),
		IsWritable: writable(r),
		Account: account{
			name:         r.String(ColAccountName),
			providerType: r.String(ColAccountType),
		}.unified(),
	}
}

func toEvent(r Values, reminders []Values) *calendar.Event {
	e := &calendar.Event{
		ID:          r.String(ColID),
		CalendarID:  r.String(ColCalendarID),
		Title:       r.String(ColTitle),
		IsAllDay:    r.Bool(ColAllDay),
		StartDate:   r.Int64(ColDTStart),
		EndDate:     r.Int64(ColDTEnd),
		Description: r.StringPtr(ColDescription),
		URL:         r.StringPtr(ColCustomAppURI),
		Reminders:   make([]int, 0, len(reminders)),
	}
	for _, rem := range reminders {
		e.Reminders = append(e.Reminders, -int(rem.Int64(ColMinutes)))
	}
	return e
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
