package plugin

import (
	"context"
	"time"

	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
	"github.com/sonroyaalmerol/device-calendar/pkg/ics"
	"github.com/sonroyaalmerol/device-calendar/pkg/permission"
)

// Argument keys.
const (
	argOnlyWritable = "onlyWritableCalendars"
	argTitle        = "title"
	argColor        = "color"
	argAccount      = "account"
	argAccountName  = "name"
	argAccountType  = "type"
	argCalendarID   = "calendarId"
	argEventID      = "eventId"
	argStartDate    = "startDate"
	argEndDate      = "endDate"
	argIsAllDay     = "isAllDay"
	argDescription  = "description"
	argURL          = "url"
	argLocation     = "location"
	argMinutes      = "minutes"
	argReminders    = "reminders"
)

func (p *Plugin) hasPermissions(ctx context.Context, _ Args, done func(any, error)) {
	ok, err := p.gate.HasPermissions(ctx, permission.ReadWrite)
	if err != nil {
		done(nil, &permissionFault{err: err})
		return
	}
	done(ok, nil)
}

// requestPermissions reports a refusal as false rather than as an error.
func (p *Plugin) requestPermissions(ctx context.Context, _ Args, done func(any, error)) {
	p.gate.CheckThenExecute(ctx, permission.ReadWrite, permission.Callbacks{
		OnGranted: func() { done(true, nil) },
		OnRefused: func() { done(false, nil) },
		OnError:   func(err error) { done(nil, &permissionFault{err: err}) },
	})
}

func (p *Plugin) retrieveCalendars(ctx context.Context, a Args, done func(any, error)) {
	onlyWritable, err := a.Bool(argOnlyWritable, false)
	if err != nil {
		done(nil, err)
		return
	}
	done(p.store.RetrieveCalendars(ctx, onlyWritable))
}

func (p *Plugin) createCalendar(ctx context.Context, a Args, done func(any, error)) {
	title, err := a.String(argTitle)
	if err != nil {
		done(nil, err)
		return
	}
	color, err := a.Color(argColor)
	if err != nil {
		done(nil, err)
		return
	}
	account, err := accountArg(a)
	if err != nil {
		done(nil, err)
		return
	}
	done(p.store.CreateCalendar(ctx, title, color, account))
}

func accountArg(a Args) (*calendar.Account, error) {
	m, err := a.Map(argAccount)
	if err != nil || m == nil {
		return nil, err
	}
	name, err := m.String(argAccountName)
	if err != nil {
		return nil, &ArgError{Key: argAccount + "." + argAccountName, Reason: "is required"}
	}
	typ, err := m.String(argAccountType)
	if err != nil {
		return nil, &ArgError{Key: argAccount + "." + argAccountType, Reason: "is required"}
	}
	return &calendar.Account{Name: name, Type: calendar.AccountType(typ)}, nil
}

func (p *Plugin) deleteCalendar(ctx context.Context, a Args, done func(any, error)) {
	id, err := a.String(argCalendarID)
	if err != nil {
		done(nil, err)
		return
	}
	done(nil, p.store.DeleteCalendar(ctx, id))
}

func (p *Plugin) retrieveEvents(ctx context.Context, a Args, done func(any, error)) {
	id, err := a.String(argCalendarID)
	if err != nil {
		done(nil, err)
		return
	}
	start, err := a.Int64(argStartDate)
	if err != nil {
		done(nil, err)
		return
	}
	end, err := a.Int64(argEndDate)
	if err != nil {
		done(nil, err)
		return
	}
	done(p.store.RetrieveEvents(ctx, id, start, end))
}

func (p *Plugin) createEvent(ctx context.Context, a Args, done func(any, error)) {
	ne, err := newEventArgs(a)
	if err != nil {
		done(nil, err)
		return
	}
	done(p.store.CreateEvent(ctx, ne))
}

func newEventArgs(a Args) (ne calendar.NewEvent, err error) {
	if ne.CalendarID, err = a.String(argCalendarID); err != nil {
		return
	}
	if ne.Title, err = a.String(argTitle); err != nil {
		return
	}
	if ne.StartDate, err = a.Int64(argStartDate); err != nil {
		return
	}
	if ne.EndDate, err = a.Int64(argEndDate); err != nil {
		return
	}
	if ne.IsAllDay, err = a.Bool(argIsAllDay, false); err != nil {
		return
	}
	if ne.Description, err = a.OptString(argDescription); err != nil {
		return
	}
	ne.URL, err = a.OptString(argURL)
	return
}

func (p *Plugin) deleteEvent(ctx context.Context, a Args, done func(any, error)) {
	id, err := a.String(argEventID)
	if err != nil {
		done(nil, err)
		return
	}
	done(nil, p.store.DeleteEvent(ctx, id))
}

func reminderArgs(a Args) (string, int, error) {
	id, err := a.String(argEventID)
	if err != nil {
		return "", 0, err
	}
	minutes, err := a.Int(argMinutes)
	if err != nil {
		return "", 0, err
	}
	return id, minutes, nil
}

func (p *Plugin) createReminder(ctx context.Context, a Args, done func(any, error)) {
	id, minutes, err := reminderArgs(a)
	if err != nil {
		done(nil, err)
		return
	}
	done(p.store.CreateReminder(ctx, id, minutes))
}

func (p *Plugin) deleteReminder(ctx context.Context, a Args, done func(any, error)) {
	id, minutes, err := reminderArgs(a)
	if err != nil {
		done(nil, err)
		return
	}
	done(p.store.DeleteReminder(ctx, id, minutes))
}

// shareEvent renders the arguments as an ICS document, hands it to an
// external viewer and completes with true once the user comes back.
func (p *Plugin) shareEvent(ctx context.Context, a Args, done func(any, error)) {
	ev, err := icsEventArgs(a)
	if err != nil {
		done(nil, err)
		return
	}
	content, err := p.generator.Generate(ev)
	if err != nil {
		done(nil, err)
		return
	}
	if err := p.share.Share(ctx, content, func() { done(true, nil) }); err != nil {
		done(nil, err)
	}
}

func icsEventArgs(a Args) (ics.Event, error) {
	var ev ics.Event
	title, err := a.OptString(argTitle)
	if err != nil {
		return ev, err
	}
	if title != nil {
		ev.Title = *title
	}
	for key, dst := range map[string]**time.Time{argStartDate: &ev.Start, argEndDate: &ev.End} {
		ms, err := a.OptInt64(key)
		if err != nil {
			return ev, err
		}
		if ms != nil {
			t := time.UnixMilli(*ms).UTC()
			*dst = &t
		}
	}
	if ev.AllDay, err = a.Bool(argIsAllDay, false); err != nil {
		return ev, err
	}
	for key, dst := range map[string]*string{argDescription: &ev.Description, argLocation: &ev.Location} {
		s, err := a.OptString(key)
		if err != nil {
			return ev, err
		}
		if s != nil {
			*dst = *s
		}
	}
	if ev.Reminders, err = a.Ints(argReminders); err != nil {
		return ev, err
	}
	for _, m := range ev.Reminders {
		if m < 0 {
			return ev, &ArgError{Key: argReminders, Reason: "must be minutes before start (non-negative)"}
		}
	}
	return ev, nil
}
