package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sonroyaalmerol/device-calendar/internal/storage/sqlstore"
	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
	"github.com/sonroyaalmerol/device-calendar/pkg/provider"
)

func openTestDB(t *testing.T) (*sqlstore.Resolver, *provider.Store) {
	t.Helper()
	r, err := New(filepath.Join(t.TempDir(), "calendar.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(r.Close)
	return r, provider.New(r, zerolog.Nop())
}

func TestReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendar.db")
	r, err := New(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	r.Close()
	r, err = New(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r.Close()

	rows, err := r.Query(context.Background(), provider.AccountsURI, nil, "", nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("accounts = %d, want the seeded local account only", len(rows))
	}
}

func TestCreateCalendarLocalAccount(t *testing.T) {
	_, s := openTestDB(t)
	c, err := s.CreateCalendar(context.Background(), "Work", 0xFF00FF00, nil)
	if err != nil {
		t.Fatalf("CreateCalendar() error: %v", err)
	}
	if c.Account.Type != calendar.AccountLocal {
		t.Fatalf("account = %+v", c.Account)
	}
	if c.Color != 0xFF00FF00 || c.Title != "Work" || !c.IsWritable {
		t.Fatalf("calendar = %+v", c)
	}
}

func TestCreateCalendarAccountResolution(t *testing.T) {
	r, s := openTestDB(t)
	ctx := context.Background()
	for _, v := range []provider.Values{
		{provider.ColAccountName: "iCloud", provider.ColAccountType: provider.AccountTypeCalDAV},
		{provider.ColAccountName: "corp", provider.ColAccountType: provider.AccountTypeExchange},
	} {
		if _, err := r.Insert(ctx, provider.AccountsURI, v); err != nil {
			t.Fatal(err)
		}
	}

	c, err := s.CreateCalendar(ctx, "Auto", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.Account != (calendar.Account{Name: "iCloud", Type: calendar.AccountCalDAV}) {
		t.Fatalf("auto account = %+v", c.Account)
	}

	c, err = s.CreateCalendar(ctx, "Corp", 0, &calendar.Account{Name: "corp", Type: calendar.AccountExchange})
	if err != nil {
		t.Fatal(err)
	}
	if c.Account.Type != calendar.AccountExchange {
		t.Fatalf("requested account = %+v", c.Account)
	}
}

func TestCreateCalendarNoAccounts(t *testing.T) {
	r, s := openTestDB(t)
	ctx := context.Background()
	if _, err := r.Delete(ctx, provider.AccountsURI, "", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateCalendar(ctx, "Work", 0, nil); !errors.Is(err, calendar.ErrNotFound) {
		t.Fatalf("CreateCalendar() = %v, want ErrNotFound", err)
	}
}

func seedReadOnly(t *testing.T, r *sqlstore.Resolver) string {
	t.Helper()
	id, err := r.Insert(context.Background(), provider.CalendarsURI, provider.Values{
		provider.ColAccountName:         "Holidays",
		provider.ColAccountType:         provider.AccountTypeICS,
		provider.ColCalendarDisplayName: "Holidays",
		provider.ColCalendarAccessLevel: provider.AccessRead,
	})
	if err != nil {
		t.Fatal(err)
	}
	return itoa(id)
}

func TestRetrieveCalendarsWritableSubset(t *testing.T) {
	r, s := openTestDB(t)
	ctx := context.Background()
	if _, err := s.CreateCalendar(ctx, "Mine", 0, nil); err != nil {
		t.Fatal(err)
	}
	seedReadOnly(t, r)

	all, err := s.RetrieveCalendars(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	writable, err := s.RetrieveCalendars(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || len(writable) != 1 {
		t.Fatalf("all = %d, writable = %d", len(all), len(writable))
	}
	for _, c := range all {
		if c.IsWritable && c.ID != writable[0].ID {
			t.Fatalf("writable subset mismatch: %+v vs %+v", all, writable)
		}
		if c.Title == "Holidays" && c.Account.Type != calendar.AccountSubscribed {
			t.Fatalf("subscription account type = %q", c.Account.Type)
		}
	}
}

func TestDeleteCalendar(t *testing.T) {
	r, s := openTestDB(t)
	ctx := context.Background()
	c, err := s.CreateCalendar(ctx, "Mine", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	ev, err := s.CreateEvent(ctx, calendar.NewEvent{CalendarID: c.ID, Title: "x", StartDate: 0, EndDate: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateReminder(ctx, ev.ID, -10); err != nil {
		t.Fatal(err)
	}
	ro := seedReadOnly(t, r)

	if err := s.DeleteCalendar(ctx, "999"); !errors.Is(err, calendar.ErrNotFound) {
		t.Errorf("missing: %v", err)
	}
	if err := s.DeleteCalendar(ctx, "not-a-number"); !errors.Is(err, calendar.ErrNotFound) {
		t.Errorf("malformed: %v", err)
	}
	if err := s.DeleteCalendar(ctx, ro); !errors.Is(err, calendar.ErrNotEditable) {
		t.Errorf("read-only: %v", err)
	}
	if err := s.DeleteCalendar(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rems, err := r.Query(ctx, provider.RemindersURI, nil, "", nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rems) != 0 {
		t.Fatalf("reminders left behind: %d", len(rems))
	}
}

func TestEventRoundTrip(t *testing.T) {
	_, s := openTestDB(t)
	ctx := context.Background()
	c, err := s.CreateCalendar(ctx, "Mine", 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	desc, link := "quarterly", "https://example.com/r"
	ne := calendar.NewEvent{
		CalendarID:  c.ID,
		Title:       "Review",
		StartDate:   calendar.Millis(start),
		EndDate:     calendar.Millis(start.Add(time.Hour)),
		Description: &desc,
		URL:         &link,
	}
	created, err := s.CreateEvent(ctx, ne)
	if err != nil {
		t.Fatalf("CreateEvent() error: %v", err)
	}
	plain, err := s.CreateEvent(ctx, calendar.NewEvent{CalendarID: c.ID, Title: "Plain", IsAllDay: true,
		StartDate: ne.StartDate, EndDate: ne.EndDate})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.RetrieveEvents(ctx, c.ID, ne.StartDate-60000, ne.EndDate+60000)
	if err != nil {
		t.Fatalf("RetrieveEvents() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("RetrieveEvents() = %d events", len(got))
	}
	byID := map[string]*calendar.Event{}
	for _, e := range got {
		byID[e.ID] = e
	}
	e := byID[created.ID]
	if e == nil || e.Title != ne.Title || e.IsAllDay || e.StartDate != ne.StartDate || e.EndDate != ne.EndDate ||
		e.Description == nil || *e.Description != desc || e.URL == nil || *e.URL != link {
		t.Fatalf("round trip mismatch: %+v", e)
	}
	p := byID[plain.ID]
	if p == nil || !p.IsAllDay || p.Description != nil || p.URL != nil {
		t.Fatalf("plain event = %+v", p)
	}

	got, err = s.RetrieveEvents(ctx, c.ID, ne.StartDate+1, ne.EndDate+60000)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("events not contained in the window were returned: %+v", got)
	}

	if _, err := s.RetrieveEvents(ctx, "424242", 0, 1); !errors.Is(err, calendar.ErrNotFound) {
		t.Fatalf("missing calendar: %v", err)
	}
	if _, err := s.CreateEvent(ctx, calendar.NewEvent{CalendarID: "424242"}); !errors.Is(err, calendar.ErrNotFound) {
		t.Fatalf("create in missing calendar: %v", err)
	}
}

func TestDeleteEvent(t *testing.T) {
	r, s := openTestDB(t)
	ctx := context.Background()
	c, err := s.CreateCalendar(ctx, "Mine", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	ev, err := s.CreateEvent(ctx, calendar.NewEvent{CalendarID: c.ID, Title: "x", StartDate: 0, EndDate: 1})
	if err != nil {
		t.Fatal(err)
	}
	ro := seedReadOnly(t, r)
	roEvent, err := s.CreateEvent(ctx, calendar.NewEvent{CalendarID: ro, Title: "Holiday", StartDate: 0, EndDate: 1})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteEvent(ctx, "31337"); !errors.Is(err, calendar.ErrNotFound) {
		t.Errorf("missing: %v", err)
	}
	if err := s.DeleteEvent(ctx, roEvent.ID); !errors.Is(err, calendar.ErrNotEditable) {
		t.Errorf("read-only: %v", err)
	}
	if err := s.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteEvent(ctx, ev.ID); !errors.Is(err, calendar.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestReminders(t *testing.T) {
	r, s := openTestDB(t)
	ctx := context.Background()
	c, err := s.CreateCalendar(ctx, "Mine", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	ev, err := s.CreateEvent(ctx, calendar.NewEvent{CalendarID: c.ID, Title: "x", StartDate: 0, EndDate: 1})
	if err != nil {
		t.Fatal(err)
	}

	for _, off := range []int{-15, -15, -60} {
		if ev, err = s.CreateReminder(ctx, ev.ID, off); err != nil {
			t.Fatal(err)
		}
	}
	if len(ev.Reminders) != 3 || ev.Reminders[0] != -15 || ev.Reminders[2] != -60 {
		t.Fatalf("reminders = %v", ev.Reminders)
	}

	// stored in provider form: positive minutes before start
	rows, err := r.Query(ctx, provider.RemindersURI, []string{provider.ColMinutes}, provider.ColEventID+" = ?", []any{ev.ID}, provider.ColID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0].Int64(provider.ColMinutes) != 15 {
		t.Fatalf("stored reminders = %v", rows)
	}

	ev, err = s.DeleteReminder(ctx, ev.ID, -15)
	if err != nil {
		t.Fatal(err)
	}
	if len(ev.Reminders) != 1 || ev.Reminders[0] != -60 {
		t.Fatalf("after delete = %v", ev.Reminders)
	}
	if _, err := s.DeleteReminder(ctx, ev.ID, -15); !errors.Is(err, calendar.ErrNotFound) {
		t.Fatalf("absent offset: %v", err)
	}
	if _, err := s.CreateReminder(ctx, "777", 5); !errors.Is(err, calendar.ErrNotFound) {
		t.Fatalf("missing event: %v", err)
	}

	ev, err = s.DeleteReminder(ctx, ev.ID, -60)
	if err != nil {
		t.Fatal(err)
	}
	evRows, err := r.Query(ctx, provider.EventsURI, []string{provider.ColHasAlarm}, provider.ColID+" = ?", []any{ev.ID}, "")
	if err != nil {
		t.Fatal(err)
	}
	if evRows[0].Bool(provider.ColHasAlarm) {
		t.Fatal("has_alarm still set without reminders")
	}
}

func TestBatchRollsBack(t *testing.T) {
	r, _ := openTestDB(t)
	ctx := context.Background()
	err := r.ApplyBatch(ctx, []provider.Operation{
		{Kind: provider.OpInsert, URI: provider.AccountsURI, Values: provider.Values{
			provider.ColAccountName: "tmp", provider.ColAccountType: provider.AccountTypeLocal}},
		{Kind: provider.OpInsert, URI: provider.URI("content://bogus")},
	})
	if err == nil {
		t.Fatal("expected batch failure")
	}
	rows, err := r.Query(ctx, provider.AccountsURI, nil, provider.ColAccountName+" = ?", []any{"tmp"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatal("partial batch was committed")
	}
}
