package calendar

import (
	"context"
	"time"
)

type AccountType string

const (
	AccountLocal      AccountType = "Local"
	AccountCalDAV     AccountType = "CalDAV"
	AccountExchange   AccountType = "Exchange"
	AccountSubscribed AccountType = "Subscribed"
	AccountMobileMe   AccountType = "MobileMe"
	AccountBirthdays  AccountType = "Birthdays"
)

// Account is a read-only projection of the native source a calendar lives in.
type Account struct {
	Name string      `json:"name"`
	Type AccountType `json:"type"`
}

type Calendar struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Color      uint32  `json:"color"` // packed ARGB
	IsWritable bool    `json:"isWritable"`
	Account    Account `json:"account"`
}

// Event dates are milliseconds since the Unix epoch, UTC.
type Event struct {
	ID          string  `json:"id"`
	CalendarID  string  `json:"calendarId"`
	Title       string  `json:"title"`
	IsAllDay    bool    `json:"isAllDay"`
	StartDate   int64   `json:"startDate"`
	EndDate     int64   `json:"endDate"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
	// Reminders are minute offsets relative to StartDate, negative before it.
	Reminders []int `json:"reminders"`
}

func (e *Event) Start() time.Time { return time.UnixMilli(e.StartDate).UTC() }
func (e *Event) End() time.Time   { return time.UnixMilli(e.EndDate).UTC() }

// NewEvent carries the fields accepted by Store.CreateEvent.
type NewEvent struct {
	CalendarID  string
	Title       string
	StartDate   int64
	EndDate     int64
	IsAllDay    bool
	Description *string
	URL         *string
}

// Store is the capability set every native calendar backend exposes.
// Implementations never cache: each call reads or writes through the
// native store and commits mutations immediately.
type Store interface {
	CreateCalendar(ctx context.Context, title string, color uint32, account *Account) (*Calendar, error)
	RetrieveCalendars(ctx context.Context, onlyWritable bool) ([]*Calendar, error)
	DeleteCalendar(ctx context.Context, id string) error

	CreateEvent(ctx context.Context, ev NewEvent) (*Event, error)
	RetrieveEvents(ctx context.Context, calendarID string, startDate, endDate int64) ([]*Event, error)
	DeleteEvent(ctx context.Context, id string) error

	CreateReminder(ctx context.Context, eventID string, minuteOffset int) (*Event, error)
	DeleteReminder(ctx context.Context, eventID string, minuteOffset int) (*Event, error)
}

// Millis converts t to the milliseconds representation used by Event.
func Millis(t time.Time) int64 { return t.UTC().UnixMilli() }

// Within reports whether [start, end] lies inside the window [from, to].
func Within(start, end, from, to int64) bool {
	return start >= from && end <= to
}
