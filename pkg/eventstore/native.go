// Package eventstore adapts an event-store style calendar framework to the
// unified calendar.Store contract.
package eventstore

import (
	"context"
	"time"

	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
)

type EntityType int

const (
	EntityEvent EntityType = iota
	EntityReminder
)

type AuthorizationStatus int

const (
	NotDetermined AuthorizationStatus = iota
	Restricted
	Denied
	Authorized
)

// Span scopes a mutation of a recurring event.
type Span int

const (
	ThisEvent Span = iota
	FutureEvents
)

type Source struct {
	ID    string
	Title string
	Type  calendar.AccountType
}

type Calendar struct {
	ID                         string
	Title                      string
	Color                      uint32
	Entity                     EntityType
	AllowsContentModifications bool
	Source                     *Source
}

type Alarm struct {
	// RelativeOffset is measured from the event start, negative before it.
	RelativeOffset time.Duration
}

type Event struct {
	ID         string
	CalendarID string
	Title      string
	Start      time.Time
	End        time.Time
	AllDay     bool
	TimeZone   *time.Location
	Notes      *string
	URL        *string
	Alarms     []Alarm
}

// Predicate selects events overlapping [Start, End] in the given calendars.
type Predicate struct {
	Start       time.Time
	End         time.Time
	CalendarIDs []string
}

// Native is the event-store framework surface the adapter depends on.
// Lookups return nil, nil when the entity does not exist and otherwise hand
// out copies owned by the caller. Save and Remove
// stage the change in the store's transaction context and persist it when
// commit is true; Reset discards whatever is staged.
type Native interface {
	AuthorizationStatus(entity EntityType) AuthorizationStatus
	RequestAccess(ctx context.Context, entity EntityType) (bool, error)

	Sources(ctx context.Context) ([]*Source, error)
	DefaultSource(ctx context.Context) (*Source, error)

	Calendars(ctx context.Context, entity EntityType) ([]*Calendar, error)
	Calendar(ctx context.Context, id string) (*Calendar, error)
	SaveCalendar(ctx context.Context, c *Calendar, commit bool) error
	RemoveCalendar(ctx context.Context, c *Calendar, commit bool) error

	Event(ctx context.Context, id string) (*Event, error)
	Events(ctx context.Context, p Predicate) ([]*Event, error)
	SaveEvent(ctx context.Context, e *Event, span Span, commit bool) error
	RemoveEvent(ctx context.Context, e *Event, span Span, commit bool) error

	Reset()
}
