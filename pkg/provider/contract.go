// Package provider adapts a content-provider style calendar database, where
// every table is addressed by a URI and rows are plain column maps, to the
// unified calendar.Store contract.
package provider

import (
	"context"
	"strconv"
)

// URI addresses one table of the calendar provider.
type URI string

const (
	AccountsURI  URI = "content://com.android.calendar/accounts"
	CalendarsURI URI = "content://com.android.calendar/calendars"
	EventsURI    URI = "content://com.android.calendar/events"
	RemindersURI URI = "content://com.android.calendar/reminders"
)

// Column names shared by every table.
const (
	ColID = "_id"
)

// Accounts columns.
const (
	ColAccountName = "account_name"
	ColAccountType = "account_type"
	ColIsDefault   = "is_default"
)

// Calendars columns.
const (
	ColCalendarDisplayName = "calendar_displayname"
	ColCalendarColor       = "calendar_color"
	ColCalendarAccessLevel = "calendar_access_level"
	ColOwnerAccount        = "owner_account"
	ColVisible             = "visible"
)

// Events columns.
const (
	ColCalendarID    = "calendar_id"
	ColTitle         = "title"
	ColDescription   = "description"
	ColDTStart       = "dtstart"
	ColDTEnd         = "dtend"
	ColAllDay        = "all_day"
	ColEventTimezone = "event_timezone"
	ColCustomAppURI  = "custom_app_uri"
	ColHasAlarm      = "has_alarm"
)

// Reminders columns.
const (
	ColEventID = "event_id"
	ColMinutes = "minutes"
	ColMethod  = "method"
)

// Access levels; a calendar is writable at contributor or above.
const (
	AccessNone        = 0
	AccessFreeBusy    = 100
	AccessRead        = 200
	AccessRespond     = 300
	AccessOverride    = 400
	AccessContributor = 500
	AccessEditor      = 600
	AccessOwner       = 700
	AccessRoot        = 800
)

const MethodAlert = 1

// Provider account types mapped to the unified account types.
const (
	AccountTypeLocal     = "LOCAL"
	AccountTypeCalDAV    = "org.dmfs.caldav.account"
	AccountTypeGoogle    = "com.google"
	AccountTypeExchange  = "com.android.exchange"
	AccountTypeICS       = "ics.subscription"
	AccountTypeBirthdays = "contacts.birthdays"
	AccountTypeMobileMe  = "com.apple.mobileme"
)

// Values is one row, keyed by column name.
type Values map[string]any

// OpKind names the kind of a batch operation.
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

// Operation is one step of an atomic batch.
type Operation struct {
	Kind      OpKind
	URI       URI
	Values    Values
	Selection string
	Args      []any
}

// Resolver is the content-provider surface the adapter depends on.
// Selections use '?' placeholders bound to args in order and may refer to
// the accounts, calendars, events and reminders tables in sub-selects.
type Resolver interface {
	Query(ctx context.Context, uri URI, projection []string, selection string, args []any, sortOrder string) ([]Values, error)
	Insert(ctx context.Context, uri URI, values Values) (int64, error)
	Update(ctx context.Context, uri URI, values Values, selection string, args []any) (int64, error)
	Delete(ctx context.Context, uri URI, selection string, args []any) (int64, error)
	// ApplyBatch runs ops atomically; on error nothing is applied.
	ApplyBatch(ctx context.Context, ops []Operation) error
}

func (v Values) Int64(col string) int64 {
	switch n := v[col].(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	case []byte:
		i, _ := strconv.ParseInt(string(n), 10, 64)
		return i
	}
	return 0
}

func (v Values) String(col string) string {
	switch s := v[col].(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return strconv.FormatInt(v.Int64(col), 10)
	}
}

// StringPtr returns nil for NULL columns.
func (v Values) StringPtr(col string) *string {
	if v[col] == nil {
		return nil
	}
	s := v.String(col)
	return &s
}

func (v Values) Bool(col string) bool { return v.Int64(col) != 0 }
