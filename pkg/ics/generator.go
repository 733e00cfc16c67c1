package ics

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const (
	dateFormat     = "20060102"
	dateTimeFormat = "20060102T150405Z"

	// MIMEType is the media type of generated documents.
	MIMEType = "text/calendar"
)

// Event holds the optional fields of a single exported VEVENT.
type Event struct {
	Title       string
	Start       *time.Time
	End         *time.Time
	AllDay      bool
	Description string
	Location    string
	// Reminders are minutes before Start, each >= 0.
	Reminders []int
}

// Generator renders events as standalone iCalendar documents.
type Generator struct {
	ProdID string
	// AppID scopes generated UIDs, e.g. "com.example.app".
	AppID string
	// Location is the zone all-day dates are expressed in. Defaults to time.Local.
	Location *time.Location

	now   func() time.Time
	newID func() string
}

func NewGenerator(prodID, appID string) *Generator {
	return &Generator{
		ProdID: prodID,
		AppID:  appID,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Generate returns a VCALENDAR containing one VEVENT built from ev.
// A missing start means now and a missing end means one hour after start.
func (g *Generator) Generate(ev Event) (string, error) {
	now := g.now()
	start := now
	if ev.Start != nil {
		start = *ev.Start
	}
	end := start.Add(time.Hour)
	if ev.End != nil {
		end = *ev.End
	}

	cal := ical.NewCalendar()
	cal.Props.Set(&ical.Prop{Name: ical.PropProductID, Value: g.ProdID})
	cal.Props.Set(&ical.Prop{Name: ical.PropVersion, Value: "2.0"})

	event := ical.NewComponent(ical.CompEvent)
	event.Props.Set(&ical.Prop{Name: ical.PropUID, Value: g.uid()})
	event.Props.Set(&ical.Prop{Name: ical.PropDateTimeStamp, Value: now.UTC().Format(dateTimeFormat)})

	if ev.AllDay {
		loc := g.Location
		if loc == nil {
			loc = time.Local
		}
		s, e := start.In(loc), end.In(loc)
		if e.Format(dateFormat) <= s.Format(dateFormat) {
			e = s.AddDate(0, 0, 1)
		}
		event.Props.Set(dateProp(ical.PropDateTimeStart, s))
		event.Props.Set(dateProp(ical.PropDateTimeEnd, e))
	} else {
		event.Props.Set(&ical.Prop{Name: ical.PropDateTimeStart, Value: start.UTC().Format(dateTimeFormat)})
		event.Props.Set(&ical.Prop{Name: ical.PropDateTimeEnd, Value: end.UTC().Format(dateTimeFormat)})
	}

	setText(event, ical.PropSummary, ev.Title)
	setText(event, ical.PropDescription, ev.Description)
	setText(event, ical.PropLocation, ev.Location)

	for _, minutes := range ev.Reminders {
		if minutes < 0 {
			return "", fmt.Errorf("reminder must be minutes before start, got %d", minutes)
		}
		event.Children = append(event.Children, alarm(minutes, ev.Title))
	}

	cal.Children = append(cal.Children, event)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("encode calendar: %w", err)
	}
	return Fold(buf.String()), nil
}

func (g *Generator) uid() string {
	if g.AppID == "" {
		return g.newID()
	}
	return g.newID() + "@" + g.AppID
}

func dateProp(name string, t time.Time) *ical.Prop {
	p := &ical.Prop{Name: name, Params: ical.Params{}, Value: t.Format(dateFormat)}
	p.Params.Set(ical.ParamValue, string(ical.ValueDate))
	return p
}

func setText(comp *ical.Component, name, value string) {
	if value == "" {
		return
	}
	comp.Props.SetText(name, lineBreaks.Replace(value))
}

func alarm(minutes int, title string) *ical.Component {
	a := ical.NewComponent(ical.CompAlarm)
	a.Props.Set(&ical.Prop{Name: ical.PropAction, Value: "DISPLAY"})
	a.Props.Set(&ical.Prop{Name: ical.PropTrigger, Value: fmt.Sprintf("-PT%dM", minutes)})
	desc := title
	if desc == "" {
		desc = "Reminder"
	}
	a.Props.SetText(ical.PropDescription, lineBreaks.Replace(desc))
	return a
}
