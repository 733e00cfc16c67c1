package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sonroyaalmerol/device-calendar/pkg/eventstore"
)

func (s *Store) Event(ctx context.Context, id string) (*eventstore.Event, error) {
	if !validID(id) {
		return nil, nil
	}
	matches, err := filepath.Glob(s.eventPath("*", id))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	var ef eventFile
	if err := readJSON(matches[0], &ef); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return toEvent(ef), nil
}

// Events returns the events of p.CalendarIDs overlapping [p.Start, p.End].
func (s *Store) Events(ctx context.Context, p eventstore.Predicate) ([]*eventstore.Event, error) {
	var out []*eventstore.Event
	for _, calID := range p.CalendarIDs {
		if !validID(calID) {
			continue
		}
		entries, err := os.ReadDir(s.calEventsDir(calID))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		for _, ent := range entries {
			if ent.IsDir() || filepath.Ext(ent.Name()) != ".json" {
				continue
			}
			var ef eventFile
			if err := readJSON(filepath.Join(s.calEventsDir(calID), ent.Name()), &ef); err != nil {
				s.logger.Warn().Err(err).Str("file", ent.Name()).Msg("skipping unreadable event")
				continue
			}
			if ef.End.Before(p.Start) || ef.Start.After(p.End) {
				continue
			}
			out = append(out, toEvent(ef))
		}
	}
	return out, nil
}

// SaveEvent only supports the ThisEvent span: events in this store never
// recur.
func (s *Store) SaveEvent(ctx context.Context, e *eventstore.Event, span eventstore.Span, commit bool) error {
	if span != eventstore.ThisEvent {
		return errors.New("only single-occurrence spans are supported")
	}
	if err := s.ensureWritable(e.CalendarID); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = newID()
	}
	ef := fromEvent(e)
	ef.UpdatedAt = time.Now().UTC()
	path := s.eventPath(e.CalendarID, e.ID)
	s.stage("save event "+e.ID, func() error {
		return writeJSON(path, &ef)
	})
	return s.finish(ctx, commit)
}

func (s *Store) RemoveEvent(ctx context.Context, e *eventstore.Event, span eventstore.Span, commit bool) error {
	if span != eventstore.ThisEvent {
		return errors.New("only single-occurrence spans are supported")
	}
	if !validID(e.ID) {
		return fmt.Errorf("invalid event id %q", e.ID)
	}
	if err := s.ensureWritable(e.CalendarID); err != nil {
		return err
	}
	path := s.eventPath(e.CalendarID, e.ID)
	s.stage("remove event "+e.ID, func() error {
		return os.Remove(path)
	})
	return s.finish(ctx, commit)
}

func (s *Store) ensureWritable(calendarID string) error {
	if !validID(calendarID) {
		return fmt.Errorf("invalid calendar id %q", calendarID)
	}
	var meta calMeta
	if err := readJSON(s.calMetaPath(calendarID), &meta); err != nil {
		return err
	}
	if !meta.AllowsModifications {
		return fmt.Errorf("calendar %s does not allow modifications", calendarID)
	}
	return nil
}

func fromEvent(e *eventstore.Event) eventFile {
	tz := "UTC"
	if e.TimeZone != nil {
		tz = e.TimeZone.String()
	}
	ef := eventFile{
		ID:         e.ID,
		CalendarID: e.CalendarID,
		Title:      e.Title,
		Start:      e.Start.UTC(),
		End:        e.End.UTC(),
		AllDay:     e.AllDay,
		TimeZone:   tz,
		Notes:      e.Notes,
		URL:        e.URL,
	}
	for _, a := range e.Alarms {
		ef.AlarmOffsets = append(ef.AlarmOffsets, int64(a.RelativeOffset/time.Second))
	}
	return ef
}

func toEvent(ef eventFile) *eventstore.Event {
	loc, err := time.LoadLocation(ef.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	e := &eventstore.Event{
		ID:         ef.ID,
		CalendarID: ef.CalendarID,
		Title:      ef.Title,
		Start:      ef.Start,
		End:        ef.End,
		AllDay:     ef.AllDay,
		TimeZone:   loc,
		Notes:      ef.Notes,
		URL:        ef.URL,
	}
	for _, off := range ef.AlarmOffsets {
		e.Alarms = append(e.Alarms, eventstore.Alarm{RelativeOffset: time.Duration(off) * time.Second})
	}
	return e
}
