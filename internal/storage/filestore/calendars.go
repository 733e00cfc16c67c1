package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
	"github.com/sonroyaalmerol/device-calendar/pkg/eventstore"
)

var entityNames = map[eventstore.EntityType]string{
	eventstore.EntityEvent:    "event",
	eventstore.EntityReminder: "reminder",
}

func (s *Store) Calendars(ctx context.Context, entity eventstore.EntityType) ([]*eventstore.Calendar, error) {
	base := filepath.Join(s.root, "calendars")
	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []*eventstore.Calendar
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		var meta calMeta
		if err := readJSON(s.calMetaPath(ent.Name()), &meta); err != nil {
			continue
		}
		if meta.Entity != entityNames[entity] {
			continue
		}
		c, err := s.toCalendar(meta)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) Calendar(ctx context.Context, id string) (*eventstore.Calendar, error) {
	if !validID(id) {
		return nil, nil
	}
	var meta calMeta
	if err := readJSON(s.calMetaPath(id), &meta); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return s.toCalendar(meta)
}

// SaveCalendar assigns an id to new calendars. A calendar counts as new
// until its meta document is committed. Calendars under subscribed
// or birthday sources are created read-only.
func (s *Store) SaveCalendar(ctx context.Context, c *eventstore.Calendar, commit bool) error {
	if c.Source == nil {
		return errors.New("calendar has no source")
	}
	src, err := s.source(c.Source.ID)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("source %s does not exist", c.Source.ID)
	}

	now := time.Now().UTC()
	meta := calMeta{
		Title:     c.Title,
		Color:     formatColor(c.Color),
		Entity:    entityNames[c.Entity],
		SourceID:  src.ID,
		UpdatedAt: now,
	}
	if c.ID == "" {
		c.ID = newID()
	} else if !validID(c.ID) {
		return fmt.Errorf("invalid calendar id %q", c.ID)
	}

	// an id whose meta was never committed, e.g. after Reset, is still new
	var existing calMeta
	err = readJSON(s.calMetaPath(c.ID), &existing)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c.AllowsContentModifications = src.Type != calendar.AccountSubscribed && src.Type != calendar.AccountBirthdays
		meta.CreatedAt = now
	case err != nil:
		return err
	case !existing.AllowsModifications:
		return fmt.Errorf("calendar %s does not allow modifications", c.ID)
	default:
		meta.CreatedAt = existing.CreatedAt
	}
	meta.ID = c.ID
	meta.AllowsModifications = c.AllowsContentModifications
	c.Source = src

	s.stage("save calendar "+c.ID, func() error {
		if err := os.MkdirAll(s.calEventsDir(meta.ID), 0o755); err != nil {
			return err
		}
		return writeJSON(s.calMetaPath(meta.ID), &meta)
	})
	return s.finish(ctx, commit)
}

func (s *Store) RemoveCalendar(ctx context.Context, c *eventstore.Calendar, commit bool) error {
	if !validID(c.ID) {
		return fmt.Errorf("invalid calendar id %q", c.ID)
	}
	var meta calMeta
	if err := readJSON(s.calMetaPath(c.ID), &meta); err != nil {
		return err
	}
	if !meta.AllowsModifications {
		return fmt.Errorf("calendar %s does not allow modifications", c.ID)
	}
	id := c.ID
	s.stage("remove calendar "+id, func() error {
		return os.RemoveAll(s.calDir(id))
	})
	return s.finish(ctx, commit)
}

func (s *Store) toCalendar(meta calMeta) (*eventstore.Calendar, error) {
	src, err := s.source(meta.SourceID)
	if err != nil {
		return nil, err
	}
	entity := eventstore.EntityEvent
	for e, name := range entityNames {
		if name == meta.Entity {
			entity = e
		}
	}
	return &eventstore.Calendar{
		ID:                         meta.ID,
		Title:                      meta.Title,
		Color:                      parseColor(meta.Color),
		Entity:                     entity,
		AllowsContentModifications: meta.AllowsModifications,
		Source:                     src,
	}, nil
}
