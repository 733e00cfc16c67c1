package filestore

import (
	"context"
	"errors"
	"io/fs"

	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
	"github.com/sonroyaalmerol/device-calendar/pkg/eventstore"
)

const LocalSourceTitle = "On My Device"

func (s *Store) bootstrap() error {
	if _, err := s.readSources(); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.logger.Info().Str("root", s.root).Msg("initialising event store with a local source")
	return writeJSON(s.sourcesPath(), []sourceFile{{
		ID:      newID(),
		Title:   LocalSourceTitle,
		Type:    string(calendar.AccountLocal),
		Default: true,
	}})
}

func (s *Store) readSources() ([]sourceFile, error) {
	var out []sourceFile
	if err := readJSON(s.sourcesPath(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddSource registers another account source, e.g. a synced CalDAV account.
func (s *Store) AddSource(title string, typ calendar.AccountType, isDefault bool) (*eventstore.Source, error) {
	srcs, err := s.readSources()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if isDefault {
		for i := range srcs {
			srcs[i].Default = false
		}
	}
	sf := sourceFile{ID: newID(), Title: title, Type: string(typ), Default: isDefault}
	srcs = append(srcs, sf)
	if err := writeJSON(s.sourcesPath(), srcs); err != nil {
		return nil, err
	}
	return toSource(sf), nil
}

// RemoveSources drops every source, leaving a store calendars cannot be
// created in.
func (s *Store) RemoveSources() error {
	return writeJSON(s.sourcesPath(), []sourceFile{})
}

func (s *Store) Sources(ctx context.Context) ([]*eventstore.Source, error) {
	srcs, err := s.readSources()
	if err != nil {
		return nil, err
	}
	out := make([]*eventstore.Source, 0, len(srcs))
	for _, sf := range srcs {
		out = append(out, toSource(sf))
	}
	return out, nil
}

func (s *Store) DefaultSource(ctx context.Context) (*eventstore.Source, error) {
	srcs, err := s.readSources()
	if err != nil {
		return nil, err
	}
	for _, sf := range srcs {
		if sf.Default {
			return toSource(sf), nil
		}
	}
	return nil, nil
}

func (s *Store) source(id string) (*eventstore.Source, error) {
	srcs, err := s.readSources()
	if err != nil {
		return nil, err
	}
	for _, sf := range srcs {
		if sf.ID == id {
			return toSource(sf), nil
		}
	}
	return nil, nil
}

func toSource(sf sourceFile) *eventstore.Source {
	return &eventstore.Source{ID: sf.ID, Title: sf.Title, Type: calendar.AccountType(sf.Type)}
}
