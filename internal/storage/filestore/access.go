package filestore

import (
	"context"
	"errors"
	"io/fs"

	"github.com/sonroyaalmerol/device-calendar/pkg/eventstore"
)

var statusNames = map[eventstore.AuthorizationStatus]string{
	eventstore.NotDetermined: "not_determined",
	eventstore.Restricted:    "restricted",
	eventstore.Denied:        "denied",
	eventstore.Authorized:    "authorized",
}

func (s *Store) AuthorizationStatus(entity eventstore.EntityType) eventstore.AuthorizationStatus {
	var af accessFile
	if err := readJSON(s.accessPath(), &af); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Msg("unreadable access state")
		}
		return eventstore.NotDetermined
	}
	for st, name := range statusNames {
		if name == af.Status {
			return st
		}
	}
	return eventstore.NotDetermined
}

// RequestAccess records the AutoGrant decision the first time it is asked.
// Later calls return the recorded decision.
func (s *Store) RequestAccess(ctx context.Context, entity eventstore.EntityType) (bool, error) {
	switch s.AuthorizationStatus(entity) {
	case eventstore.Authorized:
		return true, nil
	case eventstore.Denied, eventstore.Restricted:
		return false, nil
	}
	st := eventstore.Denied
	if s.AutoGrant {
		st = eventstore.Authorized
	}
	if err := writeJSON(s.accessPath(), accessFile{Status: statusNames[st]}); err != nil {
		return false, err
	}
	return st == eventstore.Authorized, nil
}
