// Package filestore is an on-disk event store: one JSON document per source,
// calendar and event, with a staged transaction context that is written out
// on commit.
package filestore

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sonroyaalmerol/device-calendar/pkg/eventstore"
)

type Store struct {
	root   string
	logger zerolog.Logger

	// AutoGrant decides the answer to RequestAccess.
	AutoGrant bool

	mu     sync.Mutex // protects staged
	staged []stagedOp
}

var _ eventstore.Native = (*Store)(nil)

// New creates or opens a store rooted at rootDir. A fresh store gets a
// single local source.
func New(rootDir string, logger zerolog.Logger) (*Store, error) {
	if rootDir == "" {
		return nil, errors.New("rootDir required")
	}
	if err := os.MkdirAll(filepath.Join(rootDir, "calendars"), 0o755); err != nil {
		return nil, err
	}
	s := &Store{
		root:      rootDir,
		logger:    logger.With().Str("store", "filestore").Logger(),
		AutoGrant: true,
	}
	if err := s.bootstrap(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	s.Reset()
}
