package filestore

import (
	"context"
	"fmt"
)

type stagedOp struct {
	desc  string
	apply func() error
}

func (s *Store) stage(desc string, apply func() error) {
	s.mu.Lock()
	s.staged = append(s.staged, stagedOp{desc: desc, apply: apply})
	s.mu.Unlock()
}

// Commit writes every staged change in order. On failure the failing
// change and everything after it stay staged until Reset.
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, op := range s.staged {
		if err := ctx.Err(); err != nil {
			s.staged = s.staged[i:]
			return err
		}
		if err := op.apply(); err != nil {
			s.staged = s.staged[i:]
			return fmt.Errorf("commit %s: %w", op.desc, err)
		}
	}
	s.staged = nil
	return nil
}

// Pending reports how many changes are staged.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.staged)
}

// Reset discards all staged changes.
func (s *Store) Reset() {
	s.mu.Lock()
	n := len(s.staged)
	s.staged = nil
	s.mu.Unlock()
	if n > 0 {
		s.logger.Debug().Int("discarded", n).Msg("transaction context reset")
	}
}

func (s *Store) finish(ctx context.Context, commit bool) error {
	if !commit {
		return nil
	}
	return s.Commit(ctx)
}
