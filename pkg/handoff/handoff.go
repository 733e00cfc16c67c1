// Package handoff shares a generated calendar file with an external viewer
// and resumes the caller once the application returns to the foreground.
package handoff

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
	"github.com/sonroyaalmerol/device-calendar/pkg/ics"
)

// Host is the foreground context the external viewer is launched from.
type Host interface {
	ID() string
	// ShareURI turns a local file into a handle other applications may read.
	ShareURI(path string) (string, error)
	// Open launches an external viewer for uri.
	Open(ctx context.Context, uri, mimeType string) error
}

type State int

const (
	Idle State = iota
	AwaitingReturn
)

func (s State) String() string {
	if s == AwaitingReturn {
		return "awaiting-return"
	}
	return "idle"
}

const DefaultFileName = "event.ics"

// Manager tracks a single outstanding share. A second Share while one is
// awaiting return replaces the pending callback.
type Manager struct {
	dir      string
	fileName string
	logger   zerolog.Logger

	mu       sync.Mutex
	host     Host
	state    State
	origin   string
	path     string
	callback func()
}

func New(dir, fileName string, logger zerolog.Logger) *Manager {
	if dir == "" {
		dir = os.TempDir()
	}
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &Manager{
		dir:      dir,
		fileName: fileName,
		logger:   logger.With().Str("component", "handoff").Logger(),
	}
}

func (m *Manager) Bind(h Host) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.host = h
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Share writes content to the export file, opens it externally and stores
// onReturn until the originating host is foregrounded again.
func (m *Manager) Share(ctx context.Context, content string, onReturn func()) error {
	m.mu.Lock()
	h := m.host
	m.mu.Unlock()
	if h == nil {
		return calendar.State("share")
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(m.dir, m.fileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}

	uri, err := h.ShareURI(path)
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("share uri: %w", err)
	}
	if err := h.Open(ctx, uri, ics.MIMEType); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("open viewer: %w", err)
	}

	m.mu.Lock()
	if m.state == AwaitingReturn {
		m.logger.Warn().Str("host", m.origin).Msg("replacing pending share callback")
	}
	m.state = AwaitingReturn
	m.origin = h.ID()
	m.path = path
	m.callback = onReturn
	m.mu.Unlock()

	m.logger.Debug().Str("host", h.ID()).Str("uri", uri).Msg("shared calendar file")
	return nil
}

// Foregrounded signals that hostID became the foreground context again.
// It completes a pending share started from the same host and is a no-op
// otherwise.
func (m *Manager) Foregrounded(hostID string) {
	m.mu.Lock()
	if m.state != AwaitingReturn || m.origin != hostID {
		m.mu.Unlock()
		return
	}
	cb, path := m.callback, m.path
	m.state = Idle
	m.origin = ""
	m.path = ""
	m.callback = nil
	m.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.logger.Warn().Err(err).Str("path", path).Msg("failed to discard export file")
	}
	if cb != nil {
		cb()
	}
}
