package handoff

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
)

type fakeHost struct {
	id      string
	opened  []string
	mime    string
	openErr error
}

func (h *fakeHost) ID() string { return h.id }

func (h *fakeHost) ShareURI(path string) (string, error) {
	return "content://files/" + filepath.Base(path), nil
}

func (h *fakeHost) Open(_ context.Context, uri, mimeType string) error {
	if h.openErr != nil {
		return h.openErr
	}
	h.opened = append(h.opened, uri)
	h.mime = mimeType
	return nil
}

func TestShareAndReturn(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, "", zerolog.Nop())
	h := &fakeHost{id: "activity-1"}
	m.Bind(h)

	calls := 0
	content := "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	if err := m.Share(context.Background(), content, func() { calls++ }); err != nil {
		t.Fatalf("Share() error: %v", err)
	}
	if m.State() != AwaitingReturn {
		t.Fatalf("state = %v", m.State())
	}
	if len(h.opened) != 1 || h.opened[0] != "content://files/event.ics" || h.mime != "text/calendar" {
		t.Fatalf("viewer launched with %v %q", h.opened, h.mime)
	}
	data, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	if err != nil || string(data) != content {
		t.Fatalf("export file = %q, %v", data, err)
	}

	m.Foregrounded("other-activity")
	if calls != 0 || m.State() != AwaitingReturn {
		t.Fatalf("foreign host completed the share")
	}

	m.Foregrounded("activity-1")
	m.Foregrounded("activity-1")
	if calls != 1 {
		t.Fatalf("callback invoked %d times", calls)
	}
	if m.State() != Idle {
		t.Fatalf("state = %v", m.State())
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultFileName)); !os.IsNotExist(err) {
		t.Fatalf("export file not discarded: %v", err)
	}
}

func TestForegroundWithoutShareIsNoop(t *testing.T) {
	m := New(t.TempDir(), "", zerolog.Nop())
	m.Bind(&fakeHost{id: "a"})
	m.Foregrounded("a")
	if m.State() != Idle {
		t.Fatalf("state = %v", m.State())
	}
}

func TestShareWithoutHost(t *testing.T) {
	m := New(t.TempDir(), "", zerolog.Nop())
	err := m.Share(context.Background(), "x", nil)
	if !errors.Is(err, calendar.ErrState) {
		t.Fatalf("Share() = %v, want ErrState", err)
	}
}

func TestSecondShareReplacesCallback(t *testing.T) {
	m := New(t.TempDir(), "invite.ics", zerolog.Nop())
	m.Bind(&fakeHost{id: "a"})

	var got []string
	_ = m.Share(context.Background(), "one", func() { got = append(got, "first") })
	_ = m.Share(context.Background(), "two", func() { got = append(got, "second") })
	m.Foregrounded("a")

	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("callbacks = %v", got)
	}
}

func TestOpenFailureLeavesIdle(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, "", zerolog.Nop())
	m.Bind(&fakeHost{id: "a", openErr: errors.New("no viewer")})

	if err := m.Share(context.Background(), "x", func() {}); err == nil {
		t.Fatal("expected error")
	}
	if m.State() != Idle {
		t.Fatalf("state = %v", m.State())
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultFileName)); !os.IsNotExist(err) {
		t.Fatal("export file left behind")
	}
}
