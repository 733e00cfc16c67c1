package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

func (s *Store) sourcesPath() string {
	return filepath.Join(s.root, "sources.json")
}
func (s *Store) accessPath() string {
	return filepath.Join(s.root, "access.json")
}
func (s *Store) calDir(id string) string {
	return filepath.Join(s.root, "calendars", id)
}
func (s *Store) calMetaPath(id string) string {
	return filepath.Join(s.calDir(id), "calendar.json")
}
func (s *Store) calEventsDir(id string) string {
	return filepath.Join(s.calDir(id), "events")
}
func (s *Store) eventPath(calendarID, id string) string {
	return filepath.Join(s.calEventsDir(calendarID), id+".json")
}

// validID rejects identifiers that would escape the store root.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

func newID() string {
	return strings.ToUpper(uuid.NewString())
}

type sourceFile struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	Default bool   `json:"default,omitempty"`
}

type calMeta struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Color               string    `json:"color"`
	Entity              string    `json:"entity"`
	AllowsModifications bool      `json:"allows_modifications"`
	SourceID            string    `json:"source_id"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type eventFile struct {
	ID         string    `json:"id"`
	CalendarID string    `json:"calendar_id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	AllDay     bool      `json:"all_day"`
	TimeZone   string    `json:"time_zone"`
	Notes      *string   `json:"notes,omitempty"`
	URL        *string   `json:"url,omitempty"`
	// AlarmOffsets are seconds relative to Start.
	AlarmOffsets []int64   `json:"alarm_offsets,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type accessFile struct {
	Status string `json:"status"`
}

func readJSON[T any](path string, out *T) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// formatColor renders a packed ARGB value as #AARRGGBB.
func formatColor(argb uint32) string {
	return fmt.Sprintf("#%08X", argb)
}

// parseColor accepts #RRGGBB (opaque) and #AARRGGBB.
func parseColor(s string) uint32 {
	hex := strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0
	}
	if len(hex) == 6 {
		v |= 0xFF000000
	}
	return uint32(v)
}
