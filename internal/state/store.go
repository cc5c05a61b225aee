package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/loewekordel/temperature-notifier/internal/window"
)

// persistedState is the on-disk representation. Timestamps serialize as
// RFC 3339 with nanoseconds, so a save/load cycle is lossless.
type persistedState struct {
	LastNotificationTime       *time.Time      `json:"last_notification_time"`
	LastSignificantRiseTime    *time.Time      `json:"last_significant_rise_time"`
	Armed                      bool            `json:"armed"`
	RollingWindow              []window.Sample `json:"rolling_window"`
	TempsSinceLastNotification []float64       `json:"temps_since_last_notification"`
}

// Store reads and writes the state file.
type Store struct {
	path          string
	windowMinutes int
	lg            *slog.Logger
}

// NewStore returns a store bound to the given state file. The window
// span comes from configuration, not from the file.
func NewStore(path string, windowMinutes int, lg *slog.Logger) *Store {
	return &Store{path: path, windowMinutes: windowMinutes, lg: lg}
}

// Load restores the persisted state. A missing file yields defaults. A
// file that exists but does not parse yields defaults with a warning,
// so one corrupt checkpoint cannot wedge every future invocation. An
// I/O failure is returned to the caller.
func (s *Store) Load() (*State, error) {
	st := &State{Window: window.New(s.windowMinutes)}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.lg.Debug("no state file, starting from defaults", "path", s.path)
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file %s: %w", s.path, err)
	}

	var p persistedState
	if err := json.Unmarshal(data, &p); err != nil {
		s.lg.Warn("state file unparseable, starting from defaults", "path", s.path, "error", err)
		return st, nil
	}

	st.LastNotificationTime = p.LastNotificationTime
	st.LastSignificantRiseTime = p.LastSignificantRiseTime
	st.Armed = p.Armed
	st.Window.Restore(p.RollingWindow)
	st.TempsSinceLastNotification = p.TempsSinceLastNotification
	s.lg.Debug("state loaded", "path", s.path, "window_samples", st.Window.Len())
	return st, nil
}

// Save writes the state to disk via a temp file rename. Failures are
// logged as warnings and never abort the invocation; the next run
// recomputes from fresh samples plus the last durable checkpoint.
func (s *Store) Save(st *State) {
	p := persistedState{
		LastNotificationTime:       st.LastNotificationTime,
		LastSignificantRiseTime:    st.LastSignificantRiseTime,
		Armed:                      st.Armed,
		RollingWindow:              st.Window.Samples(),
		TempsSinceLastNotification: st.TempsSinceLastNotification,
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		s.lg.Warn("failed to encode state", "error", err)
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.lg.Warn("failed to write state file", "path", tmp, "error", err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.lg.Warn("failed to replace state file", "path", s.path, "error", err)
		_ = os.Remove(tmp)
		return
	}
	s.lg.Debug("state saved", "path", s.path)
}

// Path returns the state file location.
func (s *Store) Path() string { return filepath.Clean(s.path) }
