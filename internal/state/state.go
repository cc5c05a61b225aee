// Package state persists the notifier's cross-invocation memory to a
// JSON file and restores it at process start.
package state

import (
	"time"

	"github.com/loewekordel/temperature-notifier/internal/window"
)

// State is the only data carried between invocations.
type State struct {
	// LastNotificationTime is set when a notification fires and cleared
	// by the daily reset and the rapid-change gate. Nil means no
	// notification is on record.
	LastNotificationTime *time.Time

	// LastSignificantRiseTime marks the most recent rapid-change event
	// the engine acted on.
	LastSignificantRiseTime *time.Time

	// Armed is the one-way latch that must be set before the final
	// temperature comparison may alert. Reset on a new day.
	Armed bool

	// Window holds the recent outdoor samples for rapid-change
	// detection.
	Window *window.Window

	// TempsSinceLastNotification collects one outdoor value per
	// invocation; cleared when a notification fires.
	TempsSinceLastNotification []float64
}

// IsNewDay reports whether the last notification happened on a calendar
// date different from now's. With no notification on record there is
// nothing to reset.
func (s *State) IsNewDay(now time.Time) bool {
	if s.LastNotificationTime == nil {
		return false
	}
	y1, m1, d1 := s.LastNotificationTime.Date()
	y2, m2, d2 := now.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}
