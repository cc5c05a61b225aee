package state

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loewekordel/temperature-notifier/internal/window"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state.json"), 60, discardLogger())

	st, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, st.LastNotificationTime)
	assert.Nil(t, st.LastSignificantRiseTime)
	assert.False(t, st.Armed)
	assert.Equal(t, 0, st.Window.Len())
	assert.Empty(t, st.TempsSinceLastNotification)
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewStore(path, 60, discardLogger())
	st, err := store.Load()
	require.NoError(t, err)
	assert.False(t, st.Armed)
	assert.Equal(t, 0, st.Window.Len())
}

func TestLoadReadFailureIsFatal(t *testing.T) {
	// an unreadable file is an I/O failure, not a corrupt checkpoint;
	// it must surface instead of degrading to defaults
	dir := t.TempDir()
	store := NewStore(dir, 60, discardLogger())

	st, err := store.Load()
	require.Error(t, err)
	assert.Nil(t, st)
	assert.Contains(t, err.Error(), "read state file")
}

func TestSaveFailureDoesNotAbort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "state.json")
	store := NewStore(path, 60, discardLogger())

	st := &State{Window: window.New(60)}
	store.Save(st) // logged as a warning, nothing to assert beyond no panic

	assert.NoFileExists(t, path)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewStore(path, 60, discardLogger())

	st, err := store.Load()
	require.NoError(t, err)

	notified := time.Date(2026, 8, 1, 14, 30, 0, 123456789, time.UTC)
	rise := notified.Add(-10 * time.Minute)
	st.LastNotificationTime = &notified
	st.LastSignificantRiseTime = &rise
	st.Armed = true
	st.Window.Append(notified.Add(-20*time.Minute), 18.5)
	st.Window.Append(notified, 21.25)
	st.TempsSinceLastNotification = []float64{18.5, 21.25}
	store.Save(st)

	reloaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastNotificationTime)
	assert.True(t, reloaded.LastNotificationTime.Equal(notified))
	require.NotNil(t, reloaded.LastSignificantRiseTime)
	assert.True(t, reloaded.LastSignificantRiseTime.Equal(rise))
	assert.True(t, reloaded.Armed)
	assert.Equal(t, st.Window.Samples(), reloaded.Window.Samples())
	assert.Equal(t, st.TempsSinceLastNotification, reloaded.TempsSinceLastNotification)
}

func TestLoadThenSaveWithoutMutationIsEquivalent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewStore(path, 60, discardLogger())

	st, err := store.Load()
	require.NoError(t, err)
	st.Armed = true
	st.Window.Append(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), 19)
	store.Save(st)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	st2, err := store.Load()
	require.NoError(t, err)
	store.Save(st2)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestPersistedFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewStore(path, 60, discardLogger())

	st, err := store.Load()
	require.NoError(t, err)
	store.Save(st)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{
		"last_notification_time",
		"last_significant_rise_time",
		"armed",
		"rolling_window",
		"temps_since_last_notification",
	} {
		assert.Contains(t, raw, key)
	}
}

func TestIsNewDay(t *testing.T) {
	st := &State{}
	now := time.Date(2026, 8, 2, 8, 0, 0, 0, time.UTC)
	assert.False(t, st.IsNewDay(now), "no notification on record")

	yesterday := time.Date(2026, 8, 1, 23, 50, 0, 0, time.UTC)
	st.LastNotificationTime = &yesterday
	assert.True(t, st.IsNewDay(now))
	assert.True(t, st.IsNewDay(now), "repeated calls agree")

	sameDay := time.Date(2026, 8, 2, 0, 10, 0, 0, time.UTC)
	st.LastNotificationTime = &sameDay
	assert.False(t, st.IsNewDay(now))
}
