package storage_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clanwake/internal/models"
	"clanwake/internal/storage"
)

func entryAt(minute int, ok bool) models.WakeEntry {
	return models.WakeEntry{
		Timestamp: time.Date(2026, 10, 19, 12, minute, 0, 0, time.UTC),
		Checks:    []models.WakeCheck{{ID: "backend", Name: "Backend", OK: ok, Attempts: 1}},
	}
}

func TestWakeStorageAppendAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wake_history.json")

	s, err := storage.NewWakeStorage(path, 0)
	require.NoError(t, err)
	_, ok := s.Latest()
	assert.False(t, ok)
	assert.Empty(t, s.History())

	require.NoError(t, s.Append(entryAt(1, false)))
	require.NoError(t, s.Append(entryAt(2, true)))

	reopened, err := storage.NewWakeStorage(path, 0)
	require.NoError(t, err)
	latest, ok := reopened.Latest()
	require.True(t, ok)
	assert.True(t, latest.Checks[0].OK)
	assert.Len(t, reopened.History(), 2)

	matches, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestWakeStorageTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wake_history.json")
	s, err := storage.NewWakeStorage(path, 3)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(entryAt(i, true)))
	}
	history := s.History()
	require.Len(t, history, 3)
	assert.Equal(t, 2, history[0].Timestamp.Minute())
	assert.Equal(t, 4, history[2].Timestamp.Minute())

	last := s.HistoryN(2)
	require.Len(t, last, 2)
	assert.Equal(t, 3, last[0].Timestamp.Minute())

	assert.Len(t, s.HistoryN(10), 3)
}

func TestWakeStorageRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wake_history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := storage.NewWakeStorage(path, 0)
	assert.Error(t, err)
}

func TestWakeStorageEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wake_history.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s, err := storage.NewWakeStorage(path, 0)
	require.NoError(t, err)
	assert.Empty(t, s.History())
}
