package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"clanwake/internal/models"
)

// WakeStorage keeps a bounded history of keep-warm rounds on disk.
type WakeStorage struct {
	mu         sync.RWMutex
	path       string
	maxEntries int
	history    []models.WakeEntry
}

// NewWakeStorage creates a storage instance and loads existing history if present.
// A non-positive maxEntries keeps everything.
func NewWakeStorage(path string, maxEntries int) (*WakeStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	s := &WakeStorage{path: path, maxEntries: maxEntries}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.trimLocked()
	return s, nil
}

// Append adds a new wake entry and persists it to disk.
func (s *WakeStorage) Append(entry models.WakeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, entry)
	s.trimLocked()
	return s.persistLocked()
}

// Latest returns the latest wake entry if it exists.
func (s *WakeStorage) Latest() (models.WakeEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return models.WakeEntry{}, false
	}
	return s.history[len(s.history)-1], true
}

// History returns a copy of the entire history slice.
func (s *WakeStorage) History() []models.WakeEntry {
	return s.HistoryN(0)
}

// HistoryN returns a copy of the newest n entries, oldest first. n <= 0 means all.
func (s *WakeStorage) HistoryN(n int) []models.WakeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.history
	if n > 0 && len(src) > n {
		src = src[len(src)-n:]
	}
	copied := make([]models.WakeEntry, len(src))
	copy(copied, src)
	return copied
}

func (s *WakeStorage) trimLocked() {
	if s.maxEntries > 0 && len(s.history) > s.maxEntries {
		s.history = append([]models.WakeEntry(nil), s.history[len(s.history)-s.maxEntries:]...)
	}
}

func (s *WakeStorage) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.history = []models.WakeEntry{}
			return nil
		}
		return fmt.Errorf("read history: %w", err)
	}

	if len(data) == 0 {
		s.history = []models.WakeEntry{}
		return nil
	}

	var entries []models.WakeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse history: %w", err)
	}

	s.history = entries
	return nil
}

func (s *WakeStorage) persistLocked() error {
	bytes, err := json.MarshalIndent(s.history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
