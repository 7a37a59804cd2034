package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Progress is where a presenter left a deck
type Progress struct {
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type progressFile struct {
	Decks map[string]*Progress `json:"decks"`
}

// ProgressStore remembers the last shown slide of each deck in a JSON file
type ProgressStore struct {
	mu       sync.RWMutex
	filePath string
	data     *progressFile
	log      *zap.Logger
}

// NewProgressStore opens the progress file at filePath, creating an empty
// store if it does not exist.
func NewProgressStore(filePath string, logger *zap.Logger) (*ProgressStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := &ProgressStore{
		filePath: filePath,
		data:     &progressFile{Decks: make(map[string]*Progress)},
		log:      logger,
	}

	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	return store, nil
}

// Load reads the progress file. A missing or corrupt file yields an empty store.
func (s *ProgressStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read progress file: %w", err)
	}

	var file progressFile
	if err := json.Unmarshal(data, &file); err != nil {
		s.log.Warn("failed to parse progress file, starting empty", zap.String("path", s.filePath), zap.Error(err))
		return nil
	}
	if file.Decks == nil {
		file.Decks = make(map[string]*Progress)
	}
	s.data = &file
	return nil
}

// Get returns the saved progress of a deck
func (s *ProgressStore) Get(deckKey string) (Progress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data.Decks[deckKey]
	if !ok {
		return Progress{}, false
	}
	return *p, true
}

// Save records the current slide of a deck and writes the file
func (s *ProgressStore) Save(deckKey string, index, total int) error {
	if deckKey == "" {
		return fmt.Errorf("deck key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Decks[deckKey] = &Progress{Index: index, Total: total, UpdatedAt: time.Now().UTC()}
	return s.save()
}

// save atomically writes the progress file (temp file, then rename).
// Must be called with lock held.
func (s *ProgressStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create progress directory: %w", err)
	}

	tempPath := s.filePath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	file.Close()

	if err := os.Rename(tempPath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
