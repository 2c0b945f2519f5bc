package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ProcessedTracker keeps a persistent record of inbox videos that have
// already been turned into documents, so a watch-mode scan never reprocesses
// the same file. Entries are keyed by path plus size plus modification time:
// replacing a file with new content makes it eligible again.
type ProcessedTracker struct {
	filePath  string
	processed map[string]time.Time
	mu        sync.RWMutex
	maxAge    time.Duration
}

type processedEntry struct {
	Key         string    `json:"key"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Key derives the tracker key for a video file from its stat info.
func Key(path string, info os.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().Unix())
}

// NewProcessedTracker creates a tracker persisted under dataDir. Entries
// older than maxAge are dropped on load.
func NewProcessedTracker(dataDir string, maxAge time.Duration) (*ProcessedTracker, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tracker := &ProcessedTracker{
		filePath:  filepath.Join(dataDir, "processed_videos.json"),
		processed: make(map[string]time.Time),
		maxAge:    maxAge,
	}

	if err := tracker.load(); err != nil {
		return nil, fmt.Errorf("failed to load processed-video data: %w", err)
	}
	tracker.cleanup()

	return tracker, nil
}

// IsProcessed checks whether a key has been handled within the retention
// window.
func (pt *ProcessedTracker) IsProcessed(key string) bool {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	processedAt, exists := pt.processed[key]
	if !exists {
		return false
	}
	return time.Since(processedAt) < pt.maxAge
}

// MarkProcessed records a key and persists the store.
func (pt *ProcessedTracker) MarkProcessed(key string) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.processed[key] = time.Now()
	return pt.save()
}

// Count returns the number of tracked entries.
func (pt *ProcessedTracker) Count() int {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return len(pt.processed)
}

func (pt *ProcessedTracker) cleanup() {
	cutoff := time.Now().Add(-pt.maxAge)
	for key, processedAt := range pt.processed {
		if processedAt.Before(cutoff) {
			delete(pt.processed, key)
		}
	}
}

func (pt *ProcessedTracker) load() error {
	file, err := os.Open(pt.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open tracker file: %w", err)
	}
	defer file.Close()

	var entries []processedEntry
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode tracker data: %w", err)
	}

	for _, e := range entries {
		pt.processed[e.Key] = e.ProcessedAt
	}
	return nil
}

func (pt *ProcessedTracker) save() error {
	var entries []processedEntry
	for key, processedAt := range pt.processed {
		entries = append(entries, processedEntry{Key: key, ProcessedAt: processedAt})
	}

	file, err := os.Create(pt.filePath)
	if err != nil {
		return fmt.Errorf("failed to create tracker file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}
