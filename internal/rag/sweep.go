package rag

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Sweep scans the immediate subdirectories of root and removes entries that
// are both empty and at least ageThreshold old. Per-entry failures are logged
// and do not stop the sweep. It returns the number of directories removed.
//
// It is a lazily triggered maintenance pass, run at the start of every
// session creation rather than on a background timer.
func Sweep(root string, ageThreshold time.Duration, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read ephemeral root: %w", err)
	}

	cutoff := time.Now().Add(-ageThreshold)
	removed := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())

		info, err := entry.Info()
		if err != nil {
			logger.Warn("failed to stat session directory", "dir", entry.Name(), "error", err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		contents, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn("failed to read session directory", "dir", entry.Name(), "error", err)
			continue
		}
		if len(contents) > 0 {
			continue
		}

		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove stale session directory", "dir", entry.Name(), "error", err)
			continue
		}
		removed++
		logger.Info("removed stale empty session directory",
			"dir", entry.Name(),
			"age", time.Since(info.ModTime()).Round(time.Second))
	}

	return removed, nil
}

// Sweep runs the expiry sweep over the store's root directory.
func (s *Store) Sweep(ageThreshold time.Duration) (int, error) {
	return Sweep(s.root, ageThreshold, s.logger)
}
