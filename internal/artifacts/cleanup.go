package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/reedipher/teatime/internal/logger"
)

// CleanupOptions controls pruning of old run directories
type CleanupOptions struct {
	// MaxAge removes runs older than this. Zero disables the age check.
	MaxAge time.Duration
	// Keep retains at least this many of the newest runs regardless of age.
	Keep int
	// DryRun reports what would be removed without removing it.
	DryRun bool
}

// Cleanup prunes run directories under baseDir and returns the names of the
// runs removed (or that would be removed, in dry-run mode).
func Cleanup(baseDir string, opts CleanupOptions) ([]string, error) {
	if strings.HasPrefix(baseDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		baseDir = filepath.Join(home, baseDir[2:])
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading artifacts directory: %w", err)
	}

	type run struct {
		name string
		mod  time.Time
	}
	var runs []run
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "run_") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		runs = append(runs, run{name: e.Name(), mod: info.ModTime()})
	}

	// Newest first, so the Keep window is a prefix
	sort.Slice(runs, func(i, j int) bool { return runs[i].mod.After(runs[j].mod) })

	cutoff := time.Time{}
	if opts.MaxAge > 0 {
		cutoff = time.Now().Add(-opts.MaxAge)
	}

	var removed []string
	for i, r := range runs {
		if i < opts.Keep {
			continue
		}
		if !cutoff.IsZero() && r.mod.After(cutoff) {
			continue
		}
		removed = append(removed, r.name)
		if opts.DryRun {
			continue
		}
		if err := os.RemoveAll(filepath.Join(baseDir, r.name)); err != nil {
			return removed, fmt.Errorf("removing %s: %w", r.name, err)
		}
		logger.Info("Removed old run artifacts", logger.Fields{"run": r.name})
	}
	return removed, nil
}
