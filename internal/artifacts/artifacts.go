// Package artifacts persists the evidence trail of a booking run: numbered
// screenshots, HTML snapshots, and a JSON step log, all under one
// per-run directory.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reedipher/teatime/internal/browser"
	"github.com/reedipher/teatime/internal/logger"
)

// Step records one logged action in the run
type Step struct {
	Seq    int    `json:"seq"`
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
	At     string `json:"at"`
}

// Sink writes run artifacts to a per-run directory. A nil Sink discards
// everything, so callers never have to branch on whether artifacts are
// enabled.
type Sink struct {
	dir   string
	seq   int
	steps []Step
}

// NewSink creates a run directory under baseDir, named by run start time.
func NewSink(baseDir string) (*Sink, error) {
	if strings.HasPrefix(baseDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		baseDir = filepath.Join(home, baseDir[2:])
	}

	dir := filepath.Join(baseDir, "run_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating artifacts directory: %w", err)
	}
	return &Sink{dir: dir}, nil
}

// Dir returns the run directory, or "" for a nil sink.
func (s *Sink) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

// Screenshot captures the page and writes it as the next numbered PNG.
// Capture failures are logged and swallowed; evidence must never abort
// the run it documents.
func (s *Sink) Screenshot(page browser.Page, name string) {
	if s == nil {
		return
	}
	data, err := page.Screenshot()
	if err != nil {
		logger.Warn("Screenshot failed", logger.Fields{"name": name, "error": err.Error()})
		return
	}

	s.seq++
	path := filepath.Join(s.dir, fmt.Sprintf("%02d_%s.png", s.seq, sanitize(name)))
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Warn("Writing screenshot", logger.Fields{"path": path, "error": err.Error()})
		return
	}
	logger.Debug("Screenshot saved", logger.Fields{"path": path})
}

// SaveHTML writes the page's rendered HTML as the next numbered snapshot.
func (s *Sink) SaveHTML(page browser.Page, name string) {
	if s == nil {
		return
	}
	content, err := page.Content()
	if err != nil {
		logger.Warn("Reading page content", logger.Fields{"name": name, "error": err.Error()})
		return
	}

	s.seq++
	path := filepath.Join(s.dir, fmt.Sprintf("%02d_%s.html", s.seq, sanitize(name)))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		logger.Warn("Writing page snapshot", logger.Fields{"path": path, "error": err.Error()})
	}
}

// RecordStep appends a step to the run log.
func (s *Sink) RecordStep(name, detail string) {
	if s == nil {
		return
	}
	s.steps = append(s.steps, Step{
		Seq:    len(s.steps) + 1,
		Name:   name,
		Detail: detail,
		At:     time.Now().UTC().Format(time.RFC3339),
	})
}

// Steps returns the steps recorded so far.
func (s *Sink) Steps() []Step {
	if s == nil {
		return nil
	}
	return s.steps
}

// Flush writes the accumulated step log as steps.json.
func (s *Sink) Flush() error {
	if s == nil || len(s.steps) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(s.steps, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding step log: %w", err)
	}
	path := filepath.Join(s.dir, "steps.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing step log: %w", err)
	}
	return nil
}

// sanitize makes a step name safe for use in a filename.
func sanitize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "step"
	}
	return b.String()
}
