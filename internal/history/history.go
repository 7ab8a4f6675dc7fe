// Package history persists booking run outcomes so past runs can be
// inspected and reported on.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reedipher/teatime/internal/booking"
)

// Record is one persisted booking run
type Record struct {
	At      string          `json:"at"`
	Outcome booking.Outcome `json:"outcome"`
	Error   string          `json:"error,omitempty"`
}

// Store persists run records as a single JSON file
type Store struct {
	dataDir string
}

// New creates a Store rooted at dataDir, creating the directory if needed.
func New(dataDir string) (*Store, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

func (s *Store) path() string {
	return filepath.Join(s.dataDir, "history.json")
}

// Append adds a record for the outcome and saves the history.
func (s *Store) Append(outcome booking.Outcome, runErr error) error {
	records, err := s.List()
	if err != nil {
		return err
	}

	rec := Record{
		At:      time.Now().UTC().Format(time.RFC3339),
		Outcome: outcome,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := os.WriteFile(s.path(), data, 0644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

// List returns all persisted records, oldest first. A missing file yields an
// empty history.
func (s *Store) List() ([]Record, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading history: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing history: %w", err)
	}
	return records, nil
}

// Last returns the n most recent records, newest last.
func (s *Store) Last(n int) ([]Record, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(records) {
		return records, nil
	}
	return records[len(records)-n:], nil
}
