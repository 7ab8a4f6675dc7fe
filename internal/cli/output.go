package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/reedipher/teatime/internal/booking"
	"github.com/reedipher/teatime/internal/history"
	"github.com/reedipher/teatime/internal/schedule"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// textWriter is implemented by results that can render themselves as text
type textWriter interface {
	writeText(w io.Writer) error
}

// WriteOutput writes the result in the specified format.
func WriteOutput(w io.Writer, result textWriter, format OutputFormat) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case FormatText:
		return result.writeText(w)
	default:
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", format)
	}
}

// BookingResult is the output of a booking run
type BookingResult struct {
	Outcome booking.Outcome `json:"outcome"`
	Error   string          `json:"error,omitempty"`
	RunDir  string          `json:"run_dir,omitempty"`
	Report  string          `json:"report,omitempty"`
}

func (r *BookingResult) writeText(w io.Writer) error {
	o := r.Outcome
	switch {
	case o.Booked && o.DryRun && o.Simulated:
		fmt.Fprintf(w, "DRY RUN: booking path verified with a simulated %s slot on %s (attempt %d).\n",
			o.SlotTime, o.Date, o.Attempts)
	case o.Booked && o.DryRun:
		fmt.Fprintf(w, "DRY RUN: would have booked %s on %s (attempt %d).\n",
			o.SlotTime, o.Date, o.Attempts)
	case o.Booked:
		fmt.Fprintf(w, "Booked %s on %s (attempt %d).\n", o.SlotTime, o.Date, o.Attempts)
	default:
		fmt.Fprintf(w, "No tee time booked for %s after %d attempts.\n", o.Date, o.Attempts)
	}

	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
	if r.RunDir != "" {
		fmt.Fprintf(w, "Artifacts: %s\n", r.RunDir)
	}
	if r.Report != "" {
		fmt.Fprintf(w, "Report: %s\n", r.Report)
	}
	return nil
}

// DatesResult is the output of the dates command
type DatesResult struct {
	TargetDay      string              `json:"target_day"`
	TargetDate     string              `json:"target_date"`
	TargetInWindow bool                `json:"target_in_window"`
	Window         []schedule.DateInfo `json:"window"`
}

func (r *DatesResult) writeText(w io.Writer) error {
	if r.TargetInWindow {
		fmt.Fprintf(w, "Next %s: %s\n", r.TargetDay, r.TargetDate)
	} else {
		fmt.Fprintf(w, "No %s inside the booking window; falling back to %s\n", r.TargetDay, r.TargetDate)
	}

	fmt.Fprintln(w, "\nBookable dates:")
	for _, d := range r.Window {
		marker := " "
		if d.ISO == r.TargetDate {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s (%s, %d days ahead)\n", marker, d.ISO, d.Weekday, d.DaysAhead)
	}
	return nil
}

// CleanupResult is the output of the cleanup command
type CleanupResult struct {
	Removed []string `json:"removed"`
	DryRun  bool     `json:"dry_run"`
}

func (r *CleanupResult) writeText(w io.Writer) error {
	if len(r.Removed) == 0 {
		fmt.Fprintln(w, "Nothing to remove.")
		return nil
	}

	verb := "Removed"
	if r.DryRun {
		verb = "Would remove"
	}
	for _, name := range r.Removed {
		fmt.Fprintf(w, "%s %s\n", verb, name)
	}
	fmt.Fprintf(w, "\nTotal: %d runs\n", len(r.Removed))
	return nil
}

// HistoryResult is the output of the history command
type HistoryResult struct {
	Records []history.Record `json:"records"`
}

func (r *HistoryResult) writeText(w io.Writer) error {
	if len(r.Records) == 0 {
		fmt.Fprintln(w, "No booking runs recorded.")
		return nil
	}

	for _, rec := range r.Records {
		o := rec.Outcome
		status := "not booked"
		if o.Booked {
			status = "booked " + o.SlotTime
			if o.DryRun {
				status = "dry run " + o.SlotTime
			}
		}
		fmt.Fprintf(w, "%s  %s  %s (%d attempts)\n", rec.At, o.Date, status, o.Attempts)
		if rec.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", rec.Error)
		}
	}
	return nil
}

// InspectResult is the output of the inspect command
type InspectResult struct {
	Source string      `json:"source"`
	Report interface{} `json:"report"`
}

func (r *InspectResult) writeText(w io.Writer) error {
	// Structure reports are JSON even in text mode; there is no useful
	// plain-text rendering of a selector inventory.
	fmt.Fprintf(w, "Page structure for %s:\n", r.Source)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r.Report)
}
