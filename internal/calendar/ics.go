// Package calendar renders a booked tee time as an iCalendar file.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/reedipher/teatime/internal/booking"
	"github.com/reedipher/teatime/internal/slots"
)

// roundDuration blocks out a standard round of golf on the calendar.
const roundDuration = 4 * time.Hour

// GenerateICS renders the booked tee time as an iCalendar document. The
// outcome must carry a date; a missing or unparsable slot time falls back
// to 8 AM.
func GenerateICS(outcome booking.Outcome, courseName string) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//teatime//teatime//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	ics.WriteString("BEGIN:VEVENT\r\n")

	ics.WriteString(fmt.Sprintf("UID:%s-%s@teatime\r\n", outcome.Date, uidTime(outcome.SlotTime)))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(time.Now().UTC())))

	start := startTime(outcome)
	ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(start)))
	ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(start.Add(roundDuration))))

	summary := fmt.Sprintf("Tee Time - %s", outcome.SlotTime)
	if outcome.DryRun {
		summary = "[DRY RUN] " + summary
	}
	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(summary)))

	description := fmt.Sprintf("Tee time booked for %s at %s", outcome.Date, outcome.SlotTime)
	if outcome.Simulated {
		description += " (simulated slot)"
	}
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(description)))

	if courseName != "" {
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(courseName)))
	}

	status := "CONFIRMED"
	if outcome.DryRun {
		status = "TENTATIVE"
	}
	ics.WriteString(fmt.Sprintf("STATUS:%s\r\n", status))
	ics.WriteString("SEQUENCE:0\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")

	ics.WriteString("END:VEVENT\r\n")
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

// startTime resolves the outcome's date and slot time to a concrete start.
func startTime(outcome booking.Outcome) time.Time {
	day, err := time.Parse("2006-01-02", outcome.Date)
	if err != nil {
		day = time.Now().AddDate(0, 0, 7)
	}

	minutes, ok := slots.ParseTime(outcome.SlotTime)
	if !ok {
		minutes = 8 * 60
	}
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, time.UTC)
}

// uidTime renders the slot time in a UID-safe form.
func uidTime(slotTime string) string {
	if minutes, ok := slots.ParseTime(slotTime); ok {
		return fmt.Sprintf("%02d%02d", minutes/60, minutes%60)
	}
	return "0000"
}

// formatICSTime formats a time as an iCalendar UTC datetime.
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters according to RFC 5545.
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
