// Package schedule computes bookable dates within the club's rolling window.
//
// The club only accepts reservations up to a fixed number of days ahead.
// NextOccurrence finds the next calendar date for a target weekday inside
// that window; AvailableDates enumerates the whole window for display and
// as a fallback when the target weekday is not yet bookable.
package schedule

import "time"

// DateInfo describes one bookable date within the window
type DateInfo struct {
	Date      time.Time `json:"-"`
	ISO       string    `json:"date"`
	Weekday   string    `json:"weekday"`
	DaysAhead int       `json:"days_ahead"`
}

// ISO formats a date the way the tee sheet URL expects it.
func ISO(t time.Time) string {
	return t.Format("2006-01-02")
}

// NextOccurrence returns the next calendar date, strictly after now, whose
// weekday matches target. Today never counts even when it matches: booking
// for the same day is pointless, so a matching today rolls to seven days out.
// Returns ok=false when the occurrence falls outside the booking window,
// signaling the caller to fall back to the furthest available date.
func NextOccurrence(target time.Weekday, windowDays int, now time.Time) (time.Time, bool) {
	daysAhead := (int(target) - int(now.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	if daysAhead > windowDays {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, daysAhead), true
}

// AvailableDates enumerates every date in the booking window, today included,
// in ascending order.
func AvailableDates(windowDays int, now time.Time) []DateInfo {
	dates := make([]DateInfo, 0, windowDays+1)
	for daysAhead := 0; daysAhead <= windowDays; daysAhead++ {
		d := now.AddDate(0, 0, daysAhead)
		dates = append(dates, DateInfo{
			Date:      d,
			ISO:       ISO(d),
			Weekday:   d.Weekday().String(),
			DaysAhead: daysAhead,
		})
	}
	return dates
}

// TargetDate resolves the date a run should book: the next occurrence of the
// target weekday when it fits the window, otherwise the furthest date in the
// window.
func TargetDate(target time.Weekday, windowDays int, now time.Time) (time.Time, bool) {
	if d, ok := NextOccurrence(target, windowDays, now); ok {
		return d, true
	}
	dates := AvailableDates(windowDays, now)
	return dates[len(dates)-1].Date, false
}
