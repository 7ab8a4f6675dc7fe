package slots

import (
	"regexp"
	"strings"
	"time"
)

// UnparsableDistance is the sentinel ranking distance for a candidate whose
// display time could not be parsed. It sorts such candidates last without
// discarding them: an unparsable slot may still be the only option.
const UnparsableDistance = 9999

// trailingMeridiem matches a time with a trailing meridiem marker that may be
// missing the separating space, e.g. "2:00pm".
var trailingMeridiem = regexp.MustCompile(`^(\d{1,2}:\d{2})\s*([APap][Mm])$`)

// ParseTime parses a display time like "7:30 AM" into minutes since midnight.
// Accepted formats, in priority order: "3:04 PM", "3:04PM", 24-hour "15:04",
// then a normalization pass that re-spaces a trailing meridiem and retries.
// Returns ok=false when no format matches.
func ParseTime(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	upper := strings.ToUpper(s)
	for _, layout := range []string{"3:04 PM", "3:04PM", "15:04"} {
		if t, err := time.Parse(layout, upper); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}

	if m := trailingMeridiem.FindStringSubmatch(s); m != nil {
		respaced := strings.ToUpper(m[1] + " " + m[2])
		if t, err := time.Parse("3:04 PM", respaced); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}

	return 0, false
}

// FormatTime renders minutes since midnight as a 12-hour display time,
// matching the club's own "7:30 AM" style.
func FormatTime(minutes int) string {
	t := time.Date(2000, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC)
	return t.Format("3:04 PM")
}
