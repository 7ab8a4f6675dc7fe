package slots

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/reedipher/teatime/internal/logger"
)

// View identifies which kind of page the scanner is looking at
type View int

const (
	ViewUnknown View = iota
	ViewSchedule
	ViewBooking
)

func (v View) String() string {
	switch v {
	case ViewSchedule:
		return "schedule"
	case ViewBooking:
		return "booking"
	default:
		return "unknown"
	}
}

// HandleKind distinguishes form submission from element clicking
type HandleKind int

const (
	// HandleElement is clicked directly
	HandleElement HandleKind = iota
	// HandleForm is submitted (via its booking control, or directly)
	HandleForm
)

// Handle is a short-lived reference to a clickable element or submittable
// form on the page. It is not serializable and not valid after navigation.
type Handle struct {
	Kind     HandleKind
	Selector string
	FormID   string
}

// Candidate is a discovered, potentially bookable tee-time slot
type Candidate struct {
	DisplayTime string
	Minutes     int // -1 when the display time could not be parsed
	Distance    int
	Handle      Handle
	Simulated   bool
}

// timePattern matches display times like "7:30 AM" or "2:00pm"
var timePattern = regexp.MustCompile(`(?i)\d{1,2}:\d{2}\s*[AP]M`)

// DetectView classifies the page by known URL path markers.
func DetectView(pageURL string) View {
	switch {
	case strings.Contains(pageURL, "TeeSheet/view"):
		return ViewSchedule
	case strings.Contains(pageURL, "TeeTimes/view"), strings.Contains(pageURL, "TeeTimes/booking"):
		return ViewBooking
	default:
		return ViewUnknown
	}
}

// FindSlots scans the rendered HTML of the page at pageURL for bookable
// slots and returns them sorted ascending by distance from targetMinutes.
// The sort is stable, so equal-distance candidates keep discovery order.
// An empty result is a valid outcome, distinct from a parse error.
func FindSlots(pageURL, htmlContent string, targetMinutes int) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	view := DetectView(pageURL)
	logger.Info("Scanning for slots", logger.Fields{
		"view":   view.String(),
		"target": FormatTime(targetMinutes),
	})

	var candidates []Candidate
	switch view {
	case ViewSchedule:
		candidates = scanScheduleView(doc, targetMinutes)
	case ViewBooking:
		candidates = firstNonEmpty(bookingStrategies, doc, targetMinutes)
	default:
		candidates = scanUnknownView(doc, targetMinutes)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	for i, c := range candidates {
		if i >= 5 {
			break
		}
		logger.Info("Candidate slot", logger.Fields{
			"rank":     i + 1,
			"time":     c.DisplayTime,
			"distance": c.Distance,
		})
	}
	if len(candidates) == 0 {
		logger.Warn("No bookable slots found on page", logger.Fields{"view": view.String()})
	}

	return candidates, nil
}

// strategy extracts candidates from a parsed page. Strategies are pure over
// the document, so each is independently testable.
type strategy func(doc *goquery.Document, targetMinutes int) []Candidate

// bookingStrategies are tried in order; the first one returning any
// candidates wins.
var bookingStrategies = []strategy{
	scanTimeCards,
	scanBookingControls,
	scanTimedClickables,
}

func firstNonEmpty(strategies []strategy, doc *goquery.Document, targetMinutes int) []Candidate {
	for _, s := range strategies {
		if candidates := s(doc, targetMinutes); len(candidates) > 0 {
			return candidates
		}
	}
	return nil
}

// scanScheduleView extracts slots from the tee sheet's per-row forms. A row
// is kept only when it carries a time label and looks bookable.
func scanScheduleView(doc *goquery.Document, targetMinutes int) []Candidate {
	var candidates []Candidate

	doc.Find(`form[id*='TeeSheetForm']`).Each(func(i int, form *goquery.Selection) {
		timeText := strings.TrimSpace(form.Find(".slotTime b").First().Text())
		if timeText == "" {
			return
		}
		if !rowBookable(form) {
			logger.Debug("Row not bookable", logger.Fields{"row": i + 1, "time": timeText})
			return
		}

		handle := Handle{Kind: HandleForm}
		if id, ok := form.Attr("id"); ok && id != "" {
			handle.FormID = id
			handle.Selector = "#" + id
		} else {
			handle.Selector = SelectorFor(form)
		}

		candidates = append(candidates, newCandidate(timeText, targetMinutes, handle))
	})

	return candidates
}

// rowBookable reports whether a tee sheet row can be booked: it either
// carries a submit control or booking-verb control, or has at least one open
// slot box that is not taken, blocked, or reserved for an event.
func rowBookable(form *goquery.Selection) bool {
	if form.Find(`button[type='submit'], input[type='submit']`).Length() > 0 {
		return true
	}

	verb := false
	form.Find("button, a").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := strings.ToLower(el.Text())
		if strings.Contains(text, "book") || strings.Contains(text, "reserve") {
			verb = true
			return false
		}
		return true
	})
	if verb {
		return true
	}

	open := false
	form.Find(".slot-box").EachWithBreak(func(_ int, box *goquery.Selection) bool {
		if box.HasClass("Green") || box.HasClass("Grey") || box.HasClass("Event") {
			return true
		}
		// Occupant text means the slot is taken
		if strings.TrimSpace(box.Text()) != "" {
			return true
		}
		open = true
		return false
	})
	return open
}

// scanTimeCards looks for purpose-built time cards with an embedded time and
// an adjacent booking control.
func scanTimeCards(doc *goquery.Document, targetMinutes int) []Candidate {
	var candidates []Candidate

	doc.Find(`.teetime-card, .time-slot, [class*='time'], [class*='slot'], [class*='tee-time']`).
		Each(func(_ int, card *goquery.Selection) {
			timeText := timePattern.FindString(card.Text())
			if timeText == "" {
				return
			}

			control := card.Find("button, a").First()
			if control.Length() == 0 {
				return
			}
			controlText := strings.ToLower(control.Text())
			if !strings.Contains(controlText, "book") && !strings.Contains(controlText, "reserve") {
				return
			}

			handle := Handle{Kind: HandleElement, Selector: SelectorFor(control)}
			candidates = append(candidates, newCandidate(timeText, targetMinutes, handle))
		})

	return candidates
}

// scanBookingControls looks for booking-verb controls and pairs each with
// the nearest time found in its ancestors.
func scanBookingControls(doc *goquery.Document, targetMinutes int) []Candidate {
	return controlsWithAncestorTime(doc, targetMinutes, []string{"book", "reserve"})
}

// scanTimedClickables looks for clickable elements that carry a time in
// their own text and also signal bookability.
func scanTimedClickables(doc *goquery.Document, targetMinutes int) []Candidate {
	var candidates []Candidate

	doc.Find(`a, button, [onclick], [class*='clickable'], [class*='slot'], [role='button']`).
		Each(func(_ int, el *goquery.Selection) {
			text := el.Text()
			timeText := timePattern.FindString(text)
			if timeText == "" {
				return
			}

			lower := strings.ToLower(text)
			if !strings.Contains(lower, "book") && !strings.Contains(lower, "reserve") &&
				!strings.Contains(lower, "select") && !strings.Contains(lower, "available") {
				return
			}

			handle := Handle{Kind: HandleElement, Selector: SelectorFor(el)}
			candidates = append(candidates, newCandidate(timeText, targetMinutes, handle))
		})

	return candidates
}

// scanUnknownView is the single fallback for pages that match no known URL
// marker: booking-verb controls paired with the nearest ancestor time.
func scanUnknownView(doc *goquery.Document, targetMinutes int) []Candidate {
	return controlsWithAncestorTime(doc, targetMinutes, []string{"book"})
}

func controlsWithAncestorTime(doc *goquery.Document, targetMinutes int, verbs []string) []Candidate {
	var candidates []Candidate

	doc.Find("button, a").Each(func(_ int, control *goquery.Selection) {
		text := strings.ToLower(control.Text())
		matched := false
		for _, verb := range verbs {
			if strings.Contains(text, verb) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}

		timeText := findTimeInAncestors(control, 5)
		if timeText == "" {
			return
		}

		handle := Handle{Kind: HandleElement, Selector: SelectorFor(control)}
		candidates = append(candidates, newCandidate(timeText, targetMinutes, handle))
	})

	return candidates
}

// findTimeInAncestors searches upward through at most maxDepth parents for
// the first text matching the time pattern.
func findTimeInAncestors(el *goquery.Selection, maxDepth int) string {
	parent := el.Parent()
	for depth := 0; depth < maxDepth && parent.Length() > 0; depth++ {
		if m := timePattern.FindString(parent.Text()); m != "" {
			return strings.TrimSpace(m)
		}
		parent = parent.Parent()
	}
	return ""
}

// newCandidate builds a Candidate, assigning the sentinel distance when the
// display time cannot be parsed.
func newCandidate(displayTime string, targetMinutes int, handle Handle) Candidate {
	c := Candidate{
		DisplayTime: strings.TrimSpace(displayTime),
		Minutes:     -1,
		Distance:    UnparsableDistance,
		Handle:      handle,
	}
	if minutes, ok := ParseTime(c.DisplayTime); ok {
		c.Minutes = minutes
		c.Distance = abs(minutes - targetMinutes)
	}
	return c
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
