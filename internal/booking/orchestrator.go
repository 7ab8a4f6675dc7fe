package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/reedipher/teatime/internal/artifacts"
	"github.com/reedipher/teatime/internal/browser"
	"github.com/reedipher/teatime/internal/logger"
	"github.com/reedipher/teatime/internal/slots"
)

// ErrNoSlots means no attempt found a bookable slot within the retry budget.
var ErrNoSlots = errors.New("no bookable slots found")

// navigator is the slice of navigation the retry loop drives.
type navigator interface {
	GotoSchedule(page browser.Page, dateISO string) error
	GotoBookingView(page browser.Page, dateISO string) error
	GotoRoot(page browser.Page)
}

// attempter executes one booking attempt against one candidate.
type attempter interface {
	Attempt(page browser.Page, slot slots.Candidate) error
}

// Outcome summarizes a finished booking run
type Outcome struct {
	Booked    bool   `json:"booked"`
	DryRun    bool   `json:"dry_run"`
	Date      string `json:"date"`
	SlotTime  string `json:"slot_time,omitempty"`
	Simulated bool   `json:"simulated,omitempty"`
	Attempts  int    `json:"attempts"`
}

// Orchestrator runs the bounded retry loop: navigate to the tee sheet, scan
// for slots, attempt the best one. Between attempts it nudges the site via
// the booking view; after an attempt error it resets to the site root.
type Orchestrator struct {
	Nav           navigator
	Exec          attempter
	Scan          func(pageURL, htmlContent string, targetMinutes int) ([]slots.Candidate, error)
	TargetMinutes int
	MaxRetries    int
	DryRun        bool
	Sink          *artifacts.Sink
}

// Book drives the full booking flow for the date. It makes at most
// MaxRetries+1 attempts, each starting from a fresh tee sheet navigation.
// On the final attempt of a dry run with no slots found, a simulated slot
// exercises the booking path end to end.
func (o *Orchestrator) Book(page browser.Page, dateISO string) (Outcome, error) {
	scan := o.Scan
	if scan == nil {
		scan = slots.FindSlots
	}

	outcome := Outcome{DryRun: o.DryRun, Date: dateISO}
	start := time.Now()
	defer func() { logger.RecordTiming("booking.run", time.Since(start)) }()

	for attempt := 0; attempt <= o.MaxRetries; attempt++ {
		outcome.Attempts = attempt + 1
		logger.Info("Booking attempt", logger.Fields{
			"attempt": attempt + 1,
			"of":      o.MaxRetries + 1,
			"date":    dateISO,
		})
		logger.IncrCounter("booking.attempts")

		if err := o.Nav.GotoSchedule(page, dateISO); err != nil {
			logger.Error("Tee sheet navigation failed", logger.Fields{"attempt": attempt + 1}, err)
			if attempt < o.MaxRetries {
				o.Nav.GotoRoot(page)
				continue
			}
			return outcome, fmt.Errorf("navigating on final attempt: %w", err)
		}

		candidates, err := o.scanPage(page, scan)
		if err != nil {
			logger.Error("Slot scan failed", logger.Fields{"attempt": attempt + 1}, err)
			if attempt < o.MaxRetries {
				o.Nav.GotoRoot(page)
				continue
			}
			return outcome, err
		}

		if len(candidates) > 0 {
			best := candidates[0]
			logger.Info("Best slot selected", logger.Fields{
				"time":     best.DisplayTime,
				"distance": best.Distance,
			})
			if err := o.Exec.Attempt(page, best); err != nil {
				logger.Error("Booking attempt failed", logger.Fields{"time": best.DisplayTime}, err)
				o.Sink.Screenshot(page, fmt.Sprintf("booking error attempt %d", attempt+1))
				if attempt < o.MaxRetries {
					o.Nav.GotoRoot(page)
					continue
				}
				return outcome, err
			}
			outcome.Booked = true
			outcome.SlotTime = best.DisplayTime
			logger.IncrCounter("booking.success")
			return outcome, nil
		}

		logger.Warn("No slots found on attempt", logger.Fields{"attempt": attempt + 1})

		if o.DryRun && attempt == o.MaxRetries {
			if sim, ok := o.simulatedSlot(page); ok {
				logger.Info("DRY RUN: using simulated slot to exercise the booking path", nil)
				if err := o.Exec.Attempt(page, sim); err != nil {
					return outcome, err
				}
				outcome.Booked = true
				outcome.SlotTime = sim.DisplayTime
				outcome.Simulated = true
				return outcome, nil
			}
		}

		if attempt < o.MaxRetries {
			// Nudge the site through the booking view before the next pass
			if err := o.Nav.GotoBookingView(page, dateISO); err != nil {
				logger.Warn("Booking view navigation before retry failed", logger.Fields{
					"error": err.Error(),
				})
			}
		}
	}

	return outcome, ErrNoSlots
}

func (o *Orchestrator) scanPage(page browser.Page, scan func(string, string, int) ([]slots.Candidate, error)) ([]slots.Candidate, error) {
	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("reading tee sheet: %w", err)
	}
	return scan(page.URL(), content, o.TargetMinutes)
}

// simulatedSlot builds a zero-distance candidate from the first tee sheet
// form on the page, so a dry run can walk the booking path even when the
// sheet shows nothing bookable.
func (o *Orchestrator) simulatedSlot(page browser.Page) (slots.Candidate, bool) {
	content, err := page.Content()
	if err != nil {
		return slots.Candidate{}, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return slots.Candidate{}, false
	}

	form := doc.Find(`form[id*='TeeSheetForm']`).First()
	id, ok := form.Attr("id")
	if !ok || id == "" {
		return slots.Candidate{}, false
	}

	return slots.Candidate{
		DisplayTime: slots.FormatTime(o.TargetMinutes),
		Minutes:     o.TargetMinutes,
		Distance:    0,
		Handle:      slots.Handle{Kind: slots.HandleForm, Selector: "#" + id, FormID: id},
		Simulated:   true,
	}, true
}
