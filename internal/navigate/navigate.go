// Package navigate moves the browser between the site's tee sheet and
// booking views.
package navigate

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

// ErrBookingViewUnreachable means every navigation strategy to the booking
// view failed. The tee sheet may still be usable.
var ErrBookingViewUnreachable = errors.New("booking view unreachable")

const settleTimeout = 5 * time.Second

// Navigator builds URLs for and drives navigation around one club's site
type Navigator struct {
	BaseURL string
	ClubID  string
	Sink    *artifacts.Sink
}

// New creates a Navigator for the given site and club.
func New(baseURL, clubID string, sink *artifacts.Sink) *Navigator {
	return &Navigator{BaseURL: strings.TrimRight(baseURL, "/"), ClubID: clubID, Sink: sink}
}

// ScheduleURL returns the tee sheet URL for an ISO date (YYYY-MM-DD).
func (n *Navigator) ScheduleURL(dateISO string) string {
	return fmt.Sprintf("%s/TeeSheet/view/%s/sheet?date=%s", n.BaseURL, n.ClubID, dateISO)
}

// BookingURL returns the direct booking view URL for an ISO date.
func (n *Navigator) BookingURL(dateISO string) string {
	return fmt.Sprintf("%s/TeeTimes/view/%s/slots?date=%s&player=1&ratetype=any",
		n.BaseURL, n.ClubID, urlDate(dateISO))
}

// AlternateBookingURL returns the booking view URL on the alternate path.
func (n *Navigator) AlternateBookingURL(dateISO string) string {
	return fmt.Sprintf("%s/TeeTimes/booking/%s/slots?date=%s&player=1&ratetype=any",
		n.BaseURL, n.ClubID, urlDate(dateISO))
}

// urlDate converts an ISO date to the percent-encoded MM/DD/YYYY form the
// booking view expects. A date that does not parse falls back to the ISO
// form with dashes stripped.
func urlDate(dateISO string) string {
	t, err := time.Parse("2006-01-02", dateISO)
	if err != nil {
		logger.Warn("Unparsable date for booking URL, using fallback", logger.Fields{"date": dateISO})
		return strings.ReplaceAll(dateISO, "-", "")
	}
	return strings.ReplaceAll(t.Format("01/02/2006"), "/", "%2F")
}

// GotoSchedule navigates to the tee sheet for the date. Navigation failures
// here are fatal for the attempt; the caller decides whether to retry.
func (n *Navigator) GotoSchedule(page browser.Page, dateISO string) error {
	url := n.ScheduleURL(dateISO)
	logger.Info("Navigating to tee sheet", logger.Fields{"date": dateISO, "url": url})

	if err := page.Goto(url, browser.WaitDOMContentLoaded); err != nil {
		n.Sink.Screenshot(page, "navigation error")
		return fmt.Errorf("navigating to tee sheet for %s: %w", dateISO, err)
	}

	n.Sink.Screenshot(page, "tee sheet")
	n.Sink.RecordStep("navigate", "tee sheet "+dateISO)
	return nil
}

// GotoBookingView tries to reach the booking view for the date, in order:
// the direct URL, the alternate-path URL, the member booking link from the
// tee sheet, and finally submitting a tee sheet booking form. Returns
// ErrBookingViewUnreachable when all four fail.
func (n *Navigator) GotoBookingView(page browser.Page, dateISO string) error {
	for _, url := range []string{n.BookingURL(dateISO), n.AlternateBookingURL(dateISO)} {
		logger.Info("Trying booking URL", logger.Fields{"url": url})
		if err := page.Goto(url, browser.WaitDOMContentLoaded); err != nil {
			logger.Warn("Booking URL navigation failed", logger.Fields{"url": url, "error": err.Error()})
			continue
		}
		if strings.Contains(page.URL(), "TeeTimes") {
			n.Sink.Screenshot(page, "booking view")
			n.Sink.RecordStep("navigate", "booking view "+dateISO)
			return nil
		}
		logger.Info("Booking URL redirected away", logger.Fields{"landed": page.URL()})
	}

	// Fall back to UI navigation from the tee sheet
	if err := n.GotoSchedule(page, dateISO); err != nil {
		return fmt.Errorf("%w: %v", ErrBookingViewUnreachable, err)
	}

	if n.clickMemberBookingLink(page) {
		n.Sink.Screenshot(page, "after booking link")
		return nil
	}
	if n.submitTeeSheetForm(page) {
		n.Sink.Screenshot(page, "after form submit")
		return nil
	}

	n.Sink.Screenshot(page, "booking nav error")
	return ErrBookingViewUnreachable
}

// clickMemberBookingLink looks for the "Book a Member Tee Time" sidebar link
// and clicks it.
func (n *Navigator) clickMemberBookingLink(page browser.Page) bool {
	doc, ok := parseContent(page)
	if !ok {
		return false
	}

	var selector string
	doc.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if strings.Contains(link.Text(), "Book a Member Tee Time") {
			selector = slots.SelectorFor(link)
			return false
		}
		return true
	})
	if selector == "" {
		logger.Warn("Member booking link not found on tee sheet", nil)
		return false
	}

	logger.Info("Clicking member booking link", logger.Fields{"selector": selector})
	if err := page.Click(selector); err != nil {
		logger.Warn("Clicking member booking link", logger.Fields{"error": err.Error()})
		return false
	}
	waitSettled(page)
	return true
}

// submitTeeSheetForm submits the first booking form on the tee sheet, via
// its submit control when present, otherwise directly through script.
func (n *Navigator) submitTeeSheetForm(page browser.Page) bool {
	doc, ok := parseContent(page)
	if !ok {
		return false
	}

	form := doc.Find(`form[action*='TeeTimes/booking']`).First()
	if form.Length() == 0 {
		logger.Warn("No booking forms on tee sheet", nil)
		return false
	}

	if submit := form.Find(`button[type='submit'], input[type='submit']`).First(); submit.Length() > 0 {
		selector := slots.SelectorFor(submit)
		logger.Info("Submitting tee sheet form via control", logger.Fields{"selector": selector})
		if err := page.Click(selector); err != nil {
			logger.Warn("Clicking form submit", logger.Fields{"error": err.Error()})
			return false
		}
		waitSettled(page)
		return true
	}

	formID, _ := form.Attr("id")
	if formID == "" {
		return false
	}
	logger.Info("Submitting tee sheet form via script", logger.Fields{"form": formID})
	if _, err := page.Evaluate(fmt.Sprintf("document.getElementById(%q).submit()", formID)); err != nil {
		logger.Warn("Script form submit", logger.Fields{"error": err.Error()})
		return false
	}
	waitSettled(page)
	return true
}

// GotoRoot returns the browser to the site root. Used to reset state after a
// failed booking attempt.
func (n *Navigator) GotoRoot(page browser.Page) {
	if err := page.Goto(n.BaseURL+"/", browser.WaitDOMContentLoaded); err != nil {
		logger.Warn("Returning to site root", logger.Fields{"error": err.Error()})
	}
}

func parseContent(page browser.Page) (*goquery.Document, bool) {
	content, err := page.Content()
	if err != nil {
		logger.Warn("Reading page content", logger.Fields{"error": err.Error()})
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		logger.Warn("Parsing page content", logger.Fields{"error": err.Error()})
		return nil, false
	}
	return doc, true
}

func waitSettled(page browser.Page) {
	if err := page.WaitForLoadState(browser.WaitDOMContentLoaded, settleTimeout); err != nil {
		logger.Warn("Page did not settle", logger.Fields{"error": err.Error()})
	}
}
