// Package booking executes booking attempts against a discovered slot and
// orchestrates the retry loop around them.
package booking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/reedipher/teatime/internal/artifacts"
	"github.com/reedipher/teatime/internal/browser"
	"github.com/reedipher/teatime/internal/logger"
	"github.com/reedipher/teatime/internal/slots"
)

var (
	// ErrNoBookingForm means no form or modal appeared after acting on the slot.
	ErrNoBookingForm = errors.New("no booking form detected after action")

	// ErrNoFinalControl means the booking form has no recognizable submit control.
	ErrNoFinalControl = errors.New("no final booking control found")
)

const settleTimeout = 5 * time.Second

// Executor performs a single booking attempt against one candidate slot.
// In dry-run mode it highlights the slot it would act on, captures the
// evidence, and stops before any state-changing interaction.
type Executor struct {
	PlayerCount int
	DryRun      bool
	Sink        *artifacts.Sink
}

// Attempt books the candidate slot. A nil error means the attempt succeeded
// (or, in dry-run mode, would plausibly have succeeded).
func (e *Executor) Attempt(page browser.Page, slot slots.Candidate) error {
	mode := "LIVE"
	if e.DryRun {
		mode = "DRY RUN"
	}
	logger.Info("Attempting to book slot", logger.Fields{
		"time":    slot.DisplayTime,
		"players": e.PlayerCount,
		"mode":    mode,
	})
	e.Sink.Screenshot(page, "before booking attempt")

	if err := e.actOnSlot(page, slot); err != nil {
		return err
	}
	if e.DryRun {
		e.Sink.RecordStep("booking", "dry run stopped before interaction")
		return nil
	}

	waitSettled(page)
	e.Sink.Screenshot(page, "after booking action")

	return e.completeBookingForm(page)
}

// actOnSlot submits the slot's form or clicks its element. In dry-run mode
// the target is highlighted instead and nothing is submitted or clicked.
func (e *Executor) actOnSlot(page browser.Page, slot slots.Candidate) error {
	if slot.Handle.Kind == slots.HandleForm {
		if e.DryRun {
			logger.Info("DRY RUN: would submit booking form", logger.Fields{"form": slot.Handle.FormID})
			e.highlight(page, slot.Handle.Selector)
			e.Sink.Screenshot(page, "would submit form")
			return nil
		}
		js := fmt.Sprintf("document.getElementById(%q).submit()", slot.Handle.FormID)
		if _, err := page.Evaluate(js); err != nil {
			return fmt.Errorf("submitting booking form %s: %w", slot.Handle.FormID, err)
		}
		return nil
	}

	if e.DryRun {
		logger.Info("DRY RUN: would click booking element", logger.Fields{"selector": slot.Handle.Selector})
		e.highlight(page, slot.Handle.Selector)
		e.Sink.Screenshot(page, "would click element")
		return nil
	}
	if err := page.Click(slot.Handle.Selector); err != nil {
		return fmt.Errorf("clicking booking element: %w", err)
	}
	return nil
}

// completeBookingForm fills the post-action booking form: sets the party
// size and presses the final submit control. A missing confirmation marker
// afterward is logged but not treated as failure.
func (e *Executor) completeBookingForm(page browser.Page) error {
	content, err := page.Content()
	if err != nil {
		return fmt.Errorf("reading page after booking action: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("parsing page after booking action: %w", err)
	}

	form := doc.Find(`form, [role='dialog'], [class*='modal']`).First()
	if form.Length() == 0 {
		return ErrNoBookingForm
	}

	if err := e.setPlayerCount(page, form); err != nil {
		return err
	}

	final := form.Find(`button[type='submit'], input[type='submit']`).First()
	if final.Length() == 0 {
		form.Find("button").EachWithBreak(func(_ int, btn *goquery.Selection) bool {
			text := strings.ToLower(btn.Text())
			if strings.Contains(text, "book") || strings.Contains(text, "reserve") ||
				strings.Contains(text, "submit") {
				final = btn
				return false
			}
			return true
		})
	}
	if final.Length() == 0 {
		return ErrNoFinalControl
	}

	selector := slots.SelectorFor(final)
	logger.Info("Clicking final booking control", logger.Fields{"selector": selector})
	if err := page.Click(selector); err != nil {
		return fmt.Errorf("clicking final booking control: %w", err)
	}
	waitSettled(page)
	e.Sink.Screenshot(page, "booking complete")

	e.checkConfirmation(page)
	return nil
}

// setPlayerCount sets the party size control inside the booking form, when
// one is present. Select elements get an option chosen; anything else is
// treated as a fillable input.
func (e *Executor) setPlayerCount(page browser.Page, form *goquery.Selection) error {
	control := form.Find(`select, [class*='player'], input[type='number']`).First()
	if control.Length() == 0 {
		return nil
	}

	selector := slots.SelectorFor(control)
	value := strconv.Itoa(e.PlayerCount)
	logger.Info("Setting player count", logger.Fields{"players": value, "selector": selector})

	if goquery.NodeName(control) == "select" {
		if err := page.SelectOption(selector, value); err != nil {
			return fmt.Errorf("selecting player count: %w", err)
		}
		return nil
	}
	if err := page.Fill(selector, value); err != nil {
		return fmt.Errorf("filling player count: %w", err)
	}
	return nil
}

// checkConfirmation looks for a confirmation marker on the page after the
// final submit.
func (e *Executor) checkConfirmation(page browser.Page) {
	content, err := page.Content()
	if err != nil {
		logger.Warn("Reading page for confirmation check", logger.Fields{"error": err.Error()})
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return
	}

	marker := doc.Find(`[class*='success'], [class*='confirmation']`).First()
	if marker.Length() > 0 {
		logger.Info("Booking confirmation found", logger.Fields{
			"text": strings.TrimSpace(marker.Text()),
		})
		return
	}
	logger.Warn("No confirmation marker found, booking may still have succeeded", nil)
}

// highlight outlines the element or form that would be acted on, so the
// dry-run screenshot shows the exact target.
func (e *Executor) highlight(page browser.Page, selector string) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (el) {
			el.style.backgroundColor = 'rgba(255, 0, 0, 0.3)';
			el.style.border = '2px solid red';
		}
	})()`, selector)
	if _, err := page.Evaluate(js); err != nil {
		logger.Warn("Highlighting booking target", logger.Fields{"error": err.Error()})
	}
}

func waitSettled(page browser.Page) {
	if err := page.WaitForLoadState(browser.WaitDOMContentLoaded, settleTimeout); err != nil {
		logger.Warn("Page did not settle", logger.Fields{"error": err.Error()})
	}
}
