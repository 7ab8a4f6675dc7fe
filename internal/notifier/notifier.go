// Package notifier announces finished booking runs to outside channels.
package notifier

import (
	"fmt"
	"os"

	"github.com/reedipher/teatime/internal/booking"
	"github.com/reedipher/teatime/internal/logger"
)

// Notifier posts the outcome of a booking run to one channel
type Notifier interface {
	Notify(outcome booking.Outcome) error
}

// FromEnv builds every notifier whose credentials are present in the
// environment. With none configured, the log notifier alone is returned so a
// run always reports somewhere.
func FromEnv() []Notifier {
	var notifiers []Notifier

	if tw, err := NewTwitterNotifier(); err == nil {
		notifiers = append(notifiers, tw)
	} else {
		logger.Debug("Twitter notifier not configured", logger.Fields{"reason": err.Error()})
	}

	if tg, err := NewTelegramNotifier(); err == nil {
		notifiers = append(notifiers, tg)
	} else {
		logger.Debug("Telegram notifier not configured", logger.Fields{"reason": err.Error()})
	}

	if len(notifiers) == 0 {
		notifiers = append(notifiers, &LogNotifier{})
	}
	return notifiers
}

// NotifyAll sends the outcome to every notifier, returning the first error
// after trying them all.
func NotifyAll(notifiers []Notifier, outcome booking.Outcome) error {
	var firstErr error
	for _, n := range notifiers {
		if err := n.Notify(outcome); err != nil {
			logger.Error("Notification failed", logger.Fields{"notifier": fmt.Sprintf("%T", n)}, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Summarize renders the outcome as a short human-readable message.
func Summarize(outcome booking.Outcome) string {
	switch {
	case outcome.Booked && outcome.DryRun:
		msg := fmt.Sprintf("Dry run: would have booked %s on %s (attempt %d)",
			outcome.SlotTime, outcome.Date, outcome.Attempts)
		if outcome.Simulated {
			msg += " [simulated slot]"
		}
		return msg
	case outcome.Booked:
		return fmt.Sprintf("Booked tee time %s on %s (attempt %d)",
			outcome.SlotTime, outcome.Date, outcome.Attempts)
	default:
		return fmt.Sprintf("No tee time booked for %s after %d attempts",
			outcome.Date, outcome.Attempts)
	}
}

// LogNotifier reports outcomes through the run log only
type LogNotifier struct{}

// Notify logs the outcome summary.
func (n *LogNotifier) Notify(outcome booking.Outcome) error {
	logger.Info(Summarize(outcome), logger.Fields{
		"booked":  outcome.Booked,
		"dry_run": outcome.DryRun,
	})
	return nil
}

func envOrError(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s not set", key)
	}
	return v, nil
}
