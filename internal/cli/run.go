package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/reedipher/teatime/internal/artifacts"
	"github.com/reedipher/teatime/internal/auth"
	"github.com/reedipher/teatime/internal/booking"
	"github.com/reedipher/teatime/internal/browser"
	"github.com/reedipher/teatime/internal/calendar"
	"github.com/reedipher/teatime/internal/config"
	"github.com/reedipher/teatime/internal/history"
	"github.com/reedipher/teatime/internal/logger"
	"github.com/reedipher/teatime/internal/navigate"
	"github.com/reedipher/teatime/internal/notifier"
	"github.com/reedipher/teatime/internal/report"
	"github.com/reedipher/teatime/internal/schedule"
	"github.com/reedipher/teatime/internal/slots"
)

// runBooking is the root command: one complete booking run.
func runBooking(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyOverrides(cmd, cfg)

	targetMinutes, ok := slots.ParseTime(cfg.Booking.TargetTime)
	if !ok {
		return fmt.Errorf("invalid target time: %q", cfg.Booking.TargetTime)
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}

	dateISO, err := resolveDate(cfg)
	if err != nil {
		return err
	}

	sink, err := artifacts.NewSink(cfg.System.ArtifactsDir)
	if err != nil {
		return err
	}
	if logPath, err := logger.Default().AttachFile(sink.Dir()); err == nil {
		defer logger.Default().Close()
		logger.Info("Run log attached", logger.Fields{"path": logPath})
	}

	logger.Info("Starting booking run", logger.Fields{
		"date":    dateISO,
		"time":    cfg.Booking.TargetTime,
		"players": cfg.Booking.PlayerCount,
		"dry_run": cfg.Runtime.DryRun,
	})

	session, err := browser.NewSession(browser.Options{Headless: !cfg.Debug.Interactive})
	if err != nil {
		return err
	}
	defer session.Close()
	page := session.Page()

	if err := auth.Login(page, cfg, creds, sink); err != nil {
		return err
	}

	orch := &booking.Orchestrator{
		Nav:           navigate.New(cfg.System.BaseURL, cfg.System.ClubID, sink),
		Exec:          &booking.Executor{PlayerCount: cfg.Booking.PlayerCount, DryRun: cfg.Runtime.DryRun, Sink: sink},
		TargetMinutes: targetMinutes,
		MaxRetries:    cfg.Runtime.MaxRetries,
		DryRun:        cfg.Runtime.DryRun,
		Sink:          sink,
	}
	outcome, bookErr := orch.Book(page, dateISO)

	finishRun(cfg, sink, outcome, bookErr)

	if cfg.Debug.WaitAfterCompletion {
		logger.Info("Waiting before closing browser", logger.Fields{"seconds": cfg.Debug.WaitTime})
		time.Sleep(time.Duration(cfg.Debug.WaitTime) * time.Second)
	}

	result := &BookingResult{Outcome: outcome, RunDir: sink.Dir()}
	if bookErr != nil {
		result.Error = bookErr.Error()
	}
	if path := filepath.Join(sink.Dir(), "report.html"); fileExists(path) {
		result.Report = path
	}
	if err := WriteOutput(os.Stdout, result, outputFormat()); err != nil {
		return err
	}
	return bookErr
}

// applyOverrides layers command-line flags over the loaded settings. Only
// flags the user actually set take effect.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("day") {
		cfg.Booking.TargetDay = flagDay
	}
	if flags.Changed("time") {
		cfg.Booking.TargetTime = flagTime
	}
	if flags.Changed("players") {
		cfg.Booking.PlayerCount = flagPlayers
	}
	if flags.Changed("max-retries") {
		cfg.Runtime.MaxRetries = flagMaxRetries
	}
	if flags.Changed("dry-run") {
		cfg.Runtime.DryRun = flagDryRun
	}
	if flagLive {
		cfg.Runtime.DryRun = false
	}
}

// resolveDate picks the date to book: an explicit --date wins, otherwise the
// next occurrence of the configured weekday, falling back to the furthest
// date in the window.
func resolveDate(cfg *config.Config) (string, error) {
	if flagDate != "" {
		if _, err := time.Parse("2006-01-02", flagDate); err != nil {
			return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", flagDate)
		}
		return flagDate, nil
	}

	weekday, err := cfg.TargetWeekday()
	if err != nil {
		return "", err
	}

	target, inWindow := schedule.TargetDate(weekday, cfg.System.BookingWindowDays, time.Now())
	if !inWindow {
		logger.Warn("Target weekday outside booking window, using furthest date", logger.Fields{
			"target_day": weekday.String(),
			"date":       schedule.ISO(target),
		})
	}
	return schedule.ISO(target), nil
}

// finishRun persists and announces the outcome. Failures here are logged
// but never override the booking result.
func finishRun(cfg *config.Config, sink *artifacts.Sink, outcome booking.Outcome, bookErr error) {
	if err := sink.Flush(); err != nil {
		logger.Warn("Writing step log", logger.Fields{"error": err.Error()})
	}

	run := report.Run{Outcome: outcome, Error: bookErr, Steps: sink.Steps()}
	if path, err := report.Write(run, sink.Dir()); err == nil {
		logger.Info("Run report written", logger.Fields{"path": path})
	} else {
		logger.Warn("Writing run report", logger.Fields{"error": err.Error()})
	}

	if store, err := history.New(flagDataDir); err == nil {
		if err := store.Append(outcome, bookErr); err != nil {
			logger.Warn("Recording run history", logger.Fields{"error": err.Error()})
		}
	} else {
		logger.Warn("Opening run history", logger.Fields{"error": err.Error()})
	}

	if outcome.Booked {
		ics := calendar.GenerateICS(outcome, "")
		path := filepath.Join(sink.Dir(), "teetime.ics")
		if err := os.WriteFile(path, []byte(ics), 0644); err != nil {
			logger.Warn("Writing calendar file", logger.Fields{"error": err.Error()})
		}
	}

	if err := notifier.NotifyAll(notifier.FromEnv(), outcome); err != nil {
		logger.Warn("Sending notifications", logger.Fields{"error": err.Error()})
	}

	logger.Info("Run metrics", logger.GetMetricsSnapshot())
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
