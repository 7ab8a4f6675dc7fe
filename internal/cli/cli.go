package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/reedipher/teatime/internal/artifacts"
	"github.com/reedipher/teatime/internal/booking"
	"github.com/reedipher/teatime/internal/config"
	"github.com/reedipher/teatime/internal/history"
	"github.com/reedipher/teatime/internal/logger"
	"github.com/reedipher/teatime/internal/schedule"
)

// Exit codes
const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNotBooked = 2
)

var (
	flagConfig  string
	flagFormat  string
	flagVerbose bool
	flagDataDir string

	flagDate       string
	flagTime       string
	flagDay        string
	flagPlayers    int
	flagDryRun     bool
	flagLive       bool
	flagMaxRetries int
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, booking.ErrNoSlots) {
			return ExitNotBooked
		}
		return ExitError
	}
	return ExitSuccess
}

// NewRootCmd creates the root command. Running it with no subcommand starts
// a booking run.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teatime",
		Short: "Book a golf tee time automatically",
		Long: `A CLI tool that books a tee time at the club's online booking site.
It signs in, finds the slot closest to the configured target time inside the
booking window, and books it. Runs are dry-run by default; pass --live to
actually book.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBooking,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to settings file (default config/config.json)")
	cmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "~/.local/share/teatime", "Data directory for run history")

	addBookingFlags(cmd)

	cmd.AddCommand(newBookCmd())
	cmd.AddCommand(newDatesCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newCleanupCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newCredsCmd())

	return cmd
}

func addBookingFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagDate, "date", "", "Book a specific date (YYYY-MM-DD) instead of the configured weekday")
	cmd.Flags().StringVar(&flagDay, "day", "", "Target weekday, overriding the settings file")
	cmd.Flags().StringVar(&flagTime, "time", "", "Target time (HH:MM), overriding the settings file")
	cmd.Flags().IntVar(&flagPlayers, "players", 0, "Player count, overriding the settings file")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", true, "Simulate the booking without completing it")
	cmd.Flags().BoolVar(&flagLive, "live", false, "Perform a real booking (overrides --dry-run)")
	cmd.Flags().IntVar(&flagMaxRetries, "max-retries", -1, "Retry budget, overriding the settings file")
}

func newBookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Run a booking (same as the bare root command)",
		RunE:  runBooking,
	}
	addBookingFlags(cmd)
	return cmd
}

func newDatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "Show the bookable dates in the current window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			weekday, err := cfg.TargetWeekday()
			if err != nil {
				return err
			}

			now := time.Now()
			target, inWindow := schedule.TargetDate(weekday, cfg.System.BookingWindowDays, now)
			result := &DatesResult{
				TargetDay:      weekday.String(),
				TargetDate:     schedule.ISO(target),
				TargetInWindow: inWindow,
				Window:         schedule.AvailableDates(cfg.System.BookingWindowDays, now),
			}
			return WriteOutput(os.Stdout, result, outputFormat())
		},
	}
}

func newCleanupCmd() *cobra.Command {
	var (
		maxAge time.Duration
		keep   int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Prune old run artifact directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			removed, err := artifacts.Cleanup(cfg.System.ArtifactsDir, artifacts.CleanupOptions{
				MaxAge: maxAge,
				Keep:   keep,
				DryRun: dryRun,
			})
			if err != nil {
				return err
			}
			return WriteOutput(os.Stdout, &CleanupResult{Removed: removed, DryRun: dryRun}, outputFormat())
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 7*24*time.Hour, "Remove runs older than this")
	cmd.Flags().IntVar(&keep, "keep", 3, "Always keep at least this many recent runs")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be removed without removing it")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var last int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past booking runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.New(flagDataDir)
			if err != nil {
				return err
			}
			records, err := store.Last(last)
			if err != nil {
				return err
			}
			return WriteOutput(os.Stdout, &HistoryResult{Records: records}, outputFormat())
		},
	}

	cmd.Flags().IntVar(&last, "last", 10, "Number of most recent runs to show (0 for all)")
	return cmd
}

func newCredsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Manage stored club credentials",
	}

	var (
		username string
		password string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Store credentials, encrypted when TEATIME_PASSPHRASE is set",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}
			path, err := config.SaveCredentials(config.Credentials{
				Username: username,
				Password: password,
			})
			if err != nil {
				return err
			}
			if os.Getenv(config.EnvPassphrase) == "" {
				logger.Warn("Credentials stored without encryption", logger.Fields{
					"hint": "set " + config.EnvPassphrase + " to encrypt them",
				})
			}
			fmt.Printf("Credentials saved to %s\n", path)
			return nil
		},
	}
	set.Flags().StringVar(&username, "username", "", "Club username")
	set.Flags().StringVar(&password, "password", "", "Club password")

	check := &cobra.Command{
		Use:   "check",
		Short: "Verify that credentials can be resolved",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := config.LoadCredentials()
			if err != nil {
				return err
			}
			fmt.Printf("Credentials resolved for %s\n", creds.Username)
			return nil
		},
	}

	cmd.AddCommand(set, check)
	return cmd
}

func loadConfig() (*config.Config, error) {
	if flagVerbose {
		logger.SetDefault(logger.New(logger.LevelDebug, os.Stdout))
	}
	return config.Load(flagConfig)
}

func outputFormat() OutputFormat {
	return OutputFormat(strings.ToLower(flagFormat))
}
