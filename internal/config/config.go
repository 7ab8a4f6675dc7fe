// Package config loads layered configuration for a booking run.
//
// Secrets (the club login) come from environment variables or an encrypted
// credentials file; behavioral settings come from a JSON settings file.
// Missing settings fall back to documented defaults, so the tool runs with
// no configuration at all (in dry-run mode, against the default club).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reedipher/teatime/internal/crypto"
	"github.com/reedipher/teatime/internal/logger"
)

// Environment variables for credentials and the optional passphrase that
// unlocks the stored credentials file.
const (
	EnvUsername   = "CLUB_CADDIE_USERNAME"
	EnvPassword   = "CLUB_CADDIE_PASSWORD"
	EnvPassphrase = "TEATIME_PASSPHRASE"
)

// ErrMissingCredentials indicates no usable username/password could be found.
// This is fatal: the run aborts before any browser action.
var ErrMissingCredentials = errors.New("missing credentials: set " + EnvUsername + " and " + EnvPassword)

// Config holds all behavioral settings for a run
type Config struct {
	Booking BookingConfig `json:"booking"`
	Runtime RuntimeConfig `json:"runtime"`
	Debug   DebugConfig   `json:"debug"`
	System  SystemConfig  `json:"system"`
}

// BookingConfig describes what to book
type BookingConfig struct {
	TargetDay   string `json:"target_day"`
	TargetTime  string `json:"target_time"`
	PlayerCount int    `json:"player_count"`
}

// RuntimeConfig controls how the run executes
type RuntimeConfig struct {
	DryRun     bool `json:"dry_run"`
	MaxRetries int  `json:"max_retries"`
}

// DebugConfig controls interactive pauses and the post-run inspection wait
type DebugConfig struct {
	Interactive         bool `json:"interactive"`
	WaitAfterCompletion bool `json:"wait_after_completion"`
	WaitTime            int  `json:"wait_time"`
}

// SystemConfig describes the target site and booking window
type SystemConfig struct {
	BookingWindowDays int    `json:"booking_window_days"`
	BaseURL           string `json:"base_url"`
	ClubID            string `json:"club_id"`
	LoginClubID       string `json:"login_club_id"`
	ArtifactsDir      string `json:"artifacts_dir"`
}

// Credentials holds the club login pair
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Default returns the documented default configuration.
func Default() *Config {
	return &Config{
		Booking: BookingConfig{
			TargetDay:   "Sunday",
			TargetTime:  "14:00",
			PlayerCount: 4,
		},
		Runtime: RuntimeConfig{
			DryRun:     true,
			MaxRetries: 2,
		},
		Debug: DebugConfig{
			Interactive:         false,
			WaitAfterCompletion: false,
			WaitTime:            30,
		},
		System: SystemConfig{
			BookingWindowDays: 7,
			BaseURL:           "https://customer-cc36.clubcaddie.com",
			ClubID:            "cbfdabab",
			LoginClubID:       "103412",
			ArtifactsDir:      "artifacts",
		},
	}
}

// Load reads the settings file at path and overlays it on the defaults.
// An empty path means "config/config.json"; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join("config", "config.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Settings file not found, using defaults", logger.Fields{"path": path})
			return cfg, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}

	logger.Info("Configuration loaded", logger.Fields{"path": path})
	return cfg, nil
}

// TargetWeekday resolves the configured target day name to a time.Weekday.
func (c *Config) TargetWeekday() (time.Weekday, error) {
	return ParseWeekday(c.Booking.TargetDay)
}

// ParseWeekday converts a weekday name ("Sunday", "sun") to a time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	days := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}

	key := strings.ToLower(strings.TrimSpace(name))
	if d, ok := days[key]; ok {
		return d, nil
	}
	// Accept three-letter abbreviations
	if len(key) >= 3 {
		for full, d := range days {
			if strings.HasPrefix(full, key[:3]) && strings.HasPrefix(key, full[:3]) {
				return d, nil
			}
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday: %q", name)
}

// credentialsPath returns the location of the stored credentials file.
func credentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "teatime", "credentials.json"), nil
}

// LoadCredentials resolves the club login. Environment variables win; if they
// are absent the stored credentials file is tried, decrypted with the
// passphrase from TEATIME_PASSPHRASE when one is set. A completely missing
// login yields ErrMissingCredentials.
func LoadCredentials() (Credentials, error) {
	creds := Credentials{
		Username: os.Getenv(EnvUsername),
		Password: os.Getenv(EnvPassword),
	}
	if creds.Username != "" && creds.Password != "" {
		return creds, nil
	}

	path, err := credentialsPath()
	if err != nil {
		return Credentials{}, ErrMissingCredentials
	}

	stored, err := readCredentialsFile(path)
	if err != nil {
		return Credentials{}, ErrMissingCredentials
	}

	if stored.Username == "" || stored.Password == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return stored, nil
}

// SaveCredentials writes the login to the stored credentials file, encrypting
// both values when a passphrase is set in the environment.
func SaveCredentials(creds Credentials) (string, error) {
	path, err := credentialsPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	enc := crypto.NewEncryptor(os.Getenv(EnvPassphrase))
	sealed, err := enc.EncryptMap(map[string]string{
		"username": creds.Username,
		"password": creds.Password,
	})
	if err != nil {
		return "", fmt.Errorf("encrypting credentials: %w", err)
	}

	data, err := json.MarshalIndent(sealed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("writing credentials: %w", err)
	}
	return path, nil
}

func readCredentialsFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, err
	}

	var sealed map[string]string
	if err := json.Unmarshal(data, &sealed); err != nil {
		return Credentials{}, fmt.Errorf("parsing credentials: %w", err)
	}

	enc := crypto.NewEncryptor(os.Getenv(EnvPassphrase))
	opened, err := enc.DecryptMap(sealed)
	if err != nil {
		return Credentials{}, fmt.Errorf("decrypting credentials: %w", err)
	}

	return Credentials{
		Username: opened["username"],
		Password: opened["password"],
	}, nil
}
