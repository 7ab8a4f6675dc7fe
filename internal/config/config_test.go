package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Booking.TargetDay != "Sunday" {
		t.Errorf("TargetDay = %q, want Sunday", cfg.Booking.TargetDay)
	}
	if cfg.Booking.TargetTime != "14:00" {
		t.Errorf("TargetTime = %q, want 14:00", cfg.Booking.TargetTime)
	}
	if cfg.Booking.PlayerCount != 4 {
		t.Errorf("PlayerCount = %d, want 4", cfg.Booking.PlayerCount)
	}
	if !cfg.Runtime.DryRun {
		t.Error("DryRun should default to true")
	}
	if cfg.Runtime.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.Runtime.MaxRetries)
	}
	if cfg.System.BookingWindowDays != 7 {
		t.Errorf("BookingWindowDays = %d, want 7", cfg.System.BookingWindowDays)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Booking.TargetDay != "Sunday" {
		t.Errorf("TargetDay = %q, want default Sunday", cfg.Booking.TargetDay)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	contents := `{
  "booking": {"target_day": "Wednesday", "target_time": "07:30", "player_count": 2},
  "runtime": {"dry_run": false, "max_retries": 5}
}`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Booking.TargetDay != "Wednesday" {
		t.Errorf("TargetDay = %q, want Wednesday", cfg.Booking.TargetDay)
	}
	if cfg.Runtime.DryRun {
		t.Error("DryRun should be false when explicitly disabled")
	}
	if cfg.Runtime.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.Runtime.MaxRetries)
	}
	// Sections absent from the file keep their defaults
	if cfg.System.BookingWindowDays != 7 {
		t.Errorf("BookingWindowDays = %d, want default 7", cfg.System.BookingWindowDays)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed JSON")
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Weekday
		wantErr bool
	}{
		{name: "full name", input: "Sunday", want: time.Sunday},
		{name: "lowercase", input: "wednesday", want: time.Wednesday},
		{name: "abbreviation", input: "Sat", want: time.Saturday},
		{name: "padded", input: "  Monday ", want: time.Monday},
		{name: "invalid", input: "Funday", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeekday(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeekday(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseWeekday(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadCredentials_FromEnv(t *testing.T) {
	t.Setenv(EnvUsername, "member1234")
	t.Setenv(EnvPassword, "secret")

	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials() error = %v", err)
	}
	if creds.Username != "member1234" || creds.Password != "secret" {
		t.Errorf("LoadCredentials() = %+v", creds)
	}
}

func TestLoadCredentials_Missing(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")
	t.Setenv("HOME", t.TempDir())

	if _, err := LoadCredentials(); err == nil {
		t.Error("LoadCredentials() should fail with no env and no stored file")
	}
}

func TestSaveAndLoadCredentials_Encrypted(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")
	t.Setenv(EnvPassphrase, "hunter2")

	path, err := SaveCredentials(Credentials{Username: "member1234", Password: "secret"})
	if err != nil {
		t.Fatalf("SaveCredentials() error = %v", err)
	}

	// The file on disk must not contain the raw password
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) == 0 {
		t.Fatal("credentials file is empty")
	}
	if strings.Contains(string(raw), "\"secret\"") {
		t.Error("stored credentials contain plaintext password")
	}

	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials() error = %v", err)
	}
	if creds.Username != "member1234" || creds.Password != "secret" {
		t.Errorf("LoadCredentials() = %+v", creds)
	}
}
