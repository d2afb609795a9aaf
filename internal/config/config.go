// Package config loads the assistant's configuration from environment
// variables. A .env file is loaded by main before this runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	// Organizer timezone; every scheduling decision happens in this zone.
	Timezone *time.Location

	// Business hours in the organizer timezone.
	WorkStartHour int
	WorkEndHour   int
	WorkDays      []time.Weekday

	// How many allowed working-day windows the alternative search may scan.
	HorizonWindows int

	// How far ahead calendar busy state is read, in days.
	BusyWindowDays int

	// Inbox batch size per run.
	MaxUnread int64

	// Fallback meeting length when the extractor supplies none.
	DefaultMeetingDuration time.Duration

	// OpenAI classifier.
	OpenAIKey   string
	OpenAIModel string

	// Google OAuth client used for both Gmail and Calendar.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleAccount      string
	GoogleCalendarID   string

	// Optional secondary CalDAV busy source (iCloud).
	ICloudUsername     string
	ICloudPassword     string
	ICloudCalendarName string
}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// Load reads configuration from the environment, applying the defaults the
// assistant shipped with (9-17 weekdays, 30 minute meetings, 20 unread).
func Load() (*Config, error) {
	cfg := &Config{
		OpenAIModel:      envOr("OPENAI_MODEL", "gpt-4o-mini"),
		GoogleAccount:    envOr("GOOGLE_ACCOUNT", "default"),
		GoogleCalendarID: envOr("GOOGLE_CALENDAR_ID", "primary"),

		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		ICloudUsername:     os.Getenv("ICLOUD_USERNAME"),
		ICloudPassword:     os.Getenv("ICLOUD_APP_SPECIFIC_PASSWORD"),
		ICloudCalendarName: os.Getenv("ICLOUD_CALENDAR_NAME"),
	}

	loc, err := time.LoadLocation(envOr("PRIMARY_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRIMARY_TIMEZONE: %w", err)
	}
	cfg.Timezone = loc

	if cfg.WorkStartHour, err = envInt("WORK_START_HOUR", 9); err != nil {
		return nil, err
	}
	if cfg.WorkEndHour, err = envInt("WORK_END_HOUR", 17); err != nil {
		return nil, err
	}
	if cfg.WorkStartHour >= cfg.WorkEndHour {
		return nil, fmt.Errorf("WORK_START_HOUR (%d) must be before WORK_END_HOUR (%d)", cfg.WorkStartHour, cfg.WorkEndHour)
	}

	if cfg.WorkDays, err = parseWorkDays(envOr("WORK_DAYS", "Mon,Tue,Wed,Thu,Fri")); err != nil {
		return nil, err
	}

	if cfg.HorizonWindows, err = envInt("SEARCH_HORIZON_WINDOWS", 14); err != nil {
		return nil, err
	}
	if cfg.BusyWindowDays, err = envInt("BUSY_WINDOW_DAYS", 21); err != nil {
		return nil, err
	}

	maxUnread, err := envInt("MAX_UNREAD", 20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUnread = int64(maxUnread)

	minutes, err := envInt("DEFAULT_MEETING_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	if minutes <= 0 {
		return nil, fmt.Errorf("DEFAULT_MEETING_MINUTES must be positive, got %d", minutes)
	}
	cfg.DefaultMeetingDuration = time.Duration(minutes) * time.Minute

	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	return cfg, nil
}

// HasCalDAV reports whether a secondary CalDAV busy source is configured.
func (c *Config) HasCalDAV() bool {
	return c.ICloudUsername != "" && c.ICloudPassword != "" && c.ICloudCalendarName != ""
}

func parseWorkDays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if len(name) > 3 {
			name = name[:3]
		}
		day, ok := dayNames[name]
		if !ok {
			return nil, fmt.Errorf("invalid weekday %q in WORK_DAYS", part)
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("WORK_DAYS must name at least one weekday")
	}
	return days, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
