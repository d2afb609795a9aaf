package config

import (
	"testing"
	"time"

	"github.com/nalgeon/be"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	for _, key := range []string{"PRIMARY_TIMEZONE", "WORK_START_HOUR", "WORK_END_HOUR", "WORK_DAYS", "ICLOUD_USERNAME", "ICLOUD_APP_SPECIFIC_PASSWORD", "ICLOUD_CALENDAR_NAME"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	be.Err(t, err, nil)

	be.Equal(t, cfg.Timezone, time.UTC)
	be.Equal(t, cfg.WorkStartHour, 9)
	be.Equal(t, cfg.WorkEndHour, 17)
	be.Equal(t, cfg.WorkDays, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday})
	be.Equal(t, cfg.HorizonWindows, 14)
	be.Equal(t, cfg.MaxUnread, int64(20))
	be.Equal(t, cfg.DefaultMeetingDuration, 30*time.Minute)
	be.Equal(t, cfg.OpenAIModel, "gpt-4o-mini")
	be.Equal(t, cfg.GoogleCalendarID, "primary")
	be.True(t, !cfg.HasCalDAV())
}

func TestLoadRequiresOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected load to fail without OPENAI_API_KEY")
	}
}

func TestLoadRejectsInvertedWorkHours(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WORK_START_HOUR", "18")
	t.Setenv("WORK_END_HOUR", "9")

	if _, err := Load(); err == nil {
		t.Fatal("expected load to fail with start after end")
	}
}

func TestLoadParsesWorkDays(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WORK_DAYS", "Monday, wed ,FRI")

	cfg, err := Load()
	be.Err(t, err, nil)
	be.Equal(t, cfg.WorkDays, []time.Weekday{time.Monday, time.Wednesday, time.Friday})

	t.Setenv("WORK_DAYS", "Mon,Funday")
	if _, err := Load(); err == nil {
		t.Fatal("expected load to fail on unknown weekday")
	}
}

func TestLoadCalDAVNeedsAllThreeSettings(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ICLOUD_USERNAME", "user@icloud.com")
	t.Setenv("ICLOUD_APP_SPECIFIC_PASSWORD", "abcd-efgh")

	cfg, err := Load()
	be.Err(t, err, nil)
	be.True(t, !cfg.HasCalDAV())

	t.Setenv("ICLOUD_CALENDAR_NAME", "Work")
	cfg, err = Load()
	be.Err(t, err, nil)
	be.True(t, cfg.HasCalDAV())
}
