package responder

import (
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"

	"mailpilot/internal/config"
	"mailpilot/internal/models"
	"mailpilot/internal/schedule"
)

func testResponder(t *testing.T) *Responder {
	t.Helper()
	days := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	hours, err := schedule.NewBusinessHours(9, 17, days, time.UTC)
	be.Err(t, err, nil)

	return &Responder{
		cfg: &config.Config{
			Timezone:               time.UTC,
			WorkDays:               days,
			WorkStartHour:          9,
			WorkEndHour:            17,
			DefaultMeetingDuration: 30 * time.Minute,
		},
		hours: hours,
	}
}

func TestScheduleRequestParsesDateAndTime(t *testing.T) {
	r := testResponder(t)
	now := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC) // Monday

	req, err := r.scheduleRequest(&models.MeetingRequest{
		Purpose:         "Q3 planning",
		PreferredDate:   "2025-01-08",
		PreferredTime:   "10:30",
		DurationMinutes: 60,
		Attendees:       []string{"cfo@example.com"},
	}, now, &models.Email{From: "Ada Lovelace <ada@example.com>", Subject: "Planning"})
	be.Err(t, err, nil)

	be.Equal(t, req.Start, time.Date(2025, 1, 8, 10, 30, 0, 0, time.UTC))
	be.Equal(t, req.Duration, time.Hour)
	be.Equal(t, req.Purpose, "Q3 planning")
	be.Equal(t, req.Attendees, []string{"ada@example.com", "cfo@example.com"})
}

func TestScheduleRequestDefaultsToNextBusinessDayAfternoon(t *testing.T) {
	r := testResponder(t)
	// Friday: the next business day is Monday the 13th.
	now := time.Date(2025, 1, 10, 11, 0, 0, 0, time.UTC)

	req, err := r.scheduleRequest(&models.MeetingRequest{}, now, &models.Email{
		From:    "ada@example.com",
		Subject: "Catch up",
	})
	be.Err(t, err, nil)

	be.Equal(t, req.Start, time.Date(2025, 1, 13, 14, 0, 0, 0, time.UTC))
	be.Equal(t, req.Duration, 30*time.Minute)
	be.Equal(t, req.Purpose, "Meeting: Catch up")
}

func TestScheduleRequestDateOnlyAnchorsAtAfternoon(t *testing.T) {
	r := testResponder(t)
	now := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

	req, err := r.scheduleRequest(&models.MeetingRequest{PreferredDate: "2025-01-09"}, now, &models.Email{From: "a@b.c"})
	be.Err(t, err, nil)
	be.Equal(t, req.Start, time.Date(2025, 1, 9, 14, 0, 0, 0, time.UTC))
}

func TestScheduleRequestAcceptsTwelveHourTimes(t *testing.T) {
	r := testResponder(t)
	now := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

	req, err := r.scheduleRequest(&models.MeetingRequest{
		PreferredDate: "2025-01-07",
		PreferredTime: "2:30 PM",
	}, now, &models.Email{From: "a@b.c"})
	be.Err(t, err, nil)
	be.Equal(t, req.Start, time.Date(2025, 1, 7, 14, 30, 0, 0, time.UTC))
}

func TestScheduleRequestRejectsGarbageDates(t *testing.T) {
	r := testResponder(t)
	now := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

	_, err := r.scheduleRequest(&models.MeetingRequest{PreferredDate: "sometime soon"}, now, &models.Email{From: "a@b.c"})
	be.True(t, err != nil)

	_, err = r.scheduleRequest(&models.MeetingRequest{PreferredDate: "2025-01-07", PreferredTime: "half past nine"}, now, &models.Email{From: "a@b.c"})
	be.True(t, err != nil)
}

func TestNextBusinessDaySkipsWeekend(t *testing.T) {
	r := testResponder(t)

	friday := time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)
	be.Equal(t, r.nextBusinessDay(friday).Weekday(), time.Monday)

	monday := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	next := r.nextBusinessDay(monday)
	be.Equal(t, next.Weekday(), time.Tuesday)
}

func TestComposeReply(t *testing.T) {
	be.Equal(t, composeReply("Thanks for reaching out.", ""), "Thanks for reaching out.")
	be.Equal(t, composeReply("", "Meeting scheduled."), "Meeting scheduled.")
	be.Equal(t,
		composeReply("Thanks for reaching out.", "Meeting scheduled."),
		"Thanks for reaching out.\n\nMeeting scheduled.")
}

func TestConfirmationNote(t *testing.T) {
	slot := schedule.Interval{
		Start: time.Date(2025, 1, 7, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 7, 14, 30, 0, 0, time.UTC),
	}
	note := confirmationNote(slot)
	be.True(t, strings.Contains(note, "January 7, 2025 at 2:00 PM"))
	be.True(t, strings.Contains(note, "scheduled"))
}

func TestConflictNoteListsAlternatives(t *testing.T) {
	outcome := schedule.Outcome{
		Reason: schedule.ReasonCalendarConflict,
		Alternatives: []schedule.Interval{
			{Start: time.Date(2025, 1, 7, 11, 0, 0, 0, time.UTC), End: time.Date(2025, 1, 7, 11, 30, 0, 0, time.UTC)},
			{Start: time.Date(2025, 1, 7, 11, 30, 0, 0, time.UTC), End: time.Date(2025, 1, 7, 12, 0, 0, 0, time.UTC)},
		},
	}

	note := conflictNote(outcome)
	be.True(t, strings.Contains(note, "not available"))
	be.True(t, strings.Contains(note, "January 7, 2025 at 11:00 AM"))
	be.True(t, strings.Contains(note, "January 7, 2025 at 11:30 AM"))
	be.True(t, !strings.Contains(strings.ToLower(note), "scheduled"))
}

func TestConflictNoteWithoutAlternatives(t *testing.T) {
	note := conflictNote(schedule.Outcome{Reason: schedule.ReasonOutsideBusinessHours})
	be.True(t, strings.Contains(note, "working hours"))
	be.True(t, strings.Contains(note, "could not find"))
}

func TestSenderAddress(t *testing.T) {
	be.Equal(t, senderAddress("Ada Lovelace <ada@example.com>"), "ada@example.com")
	be.Equal(t, senderAddress("ada@example.com"), "ada@example.com")
	be.Equal(t, senderAddress(" not-an-address "), "not-an-address")
}
