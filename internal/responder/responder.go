// Package responder drives the per-run pipeline: fetch unread mail, classify
// each message, resolve meeting requests against calendar availability, and
// draft replies. Messages are processed strictly in order; a meeting booked
// for an earlier message is visible to every later one in the same run.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"mailpilot/internal/analyzer"
	"mailpilot/internal/config"
	"mailpilot/internal/gmail"
	"mailpilot/internal/google"
	"mailpilot/internal/icloud"
	"mailpilot/internal/models"
	"mailpilot/internal/schedule"
)

// Hour used when a meeting request names no specific time.
const defaultAnchorHour = 14

// Responder orchestrates one processing run over the unread inbox.
type Responder struct {
	logger   *slog.Logger
	cfg      *config.Config
	gmail    *gmail.Client
	calendar *google.CalendarClient
	caldav   *icloud.CalDAVClient // optional, may be nil
	analyzer *analyzer.Analyzer
	hours    schedule.BusinessHours
	resolver *schedule.Resolver
	state    State
	dryRun   bool
}

// New creates a Responder. caldavClient may be nil when no secondary busy
// source is configured.
func New(logger *slog.Logger, cfg *config.Config, gmailClient *gmail.Client, calClient *google.CalendarClient, caldavClient *icloud.CalDAVClient, an *analyzer.Analyzer, dryRun bool) (*Responder, error) {
	hours, err := schedule.NewBusinessHours(cfg.WorkStartHour, cfg.WorkEndHour, cfg.WorkDays, cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid business hours: %w", err)
	}

	resolver := schedule.NewResolver(hours)
	resolver.HorizonWindows = cfg.HorizonWindows

	state, err := loadState()
	if err != nil {
		// If the file doesn't exist, we can start with an empty state.
		if os.IsNotExist(err) {
			logger.Info("No responder state file found, starting fresh.", "file", stateFile)
			state = make(State)
		} else {
			return nil, fmt.Errorf("failed to load responder state: %w", err)
		}
	}

	return &Responder{
		logger:   logger,
		cfg:      cfg,
		gmail:    gmailClient,
		calendar: calClient,
		caldav:   caldavClient,
		analyzer: an,
		hours:    hours,
		resolver: resolver,
		state:    state,
		dryRun:   dryRun,
	}, nil
}

// Run processes the unread inbox once.
func (r *Responder) Run(ctx context.Context) error {
	logger := r.logger.With("runID", uuid.NewString())
	logger.Info("Starting run.")

	emails, err := r.gmail.UnreadMessages(ctx, r.cfg.MaxUnread)
	if err != nil {
		return fmt.Errorf("failed to fetch unread messages: %w", err)
	}
	if len(emails) == 0 {
		logger.Info("No unread messages.")
		return nil
	}

	busy, err := r.buildBusyIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to build busy index: %w", err)
	}
	logger.Info("Built busy index from calendar state.", "busyIntervals", busy.Len())

	drafts, meetings := 0, 0
	for _, email := range emails {
		if _, done := r.state[email.ID]; done {
			logger.Debug("Message already handled, skipping.", "messageID", email.ID)
			continue
		}

		created, booked, err := r.processEmail(ctx, logger, email, busy)
		if err != nil {
			logger.Error("Failed to process message", "messageID", email.ID, "subject", email.Subject, "error", err)
			// Continue with the next message even if one fails.
			continue
		}
		if created {
			drafts++
		}
		if booked {
			meetings++
		}
	}

	if !r.dryRun {
		if err := r.state.save(); err != nil {
			logger.Error("Failed to save responder state", "error", err)
		}
	}

	logger.Info("Run finished.", "draftsCreated", drafts, "meetingsCreated", meetings)
	return nil
}

// processEmail classifies one message and acts on the verdict. It reports
// whether a draft was created and whether a meeting was booked.
func (r *Responder) processEmail(ctx context.Context, logger *slog.Logger, email *models.Email, busy *schedule.BusyIndex) (bool, bool, error) {
	logger.Info("Analyzing message", "subject", email.Subject, "from", email.From)

	analysis, err := r.analyzer.Analyze(ctx, email)
	if err != nil {
		return false, false, err
	}

	if !analysis.NeedsResponse {
		logger.Info("No response needed.", "type", analysis.EmailType, "reasoning", analysis.Reasoning)
		r.state[email.ID] = dispositionSkipped
		return false, false, nil
	}

	logger.Info("Response needed.", "priority", analysis.Priority, "type", analysis.EmailType)

	var meetingNote string
	booked := false
	if analysis.MeetingRequest != nil {
		meetingNote, booked, err = r.handleMeeting(ctx, logger, email, analysis.MeetingRequest, busy)
		if err != nil {
			return false, false, err
		}
	}

	body := composeReply(analysis.SuggestedResponse, meetingNote)
	if r.dryRun {
		logger.Info("[DRY RUN] Would create draft reply", "to", email.From, "subject", email.Subject)
		return false, booked, nil
	}

	draftID, err := r.gmail.CreateDraftReply(ctx, email, body)
	if err != nil {
		return false, booked, fmt.Errorf("failed to create draft reply: %w", err)
	}
	r.state[email.ID] = draftID
	return true, booked, nil
}

// handleMeeting resolves the extracted meeting request against current
// availability. On a confirmed slot it creates the calendar event and
// inserts the slot into the busy index, so later messages in this run see
// the booking. It returns the note to append to the draft reply.
func (r *Responder) handleMeeting(ctx context.Context, logger *slog.Logger, email *models.Email, meeting *models.MeetingRequest, busy *schedule.BusyIndex) (string, bool, error) {
	req, err := r.scheduleRequest(meeting, time.Now().In(r.cfg.Timezone), email)
	if err != nil {
		return "", false, fmt.Errorf("invalid meeting request: %w", err)
	}

	outcome, err := r.resolver.Resolve(req, busy)
	if err != nil {
		return "", false, fmt.Errorf("could not resolve meeting slot: %w", err)
	}

	if !outcome.Confirmed {
		logger.Info("Requested slot unavailable.", "reason", outcome.Reason, "alternatives", len(outcome.Alternatives))
		return conflictNote(outcome), false, nil
	}

	event := &models.Event{
		Title:       req.Purpose,
		Description: fmt.Sprintf("Scheduled automatically in reply to %q.", email.Subject),
		StartTime:   outcome.Slot.Start,
		EndTime:     outcome.Slot.End,
		Attendees:   req.Attendees,
	}

	if r.dryRun {
		logger.Info("[DRY RUN] Would create calendar event", "title", event.Title, "start", event.StartTime)
	} else {
		if _, err := r.calendar.CreateEvent(ctx, r.cfg.GoogleCalendarID, event); err != nil {
			return "", false, err
		}
	}

	// Booked time immediately becomes busy for the rest of this run.
	busy.Insert(outcome.Slot)

	return confirmationNote(outcome.Slot), true, nil
}

// buildBusyIndex reads live calendar state for the upcoming window and folds
// it into a fresh busy index. The index lives for this run only.
func (r *Responder) buildBusyIndex(ctx context.Context) (*schedule.BusyIndex, error) {
	now := time.Now().In(r.cfg.Timezone)
	window, err := schedule.NewInterval(now, now.AddDate(0, 0, r.cfg.BusyWindowDays))
	if err != nil {
		return nil, err
	}

	intervals, err := r.calendar.BusyIntervals(ctx, r.cfg.GoogleCalendarID, window)
	if err != nil {
		return nil, err
	}

	if r.caldav != nil {
		caldavBusy, err := r.caldav.BusyIntervals(ctx, window, r.cfg.Timezone)
		if err != nil {
			// A missing secondary source should not block the run.
			r.logger.Error("Could not read CalDAV busy source, continuing without it", "error", err)
		} else {
			intervals = append(intervals, caldavBusy...)
		}
	}

	return schedule.NewBusyIndex(intervals), nil
}

// scheduleRequest turns the extractor's loose strings into a validated
// request in the organizer timezone. A request without a stated date falls
// back to the next business day; one without a stated time starts at 14:00.
func (r *Responder) scheduleRequest(meeting *models.MeetingRequest, now time.Time, email *models.Email) (schedule.Request, error) {
	duration := time.Duration(meeting.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = r.cfg.DefaultMeetingDuration
	}

	start, err := r.requestedStart(meeting, now)
	if err != nil {
		return schedule.Request{}, err
	}

	purpose := strings.TrimSpace(meeting.Purpose)
	if purpose == "" {
		purpose = "Meeting: " + email.Subject
	}

	attendees := []string{}
	if sender := senderAddress(email.From); sender != "" {
		attendees = append(attendees, sender)
	}
	attendees = append(attendees, meeting.Attendees...)

	return schedule.Request{
		Purpose:   purpose,
		Start:     start,
		Duration:  duration,
		Attendees: attendees,
	}, nil
}

// requestedStart resolves the preferred date/time strings to an instant.
func (r *Responder) requestedStart(meeting *models.MeetingRequest, now time.Time) (time.Time, error) {
	loc := r.cfg.Timezone

	day := r.nextBusinessDay(now)
	if meeting.PreferredDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", meeting.PreferredDate, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable preferred date %q: %w", meeting.PreferredDate, err)
		}
		day = parsed
	}

	hour, minute := defaultAnchorHour, 0
	if meeting.PreferredTime != "" {
		parsed, err := time.Parse("15:04", meeting.PreferredTime)
		if err != nil {
			parsed, err = time.Parse("3:04 PM", meeting.PreferredTime)
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable preferred time %q: %w", meeting.PreferredTime, err)
		}
		hour, minute = parsed.Hour(), parsed.Minute()
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

// nextBusinessDay returns the first allowed weekday strictly after now.
func (r *Responder) nextBusinessDay(now time.Time) time.Time {
	y, m, d := now.In(r.cfg.Timezone).Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, r.cfg.Timezone)
	return r.hours.NextAllowedStart(midnight)
}

// composeReply appends the scheduling note, if any, to the suggested reply.
func composeReply(suggested, meetingNote string) string {
	body := strings.TrimSpace(suggested)
	if meetingNote == "" {
		return body
	}
	if body == "" {
		return meetingNote
	}
	return body + "\n\n" + meetingNote
}

const slotFormat = "January 2, 2006 at 3:04 PM"

// confirmationNote phrases a confirmed booking.
func confirmationNote(slot schedule.Interval) string {
	return fmt.Sprintf("Meeting scheduled for %s. Calendar invite sent!", slot.Start.Format(slotFormat))
}

// conflictNote phrases a conflict outcome. It never claims a booking: it
// either lists the concrete alternatives or says none were found.
func conflictNote(outcome schedule.Outcome) string {
	lead := "The requested time is not available."
	if outcome.Reason == schedule.ReasonOutsideBusinessHours {
		lead = "The requested time falls outside my working hours."
	}
	if len(outcome.Alternatives) == 0 {
		return lead + " Unfortunately I could not find a suitable alternative soon; could you suggest another time?"
	}

	var b strings.Builder
	b.WriteString(lead)
	b.WriteString(" Here are some alternatives:\n")
	for _, alt := range outcome.Alternatives {
		fmt.Fprintf(&b, "* %s\n", alt.Start.Format(slotFormat))
	}
	return strings.TrimRight(b.String(), "\n")
}

// senderAddress extracts the bare email address from a From header.
func senderAddress(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.TrimSpace(from)
	}
	return addr.Address
}
