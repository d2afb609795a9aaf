package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"mailpilot/internal/models"
	"mailpilot/internal/schedule"
)

// CalendarClient provides a client for interacting with the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
	loc     *time.Location
}

// NewCalendarClient creates a Google Calendar client on an already
// authenticated HTTP client (see OAuthClient).
func NewCalendarClient(ctx context.Context, logger *slog.Logger, httpClient *http.Client, loc *time.Location) (*CalendarClient, error) {
	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &CalendarClient{service: service, logger: logger, loc: loc}, nil
}

// BusyIntervals reads the organizer's committed time in the given window and
// returns it as busy intervals in the organizer timezone. All-day entries,
// which carry no specific time, are skipped like in the sync path.
func (c *CalendarClient) BusyIntervals(ctx context.Context, calendarID string, window schedule.Interval) ([]schedule.Interval, error) {
	c.logger.Debug("Fetching busy intervals", "calendarID", calendarID, "from", window.Start, "to", window.End)

	events, err := c.service.Events.List(calendarID).
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(window.Start.Format(time.RFC3339)).
		TimeMax(window.End.Format(time.RFC3339)).
		OrderBy("startTime").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	var busy []schedule.Interval
	for _, item := range events.Items {
		if item.Start == nil || item.Start.DateTime == "" || item.End == nil || item.End.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			c.logger.Warn("Skipping event with unparseable start", "eventID", item.Id, "start", item.Start.DateTime)
			continue
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			c.logger.Warn("Skipping event with unparseable end", "eventID", item.Id, "end", item.End.DateTime)
			continue
		}
		iv, err := schedule.NewInterval(start.In(c.loc), end.In(c.loc))
		if err != nil {
			continue
		}
		busy = append(busy, iv)
	}

	c.logger.Info("Fetched busy intervals from Google Calendar", "count", len(busy), "calendarID", calendarID)
	return busy, nil
}

// CreateEvent inserts a confirmed meeting into the calendar and invites the
// attendees. It returns the created event's ID.
func (c *CalendarClient) CreateEvent(ctx context.Context, calendarID string, ev *models.Event) (string, error) {
	var attendees []*calendar.EventAttendee
	for _, email := range ev.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := c.service.Events.Insert(calendarID, &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start: &calendar.EventDateTime{
			DateTime: ev.StartTime.In(c.loc).Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: ev.EndTime.In(c.loc).Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
		Attendees: attendees,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create calendar event: %w", err)
	}

	c.logger.Info("Created calendar event", "eventID", created.Id, "title", ev.Title, "start", ev.StartTime)
	return created.Id, nil
}
