// Package icloud reads busy time from an iCloud calendar over CalDAV. It is
// an optional secondary busy source: events found here are merged into the
// per-run busy index next to the Google Calendar ones.
package icloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/teambition/rrule-go"

	"mailpilot/internal/schedule"
)

const (
	iCloudCalDAVEndpoint = "https://caldav.icloud.com/"

	// Safety cap per recurring event so a runaway RRULE cannot stall a run.
	maxOccurrencesPerEvent = 1000
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "mailpilot/1.0")
	return t.Transport.RoundTrip(req)
}

// CalDAVClient is a client for reading events from a CalDAV server (iCloud).
type CalDAVClient struct {
	caldavClient *caldav.Client
	logger       *slog.Logger
	calendarPath string
	username     string
}

// NewClient creates and initializes a new CalDAVClient for iCloud.
func NewClient(logger *slog.Logger, username, password, calendarName string) (*CalDAVClient, error) {
	transport := &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	caldavClient, err := caldav.NewClient(httpClient, iCloudCalDAVEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	c := &CalDAVClient{
		caldavClient: caldavClient,
		logger:       logger,
		username:     username,
	}

	logger.Info("Finding iCloud calendar", "calendarName", calendarName)
	calendarPath, err := c.findCalendar(context.Background(), calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarPath = calendarPath
	logger.Info("Successfully found iCloud calendar", "path", calendarPath)

	return c, nil
}

// BusyIntervals fetches the calendar's events inside the window and returns
// them as busy intervals in the given timezone, expanding recurring events
// into their concrete occurrences.
func (c *CalDAVClient) BusyIntervals(ctx context.Context, window schedule.Interval, loc *time.Location) ([]schedule.Interval, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{Name: ical.CompEvent, AllProps: true}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: window.Start,
				End:   window.End,
			}},
		},
	}

	objects, err := c.caldavClient.QueryCalendar(ctx, c.calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("caldav query failed: %w", err)
	}

	var busy []schedule.Interval
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, ev := range obj.Data.Events() {
			intervals, err := eventIntervals(ev, window, loc)
			if err != nil {
				c.logger.Warn("Skipping unreadable CalDAV event", "path", obj.Path, "error", err)
				continue
			}
			busy = append(busy, intervals...)
		}
	}

	c.logger.Info("Fetched busy intervals from CalDAV", "count", len(busy))
	return busy, nil
}

// eventIntervals converts one VEVENT into busy intervals within the window.
// Recurring events are expanded via their RRULE; the occurrence count is
// capped per event.
func eventIntervals(ev ical.Event, window schedule.Interval, loc *time.Location) ([]schedule.Interval, error) {
	start, err := ev.DateTimeStart(loc)
	if err != nil {
		return nil, fmt.Errorf("event has no usable DTSTART: %w", err)
	}
	if start.IsZero() {
		return nil, fmt.Errorf("event has no DTSTART")
	}
	end, err := ev.DateTimeEnd(loc)
	if err != nil || !end.After(start) {
		// DTEND is optional; fall back to a point-ish hour-long block.
		end = start.Add(time.Hour)
	}
	dur := end.Sub(start)

	rruleProp := ev.Props.Get(ical.PropRecurrenceRule)
	if rruleProp == nil {
		iv, err := schedule.NewInterval(start.In(loc), end.In(loc))
		if err != nil {
			return nil, err
		}
		if !iv.Overlaps(window) {
			return nil, nil
		}
		return []schedule.Interval{iv}, nil
	}

	rule, err := rrule.StrToRRule(rruleProp.Value)
	if err != nil {
		return nil, fmt.Errorf("bad RRULE: %w", err)
	}
	rule.DTStart(start)

	occurrences := rule.Between(window.Start.In(start.Location()), window.End.In(start.Location()), true)
	if len(occurrences) > maxOccurrencesPerEvent {
		occurrences = occurrences[:maxOccurrencesPerEvent]
	}

	var out []schedule.Interval
	for _, occ := range occurrences {
		iv, err := schedule.NewInterval(occ.In(loc), occ.Add(dur).In(loc))
		if err != nil {
			continue
		}
		out = append(out, iv)
	}
	return out, nil
}

// findCalendar discovers the user's calendars and returns the server path of
// the one with the matching name.
func (c *CalDAVClient) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
