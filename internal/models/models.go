package models

import "time"

// Email is an unread inbox message as handed to the analysis pipeline.
// This is an internal representation, independent of the mail provider.
type Email struct {
	ID        string // Provider message ID
	ThreadID  string // Conversation thread the message belongs to
	Subject   string // Subject header
	From      string // From header, usually "Name <addr>"
	Date      string // Raw Date header
	MessageID string // RFC 5322 Message-ID, used for threading replies
	Body      string // Plain-text body
}

// MeetingRequest carries the meeting parameters the analyzer extracted from
// an email. Date and time are kept as the raw strings the extractor produced;
// they are parsed into concrete times at the scheduling boundary.
type MeetingRequest struct {
	Purpose         string
	PreferredDate   string // "2006-01-02" or empty when not stated
	PreferredTime   string // "15:04" or empty when not stated
	DurationMinutes int
	Attendees       []string
}

// Analysis is the classifier's verdict on a single email.
type Analysis struct {
	NeedsResponse     bool
	Priority          string // high, medium, low
	EmailType         string // business, personal, spam, marketing, automated
	Reasoning         string
	SuggestedResponse string
	MeetingRequest    *MeetingRequest // nil when the email asks for no meeting
}

// Event represents a calendar event to be created for a confirmed meeting.
type Event struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Attendees   []string // Attendee emails, invited with the event
}
