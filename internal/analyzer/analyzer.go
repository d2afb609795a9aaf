// Package analyzer asks an LLM whether an email warrants a reply and, if it
// contains a meeting request, extracts the meeting parameters. Everything the
// scheduler consumes downstream is validated there; this package only shapes
// the model's JSON verdict into typed values.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"mailpilot/internal/models"
)

const systemPrompt = "You are an expert email assistant. Always respond with valid JSON only. No additional text or explanations."

const maxBodyChars = 800

// Analyzer classifies emails with a chat-completion call per message.
type Analyzer struct {
	client openai.Client
	model  string
	logger *slog.Logger
	now    func() time.Time
}

// New creates an analyzer using the given API key and model name.
func New(logger *slog.Logger, apiKey, model string) *Analyzer {
	return &Analyzer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
		now:    time.Now,
	}
}

// verdict mirrors the JSON structure the prompt demands.
type verdict struct {
	NeedsResponse     bool   `json:"needs_response"`
	ResponsePriority  string `json:"response_priority"`
	EmailType         string `json:"email_type"`
	Reasoning         string `json:"reasoning"`
	SuggestedResponse string `json:"suggested_response"`
	MeetingRequest    struct {
		HasMeetingRequest bool     `json:"has_meeting_request"`
		Purpose           string   `json:"purpose"`
		PreferredDate     string   `json:"preferred_date"`
		PreferredTime     string   `json:"preferred_time"`
		DurationMinutes   int      `json:"duration_minutes"`
		Attendees         []string `json:"attendees"`
	} `json:"meeting_request"`
}

// Analyze classifies a single email. Transport failures are returned as
// errors; an unparseable model reply degrades to a "no response needed"
// verdict so one bad completion never stalls the batch.
func (a *Analyzer) Analyze(ctx context.Context, email *models.Email) (*models.Analysis, error) {
	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(a.buildPrompt(email)),
		},
		Model:       openai.ChatModel(a.model),
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("classification returned no choices")
	}

	analysis, perr := parseAnalysis(completion.Choices[0].Message.Content)
	if perr != nil {
		a.logger.Warn("Could not parse classification verdict, skipping message", "messageID", email.ID, "error", perr)
		return &models.Analysis{
			NeedsResponse: false,
			Priority:      "low",
			EmailType:     "unknown",
			Reasoning:     "Unparseable classification verdict",
		}, nil
	}
	return analysis, nil
}

// parseAnalysis turns the model's reply into a typed verdict.
func parseAnalysis(content string) (*models.Analysis, error) {
	var v verdict
	if err := json.Unmarshal([]byte(stripFences(content)), &v); err != nil {
		return nil, err
	}

	analysis := &models.Analysis{
		NeedsResponse:     v.NeedsResponse,
		Priority:          v.ResponsePriority,
		EmailType:         v.EmailType,
		Reasoning:         v.Reasoning,
		SuggestedResponse: v.SuggestedResponse,
	}
	if v.MeetingRequest.HasMeetingRequest {
		analysis.MeetingRequest = &models.MeetingRequest{
			Purpose:         v.MeetingRequest.Purpose,
			PreferredDate:   v.MeetingRequest.PreferredDate,
			PreferredTime:   v.MeetingRequest.PreferredTime,
			DurationMinutes: v.MeetingRequest.DurationMinutes,
			Attendees:       v.MeetingRequest.Attendees,
		}
	}
	return analysis, nil
}

// buildPrompt renders the analysis prompt for one email, truncating the body
// the way the prompt template expects.
func (a *Analyzer) buildPrompt(email *models.Email) string {
	body := email.Body
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}

	return fmt.Sprintf(`Analyze this email and determine if it needs a response. Return ONLY valid JSON.

Today's date is %s.

EMAIL:
Subject: %s
From: %s
Body: %s

ANALYSIS RULES:
- Marketing/promotional emails = NO response
- Newsletters/automated notifications = NO response
- Direct questions/requests = RESPONSE needed
- Meeting invitations = RESPONSE needed
- Personal messages from real people = RESPONSE needed

Return this exact JSON structure:
{
    "needs_response": false,
    "response_priority": "low",
    "email_type": "marketing",
    "reasoning": "This appears to be a promotional/marketing email",
    "suggested_response": "",
    "meeting_request": {
        "has_meeting_request": false,
        "purpose": "",
        "preferred_date": null,
        "preferred_time": null,
        "duration_minutes": 30,
        "attendees": []
    }
}

When a meeting is requested, set preferred_date to "YYYY-MM-DD" and
preferred_time to 24-hour "HH:MM", resolving relative phrases like "next
Tuesday" against today's date; leave them null when the email names no
specific date or time.

For most promotional emails, use the above template with needs_response: false.
Only set needs_response: true for genuine personal/business communications.`,
		a.now().Format("Monday, 2006-01-02"), email.Subject, email.From, body)
}

// stripFences unwraps a JSON payload from markdown code fences, which some
// completions add despite the instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
