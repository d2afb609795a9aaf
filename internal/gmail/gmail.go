// Package gmail reads unread inbox messages and writes draft replies using
// the Gmail API. Drafts are never sent; the user reviews them in Gmail.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailpilot/internal/models"
)

const unreadQuery = "is:unread in:inbox"

// Client wraps the Gmail API for the assistant's two operations: listing
// unread messages and creating draft replies on their threads.
type Client struct {
	service *gmail.Service
	logger  *slog.Logger
}

// NewClient creates a Gmail client on an already authenticated HTTP client.
func NewClient(ctx context.Context, logger *slog.Logger, httpClient *http.Client) (*Client, error) {
	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &Client{service: service, logger: logger}, nil
}

// UnreadMessages fetches up to max unread inbox messages with their
// plain-text bodies.
func (c *Client) UnreadMessages(ctx context.Context, max int64) ([]*models.Email, error) {
	list, err := c.service.Users.Messages.List("me").
		Context(ctx).
		Q(unreadQuery).
		MaxResults(max).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}

	var emails []*models.Email
	for _, ref := range list.Messages {
		msg, err := c.service.Users.Messages.Get("me", ref.Id).Context(ctx).Do()
		if err != nil {
			c.logger.Error("Could not fetch message, skipping", "messageID", ref.Id, "error", err)
			continue
		}

		email := &models.Email{
			ID:       msg.Id,
			ThreadID: msg.ThreadId,
		}
		if msg.Payload != nil {
			for _, h := range msg.Payload.Headers {
				switch h.Name {
				case "Subject":
					email.Subject = h.Value
				case "From":
					email.From = h.Value
				case "Date":
					email.Date = h.Value
				case "Message-ID", "Message-Id":
					email.MessageID = h.Value
				}
			}
			email.Body = extractBody(msg.Payload)
		}
		emails = append(emails, email)
	}

	c.logger.Info("Fetched unread messages", "count", len(emails))
	return emails, nil
}

// CreateDraftReply writes a draft reply on the original message's thread and
// returns the draft ID.
func (c *Client) CreateDraftReply(ctx context.Context, email *models.Email, body string) (string, error) {
	raw := buildReplyRaw(email, body)

	draft, err := c.service.Users.Drafts.Create("me", &gmail.Draft{
		Message: &gmail.Message{
			ThreadId: email.ThreadID,
			Raw:      base64.URLEncoding.EncodeToString([]byte(raw)),
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}

	c.logger.Info("Created draft reply", "draftID", draft.Id, "to", email.From)
	return draft.Id, nil
}

// buildReplyRaw assembles an RFC 822 reply message threaded onto the
// original via In-Reply-To/References.
func buildReplyRaw(email *models.Email, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", email.From)
	fmt.Fprintf(&b, "Subject: %s\r\n", replySubject(email.Subject))
	if email.MessageID != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\r\n", email.MessageID)
		fmt.Fprintf(&b, "References: %s\r\n", email.MessageID)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

// replySubject prefixes Re: unless the subject already carries it.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(subject)), "re:") {
		return subject
	}
	return "Re: " + subject
}

// extractBody pulls the first text/plain part out of the message payload,
// walking nested multipart structures.
func extractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.MimeType == "text/plain" && payload.Body != nil && payload.Body.Data != "" {
		return decodeBody(payload.Body.Data)
	}
	for _, part := range payload.Parts {
		if body := extractBody(part); body != "" {
			return body
		}
	}
	return ""
}

// decodeBody decodes Gmail's URL-safe base64 body data, tolerating both
// padded and unpadded forms.
func decodeBody(data string) string {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}
