package google

import (
	"encoding/base64"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/mailbridge/mailbridge/internal/models"
)

// mapMessage converts a full-format Gmail message into a mirror record.
// Read/starred state is a snapshot of label membership at sync time.
func mapMessage(msg *gmailapi.Message) *models.Email {
	var headers []*gmailapi.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}

	text, html := extractBody(msg.Payload)

	return &models.Email{
		MessageID:  msg.Id,
		ThreadID:   msg.ThreadId,
		Subject:    findHeader(headers, "Subject"),
		Sender:     findHeader(headers, "From"),
		Recipient:  findHeader(headers, "To"),
		BodyText:   text,
		BodyHTML:   html,
		Labels:     msg.LabelIds,
		IsRead:     !containsLabel(msg.LabelIds, "UNREAD"),
		IsStarred:  containsLabel(msg.LabelIds, "STARRED"),
		ReceivedAt: receivedAt(findHeader(headers, "Date"), msg.InternalDate),
	}
}

// findHeader performs a case-insensitive lookup for a header value.
func findHeader(headers []*gmailapi.MessagePartHeader, name string) string {
	lower := strings.ToLower(name)
	for _, h := range headers {
		if strings.ToLower(h.Name) == lower {
			return h.Value
		}
	}
	return ""
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// receivedAt parses the Date header, falling back to the message's
// internalDate (epoch millis), then the current time.
func receivedAt(dateHeader string, internalDate int64) time.Time {
	s := strings.TrimSpace(dateHeader)
	if s != "" {
		formats := []string{
			time.RFC1123Z,
			time.RFC1123,
			time.RFC822Z,
			time.RFC822,
			"Mon, 2 Jan 2006 15:04:05 -0700",
			"Mon, 2 Jan 2006 15:04:05 MST",
			"2 Jan 2006 15:04:05 -0700",
			"Mon, 02 Jan 2006 15:04:05 -0700 (MST)",
		}
		for _, format := range formats {
			if t, err := time.Parse(format, s); err == nil {
				return t
			}
		}
	}
	if internalDate > 0 {
		return time.UnixMilli(internalDate).UTC()
	}
	return time.Now().UTC()
}

// extractBody walks the payload depth-first collecting the first text/plain
// and first text/html leaf. Later leaves of an already-found MIME type are
// ignored.
func extractBody(payload *gmailapi.MessagePart) (text, html string) {
	if payload == nil {
		return "", ""
	}

	if len(payload.Parts) > 0 {
		for _, part := range payload.Parts {
			t, h := extractBody(part)
			if text == "" && t != "" {
				text = t
			}
			if html == "" && h != "" {
				html = h
			}
		}
		return text, html
	}

	data := ""
	if payload.Body != nil {
		data = decodeBase64URL(payload.Body.Data)
	}

	switch payload.MimeType {
	case "text/plain":
		return data, ""
	case "text/html":
		return "", data
	}
	return "", ""
}

// decodeBase64URL decodes Gmail's URL-safe base64. Malformed input yields an
// empty string, never an error.
func decodeBase64URL(s string) string {
	if s == "" {
		return ""
	}
	data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return ""
	}
	return string(data)
}
