package google

import (
	"encoding/base64"
	"strings"
	"testing"

	gmailapi "google.golang.org/api/gmail/v1"
)

func TestEncodeRawMessage(t *testing.T) {
	raw := encodeRawMessage(OutgoingMessage{
		To:      "bob@example.com",
		Cc:      "carol@example.com",
		Subject: "status update",
		Body:    "all green",
	})

	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("raw payload is not URL-safe base64: %v", err)
	}
	msg := string(decoded)

	for _, want := range []string{
		"To: bob@example.com\r\n",
		"Cc: carol@example.com\r\n",
		"Subject: status update\r\n",
		"MIME-Version: 1.0\r\n",
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("raw message missing header %q", want)
		}
	}
	if strings.Contains(msg, "Bcc:") {
		t.Error("empty Bcc must not produce a header")
	}
	if !strings.HasSuffix(msg, "\r\n\r\nall green") {
		t.Errorf("body not separated from headers by a blank line: %q", msg)
	}
}

func TestMapDraft(t *testing.T) {
	draft := mapDraft(&gmailapi.Draft{
		Id: "d-1",
		Message: &gmailapi.Message{
			Id:       "m-1",
			ThreadId: "t-1",
			LabelIds: []string{"DRAFT"},
		},
	})

	if draft.ID != "d-1" || draft.Message.ID != "m-1" || draft.Message.ThreadID != "t-1" {
		t.Errorf("mapDraft = %+v", draft)
	}

	// Drafts straight from the list endpoint may omit the message.
	bare := mapDraft(&gmailapi.Draft{Id: "d-2"})
	if bare.ID != "d-2" || bare.Message.ID != "" {
		t.Errorf("mapDraft without message = %+v", bare)
	}
}
