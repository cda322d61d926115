package google

import (
	"context"
	"encoding/base64"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mailbridge/mailbridge/internal/apierror"
	"github.com/mailbridge/mailbridge/internal/models"
)

const gmailUser = "me"

// OutgoingMessage is the content of a message to send or draft.
type OutgoingMessage struct {
	To      string
	Cc      string
	Bcc     string
	Subject string
	Body    string
}

// Draft mirrors the provider's draft object. Drafts are proxied, never
// mirrored locally.
type Draft struct {
	ID      string       `json:"id"`
	Message DraftMessage `json:"message"`
}

type DraftMessage struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"thread_id,omitempty"`
	LabelIDs []string `json:"label_ids,omitempty"`
}

// mailService builds a one-shot mail capability for the given token pair.
// Pure construction; capabilities are rebuilt per request, never cached, so a
// token rotation is always picked up by the next call.
func (c *Client) mailService(ctx context.Context, tokens models.TokenPair) (*gmailapi.Service, error) {
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(c.tokenSource(ctx, tokens)))
	if err != nil {
		return nil, wrap("build mail service", nil, err)
	}
	return svc, nil
}

// ListMessageIDs returns up to maxResults message ids from the user's inbox,
// a single page with no pagination beyond maxResults.
func (c *Client) ListMessageIDs(ctx context.Context, tokens models.TokenPair, maxResults int64) ([]string, error) {
	svc, err := c.mailService(ctx, tokens)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Users.Messages.List(gmailUser).MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, wrap("list messages", nil, err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// FetchMessage retrieves one message in full format and maps it to a mirror
// record.
func (c *Client) FetchMessage(ctx context.Context, tokens models.TokenPair, id string) (*models.Email, error) {
	svc, err := c.mailService(ctx, tokens)
	if err != nil {
		return nil, err
	}

	msg, err := svc.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, wrap("get message", apierror.MessageNotFound(id), err)
	}
	return mapMessage(msg), nil
}

// SendMessage sends a message and returns the provider-assigned message id.
func (c *Client) SendMessage(ctx context.Context, tokens models.TokenPair, out OutgoingMessage) (string, error) {
	svc, err := c.mailService(ctx, tokens)
	if err != nil {
		return "", err
	}

	msg := &gmailapi.Message{Raw: encodeRawMessage(out)}
	sent, err := svc.Users.Messages.Send(gmailUser, msg).Context(ctx).Do()
	if err != nil {
		return "", wrap("send message", nil, err)
	}
	return sent.Id, nil
}

// ModifyLabels adds and removes labels on a remote message.
func (c *Client) ModifyLabels(ctx context.Context, tokens models.TokenPair, messageID string, add, remove []string) error {
	svc, err := c.mailService(ctx, tokens)
	if err != nil {
		return err
	}

	req := &gmailapi.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}
	_, err = svc.Users.Messages.Modify(gmailUser, messageID, req).Context(ctx).Do()
	return wrap("modify message", apierror.MessageNotFound(messageID), err)
}

// CreateDraft creates a draft on the provider.
func (c *Client) CreateDraft(ctx context.Context, tokens models.TokenPair, out OutgoingMessage) (*Draft, error) {
	svc, err := c.mailService(ctx, tokens)
	if err != nil {
		return nil, err
	}

	draft := &gmailapi.Draft{Message: &gmailapi.Message{Raw: encodeRawMessage(out)}}
	created, err := svc.Users.Drafts.Create(gmailUser, draft).Context(ctx).Do()
	if err != nil {
		return nil, wrap("create draft", nil, err)
	}
	return mapDraft(created), nil
}

// ListDrafts returns the user's drafts, a single page.
func (c *Client) ListDrafts(ctx context.Context, tokens models.TokenPair) ([]Draft, error) {
	svc, err := c.mailService(ctx, tokens)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Users.Drafts.List(gmailUser).Context(ctx).Do()
	if err != nil {
		return nil, wrap("list drafts", nil, err)
	}

	drafts := make([]Draft, 0, len(resp.Drafts))
	for _, d := range resp.Drafts {
		drafts = append(drafts, *mapDraft(d))
	}
	return drafts, nil
}

// GetDraft retrieves a single draft by id.
func (c *Client) GetDraft(ctx context.Context, tokens models.TokenPair, id string) (*Draft, error) {
	svc, err := c.mailService(ctx, tokens)
	if err != nil {
		return nil, err
	}

	draft, err := svc.Users.Drafts.Get(gmailUser, id).Context(ctx).Do()
	if err != nil {
		return nil, wrap("get draft", apierror.DraftNotFound(id), err)
	}
	return mapDraft(draft), nil
}

// UpdateDraft replaces a draft's content.
func (c *Client) UpdateDraft(ctx context.Context, tokens models.TokenPair, id string, out OutgoingMessage) (*Draft, error) {
	svc, err := c.mailService(ctx, tokens)
	if err != nil {
		return nil, err
	}

	draft := &gmailapi.Draft{Message: &gmailapi.Message{Raw: encodeRawMessage(out)}}
	updated, err := svc.Users.Drafts.Update(gmailUser, id, draft).Context(ctx).Do()
	if err != nil {
		return nil, wrap("update draft", apierror.DraftNotFound(id), err)
	}
	return mapDraft(updated), nil
}

// DeleteDraft permanently deletes a draft on the provider.
func (c *Client) DeleteDraft(ctx context.Context, tokens models.TokenPair, id string) error {
	svc, err := c.mailService(ctx, tokens)
	if err != nil {
		return err
	}

	err = svc.Users.Drafts.Delete(gmailUser, id).Context(ctx).Do()
	return wrap("delete draft", apierror.DraftNotFound(id), err)
}

// SendDraft sends an existing draft and returns the resulting message id.
func (c *Client) SendDraft(ctx context.Context, tokens models.TokenPair, id string) (string, error) {
	svc, err := c.mailService(ctx, tokens)
	if err != nil {
		return "", err
	}

	sent, err := svc.Users.Drafts.Send(gmailUser, &gmailapi.Draft{Id: id}).Context(ctx).Do()
	if err != nil {
		return "", wrap("send draft", apierror.DraftNotFound(id), err)
	}
	return sent.Id, nil
}

func mapDraft(d *gmailapi.Draft) *Draft {
	draft := &Draft{ID: d.Id}
	if d.Message != nil {
		draft.Message = DraftMessage{
			ID:       d.Message.Id,
			ThreadID: d.Message.ThreadId,
			LabelIDs: d.Message.LabelIds,
		}
	}
	return draft
}

// encodeRawMessage builds an RFC 2822 text/plain message and encodes it the
// way the Gmail API expects raw payloads (URL-safe base64).
func encodeRawMessage(out OutgoingMessage) string {
	var b strings.Builder

	b.WriteString("To: " + out.To + "\r\n")
	if out.Cc != "" {
		b.WriteString("Cc: " + out.Cc + "\r\n")
	}
	if out.Bcc != "" {
		b.WriteString("Bcc: " + out.Bcc + "\r\n")
	}
	b.WriteString("Subject: " + out.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(out.Body)

	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}
