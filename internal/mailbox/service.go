// Package mailbox implements the local mirror: syncing remote messages into
// the store and serving reads and mutations from it.
package mailbox

import (
	"context"
	"log"

	"github.com/mailbridge/mailbridge/internal/apierror"
	"github.com/mailbridge/mailbridge/internal/google"
	"github.com/mailbridge/mailbridge/internal/models"
)

// EmailStore is the mirror's persistence surface.
type EmailStore interface {
	FilterNewMessageIDs(ctx context.Context, ids []string) ([]string, error)
	InsertBatch(ctx context.Context, emails []*models.Email) error
	List(ctx context.Context, userID int64, offset, limit int, query string) ([]*models.Email, int, error)
	Get(ctx context.Context, id, userID int64, includeDeleted bool) (*models.Email, error)
	SetRead(ctx context.Context, id int64, read bool) error
	SetStarred(ctx context.Context, id int64, starred bool) error
	SetDeleted(ctx context.Context, id int64) error
}

// Gateway is the provider surface the mirror depends on.
type Gateway interface {
	ListMessageIDs(ctx context.Context, tokens models.TokenPair, maxResults int64) ([]string, error)
	FetchMessage(ctx context.Context, tokens models.TokenPair, id string) (*models.Email, error)
	SendMessage(ctx context.Context, tokens models.TokenPair, out google.OutgoingMessage) (string, error)
	ModifyLabels(ctx context.Context, tokens models.TokenPair, messageID string, add, remove []string) error
}

type Service struct {
	emails   EmailStore
	gateway  Gateway
	pageSize int64
}

// NewService builds the mirror service. pageSize caps how many remote ids one
// sync considers.
func NewService(emails EmailStore, gateway Gateway, pageSize int64) *Service {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Service{emails: emails, gateway: gateway, pageSize: pageSize}
}

// Sync mirrors remote messages not yet present locally and returns how many
// were inserted. All new rows are fetched and parsed before anything is
// written, then inserted in a single transaction: a failure anywhere leaves
// zero new rows behind, while rows from earlier syncs are untouched.
func (s *Service) Sync(ctx context.Context, user *models.User) (int, error) {
	ids, err := s.gateway.ListMessageIDs(ctx, user.Tokens(), s.pageSize)
	if err != nil {
		return 0, err
	}

	fresh, err := s.emails.FilterNewMessageIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	batch := make([]*models.Email, 0, len(fresh))
	for _, id := range fresh {
		email, err := s.gateway.FetchMessage(ctx, user.Tokens(), id)
		if err != nil {
			return 0, apierror.SyncFailed(err)
		}
		email.UserID = user.ID
		batch = append(batch, email)
	}

	if err := s.emails.InsertBatch(ctx, batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// List returns one page of the user's mirrored messages. Pagination is
// offset-based; total counts all filtered rows before pagination.
func (s *Service) List(ctx context.Context, user *models.User, page, perPage int, query string) ([]*models.Email, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage
	return s.emails.List(ctx, user.ID, offset, perPage, query)
}

// Get returns one mirrored message and marks it read on first view. The local
// flag is persisted first; the UNREAD label removal is mirrored to the
// provider best-effort.
func (s *Service) Get(ctx context.Context, user *models.User, id int64) (*models.Email, error) {
	email, err := s.emails.Get(ctx, id, user.ID, false)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, apierror.EmailNotFound(id)
	}

	if !email.IsRead {
		if err := s.emails.SetRead(ctx, id, true); err != nil {
			return nil, err
		}
		email.IsRead = true
		s.mirrorLabels(ctx, user, email.MessageID, "mark read", nil, []string{"UNREAD"})
	}
	return email, nil
}

// ToggleStar flips the star flag and returns the new state.
func (s *Service) ToggleStar(ctx context.Context, user *models.User, id int64) (bool, error) {
	email, err := s.emails.Get(ctx, id, user.ID, false)
	if err != nil {
		return false, err
	}
	if email == nil {
		return false, apierror.EmailNotFound(id)
	}

	starred := !email.IsStarred
	if err := s.applyStar(ctx, user, email, starred); err != nil {
		return false, err
	}
	return starred, nil
}

// SetStar sets the star flag to an explicit state. Returns false when the
// message was already in that state (no remote call is made then).
func (s *Service) SetStar(ctx context.Context, user *models.User, id int64, starred bool) (bool, error) {
	email, err := s.emails.Get(ctx, id, user.ID, false)
	if err != nil {
		return false, err
	}
	if email == nil {
		return false, apierror.EmailNotFound(id)
	}
	if email.IsStarred == starred {
		return false, nil
	}

	if err := s.applyStar(ctx, user, email, starred); err != nil {
		return false, err
	}
	return true, nil
}

// applyStar persists the local flag first, then mirrors the STARRED label
// change best-effort.
func (s *Service) applyStar(ctx context.Context, user *models.User, email *models.Email, starred bool) error {
	if err := s.emails.SetStarred(ctx, email.ID, starred); err != nil {
		return err
	}
	if starred {
		s.mirrorLabels(ctx, user, email.MessageID, "star", []string{"STARRED"}, nil)
	} else {
		s.mirrorLabels(ctx, user, email.MessageID, "unstar", nil, []string{"STARRED"})
	}
	return nil
}

// Delete soft-deletes the local row, then mirrors a trash move best-effort.
// The row itself is never removed.
func (s *Service) Delete(ctx context.Context, user *models.User, id int64) error {
	email, err := s.emails.Get(ctx, id, user.ID, true)
	if err != nil {
		return err
	}
	if email == nil {
		return apierror.EmailNotFound(id)
	}

	if err := s.emails.SetDeleted(ctx, id); err != nil {
		return err
	}
	s.mirrorLabels(ctx, user, email.MessageID, "delete", []string{"TRASH"}, nil)
	return nil
}

// Send sends a message through the provider and returns its message id. Sent
// mail is not mirrored; it shows up on the next sync.
func (s *Service) Send(ctx context.Context, user *models.User, out google.OutgoingMessage) (string, error) {
	return s.gateway.SendMessage(ctx, user.Tokens(), out)
}

// mirrorLabels pushes a local state change to the provider. Failure is logged
// and swallowed: local and remote state may diverge and no reconciliation is
// attempted.
func (s *Service) mirrorLabels(ctx context.Context, user *models.User, messageID, op string, add, remove []string) {
	if err := s.gateway.ModifyLabels(ctx, user.Tokens(), messageID, add, remove); err != nil {
		log.Printf("mailbox: best-effort %s mirror failed for message %s: %v", op, messageID, err)
	}
}
