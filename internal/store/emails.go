package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mailbridge/mailbridge/internal/models"
)

// Emails is the local mirror of remote message metadata.
type Emails struct {
	pool *pgxpool.Pool
}

func NewEmails(pool *pgxpool.Pool) *Emails {
	return &Emails{pool: pool}
}

// FilterNewMessageIDs returns the subset of ids not yet mirrored, preserving
// input order. The message_id uniqueness check spans the whole store, not one
// user.
func (s *Emails) FilterNewMessageIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT message_id FROM emails WHERE message_id = ANY($1)`, ids)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeError(err)
		}
		existing[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	fresh := make([]string, 0, len(ids))
	for _, id := range ids {
		if !existing[id] {
			fresh = append(fresh, id)
		}
	}
	return fresh, nil
}

// InsertBatch inserts a sync batch in one transaction: either every row
// commits or none do. A concurrent sync racing on the same message id fails
// closed on the unique constraint.
func (s *Emails) InsertBatch(ctx context.Context, emails []*models.Email) error {
	if len(emails) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storeError(err)
	}
	defer tx.Rollback(ctx)

	for _, e := range emails {
		err := tx.QueryRow(ctx, `
			INSERT INTO emails (message_id, user_id, thread_id, subject, sender, recipient,
				body_text, body_html, is_read, is_starred, labels, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, created_at`,
			e.MessageID, e.UserID, e.ThreadID, e.Subject, e.Sender, e.Recipient,
			e.BodyText, e.BodyHTML, e.IsRead, e.IsStarred, e.Labels, e.ReceivedAt,
		).Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return storeError(err)
		}
	}

	return storeError(tx.Commit(ctx))
}

// List returns one page of non-deleted messages for a user, newest first,
// plus the total count before pagination. A query filters by case-sensitive
// substring match over subject, sender, and body text.
func (s *Emails) List(ctx context.Context, userID int64, offset, limit int, query string) ([]*models.Email, int, error) {
	where := `user_id = $1 AND is_deleted = FALSE`
	args := []any{userID}
	if query != "" {
		where += ` AND (subject LIKE '%' || $2 || '%' OR sender LIKE '%' || $2 || '%' OR body_text LIKE '%' || $2 || '%')`
		args = append(args, query)
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM emails WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, storeError(err)
	}

	args = append(args, limit, offset)
	n := len(args)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, message_id, user_id, thread_id, subject, sender, recipient,
			body_text, body_html, is_read, is_starred, is_deleted, labels, received_at, created_at
		FROM emails
		WHERE %s
		ORDER BY received_at DESC
		LIMIT $%d OFFSET $%d`, where, n-1, n), args...)
	if err != nil {
		return nil, 0, storeError(err)
	}
	defer rows.Close()

	emails, err := scanEmails(rows)
	if err != nil {
		return nil, 0, err
	}
	return emails, total, nil
}

// Get returns a message by local id scoped to its owner, or nil when absent.
// Soft-deleted rows are hidden unless includeDeleted is set.
func (s *Emails) Get(ctx context.Context, id, userID int64, includeDeleted bool) (*models.Email, error) {
	q := `
		SELECT id, message_id, user_id, thread_id, subject, sender, recipient,
			body_text, body_html, is_read, is_starred, is_deleted, labels, received_at, created_at
		FROM emails
		WHERE id = $1 AND user_id = $2`
	if !includeDeleted {
		q += ` AND is_deleted = FALSE`
	}

	e, err := scanEmail(s.pool.QueryRow(ctx, q, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return e, nil
}

func (s *Emails) SetRead(ctx context.Context, id int64, read bool) error {
	_, err := s.pool.Exec(ctx, `UPDATE emails SET is_read = $2 WHERE id = $1`, id, read)
	return storeError(err)
}

func (s *Emails) SetStarred(ctx context.Context, id int64, starred bool) error {
	_, err := s.pool.Exec(ctx, `UPDATE emails SET is_starred = $2 WHERE id = $1`, id, starred)
	return storeError(err)
}

// SetDeleted soft-deletes a row; the record is never removed.
func (s *Emails) SetDeleted(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE emails SET is_deleted = TRUE WHERE id = $1`, id)
	return storeError(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmail(row rowScanner) (*models.Email, error) {
	var e models.Email
	err := row.Scan(
		&e.ID, &e.MessageID, &e.UserID, &e.ThreadID, &e.Subject, &e.Sender, &e.Recipient,
		&e.BodyText, &e.BodyHTML, &e.IsRead, &e.IsStarred, &e.IsDeleted, &e.Labels,
		&e.ReceivedAt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEmails(rows pgx.Rows) ([]*models.Email, error) {
	var emails []*models.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, storeError(err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return emails, nil
}
