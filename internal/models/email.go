package models

import "time"

// Email is a locally mirrored copy of a Gmail message's metadata and bodies.
// message_id is globally unique across the store: a re-sync never inserts a
// second row for a message id that is already mirrored.
type Email struct {
	ID         int64     `db:"id" json:"id"`
	MessageID  string    `db:"message_id" json:"message_id"`
	UserID     int64     `db:"user_id" json:"-"`
	ThreadID   string    `db:"thread_id" json:"thread_id"`
	Subject    string    `db:"subject" json:"subject"`
	Sender     string    `db:"sender" json:"sender"`
	Recipient  string    `db:"recipient" json:"recipient"`
	BodyText   string    `db:"body_text" json:"body_text"`
	BodyHTML   string    `db:"body_html" json:"body_html"`
	IsRead     bool      `db:"is_read" json:"is_read"`
	IsStarred  bool      `db:"is_starred" json:"is_starred"`
	IsDeleted  bool      `db:"is_deleted" json:"-"`
	Labels     []string  `db:"labels" json:"labels"`
	ReceivedAt time.Time `db:"received_at" json:"received_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
