package models

import "time"

// User holds a local identity and its Google OAuth token pair.
// Access tokens may be stale at any time; expiry is not tracked, so every
// provider call must be prepared to fail with an auth error.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	GoogleID     string    `db:"google_id" json:"-"`
	AccessToken  string    `db:"access_token" json:"-"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Tokens returns the user's current token pair.
func (u *User) Tokens() TokenPair {
	return TokenPair{AccessToken: u.AccessToken, RefreshToken: u.RefreshToken}
}

// TokenPair is an OAuth access/refresh token pair. Tokens are opaque strings;
// no expiry is recorded.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
