// Package account implements the login flow: consent URL construction, code
// exchange, identity resolution, and the credential upsert.
package account

import (
	"context"

	"github.com/mailbridge/mailbridge/internal/apierror"
	"github.com/mailbridge/mailbridge/internal/google"
	"github.com/mailbridge/mailbridge/internal/models"
)

// UserStore is the credential store surface needed by the login flow.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdateCredentials(ctx context.Context, u *models.User) error
}

// Authenticator performs the OAuth exchange against the provider.
type Authenticator interface {
	AuthURL() string
	Exchange(ctx context.Context, code string) (models.TokenPair, error)
	FetchIdentity(ctx context.Context, accessToken string) (*google.Identity, error)
}

type Service struct {
	users UserStore
	auth  Authenticator
}

func NewService(users UserStore, auth Authenticator) *Service {
	return &Service{users: users, auth: auth}
}

// BeginAuth returns the provider consent URL. No side effects.
func (s *Service) BeginAuth() string {
	return s.auth.AuthURL()
}

// CompleteAuth redeems an authorization code and upserts the credential
// record for the authenticated identity.
//
// Tokens are always overwritten: a refresh token from a later consent
// supersedes an older one. Identity fields (google id, display name) are only
// backfilled when currently empty. Identity is stable once known, tokens
// rotate.
func (s *Service) CompleteAuth(ctx context.Context, code string) (*models.User, error) {
	if code == "" {
		return nil, apierror.Validation("authorization code not provided")
	}

	tokens, err := s.auth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	identity, err := s.auth.FetchIdentity(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, identity.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &models.User{
			Email:        identity.Email,
			Name:         identity.Name,
			GoogleID:     identity.GoogleID,
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	user.AccessToken = tokens.AccessToken
	user.RefreshToken = tokens.RefreshToken
	if user.GoogleID == "" {
		user.GoogleID = identity.GoogleID
	}
	if user.Name == "" {
		user.Name = identity.Name
	}
	if err := s.users.UpdateCredentials(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser looks up a user by email.
func (s *Service) GetUser(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, apierror.Validation("email parameter is required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierror.UserNotFound(email)
	}
	return user, nil
}
