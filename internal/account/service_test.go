package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mailbridge/mailbridge/internal/apierror"
	"github.com/mailbridge/mailbridge/internal/google"
	"github.com/mailbridge/mailbridge/internal/models"
)

type fakeUserStore struct {
	users  map[string]*models.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) Create(_ context.Context, u *models.User) error {
	if _, ok := s.users[u.Email]; ok {
		return apierror.Integrity(errors.New("duplicate email"))
	}
	s.nextID++
	u.ID = s.nextID
	cp := *u
	s.users[u.Email] = &cp
	return nil
}

func (s *fakeUserStore) UpdateCredentials(_ context.Context, u *models.User) error {
	cp := *u
	s.users[u.Email] = &cp
	return nil
}

type fakeAuth struct {
	url         string
	tokens      models.TokenPair
	identity    *google.Identity
	exchangeErr error
	identityErr error
}

func (a *fakeAuth) AuthURL() string { return a.url }

func (a *fakeAuth) Exchange(_ context.Context, code string) (models.TokenPair, error) {
	if a.exchangeErr != nil {
		return models.TokenPair{}, a.exchangeErr
	}
	return a.tokens, nil
}

func (a *fakeAuth) FetchIdentity(_ context.Context, accessToken string) (*google.Identity, error) {
	if a.identityErr != nil {
		return nil, a.identityErr
	}
	return a.identity, nil
}

func TestBeginAuth(t *testing.T) {
	svc := NewService(newFakeUserStore(), &fakeAuth{url: "https://accounts.google.com/o/oauth2/auth?x=y"})
	require.Equal(t, "https://accounts.google.com/o/oauth2/auth?x=y", svc.BeginAuth())
}

func TestCompleteAuthCreatesUser(t *testing.T) {
	store := newFakeUserStore()
	svc := NewService(store, &fakeAuth{
		tokens:   models.TokenPair{AccessToken: "at-1", RefreshToken: "rt-1"},
		identity: &google.Identity{GoogleID: "g-1", Email: "alice@example.com", Name: "Alice"},
	})

	user, err := svc.CompleteAuth(context.Background(), "code-1")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, "Alice", user.Name)
	require.Equal(t, "g-1", user.GoogleID)
	require.Equal(t, "at-1", user.AccessToken)
	require.Equal(t, "rt-1", user.RefreshToken)
	require.NotZero(t, user.ID)
	require.Len(t, store.users, 1)
}

func TestCompleteAuthOverwritesTokensOnRepeatLogin(t *testing.T) {
	store := newFakeUserStore()
	auth := &fakeAuth{
		tokens:   models.TokenPair{AccessToken: "at-1", RefreshToken: "rt-1"},
		identity: &google.Identity{GoogleID: "g-1", Email: "alice@example.com", Name: "Alice"},
	}
	svc := NewService(store, auth)

	first, err := svc.CompleteAuth(context.Background(), "code-1")
	require.NoError(t, err)

	auth.tokens = models.TokenPair{AccessToken: "at-2", RefreshToken: "rt-2"}
	second, err := svc.CompleteAuth(context.Background(), "code-2")
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID, "repeat login must not create a second record")
	require.Len(t, store.users, 1)
	require.Equal(t, "at-2", second.AccessToken)
	require.Equal(t, "rt-2", second.RefreshToken)
	require.Equal(t, "Alice", second.Name)
	require.Equal(t, "g-1", second.GoogleID)
}

func TestCompleteAuthBackfillsIdentityOnlyWhenEmpty(t *testing.T) {
	store := newFakeUserStore()
	store.users["alice@example.com"] = &models.User{
		ID:    7,
		Email: "alice@example.com",
		Name:  "",
	}
	auth := &fakeAuth{
		tokens:   models.TokenPair{AccessToken: "at-1", RefreshToken: "rt-1"},
		identity: &google.Identity{GoogleID: "g-1", Email: "alice@example.com", Name: "Alice Liddell"},
	}
	svc := NewService(store, auth)

	user, err := svc.CompleteAuth(context.Background(), "code-1")
	require.NoError(t, err)
	require.Equal(t, "Alice Liddell", user.Name)
	require.Equal(t, "g-1", user.GoogleID)

	// A later consent reporting a different display name must not clobber
	// the one already stored.
	auth.identity = &google.Identity{GoogleID: "g-other", Email: "alice@example.com", Name: "A. Liddell"}
	user, err = svc.CompleteAuth(context.Background(), "code-2")
	require.NoError(t, err)
	require.Equal(t, "Alice Liddell", user.Name)
	require.Equal(t, "g-1", user.GoogleID)
}

func TestCompleteAuthMissingCode(t *testing.T) {
	svc := NewService(newFakeUserStore(), &fakeAuth{})

	_, err := svc.CompleteAuth(context.Background(), "")
	require.True(t, apierror.HasCode(err, apierror.CodeValidation))
}

func TestCompleteAuthExchangeFailure(t *testing.T) {
	store := newFakeUserStore()
	svc := NewService(store, &fakeAuth{exchangeErr: apierror.AuthExchange(errors.New("bad code"))})

	_, err := svc.CompleteAuth(context.Background(), "code-1")
	require.True(t, apierror.HasCode(err, apierror.CodeAuthExchange))
	require.Empty(t, store.users)
}

func TestGetUser(t *testing.T) {
	store := newFakeUserStore()
	store.users["alice@example.com"] = &models.User{ID: 1, Email: "alice@example.com"}
	svc := NewService(store, &fakeAuth{})

	user, err := svc.GetUser(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)

	_, err = svc.GetUser(context.Background(), "bob@example.com")
	require.True(t, apierror.HasCode(err, apierror.CodeUserNotFound))

	_, err = svc.GetUser(context.Background(), "")
	require.True(t, apierror.HasCode(err, apierror.CodeValidation))
}
