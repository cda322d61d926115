package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mailbridge/mailbridge/internal/account"
	"github.com/mailbridge/mailbridge/internal/google"
	"github.com/mailbridge/mailbridge/internal/mailbox"
	"github.com/mailbridge/mailbridge/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUserStore struct {
	users map[string]*models.User
}

func (s *stubUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (s *stubUserStore) Create(_ context.Context, u *models.User) error {
	u.ID = int64(len(s.users) + 1)
	s.users[u.Email] = u
	return nil
}

func (s *stubUserStore) UpdateCredentials(_ context.Context, u *models.User) error {
	s.users[u.Email] = u
	return nil
}

type stubAuth struct{}

func (stubAuth) AuthURL() string { return "https://accounts.google.com/o/oauth2/auth?client_id=x" }

func (stubAuth) Exchange(_ context.Context, code string) (models.TokenPair, error) {
	return models.TokenPair{AccessToken: "at", RefreshToken: "rt"}, nil
}

func (stubAuth) FetchIdentity(_ context.Context, _ string) (*google.Identity, error) {
	return &google.Identity{GoogleID: "g-1", Email: "alice@example.com", Name: "Alice"}, nil
}

type stubEmailStore struct {
	rows map[int64]*models.Email
}

func (s *stubEmailStore) FilterNewMessageIDs(_ context.Context, ids []string) ([]string, error) {
	return ids, nil
}

func (s *stubEmailStore) InsertBatch(_ context.Context, emails []*models.Email) error {
	for i, e := range emails {
		e.ID = int64(len(s.rows) + i + 1)
		s.rows[e.ID] = e
	}
	return nil
}

func (s *stubEmailStore) List(_ context.Context, userID int64, offset, limit int, query string) ([]*models.Email, int, error) {
	var out []*models.Email
	for _, row := range s.rows {
		if row.UserID == userID && !row.IsDeleted {
			out = append(out, row)
		}
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (s *stubEmailStore) Get(_ context.Context, id, userID int64, includeDeleted bool) (*models.Email, error) {
	row, ok := s.rows[id]
	if !ok || row.UserID != userID || (row.IsDeleted && !includeDeleted) {
		return nil, nil
	}
	return row, nil
}

func (s *stubEmailStore) SetRead(_ context.Context, id int64, read bool) error {
	s.rows[id].IsRead = read
	return nil
}

func (s *stubEmailStore) SetStarred(_ context.Context, id int64, starred bool) error {
	s.rows[id].IsStarred = starred
	return nil
}

func (s *stubEmailStore) SetDeleted(_ context.Context, id int64) error {
	s.rows[id].IsDeleted = true
	return nil
}

type stubGateway struct {
	ids []string
}

func (g *stubGateway) ListMessageIDs(_ context.Context, _ models.TokenPair, _ int64) ([]string, error) {
	return g.ids, nil
}

func (g *stubGateway) FetchMessage(_ context.Context, _ models.TokenPair, id string) (*models.Email, error) {
	return &models.Email{MessageID: id, Subject: "subject " + id, ReceivedAt: time.Now().UTC()}, nil
}

func (g *stubGateway) SendMessage(_ context.Context, _ models.TokenPair, _ google.OutgoingMessage) (string, error) {
	return "sent-1", nil
}

func (g *stubGateway) ModifyLabels(_ context.Context, _ models.TokenPair, _ string, _, _ []string) error {
	return nil
}

type fixture struct {
	router *gin.Engine
	users  *stubUserStore
	emails *stubEmailStore
}

func newFixture() *fixture {
	users := &stubUserStore{users: map[string]*models.User{
		"alice@example.com": {ID: 1, Email: "alice@example.com", Name: "Alice", AccessToken: "secret-access-token", RefreshToken: "secret-refresh-token"},
	}}
	emails := &stubEmailStore{rows: make(map[int64]*models.Email)}

	accounts := account.NewService(users, stubAuth{})
	mbox := mailbox.NewService(emails, &stubGateway{ids: []string{"m1", "m2"}}, 100)
	srv := New(accounts, mbox, nil)

	return &fixture{router: srv.Router(), users: users, emails: emails}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoginReturnsAuthURL(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/auth/login", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Contains(t, body["auth_url"], "accounts.google.com")
}

func TestCallbackRedirectsToSuccess(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/auth/callback?code=abc", "")

	require.Equal(t, http.StatusFound, w.Code)
	loc := w.Header().Get("Location")
	require.Contains(t, loc, "/auth/success?")
	require.Contains(t, loc, "email=alice%40example.com")
}

func TestCallbackMissingCode(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/auth/callback", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	require.Equal(t, false, body["success"])
}

func TestGetUserResponse(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/users/me?email=alice@example.com", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, "alice@example.com", body["email"])
	require.NotContains(t, w.Body.String(), "secret-access-token", "tokens must never appear in responses")
	require.NotContains(t, body, "access_token")
	require.NotContains(t, body, "refresh_token")
}

func TestErrorEnvelope(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/users/me?email=bob@example.com", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	require.Equal(t, false, body["success"])

	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "USER_NOT_FOUND", errObj["code"])
	require.Equal(t, float64(http.StatusNotFound), errObj["status_code"])
	require.NotEmpty(t, errObj["timestamp"])
	require.Equal(t, w.Header().Get("X-Request-ID"), errObj["request_id"])
}

func TestGetUserRequiresEmail(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/users/me", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	errObj := body["error"].(map[string]any)
	require.Equal(t, "VALIDATION_ERROR", errObj["code"])
}

func TestSyncEndpoint(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodPost, "/emails/sync?email=alice@example.com", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, float64(2), body["synced_count"])
	require.Len(t, f.emails.rows, 2)
}

func TestListEmailsResponseShape(t *testing.T) {
	f := newFixture()
	f.do(t, http.MethodPost, "/emails/sync?email=alice@example.com", "")

	w := f.do(t, http.MethodGet, "/emails?email=alice@example.com&page=1&per_page=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, float64(2), body["total"])
	require.Equal(t, float64(1), body["page"])
	require.Equal(t, float64(10), body["per_page"])
	require.Len(t, body["emails"], 2)
}

func TestListEmailsEmptyIsArray(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/emails?email=alice@example.com", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"emails":[]`)
}

func TestListEmailsRejectsBadPagination(t *testing.T) {
	f := newFixture()
	for _, target := range []string{
		"/emails?email=alice@example.com&per_page=500",
		"/emails?email=alice@example.com&per_page=0",
		"/emails?email=alice@example.com&page=0",
	} {
		w := f.do(t, http.MethodGet, target, "")
		require.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestGetEmailRejectsNonNumericID(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/emails/abc?email=alice@example.com", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	errObj := body["error"].(map[string]any)
	require.Equal(t, "VALIDATION_ERROR", errObj["code"])
}

func TestGetEmailNotFound(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/emails/99?email=alice@example.com", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	errObj := body["error"].(map[string]any)
	require.Equal(t, "EMAIL_NOT_FOUND", errObj["code"])
}

func TestStarEndpoints(t *testing.T) {
	f := newFixture()
	f.do(t, http.MethodPost, "/emails/sync?email=alice@example.com", "")

	w := f.do(t, http.MethodPut, "/emails/1/star/add?email=alice@example.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "email starred successfully", decode(t, w)["message"])

	w = f.do(t, http.MethodPut, "/emails/1/star/add?email=alice@example.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "email is already starred", decode(t, w)["message"])

	w = f.do(t, http.MethodPut, "/emails/1/star?email=alice@example.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, decode(t, w)["is_starred"])
}

func TestSendEmailValidation(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodPost, "/emails/send", `{"email":"alice@example.com","to":"not-an-email","subject":"s","body":"b"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendEmail(t *testing.T) {
	f := newFixture()
	payload := `{"email":"alice@example.com","to":"bob@example.com","subject":"hi","body":"hello"}`
	w := f.do(t, http.MethodPost, "/emails/send", payload)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, "sent-1", body["message_id"])
}

func TestDeleteEmail(t *testing.T) {
	f := newFixture()
	f.do(t, http.MethodPost, "/emails/sync?email=alice@example.com", "")

	w := f.do(t, http.MethodDelete, "/emails/1?email=alice@example.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, f.emails.rows[1].IsDeleted)

	w = f.do(t, http.MethodGet, "/emails/1?email=alice@example.com", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthSuccessEscapesQueryValues(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/auth/success?email="+
		"%3Cscript%3Ealert(1)%3C%2Fscript%3E&name=Alice", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "<script>")
	require.Contains(t, w.Body.String(), "&lt;script&gt;")
}
