package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/mailbridge/mailbridge/internal/apierror"
	"github.com/mailbridge/mailbridge/internal/models"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// scopes is the fixed, versioned scope set requested on every consent:
// identity, mail read/send/modify, and full calendar access.
var scopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	gmailapi.GmailReadonlyScope,
	gmailapi.GmailSendScope,
	gmailapi.GmailModifyScope,
	calendarapi.CalendarScope,
}

// Client is the single gateway through which every outbound Google call
// passes. It holds no per-request state; tokens are passed per call, so one
// shared instance is safe under concurrent use.
type Client struct {
	oauth *oauth2.Config
	http  *http.Client
}

// NewClient builds the gateway from configuration.
func NewClient() *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     viper.GetString("google.client_id"),
			ClientSecret: viper.GetString("google.client_secret"),
			RedirectURL:  viper.GetString("google.redirect_uri"),
			Scopes:       scopes,
			Endpoint:     googleoauth.Endpoint,
		},
		http: http.DefaultClient,
	}
}

// AuthURL constructs the consent URL. Offline access and forced re-consent
// guarantee a refresh token is issued even for a returning user.
func (c *Client) AuthURL() string {
	return c.oauth.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange redeems a one-time authorization code for a token pair. Codes are
// single-use; a failed or repeated redemption surfaces the provider's error
// without retrying.
func (c *Client) Exchange(ctx context.Context, code string) (models.TokenPair, error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return models.TokenPair{}, apierror.AuthExchange(err)
	}
	return models.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}, nil
}

// Identity is the authenticated user's profile from the userinfo endpoint.
type Identity struct {
	GoogleID string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// FetchIdentity resolves the identity behind an access token via the userinfo
// endpoint. Failure is reported to the caller, never fatal here.
func (c *Client) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, http.NoBody)
	if err != nil {
		return nil, apierror.IdentityLookup(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierror.IdentityLookup(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierror.IdentityLookup(fmt.Errorf("userinfo request returned status %d", resp.StatusCode))
	}

	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return nil, apierror.IdentityLookup(err)
	}
	return &id, nil
}

// tokenSource wraps a stored token pair for one call. No expiry is recorded
// locally, so the source never refreshes proactively; a stale token surfaces
// as a 401 from the provider.
func (c *Client) tokenSource(ctx context.Context, tokens models.TokenPair) oauth2.TokenSource {
	return c.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "Bearer",
	})
}
