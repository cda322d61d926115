package google

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/mailbridge/mailbridge/internal/apierror"
)

// timeoutError simulates a transport-level timeout.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestNormalizeMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "401 invalid token",
			err:        &googleapi.Error{Code: 401, Message: "Invalid Credentials"},
			wantCode:   apierror.CodeInvalidToken,
			wantStatus: 401,
		},
		{
			name:       "403 authorization",
			err:        &googleapi.Error{Code: 403, Message: "insufficient scope"},
			wantCode:   apierror.CodeAuthorization,
			wantStatus: 403,
		},
		{
			name:       "404 resource specific",
			err:        &googleapi.Error{Code: 404},
			notFound:   apierror.MessageNotFound("msg-1"),
			wantCode:   apierror.CodeEmailNotFound,
			wantStatus: 404,
		},
		{
			name:       "429 quota",
			err:        &googleapi.Error{Code: 429},
			wantCode:   apierror.CodeQuotaExceeded,
			wantStatus: 429,
		},
		{
			name:       "network timeout",
			err:        &url.Error{Op: "Get", URL: "https://gmail.googleapis.com", Err: timeoutError{}},
			wantCode:   apierror.CodeExternalTimeout,
			wantStatus: 504,
		},
		{
			name:       "connection refused",
			err:        &url.Error{Op: "Get", URL: "https://gmail.googleapis.com", Err: errors.New("connect: connection refused")},
			wantCode:   apierror.CodeExternalService,
			wantStatus: 503,
		},
		{
			name:       "500 generic provider error",
			err:        &googleapi.Error{Code: 500, Body: "backend error"},
			wantCode:   apierror.CodeProvider,
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalize(tt.err, tt.notFound)
			require.Error(t, got)

			var apiErr *apierror.Error
			require.ErrorAs(t, got, &apiErr)
			require.Equal(t, tt.wantCode, apiErr.Code)
			require.Equal(t, tt.wantStatus, apiErr.Status)
		})
	}
}

func TestNormalizeNil(t *testing.T) {
	require.NoError(t, normalize(nil, nil))
}

func TestNormalizeProviderCarriesStatusAndBody(t *testing.T) {
	got := normalize(&googleapi.Error{Code: 502, Body: "bad gateway"}, nil)

	var apiErr *apierror.Error
	require.ErrorAs(t, got, &apiErr)
	require.Equal(t, 502, apiErr.Details["provider_status"])
	require.Equal(t, "bad gateway", apiErr.Details["provider_body"])
}

func TestNormalize404WithoutResourceFallsThrough(t *testing.T) {
	got := normalize(&googleapi.Error{Code: 404, Body: "not found"}, nil)

	var apiErr *apierror.Error
	require.ErrorAs(t, got, &apiErr)
	require.Equal(t, apierror.CodeProvider, apiErr.Code)
}
