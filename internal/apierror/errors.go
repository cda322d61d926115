// Package apierror defines the error vocabulary shared by every layer of the
// service. Each error carries a human message, an HTTP status, and a stable
// machine-readable code so clients can branch without string matching.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the single error type surfaced across API boundaries.
type Error struct {
	Message string         `json:"message"`
	Status  int            `json:"status_code"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Stable error codes.
const (
	CodeAuthExchange     = "AUTH_EXCHANGE_ERROR"
	CodeIdentityLookup   = "IDENTITY_LOOKUP_ERROR"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeAuthorization    = "AUTHORIZATION_ERROR"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeEmailNotFound    = "EMAIL_NOT_FOUND"
	CodeDraftNotFound    = "DRAFT_NOT_FOUND"
	CodeEventNotFound    = "CALENDAR_EVENT_NOT_FOUND"
	CodeQuotaExceeded    = "GMAIL_QUOTA_EXCEEDED"
	CodeProvider         = "GMAIL_API_ERROR"
	CodeExternalService  = "EXTERNAL_SERVICE_ERROR"
	CodeExternalTimeout  = "EXTERNAL_SERVICE_TIMEOUT"
	CodeEmailSync        = "EMAIL_SYNC_ERROR"
	CodeValidation       = "VALIDATION_ERROR"
	CodeIntegrity        = "INTEGRITY_ERROR"
	CodeDatabase         = "DATABASE_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
)

// AuthExchange reports a failed authorization-code redemption. Codes are
// single-use; a second redemption surfaces the provider's error unretried.
func AuthExchange(err error) *Error {
	return &Error{
		Message: "authorization code exchange failed",
		Status:  http.StatusBadRequest,
		Code:    CodeAuthExchange,
		Details: map[string]any{"cause": err.Error()},
	}
}

// IdentityLookup reports a failed userinfo resolution.
func IdentityLookup(err error) *Error {
	return &Error{
		Message: "failed to resolve authenticated identity",
		Status:  http.StatusBadRequest,
		Code:    CodeIdentityLookup,
		Details: map[string]any{"cause": err.Error()},
	}
}

// InvalidToken reports a 401 from the provider: the access token is invalid or
// expired and must be replaced through a new auth flow.
func InvalidToken() *Error {
	return &Error{
		Message: "access token is invalid or expired",
		Status:  http.StatusUnauthorized,
		Code:    CodeInvalidToken,
	}
}

// Authorization reports a 403 from the provider: permanent for this
// token/scope combination, not retryable.
func Authorization() *Error {
	return &Error{
		Message: "insufficient permissions for this operation",
		Status:  http.StatusForbidden,
		Code:    CodeAuthorization,
	}
}

func UserNotFound(email string) *Error {
	return &Error{
		Message: fmt.Sprintf("user with email %q not found", email),
		Status:  http.StatusNotFound,
		Code:    CodeUserNotFound,
	}
}

func EmailNotFound(id int64) *Error {
	return &Error{
		Message: fmt.Sprintf("email with id %d not found", id),
		Status:  http.StatusNotFound,
		Code:    CodeEmailNotFound,
	}
}

// MessageNotFound reports a remote message id the provider does not know.
func MessageNotFound(id string) *Error {
	return &Error{
		Message: fmt.Sprintf("message %q not found", id),
		Status:  http.StatusNotFound,
		Code:    CodeEmailNotFound,
	}
}

func DraftNotFound(id string) *Error {
	return &Error{
		Message: fmt.Sprintf("draft %q not found", id),
		Status:  http.StatusNotFound,
		Code:    CodeDraftNotFound,
	}
}

func EventNotFound(id string) *Error {
	return &Error{
		Message: fmt.Sprintf("calendar event %q not found", id),
		Status:  http.StatusNotFound,
		Code:    CodeEventNotFound,
	}
}

// QuotaExceeded reports a provider 429. Retryable after backoff, but no
// backoff is implemented here; the caller sees it immediately.
func QuotaExceeded() *Error {
	return &Error{
		Message: "provider API quota exceeded",
		Status:  http.StatusTooManyRequests,
		Code:    CodeQuotaExceeded,
	}
}

// Provider reports any other structured provider failure, carrying the raw
// status and body for diagnosis.
func Provider(status int, body string) *Error {
	return &Error{
		Message: "provider API error",
		Status:  http.StatusInternalServerError,
		Code:    CodeProvider,
		Details: map[string]any{"provider_status": status, "provider_body": body},
	}
}

// ExternalService reports a transport-level connection failure.
func ExternalService(service string) *Error {
	return &Error{
		Message: fmt.Sprintf("external service %q unreachable", service),
		Status:  http.StatusServiceUnavailable,
		Code:    CodeExternalService,
	}
}

// ExternalTimeout reports a transport-level timeout.
func ExternalTimeout(service string) *Error {
	return &Error{
		Message: fmt.Sprintf("external service %q timed out", service),
		Status:  http.StatusGatewayTimeout,
		Code:    CodeExternalTimeout,
	}
}

// SyncFailed wraps an error that aborted an email sync. The whole batch is
// rolled back; previously mirrored rows are unaffected.
func SyncFailed(err error) *Error {
	return &Error{
		Message: "failed to sync emails",
		Status:  http.StatusInternalServerError,
		Code:    CodeEmailSync,
		Details: map[string]any{"cause": err.Error()},
	}
}

func Validation(message string) *Error {
	return &Error{
		Message: message,
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
	}
}

// Integrity reports a storage unique-constraint violation, e.g. two concurrent
// syncs racing to insert the same message id.
func Integrity(err error) *Error {
	return &Error{
		Message: "storage integrity constraint violation",
		Status:  http.StatusConflict,
		Code:    CodeIntegrity,
		Details: map[string]any{"cause": err.Error()},
	}
}

func Database(err error) *Error {
	return &Error{
		Message: "database operation failed",
		Status:  http.StatusInternalServerError,
		Code:    CodeDatabase,
		Details: map[string]any{"cause": err.Error()},
	}
}

// Internal is the catch-all for unrecognized faults. The original cause is
// logged by the caller; the message returned to clients stays sanitized.
func Internal() *Error {
	return &Error{
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
	}
}

// From extracts an *Error from err, falling back to Internal for anything the
// taxonomy does not recognize.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal()
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code string) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
