package server

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mailbridge/mailbridge/internal/apierror"
)

const requestIDKey = "request_id"

// errorBody is the standardized error envelope returned on every failure.
type errorBody struct {
	Message    string         `json:"message"`
	Code       string         `json:"code"`
	StatusCode int            `json:"status_code"`
	Timestamp  string         `json:"timestamp"`
	RequestID  string         `json:"request_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// RequestID tags each request with a unique id, echoed in error envelopes and
// the X-Request-ID header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Errors renders the last recorded error as the standardized envelope.
// Unrecognized faults are logged with full context but returned sanitized.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		apiErr := apierror.From(err)
		if apiErr.Code == apierror.CodeInternal {
			log.Printf("server: unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		writeError(c, apiErr)
	}
}

// Recovery converts panics into a sanitized 500 envelope so no request exits
// without a response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("server: panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		writeError(c, apierror.Internal())
	})
}

func writeError(c *gin.Context, apiErr *apierror.Error) {
	c.JSON(apiErr.Status, errorEnvelope{
		Error: errorBody{
			Message:    apiErr.Message,
			Code:       apiErr.Code,
			StatusCode: apiErr.Status,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			RequestID:  c.GetString(requestIDKey),
			Details:    apiErr.Details,
		},
	})
}
