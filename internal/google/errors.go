package google

import (
	"context"
	"errors"
	"log"
	"net"

	"google.golang.org/api/googleapi"

	"github.com/mailbridge/mailbridge/internal/apierror"
)

// normalize maps a raw Google API error into the service's error vocabulary.
// Provider-reported failures (structured status) are distinguished from
// transport failures (timeout vs. connection). notFound is the
// resource-specific 404 error for the operation, or nil when the operation has
// no addressable resource.
//
//	401              -> INVALID_TOKEN
//	403              -> AUTHORIZATION_ERROR
//	404              -> notFound (resource-specific)
//	429              -> GMAIL_QUOTA_EXCEEDED
//	other non-2xx    -> GMAIL_API_ERROR (raw status + body)
//	network timeout  -> EXTERNAL_SERVICE_TIMEOUT
//	connection error -> EXTERNAL_SERVICE_ERROR
func normalize(err error, notFound error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401:
			return apierror.InvalidToken()
		case 403:
			return apierror.Authorization()
		case 404:
			if notFound != nil {
				return notFound
			}
			return apierror.Provider(gerr.Code, gerr.Body)
		case 429:
			return apierror.QuotaExceeded()
		default:
			return apierror.Provider(gerr.Code, gerr.Body)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierror.ExternalTimeout("google")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apierror.ExternalTimeout("google")
	}

	return apierror.ExternalService("google")
}

// wrap normalizes and logs a failed call. Only the operation name and the
// normalized outcome are logged; token values never appear.
func wrap(op string, notFound error, err error) error {
	if err == nil {
		return nil
	}
	norm := normalize(err, notFound)
	log.Printf("google: %s failed: %v", op, norm)
	return norm
}
