// Package transport sends built registry requests. Retry policy belongs to
// callers; a Transport makes exactly one attempt per Send.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"masseutsendelse/internal/matrikkel"
	dErrors "masseutsendelse/pkg/domain-errors"
)

// Transport executes a registry request and decodes the JSON response into
// out. A nil out discards the response body.
type Transport interface {
	Send(ctx context.Context, req *matrikkel.Request, out any) error
}

// Category is the normalized failure taxonomy for registry calls.
type Category string

const (
	// CategoryTimeout means the registry did not answer in time.
	CategoryTimeout Category = "timeout"

	// CategoryCanceled means the caller gave up before the registry answered.
	CategoryCanceled Category = "canceled"

	// CategoryOutage means the registry could not be reached or failed with 5xx.
	CategoryOutage Category = "outage"

	// CategoryAuthentication covers rejected API keys and client ids.
	CategoryAuthentication Category = "authentication"

	// CategoryRateLimited means the registry asked us to slow down.
	CategoryRateLimited Category = "rate_limited"

	// CategoryRejected means the registry refused the request as invalid.
	CategoryRejected Category = "rejected"

	// CategoryBadData means the response could not be decoded.
	CategoryBadData Category = "bad_data"

	CategoryInternal Category = "internal"
)

const upstreamTitle = "Kunne ikke hente data fra matrikkelen"

// Failure describes one failed registry call.
type Failure struct {
	Category   Category
	StatusCode int
	URL        string
	Err        error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("registry call %s failed [%s]", f.URL, f.Category)
	if f.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", f.StatusCode)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// fail wraps a Failure as an upstream domain error.
func fail(category Category, status int, url string, err error) error {
	failure := &Failure{Category: category, StatusCode: status, URL: url, Err: err}
	return &dErrors.Error{
		Code:    dErrors.CodeUpstream,
		Title:   upstreamTitle,
		Message: failureMessage(category, status),
		Err:     failure,
	}
}

func failureMessage(category Category, status int) string {
	switch category {
	case CategoryTimeout:
		return "Matrikkelen svarte ikke i tide"
	case CategoryCanceled:
		return "Forespørselen til matrikkelen ble avbrutt"
	case CategoryAuthentication:
		return "Matrikkelen avviste tilgangen"
	case CategoryRateLimited:
		return "Matrikkelen mottar for mange forespørsler, prøv igjen senere"
	case CategoryBadData:
		return "Matrikkelen returnerte data som ikke kunne leses"
	case CategoryRejected:
		return fmt.Sprintf("Matrikkelen avviste forespørselen (status %d)", status)
	default:
		if status != 0 {
			return fmt.Sprintf("Matrikkelen svarte med status %d", status)
		}
		return "Matrikkelen er ikke tilgjengelig"
	}
}

// CategoryOf extracts the failure category from err. Errors that did not
// come from a Transport report CategoryInternal.
func CategoryOf(err error) Category {
	var f *Failure
	if errors.As(err, &f) {
		return f.Category
	}
	return CategoryInternal
}

// categorizeStatus maps a non-2xx status code onto the taxonomy.
func categorizeStatus(status int) Category {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CategoryAuthentication
	case status == http.StatusTooManyRequests:
		return CategoryRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return CategoryTimeout
	case status >= http.StatusInternalServerError:
		return CategoryOutage
	default:
		return CategoryRejected
	}
}
