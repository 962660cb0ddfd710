package collector

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sony/gobreaker"
)

var (
	// ErrEmptyPayload means the response had no usable `data` array.
	ErrEmptyPayload = errors.New("empty or missing data array")
	// ErrMalformed means the payload could not be decoded.
	ErrMalformed = errors.New("malformed payload")
	// ErrRateLimited means the local limiter refused the request.
	ErrRateLimited = errors.New("primary feed rate limited")
)

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
}

// Fallback reasons reported to OnFallback and in logs.
const (
	ReasonTimeout     = "timeout"
	ReasonBreakerOpen = "breaker_open"
	ReasonRateLimited = "rate_limited"
	ReasonHTTPStatus  = "http_status"
	ReasonDecode      = "decode"
	ReasonEmpty       = "empty"
	ReasonTransport   = "transport"
)

// classify maps a primary-fetch error to a fallback reason.
func classify(err error) string {
	var se *StatusError
	var ne net.Error
	switch {
	case errors.Is(err, ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ReasonBreakerOpen
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &ne) && ne.Timeout():
		return ReasonTimeout
	case errors.As(err, &se):
		return ReasonHTTPStatus
	case errors.Is(err, ErrEmptyPayload):
		return ReasonEmpty
	case errors.Is(err, ErrMalformed):
		return ReasonDecode
	default:
		return ReasonTransport
	}
}
