package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is wrapped by a DecodeError when a required field is absent from the payload.
	ErrMissingField = errors.New("missing required field")
	// ErrNegativeValue is wrapped by a DecodeError when a counter is negative.
	ErrNegativeValue = errors.New("negative counter value")
)

// Error kinds reported by Kind.
const (
	KindRequest = "request"
	KindDecode  = "decode"
	KindStatus  = "status"
	KindUnknown = "unknown"
)

// RequestError reports a transport failure: DNS, connect or read timeout, TLS, cancellation.
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("failed to send request at %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// DecodeError reports a response body that does not decode into RepositoryStats.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx answer from the GitHub API, such as a missing
// repository or an exhausted rate limit.
type StatusError struct {
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Message)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Kind classifies an error returned by Fetch.
func Kind(err error) string {
	var (
		requestErr *RequestError
		decodeErr  *DecodeError
		statusErr  *StatusError
	)
	switch {
	case errors.As(err, &requestErr):
		return KindRequest
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &statusErr):
		return KindStatus
	default:
		return KindUnknown
	}
}
