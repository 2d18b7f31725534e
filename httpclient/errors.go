package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed sidecar call.
type Kind string

const (
	KindTimeout    Kind = "timeout"
	KindConnection Kind = "connection"
	// KindRejected covers 4xx answers other than 404 and requests that could
	// not be built.
	KindRejected Kind = "rejected"
	KindNotFound Kind = "not_found"
	KindServer   Kind = "server"
)

// maxBodyInMessage caps how much of a sidecar error body ends up in Error().
const maxBodyInMessage = 256

// Error is returned by Client.Do for transport failures and non-2xx answers.
type Error struct {
	Kind Kind
	// StatusCode is zero when no response arrived.
	StatusCode int
	Message    string
	// Body is the full response body of a non-2xx answer.
	Body []byte
	Err  error

	retryable bool
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Temporary reports whether sending the same request again may succeed.
func (e *Error) Temporary() bool { return e.retryable }

// transportError classifies a failure of http.Client.Do.
func transportError(ctx context.Context, err error) *Error {
	var te interface{ Timeout() bool }
	if ctx.Err() != nil || (errors.As(err, &te) && te.Timeout()) {
		return &Error{Kind: KindTimeout, Message: err.Error(), Err: err, retryable: true}
	}
	return &Error{Kind: KindConnection, Message: err.Error(), Err: err, retryable: true}
}

func rejected(format string, args ...any) *Error {
	return &Error{Kind: KindRejected, Message: fmt.Sprintf(format, args...)}
}

// statusError classifies a response status. It returns nil for 2xx. The
// message carries the start of the body, where sidecars put the reason.
func statusError(status int, body []byte) *Error {
	if status >= 200 && status < 300 {
		return nil
	}
	e := &Error{StatusCode: status, Body: body, Message: bodyMessage(status, body)}
	switch {
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		e.Kind, e.retryable = KindRejected, true
	case status >= 400 && status < 500:
		e.Kind = KindRejected
	default:
		e.Kind = KindServer
		e.retryable = status >= 500 && status != http.StatusNotImplemented
	}
	return e
}

func bodyMessage(status int, body []byte) string {
	switch {
	case len(body) == 0:
		return http.StatusText(status)
	case len(body) > maxBodyInMessage:
		return string(body[:maxBodyInMessage]) + "..."
	default:
		return string(body)
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsRetryable reports whether err carries a temporary *Error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.retryable
}
