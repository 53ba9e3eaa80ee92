// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
)

// NetworkKind names the transport-level failure behind a NetworkError.
type NetworkKind string

const (
	KindTimeout     NetworkKind = "timeout"
	KindConnReset   NetworkKind = "connection_reset"
	KindConnRefused NetworkKind = "connection_refused"
	KindDNS         NetworkKind = "dns"
	KindOther       NetworkKind = "network"
)

// RateLimited is an upstream 429. Hint carries whatever wait information the
// response headers supplied.
type RateLimited struct {
	Status int
	Hint   RateLimitHint
	Err    error
}

func (e *RateLimited) Error() string {
	msg := fmt.Sprintf("rate limited (HTTP %d)", e.status())
	if e.Hint.RetryAfter > 0 {
		msg += fmt.Sprintf(", retry after %v", e.Hint.RetryAfter)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RateLimited) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status, 429 unless the service used another code.
func (e *RateLimited) StatusCode() int { return e.status() }

func (e *RateLimited) status() int {
	if e.Status == 0 {
		return http.StatusTooManyRequests
	}
	return e.Status
}

// ServerError is an upstream 5xx.
type ServerError struct {
	Status int
	Err    error
}

func (e *ServerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("server error (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("server error (HTTP %d)", e.Status)
}

func (e *ServerError) Unwrap() error   { return e.Err }
func (e *ServerError) StatusCode() int { return e.Status }

// ClientError is an upstream 4xx other than 429.
type ClientError struct {
	Status int
	Err    error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client error (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("client error (HTTP %d)", e.Status)
}

func (e *ClientError) Unwrap() error   { return e.Err }
func (e *ClientError) StatusCode() int { return e.Status }

// NetworkError is a transport failure with no HTTP status.
type NetworkError struct {
	Kind NetworkKind
	Err  error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network error (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("network error (%s)", e.Kind)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// FromResponse builds the error variant for an HTTP status. It returns nil
// for anything below 400. body is included in the message when non-empty.
func FromResponse(status int, header http.Header, body string) error {
	if status < 400 {
		return nil
	}
	var cause error
	if body != "" {
		cause = errors.New(body)
	}
	switch {
	case status == http.StatusTooManyRequests:
		return &RateLimited{Status: status, Hint: ParseRateLimitHeaders(header, now()), Err: cause}
	case status >= 500:
		return &ServerError{Status: status, Err: cause}
	default:
		return &ClientError{Status: status, Err: cause}
	}
}

// Classify maps a transport-level error onto one of the variants. Errors
// that already are variants pass through, as do errors that are not
// recognizably network failures (those are never retried).
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		rl *RateLimited
		se *ServerError
		ce *ClientError
		ne *NetworkError
	)
	if errors.As(err, &rl) || errors.As(err, &se) || errors.As(err, &ce) || errors.As(err, &ne) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if kind, ok := networkKind(err); ok {
		return &NetworkError{Kind: kind, Err: err}
	}
	return err
}

func networkKind(err error) (NetworkKind, bool) {
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout, true
	case errors.As(err, &dnsErr):
		return KindDNS, true
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF):
		return KindConnReset, true
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindConnRefused, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout, true
		}
		return KindOther, true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindOther, true
	}
	return "", false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// IsTransient reports whether err would be retried under the default policy.
func IsTransient(err error) bool {
	return DefaultPolicy().Retryable(Classify(err))
}

// IsPermanent reports whether err is an upstream client error that the
// default policy does not retry.
func IsPermanent(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && !DefaultPolicy().Retryable(err)
}
