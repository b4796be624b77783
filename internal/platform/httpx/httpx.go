package httpx

import (
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError preserves the status and body of a non-2xx upstream response so
// callers can decide whether the call is worth retrying.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512]
	}
	return "upstream status " + strconv.Itoa(e.StatusCode) + ": " + body
}

// IsRetryableStatus reports whether a status code indicates a transient
// upstream condition.
func IsRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusConflict,
		http.StatusTooEarly,
		http.StatusTooManyRequests:
		return true
	}
	return status >= 500
}

// IsRetryableError reports whether err represents a transient failure:
// retryable upstream statuses, timeouts, and temporary network errors.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return IsRetryableStatus(se.StatusCode)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF")
}

// RetryAfterDuration honors an upstream Retry-After header when present,
// falling back to zero when it is absent or unparseable.
func RetryAfterDuration(err error) time.Duration {
	var se *StatusError
	if !errors.As(err, &se) || se.RetryAfter == "" {
		return 0
	}
	if secs, perr := strconv.Atoi(strings.TrimSpace(se.RetryAfter)); perr == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, perr := http.ParseTime(se.RetryAfter); perr == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// Backoff returns the exponential backoff delay for the given attempt with
// jitter applied, capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	d := base << uint(attempt)
	if max > 0 && d > max {
		d = max
	}
	jitter := time.Duration(rand.Int63n(int64(d)/2 + 1))
	return d/2 + jitter
}
