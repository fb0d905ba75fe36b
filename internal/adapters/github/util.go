package github

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	perr "quickgithub/internal/platform/errors"
	pstrings "quickgithub/internal/platform/strings"
)

// StatusError wraps a non-success GitHub response that survived every retry
type StatusError struct {
	Status int
	Body   string
	Err    error
}

func newStatusError(status int, body string) *StatusError {
	code := perr.ErrorCodeBadGateway
	if status == http.StatusTooManyRequests || status == http.StatusForbidden {
		code = perr.ErrorCodeTooManyRequests
	}
	return &StatusError{
		Status: status,
		Body:   body,
		Err:    perr.New(code, fmt.Sprintf("github status %d", status)),
	}
}

// Error interface
func (e *StatusError) Error() string { return e.Err.Error() }

// Unwrap interface
func (e *StatusError) Unwrap() error { return e.Err }

// HTTPStatus returns the upstream status code
func (e *StatusError) HTTPStatus() int { return e.Status }

func parseRateHeaders(h http.Header) (remaining int, reset time.Time, retryAfter int) {
	remaining = -1
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		remaining = pstrings.Atoi(v)
	}
	if sec := pstrings.Atoi(h.Get("X-RateLimit-Reset")); sec > 0 {
		reset = time.Unix(int64(sec), 0).UTC()
	}
	retryAfter = pstrings.Atoi(h.Get("Retry-After"))
	return
}

// isRateLimitResponse separates primary/secondary rate limits from a plain 403 (private repo, blocked)
func isRateLimitResponse(resp *http.Response, remaining, retryAfter int) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return remaining == 0 || retryAfter > 0
	}
	return false
}

func isTransientStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// computeWait decides how long to wait based on headers
func computeWait(remaining int, reset time.Time, retryAfter int, now time.Time) time.Duration {
	if retryAfter > 0 {
		return time.Duration(retryAfter) * time.Second
	}
	if remaining == 0 && !reset.IsZero() && reset.After(now) {
		return reset.Sub(now)
	}
	return 0
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}

// IsRateLimited reports whether err is a StatusError for a rate limited response
func IsRateLimited(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == http.StatusTooManyRequests || se.Status == http.StatusForbidden
	}
	return false
}

// IsTransient reports whether err is a StatusError with a 5xx status
func IsTransient(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && isTransientStatus(se.Status)
}
