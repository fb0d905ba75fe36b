// Package github is a small GitHub REST v3 client used to confirm a repository exists before indexing
package github

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	perr "quickgithub/internal/platform/errors"
	"quickgithub/internal/platform/logger"
	pstrings "quickgithub/internal/platform/strings"
)

const (
	baseURLDefault   = "https://api.github.com"
	defaultTimeout   = 5 * time.Second
	defaultUA        = "QuickGitHub"
	defaultMaxRetry  = 2
	defaultRetryBase = 250 * time.Millisecond
	maxBackoff       = 5 * time.Second
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	// Timeout bounds a whole call including retries
	Timeout time.Duration

	// Comma separated tokens; empty means anonymous (60 req/h per IP)
	TokensCSV string

	MaxRetries int
	RetryBase  time.Duration
}

// Client is a minimal GitHub REST client with token rotation and bounded retries
type Client struct {
	http   *http.Client
	opts   Options
	tokens []string
	cur    atomic.Int32
	log    logger.Logger
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:   &http.Client{Timeout: o.Timeout},
		opts:   o,
		tokens: pstrings.SplitCSV(o.TokensCSV),
		log:    *logger.Named("github"),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// getToken returns the next token in a round robin rotation
func (c *Client) getToken() string {
	n := int(c.cur.Add(1))
	if len(c.tokens) == 0 {
		return ""
	}
	return c.tokens[n%len(c.tokens)]
}

// Do issues a request with auth headers, retries and rate limit handling
// Any response that is not retried (2xx, 3xx, 4xx other than rate limits) is returned to the caller,
// who owns the body. Exhausted retries come back as a *StatusError or a transport error.
func (c *Client) Do(ctx context.Context, method, path string) (*http.Response, error) {
	url := c.opts.BaseURL + path
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "github request cancelled")
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "github new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/vnd.github+json")
		if tok := c.getToken(); tok != "" {
			req.Header.Set("Authorization", "token "+tok)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if attempt >= c.opts.MaxRetries {
				return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "github do failed")
			}
			back := c.backoff(attempt)
			c.log.Warn().Err(err).Dur("retry_in", back).Int("attempt", attempt).Msg("github transport error retrying")
			if err := c.sleep(ctx, back); err != nil {
				return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "github retry cancelled")
			}
			continue
		}

		rem, reset, retryAfter := parseRateHeaders(resp.Header)
		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempt).
			Dur("latency", lat).
			Int("rate_remaining", rem).
			Int("retry_after_s", retryAfter).
			Msg("github http response")

		var wait time.Duration
		switch {
		case isRateLimitResponse(resp, rem, retryAfter):
			wait = computeWait(rem, reset, retryAfter, c.now())
			if wait <= 0 {
				wait = c.backoff(attempt)
			}
		case isTransientStatus(resp.StatusCode):
			wait = c.backoff(attempt)
		default:
			return resp, nil
		}

		if attempt >= c.opts.MaxRetries || !fitsDeadline(ctx, c.now(), wait) {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return nil, newStatusError(resp.StatusCode, string(body))
		}
		c.log.Warn().Int("status", resp.StatusCode).Dur("retry_in", wait).Msg("github backing off")
		_ = drainAndClose(resp.Body)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "github retry cancelled")
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

// fitsDeadline reports whether waiting d still leaves time before ctx expires
func fitsDeadline(ctx context.Context, now time.Time, d time.Duration) bool {
	dl, ok := ctx.Deadline()
	return !ok || now.Add(d).Before(dl)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
