package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	perr "quickgithub/internal/platform/errors"
)

// Existence is the outcome of an upstream repository check
type Existence uint8

const (
	// Indeterminate means the answer could not be obtained (network, rate limit, 5xx)
	Indeterminate Existence = iota
	// Exists means GitHub answered 2xx for the repository
	Exists
	// NotFound means GitHub answered 404 (missing, or private to an anonymous caller)
	NotFound
)

func (e Existence) String() string {
	switch e {
	case Exists:
		return "exists"
	case NotFound:
		return "not_found"
	default:
		return "indeterminate"
	}
}

// Probe checks repository existence with a HEAD request
type Probe struct{ c *Client }

// NewProbe constructs a Probe using the given GitHub client
func NewProbe(c *Client) *Probe { return &Probe{c: c} }

// Exists performs HEAD /repos/{owner}/{repo} within the client timeout
// The error is only set for Indeterminate and is meant for logs
func (p *Probe) Exists(ctx context.Context, owner, repo string) (Existence, error) {
	ctx, cancel := context.WithTimeout(ctx, p.c.opts.Timeout)
	defer cancel()

	path := fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo))
	resp, err := p.c.Do(ctx, http.MethodHead, path)
	if err != nil {
		return Indeterminate, err
	}
	_ = drainAndClose(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Exists, nil
	case resp.StatusCode == http.StatusNotFound:
		return NotFound, nil
	default:
		return Indeterminate, perr.Newf(perr.ErrorCodeBadGateway, "github head status %d", resp.StatusCode)
	}
}
