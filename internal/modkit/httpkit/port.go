package httpkit

import (
	"net/http"

	perrs "quickgithub/internal/platform/errors"
)

// TokenFunc verifies a bearer token and returns the user id and tier
type TokenFunc func(token string) (userID string, tier string, err error)

// Port implements middleware.AuthPort by reading Authorization and delegating to a TokenFunc
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from a parser function
func NewPortFunc(fn TokenFunc) *Port { return &Port{parse: fn} }

// Parse returns unauthorized when the header is missing or malformed, or the parser rejects the token
func (p *Port) Parse(r *http.Request) (string, string, error) {
	raw, err := JWT(r)
	if err != nil {
		return "", "", err
	}
	if p == nil || p.parse == nil {
		return "", "", perrs.Unauthorizedf("invalid bearer token")
	}
	uid, tier, err := p.parse(raw)
	if err != nil {
		return "", "", perrs.Wrap(err, perrs.ErrorCodeUnauthorized, "invalid bearer token")
	}
	return uid, tier, nil
}
