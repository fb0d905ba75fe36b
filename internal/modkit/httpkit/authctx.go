package httpkit

import (
	"net/http"
	"strings"

	perrs "quickgithub/internal/platform/errors"
	pnet "quickgithub/internal/platform/net"
)

// User returns the authenticated user id and tier from the request context
func User(r *http.Request) (id, tier string, err error) {
	uid := pnet.UserID(r.Context())
	if uid == "" {
		return "", "", perrs.Unauthorizedf("Unauthorized")
	}
	return uid, pnet.Tier(r.Context()), nil
}

// JWT returns the raw bearer token from the Authorization header
func JWT(r *http.Request) (string, error) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(authz) < len(prefix) || strings.ToLower(authz[:len(prefix)]) != prefix {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(authz[len(prefix):])
	if raw == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}
