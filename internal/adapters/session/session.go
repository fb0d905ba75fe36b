// Package session verifies the bearer tokens minted by the web app's auth layer
//
// Tokens are HS256 JWTs: sub carries the user id, tier the billing tier (FREE, PRO, UNLIMITED).
package session

import (
	"errors"
	"strings"
	"time"

	perr "quickgithub/internal/platform/errors"
	pstrings "quickgithub/internal/platform/strings"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTier applies when a token carries no tier claim
const DefaultTier = "FREE"

// Claims is the token payload
type Claims struct {
	Tier string `json:"tier,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks tokens and knows the admin set
type Verifier struct {
	secret []byte
	admins map[string]struct{}
	now    func() time.Time
}

// New panics on an empty secret
func New(secret string, adminIDs []string) *Verifier {
	secret = pstrings.MustString(secret, "session secret")
	return &Verifier{
		secret: []byte(secret),
		admins: pstrings.Set(adminIDs...),
		now:    time.Now,
	}
}

// Parse verifies raw and returns the user id and upper-cased tier
func (v *Verifier) Parse(raw string) (userID, tier string, err error) {
	var c Claims
	tok, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", perr.Wrap(err, perr.ErrorCodeUnauthorized, "token expired")
		}
		return "", "", perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid token")
	}
	if !tok.Valid || strings.TrimSpace(c.Subject) == "" {
		return "", "", perr.Unauthorizedf("token has no subject")
	}
	tier = strings.ToUpper(strings.TrimSpace(c.Tier))
	if tier == "" {
		tier = DefaultTier
	}
	return c.Subject, tier, nil
}

// IsAdmin reports whether userID is in the configured admin set
func (v *Verifier) IsAdmin(userID string) bool {
	_, ok := v.admins[userID]
	return ok
}

// Issue signs a token for userID; used by tests and local tooling
func (v *Verifier) Issue(userID, tier string, ttl time.Duration) (string, error) {
	now := v.now()
	c := Claims{
		Tier: tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
