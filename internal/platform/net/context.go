// Package net carries request-scoped identity on contexts and builds transport envelopes
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const (
	keyUserID   ctxKey = "user_id"
	keyTier     ctxKey = "tier"
	keyClientIP ctxKey = "client_ip"
)

// WithRequest stores the request id where chimw.GetReqID can find it
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, reqID)
}

// WithUser annotates ctx with the authenticated user id and, when known, the session tier
func WithUser(ctx context.Context, userID, tier string) context.Context {
	if userID != "" {
		ctx = context.WithValue(ctx, keyUserID, userID)
	}
	if tier != "" {
		ctx = context.WithValue(ctx, keyTier, tier)
	}
	return ctx
}

// WithClientIP records the caller address used for rate limiting
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, keyClientIP, ip)
}

// RequestID returns the request id, if any
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// UserID returns the authenticated user id, if any
func UserID(ctx context.Context) string { return str(ctx, keyUserID) }

// Tier returns the tier claimed by the session token, if any
// The ledger stays authoritative for quota decisions
func Tier(ctx context.Context) string { return str(ctx, keyTier) }

// ClientIP returns the caller address, if recorded
func ClientIP(ctx context.Context) string { return str(ctx, keyClientIP) }

func str(ctx context.Context, k ctxKey) string {
	if v, ok := ctx.Value(k).(string); ok {
		return v
	}
	return ""
}
