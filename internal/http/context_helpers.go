package httpx

import (
	"context"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
)

// Unexported context key types to avoid collisions across packages.
// Centralized here so all handlers and middleware use the same keys.
type sessionKey struct{}

type contextIDKey struct{}

// SetContextID returns a child context carrying the browser context ID.
func SetContextID(ctx context.Context, contextID string) context.Context {
	if contextID == "" {
		return ctx
	}
	return context.WithValue(ctx, contextIDKey{}, contextID)
}

// GetContextID returns the browser context ID, or "" when the request did
// not pass through BrowserContext.
func GetContextID(ctx context.Context) string {
	if id, ok := ctx.Value(contextIDKey{}).(string); ok {
		return id
	}
	return ""
}

// SetSessionInContext returns a child context that carries the resolved
// session. The session may be empty; presence of the value means resolution
// ran.
func SetSessionInContext(ctx context.Context, sess domainauth.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// GetSessionFromContext returns the resolved session and whether resolution
// ran for this request.
func GetSessionFromContext(ctx context.Context) (domainauth.Session, bool) {
	if sess, ok := ctx.Value(sessionKey{}).(domainauth.Session); ok {
		return sess, true
	}
	return domainauth.Session{}, false
}
