package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
)

// ContextCookieName identifies the browser context. Every token partition
// and cached session is scoped to its value.
const ContextCookieName = "itm_ctx"

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// BrowserContext returns a middleware that assigns each browser a stable
// context ID cookie. The ID is generated once and carried on every
// subsequent request.
func BrowserContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contextID := ""
			if c, err := r.Cookie(ContextCookieName); err == nil && c.Value != "" {
				if _, parseErr := uuid.Parse(c.Value); parseErr == nil {
					contextID = c.Value
				}
			}
			if contextID == "" {
				contextID = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     ContextCookieName,
					Value:    contextID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				})
			}
			ctx := SetContextID(r.Context(), contextID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionResolver restores the session for a browser context.
type SessionResolver interface {
	Rehydrate(ctx context.Context, contextID string) (domainauth.Session, error)
}

// ResolveSession returns a middleware that rehydrates the context's session
// and stores it in the request context. An unreachable backend answers 503
// with Retry-After rather than treating the visitor as signed out.
func ResolveSession(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contextID := GetContextID(r.Context())
			if contextID == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := resolver.Rehydrate(r.Context(), contextID)
			if err != nil {
				if apperrors.IsNetwork(err) {
					logger.WarnContext(r.Context(), "session resolution: backend unreachable", "error", err)
					w.Header().Set("Retry-After", "5")
					WriteError(w, ErrorParams{
						Code:    http.StatusServiceUnavailable,
						ErrCode: "backend_unreachable",
						Err:     errors.New("session could not be verified, try again"),
					})
					return
				}
				logger.ErrorContext(r.Context(), "session resolution failed", "error", err)
				WriteError(w, ErrorParams{
					Code:    http.StatusServiceUnavailable,
					ErrCode: "session_unavailable",
					Err:     errors.New("session storage is unavailable"),
				})
				return
			}

			ctx := SetSessionInContext(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles returns a middleware that admits only authenticated sessions
// whose role is in the allowed set. An empty set admits any authenticated
// session. API requests get 401/403 JSON; browser requests are redirected
// to the login page on 401. A session still being resolved answers 503,
// never a redirect.
func RequireRoles(allowed ...domainauth.Role) func(http.Handler) http.Handler {
	req := domainauth.GuardRequirement{Allowed: allowed}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, resolved := GetSessionFromContext(r.Context())

			switch domainauth.EvaluateGuard(resolved, sess, req) {
			case domainauth.GuardAuthorized:
				next.ServeHTTP(w, r)
			case domainauth.GuardForbidden:
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
			case domainauth.GuardLoading:
				// Resolution has not completed; neither admit nor redirect.
				w.Header().Set("Retry-After", "5")
				WriteError(w, ErrorParams{
					Code:    http.StatusServiceUnavailable,
					ErrCode: "session_pending",
					Err:     errors.New("session is still being resolved"),
				})
			case domainauth.GuardUnauthenticated:
				if isBrowserRequest(r) {
					redirectToLogin(w, r)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
			}
		})
	}
}

// isBrowserRequest reports whether the request came from a navigating
// browser rather than an API client. API routes and JSON-preferring clients
// get JSON errors.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}
	return strings.Contains(accept, "text/html")
}

// redirectToLogin sends browser requests to the login page with the current
// URL as redirect_uri.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectPath := safeRedirectPath(r.URL.RequestURI())
	loginURL := "/auth/login?redirect_uri=" + url.QueryEscape(redirectPath)
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}
