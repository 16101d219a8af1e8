package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
	"github.com/Dipk2003/itm-portal-gateway/internal/ports"
	"github.com/Dipk2003/itm-portal-gateway/internal/service"
)

// SessionAPI defines the session service operations the handlers use.
type SessionAPI interface {
	Login(ctx context.Context, contextID string, creds domainauth.Credentials) (domainauth.Session, error)
	RegisterBuyer(ctx context.Context, contextID string, in domainauth.BuyerRegistration) (domainauth.Session, error)
	RegisterVendor(ctx context.Context, contextID string, in domainauth.VendorRegistration) (domainauth.Session, error)
	VerifyOTP(ctx context.Context, contextID string, in ports.OTPVerification) (domainauth.Session, error)
	Logout(ctx context.Context, contextID string) error
	Rehydrate(ctx context.Context, contextID string) (domainauth.Session, error)
	BeginStaffLogin(ctx context.Context, redirectURL string) (*service.StaffLoginStart, error)
	CompleteStaffLogin(ctx context.Context, contextID string, in service.CompleteStaffLoginInput) (domainauth.Session, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          SessionAPI
	CookieDomain string
	SSORedirect  string // absolute callback URL registered with the SSO tenant
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Register handles buyer registration.
// POST /auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var in domainauth.BuyerRegistration
	if !DecodeJSON(w, r, &in) {
		return
	}

	sess, err := h.Svc.RegisterBuyer(r.Context(), GetContextID(r.Context()), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sessionPayload(sess))
}

// RegisterVendor handles vendor registration with business details.
// POST /auth/vendor/register.
func (h *AuthHandlers) RegisterVendor(w http.ResponseWriter, r *http.Request) {
	var in domainauth.VendorRegistration
	if !DecodeJSON(w, r, &in) {
		return
	}

	sess, err := h.Svc.RegisterVendor(r.Context(), GetContextID(r.Context()), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sessionPayload(sess))
}

// Login handles credential submission for buyers and vendors.
// POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds domainauth.Credentials
	if !DecodeJSON(w, r, &creds) {
		return
	}

	sess, err := h.Svc.Login(r.Context(), GetContextID(r.Context()), creds)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sessionPayload(sess))
}

// VerifyOTP answers a pending two-factor challenge.
// POST /auth/verify-otp.
func (h *AuthHandlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Identifier string `json:"identifier"`
		OTP        string `json:"otp"`
	}
	if !DecodeJSON(w, r, &in) {
		return
	}

	sess, err := h.Svc.VerifyOTP(r.Context(), GetContextID(r.Context()), ports.OTPVerification{
		Identifier: in.Identifier,
		Code:       in.OTP,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sessionPayload(sess))
}

// Logout tears down the current session.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	contextID := GetContextID(r.Context())
	if contextID != "" {
		if err := h.Svc.Logout(r.Context(), contextID); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
			h.writeServiceError(w, r, err)
			return
		}
	}

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Session returns the current authentication status.
// GET /auth/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	contextID := GetContextID(r.Context())
	if contextID == "" {
		WriteJSON(w, http.StatusOK, sessionPayload(domainauth.Session{}))
		return
	}

	sess, err := h.Svc.Rehydrate(r.Context(), contextID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sessionPayload(sess))
}

// LoginInfo tells navigating browsers how to sign in; the gateway itself
// serves no login page.
// GET /auth/login.
func (h *AuthHandlers) LoginInfo(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusUnauthorized, map[string]any{
		"error":        "authentication_required",
		"message":      "sign in with credentials or staff single sign-on",
		"login":        "POST /auth/login",
		"sso_login":    "GET /auth/sso/login",
		"redirect_uri": safeRedirectPath(r.URL.Query().Get("redirect_uri")),
	})
}

// SSOLogin initiates the staff SSO flow.
// GET /auth/sso/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) SSOLogin(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginStaffLogin(r.Context(), h.ssoRedirectURL(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.setSSOCookies(w, r, ssoCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// SSOCallback completes the staff SSO flow.
// GET /auth/sso/callback?code=<code>&state=<state>.
func (h *AuthHandlers) SSOCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie("sso_state")
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie("sso_nonce")
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	sess, err := h.Svc.CompleteStaffLogin(r.Context(), GetContextID(r.Context()), service.CompleteStaffLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.clearCookie(w, r, "sso_state")
	h.clearCookie(w, r, "sso_nonce")

	redirectURI := h.postLoginRedirect(w, r)
	if redirectURI == "/" && sess.Principal != nil {
		redirectURI = "/portal/" + string(sess.Principal.Role) + "/"
	}
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// writeServiceError maps the application error taxonomy to HTTP responses.
func (h *AuthHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperrors.IsValidation(err):
		WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "validation",
			"field":   apperrors.GetField(err),
			"message": err.Error(),
		})
	case apperrors.IsAuthRejected(err):
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "auth_rejected", Err: err})
	case apperrors.IsNetwork(err):
		w.Header().Set("Retry-After", "5")
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "backend_unreachable", Err: err})
	case apperrors.IsStorageUnavailable(err):
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "storage_unavailable", Err: err})
	default:
		h.logger().ErrorContext(r.Context(), "auth operation failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: errors.New("internal error")})
	}
}

// sessionPayload is the wire shape for session status responses.
func sessionPayload(sess domainauth.Session) map[string]any {
	out := map[string]any{
		"authenticated": sess.Authenticated,
	}
	if sess.Stage != domainauth.StageNone {
		out["stage"] = string(sess.Stage)
	}
	if sess.Principal != nil {
		out["user"] = sess.Principal
		out["expires_at"] = sess.ExpiresAt
	}
	return out
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

// ssoRedirectURL returns the absolute callback URL for the SSO exchange.
func (h *AuthHandlers) ssoRedirectURL(r *http.Request) string {
	if h.SSORedirect != "" {
		return h.SSORedirect
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/auth/sso/callback"
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// ssoCookieParams groups values for the temporary SSO flow cookies.
type ssoCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setSSOCookies stores SSO state, nonce, and the post-login redirect in secure cookies.
func (h *AuthHandlers) setSSOCookies(w http.ResponseWriter, r *http.Request, p ssoCookieParams) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")

	for name, value := range map[string]string{
		"sso_state":           p.State,
		"sso_nonce":           p.Nonce,
		"post_login_redirect": p.RedirectURI,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Domain:   h.CookieDomain,
			HttpOnly: true,
			Secure:   isSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   600, // 10 minutes
		})
	}
}

// postLoginRedirect returns the post-login redirect URL and clears the cookie.
func (h *AuthHandlers) postLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if redirectCookie, err := r.Cookie("post_login_redirect"); err == nil {
		redirectURI = safeRedirectPath(redirectCookie.Value)
		h.clearCookie(w, r, "post_login_redirect")
	}
	return redirectURI
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(candidate, "//") {
		return "/"
	}
	return candidate
}
