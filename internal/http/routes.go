package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions     SessionAPI
	Audit        AuditLister // optional, enables the admin auth-events view
	Portal       *url.URL    // optional upstream the portal trees proxy to
	CookieDomain string
	SSORedirect  string
	Logger       *slog.Logger
}

// NewRouter creates and configures the gateway's HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Sessions,
		CookieDomain: services.CookieDomain,
		SSORedirect:  services.SSORedirect,
		Logger:       logger,
	}
	registerAuthRoutes(mux, authHandlers)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	portalHandlers := &PortalHandlers{
		Upstream: services.Portal,
		Audit:    services.Audit,
		Logger:   logger,
	}
	registerPortalRoutes(mux, portalHandlers, services.Sessions, logger)

	return BrowserContext()(mux)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/vendor/register", h.RegisterVendor)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/verify-otp", h.VerifyOTP)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/session", h.Session)
	mux.HandleFunc("GET /auth/sso/login", h.SSOLogin)
	mux.HandleFunc("GET /auth/sso/callback", h.SSOCallback)

	// The gateway serves no login page of its own; browsers landing here get
	// pointed at the credential and SSO endpoints.
	mux.HandleFunc("GET /auth/login", h.LoginInfo)
}

// registerPortalRoutes wires the role-partitioned portal trees. Every tree
// resolves the session first and then applies its role guard. Admins may
// enter any staff tree.
func registerPortalRoutes(mux *http.ServeMux, h *PortalHandlers, sessions SessionAPI, logger *slog.Logger) {
	resolve := ResolveSession(sessionResolverFunc(sessions.Rehydrate), logger)
	guard := func(roles ...domainauth.Role) func(http.Handler) http.Handler {
		requireRoles := RequireRoles(roles...)
		return func(next http.Handler) http.Handler {
			return resolve(requireRoles(next))
		}
	}

	mux.Handle("/portal/buyer/", guard(domainauth.RoleBuyer)(h.Tree(domainauth.RoleBuyer)))
	mux.Handle("/portal/vendor/", guard(domainauth.RoleVendor)(h.Tree(domainauth.RoleVendor)))
	mux.Handle("/portal/admin/", guard(domainauth.RoleAdmin)(h.Tree(domainauth.RoleAdmin)))
	mux.Handle("/portal/support/", guard(domainauth.RoleSupport, domainauth.RoleAdmin)(h.Tree(domainauth.RoleSupport)))
	mux.Handle("/portal/cto/", guard(domainauth.RoleCTO, domainauth.RoleAdmin)(h.Tree(domainauth.RoleCTO)))
	mux.Handle("/portal/data-entry/", guard(domainauth.RoleDataEntry, domainauth.RoleAdmin)(h.Tree(domainauth.RoleDataEntry)))

	if h.Audit != nil {
		mux.Handle("GET /portal/admin/auth-events",
			guard(domainauth.RoleAdmin)(http.HandlerFunc(h.AuthEvents)))
	}
}

// sessionResolverFunc adapts a rehydrate function to the SessionResolver
// interface.
type sessionResolverFunc func(ctx context.Context, contextID string) (domainauth.Session, error)

func (f sessionResolverFunc) Rehydrate(ctx context.Context, contextID string) (domainauth.Session, error) {
	return f(ctx, contextID)
}
