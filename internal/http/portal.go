package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"github.com/Dipk2003/itm-portal-gateway/internal/data"
	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
)

// AuditLister exposes the audit trail for the admin portal.
type AuditLister interface {
	ListRecent(ctx context.Context, opts data.AuthEventListOptions) ([]domainauth.AuthEvent, error)
}

// PortalHandlers serves the role-partitioned portal trees. With an upstream
// configured, requests are reverse-proxied to it; without one the gateway
// answers a JSON summary so API clients can confirm their portal access.
type PortalHandlers struct {
	Upstream *url.URL
	Audit    AuditLister
	Logger   *slog.Logger
}

// Tree returns the handler for one portal's subtree.
func (h *PortalHandlers) Tree(portal domainauth.Role) http.Handler {
	if h.Upstream != nil {
		proxy := httputil.NewSingleHostReverseProxy(h.Upstream)
		proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			h.logger().ErrorContext(r.Context(), "portal proxy failed",
				"portal", string(portal), "error", err)
			w.Header().Set("Retry-After", "5")
			http.Error(w, "portal upstream unavailable", http.StatusBadGateway)
		}
		return proxy
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := GetSessionFromContext(r.Context())
		payload := map[string]any{
			"portal": string(portal),
			"path":   r.URL.Path,
		}
		if sess.Principal != nil {
			payload["user"] = sess.Principal
		}
		WriteJSON(w, http.StatusOK, payload)
	})
}

// AuthEvents lists recent audit entries for administrators.
// GET /portal/admin/auth-events?context_id=&kind=&limit=.
func (h *PortalHandlers) AuthEvents(w http.ResponseWriter, r *http.Request) {
	opts := data.AuthEventListOptions{
		ContextID: r.URL.Query().Get("context_id"),
		Kind:      domainauth.AuthEventKind(r.URL.Query().Get("kind")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_limit",
				Err:     apperrors.ValidationField("limit", "limit must be a positive integer"),
			})
			return
		}
		opts.Limit = limit
	}

	events, err := h.Audit.ListRecent(r.Context(), opts)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "listing auth events failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal",
			Err:     apperrors.Internal("could not list auth events"),
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *PortalHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
