package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dipk2003/itm-portal-gateway/internal/data"
	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
)

type stubAuditLister struct {
	events []domainauth.AuthEvent
	err    error

	gotOpts data.AuthEventListOptions
}

func (s *stubAuditLister) ListRecent(_ context.Context, opts data.AuthEventListOptions) ([]domainauth.AuthEvent, error) {
	s.gotOpts = opts
	return s.events, s.err
}

func TestPortalTree_SummaryMode(t *testing.T) {
	h := &PortalHandlers{Logger: testLogger()}

	req := httptest.NewRequest(http.MethodGet, "/portal/vendor/listings", nil)
	req = req.WithContext(SetSessionInContext(req.Context(), authedSession(domainauth.RoleVendor)))
	rec := httptest.NewRecorder()
	h.Tree(domainauth.RoleVendor).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "vendor", body["portal"])
	assert.Equal(t, "/portal/vendor/listings", body["path"])
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "vendor", user["role"])
}

func TestPortalTree_SummaryModeAnonymousOmitsUser(t *testing.T) {
	h := &PortalHandlers{Logger: testLogger()}

	rec := httptest.NewRecorder()
	h.Tree(domainauth.RoleBuyer).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portal/buyer/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decodeBody(t, rec), "user")
}

func TestPortalTree_ProxiesToUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "portal")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	u, err := url.Parse(upstream.URL)
	require.NoError(t, err)
	h := &PortalHandlers{Upstream: u, Logger: testLogger()}

	rec := httptest.NewRecorder()
	h.Tree(domainauth.RoleBuyer).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portal/buyer/orders", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "portal", rec.Header().Get("X-Upstream"))
}

func TestPortalTree_UnreachableUpstreamAnswers502(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL, err := url.Parse(dead.URL)
	require.NoError(t, err)
	dead.Close()

	h := &PortalHandlers{Upstream: deadURL, Logger: testLogger()}

	rec := httptest.NewRecorder()
	h.Tree(domainauth.RoleBuyer).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portal/buyer/", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
}

func TestAuthEvents_PassesFilters(t *testing.T) {
	audit := &stubAuditLister{events: []domainauth.AuthEvent{{
		ID:        "ev-1",
		ContextID: "ctx-1",
		Kind:      domainauth.EventLogin,
		Role:      domainauth.RoleBuyer,
		CreatedAt: time.Now(),
	}}}
	h := &PortalHandlers{Audit: audit, Logger: testLogger()}

	req := httptest.NewRequest(http.MethodGet, "/portal/admin/auth-events?context_id=ctx-1&kind=login&limit=10", nil)
	rec := httptest.NewRecorder()
	h.AuthEvents(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, data.AuthEventListOptions{
		ContextID: "ctx-1",
		Kind:      domainauth.EventLogin,
		Limit:     10,
	}, audit.gotOpts)

	body := decodeBody(t, rec)
	events, ok := body["events"].([]any)
	require.True(t, ok)
	assert.Len(t, events, 1)
}

func TestAuthEvents_RejectsBadLimit(t *testing.T) {
	tests := []string{"abc", "0", "-5"}
	for _, limit := range tests {
		t.Run(limit, func(t *testing.T) {
			h := &PortalHandlers{Audit: &stubAuditLister{}, Logger: testLogger()}

			req := httptest.NewRequest(http.MethodGet, "/portal/admin/auth-events?limit="+limit, nil)
			rec := httptest.NewRecorder()
			h.AuthEvents(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_limit", decodeBody(t, rec)["error"])
		})
	}
}

func TestAuthEvents_ListFailure(t *testing.T) {
	h := &PortalHandlers{
		Audit:  &stubAuditLister{err: assert.AnError},
		Logger: testLogger(),
	}

	rec := httptest.NewRecorder()
	h.AuthEvents(rec, httptest.NewRequest(http.MethodGet, "/portal/admin/auth-events", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
