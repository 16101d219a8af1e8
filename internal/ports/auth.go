package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
)

// TokenStore persists role-partitioned token records for one browser
// context. Writes are atomic per partition; a write for role R must never
// appear under another role's partition. Storage operations have no network
// or UI side effects and surface failures as StorageUnavailable errors.
type TokenStore interface {
	// Write persists both tokens under the role's partition, overwriting
	// any prior record for that partition.
	Write(ctx context.Context, role domainauth.Role, pair domainauth.TokenPair) error

	// Read returns the record for the role's partition. The boolean is
	// false when no record exists, which is not an error.
	Read(ctx context.Context, role domainauth.Role) (domainauth.TokenPair, bool, error)

	// Clear removes both values for the role's partition.
	Clear(ctx context.Context, role domainauth.Role) error

	// ClearAll removes every partition plus the cached profile snapshot.
	ClearAll(ctx context.Context) error

	// SaveProfile stores the display-only principal snapshot.
	SaveProfile(ctx context.Context, p domainauth.Principal) error

	// Profile returns the cached principal snapshot, if any.
	Profile(ctx context.Context) (domainauth.Principal, bool, error)
}

// TokenVault scopes token storage to a browser context.
type TokenVault interface {
	ForContext(contextID string) TokenStore
}

// SessionCache holds short-lived verified sessions so the guard does not
// re-verify the backend token on every request inside the TTL window.
type SessionCache interface {
	Save(ctx context.Context, contextID string, sess domainauth.Session, ttl time.Duration) error
	Get(ctx context.Context, contextID string) (domainauth.Session, bool, error)
	Delete(ctx context.Context, contextID string) error
}

// AuthOutcome is the backend's answer to a credential submission. Either
// OTPPending is set (no tokens yet) or Tokens carries the issued pair and
// Principal the authenticated identity with its role already resolved.
type AuthOutcome struct {
	Principal  domainauth.Principal
	Tokens     domainauth.TokenPair
	OTPPending bool
}

// OTPVerification completes a pending two-factor challenge.
type OTPVerification struct {
	Identifier string
	Code       string
}

// BackendGateway is the marketplace backend's REST auth surface. Adapters
// translate transport and response errors into the application taxonomy
// (AuthRejected, Network) before they reach the service layer.
type BackendGateway interface {
	RegisterBuyer(ctx context.Context, in domainauth.BuyerRegistration) (AuthOutcome, error)
	RegisterVendor(ctx context.Context, in domainauth.VendorRegistration) (AuthOutcome, error)
	Login(ctx context.Context, creds domainauth.Credentials) (AuthOutcome, error)
	VerifyOTP(ctx context.Context, in OTPVerification) (AuthOutcome, error)

	// VerifyToken validates a stored access token. A rejection (4xx) is an
	// AuthRejected error; an unreachable backend is a Network error. The
	// two are never conflated.
	VerifyToken(ctx context.Context, accessToken string) (domainauth.Principal, error)

	// Logout is best effort; callers clear client state regardless.
	Logout(ctx context.Context, accessToken string) error
}

// BeginInput carries inputs for initiating a staff SSO flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the SSO code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// StaffProvider initiates and completes a corporate SSO flow for the
// internal portals (admin, support, CTO, data entry).
type StaffProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an
	// opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and
	// returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// RoleMapper maps SSO provider groups to staff roles. Unmatched groups
// resolve to RoleUnknown, never to a default portal role.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// AuditRecorder appends entries to the auth audit trail. Recording is best
// effort and must never block or fail an auth operation.
type AuditRecorder interface {
	Record(ctx context.Context, ev domainauth.AuthEvent) error
}
