package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
	"github.com/Dipk2003/itm-portal-gateway/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.BackendGateway = (*MockBackend)(nil)
	_ ports.TokenVault     = (*MemoryTokenVault)(nil)
	_ ports.TokenStore     = (*MemoryTokenStore)(nil)
	_ ports.SessionCache   = (*MemorySessionCache)(nil)
	_ ports.StaffProvider  = (*MockStaffProvider)(nil)
	_ ports.AuditRecorder  = (*RecordingAudit)(nil)
)

// MockBackend simulates the marketplace backend. Each method delegates to
// its Func field when set; the zero value rejects every call.
type MockBackend struct {
	RegisterBuyerFunc  func(ctx context.Context, in domainauth.BuyerRegistration) (ports.AuthOutcome, error)
	RegisterVendorFunc func(ctx context.Context, in domainauth.VendorRegistration) (ports.AuthOutcome, error)
	LoginFunc          func(ctx context.Context, creds domainauth.Credentials) (ports.AuthOutcome, error)
	VerifyOTPFunc      func(ctx context.Context, in ports.OTPVerification) (ports.AuthOutcome, error)
	VerifyTokenFunc    func(ctx context.Context, accessToken string) (domainauth.Principal, error)
	LogoutFunc         func(ctx context.Context, accessToken string) error

	mu           sync.Mutex
	verifyCalls  int
	logoutTokens []string
}

func (m *MockBackend) RegisterBuyer(ctx context.Context, in domainauth.BuyerRegistration) (ports.AuthOutcome, error) {
	if m.RegisterBuyerFunc != nil {
		return m.RegisterBuyerFunc(ctx, in)
	}
	return ports.AuthOutcome{}, apperrors.AuthRejected("registration not configured")
}

func (m *MockBackend) RegisterVendor(ctx context.Context, in domainauth.VendorRegistration) (ports.AuthOutcome, error) {
	if m.RegisterVendorFunc != nil {
		return m.RegisterVendorFunc(ctx, in)
	}
	return ports.AuthOutcome{}, apperrors.AuthRejected("registration not configured")
}

func (m *MockBackend) Login(ctx context.Context, creds domainauth.Credentials) (ports.AuthOutcome, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return ports.AuthOutcome{}, apperrors.AuthRejected("login not configured")
}

func (m *MockBackend) VerifyOTP(ctx context.Context, in ports.OTPVerification) (ports.AuthOutcome, error) {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, in)
	}
	return ports.AuthOutcome{}, apperrors.AuthRejected("otp not configured")
}

func (m *MockBackend) VerifyToken(ctx context.Context, accessToken string) (domainauth.Principal, error) {
	m.mu.Lock()
	m.verifyCalls++
	m.mu.Unlock()

	if m.VerifyTokenFunc != nil {
		return m.VerifyTokenFunc(ctx, accessToken)
	}
	return domainauth.Principal{}, apperrors.AuthRejected("token rejected")
}

func (m *MockBackend) Logout(ctx context.Context, accessToken string) error {
	m.mu.Lock()
	m.logoutTokens = append(m.logoutTokens, accessToken)
	m.mu.Unlock()

	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, accessToken)
	}
	return nil
}

// VerifyCalls reports how many times VerifyToken was invoked.
func (m *MockBackend) VerifyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifyCalls
}

// LogoutTokens returns the access tokens Logout was called with.
func (m *MockBackend) LogoutTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.logoutTokens...)
}

// MemoryTokenVault is an in-memory ports.TokenVault keyed by context ID.
type MemoryTokenVault struct {
	mu     sync.Mutex
	stores map[string]*MemoryTokenStore
}

// NewMemoryTokenVault creates an empty vault.
func NewMemoryTokenVault() *MemoryTokenVault {
	return &MemoryTokenVault{stores: make(map[string]*MemoryTokenStore)}
}

//nolint:ireturn // satisfies ports.TokenVault.
func (v *MemoryTokenVault) ForContext(contextID string) ports.TokenStore {
	return v.Store(contextID)
}

// Store returns the concrete store for a context so tests can seed and
// inspect partitions directly.
func (v *MemoryTokenVault) Store(contextID string) *MemoryTokenStore {
	v.mu.Lock()
	defer v.mu.Unlock()
	st, ok := v.stores[contextID]
	if !ok {
		st = NewMemoryTokenStore()
		v.stores[contextID] = st
	}
	return st
}

// MemoryTokenStore is an in-memory ports.TokenStore. Setting FailAll makes
// every operation return a StorageUnavailable error.
type MemoryTokenStore struct {
	mu         sync.Mutex
	partitions map[domainauth.Role]domainauth.TokenPair
	profile    *domainauth.Principal

	FailAll bool
}

// NewMemoryTokenStore creates an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{partitions: make(map[domainauth.Role]domainauth.TokenPair)}
}

func (s *MemoryTokenStore) failErr() error {
	if s.FailAll {
		return apperrors.StorageUnavailable("token store unavailable")
	}
	return nil
}

func (s *MemoryTokenStore) Write(_ context.Context, role domainauth.Role, pair domainauth.TokenPair) error {
	if err := s.failErr(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions[role] = pair
	return nil
}

func (s *MemoryTokenStore) Read(_ context.Context, role domainauth.Role) (domainauth.TokenPair, bool, error) {
	if err := s.failErr(); err != nil {
		return domainauth.TokenPair{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pair, ok := s.partitions[role]
	return pair, ok, nil
}

func (s *MemoryTokenStore) Clear(_ context.Context, role domainauth.Role) error {
	if err := s.failErr(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.partitions, role)
	return nil
}

func (s *MemoryTokenStore) ClearAll(_ context.Context) error {
	if err := s.failErr(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions = make(map[domainauth.Role]domainauth.TokenPair)
	s.profile = nil
	return nil
}

func (s *MemoryTokenStore) SaveProfile(_ context.Context, p domainauth.Principal) error {
	if err := s.failErr(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.profile = &cp
	return nil
}

func (s *MemoryTokenStore) Profile(_ context.Context) (domainauth.Principal, bool, error) {
	if err := s.failErr(); err != nil {
		return domainauth.Principal{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return domainauth.Principal{}, false, nil
	}
	return *s.profile, true, nil
}

// Partitions returns a copy of the stored partitions for assertions.
func (s *MemoryTokenStore) Partitions() map[domainauth.Role]domainauth.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domainauth.Role]domainauth.TokenPair, len(s.partitions))
	for role, pair := range s.partitions {
		out[role] = pair
	}
	return out
}

type cachedSession struct {
	sess      domainauth.Session
	expiresAt time.Time
}

// MemorySessionCache is an in-memory ports.SessionCache with TTL support.
type MemorySessionCache struct {
	mu       sync.Mutex
	sessions map[string]cachedSession

	FailAll bool
}

// NewMemorySessionCache creates an empty cache.
func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{sessions: make(map[string]cachedSession)}
}

func (c *MemorySessionCache) failErr() error {
	if c.FailAll {
		return apperrors.StorageUnavailable("session cache unavailable")
	}
	return nil
}

func (c *MemorySessionCache) Save(_ context.Context, contextID string, sess domainauth.Session, ttl time.Duration) error {
	if err := c.failErr(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[contextID] = cachedSession{sess: sess, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *MemorySessionCache) Get(_ context.Context, contextID string) (domainauth.Session, bool, error) {
	if err := c.failErr(); err != nil {
		return domainauth.Session{}, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.sessions[contextID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.sessions, contextID)
		return domainauth.Session{}, false, nil
	}
	return entry.sess, true, nil
}

func (c *MemorySessionCache) Delete(_ context.Context, contextID string) error {
	if err := c.failErr(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, contextID)
	return nil
}

// MockStaffProvider is a deterministic ports.StaffProvider for tests.
type MockStaffProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL  string
	Identity domainauth.Identity

	mu        sync.Mutex
	callCount int
}

func (m *MockStaffProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	return authURL, fmt.Sprintf("state-%d", n), fmt.Sprintf("nonce-%d", n), nil
}

func (m *MockStaffProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	if in.Code == "" {
		return domainauth.Identity{}, apperrors.AuthRejected("missing authorization code")
	}
	identity := m.Identity
	if identity.UserID == "" {
		identity = domainauth.Identity{
			UserID:    "mock-user-1",
			FirstName: "Mock",
			LastName:  "User",
			Email:     "mock.user@example.com",
			Groups:    []string{"admins"},
			ExpiresAt: time.Now().Add(time.Hour),
		}
	}
	return identity, nil
}

// RecordingAudit captures audit events for assertions. Err, when set, is
// returned from every Record call.
type RecordingAudit struct {
	mu     sync.Mutex
	events []domainauth.AuthEvent

	Err error
}

func (r *RecordingAudit) Record(_ context.Context, ev domainauth.AuthEvent) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (r *RecordingAudit) Events() []domainauth.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domainauth.AuthEvent(nil), r.events...)
}

// Kinds returns just the event kinds in recording order.
func (r *RecordingAudit) Kinds() []domainauth.AuthEventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]domainauth.AuthEventKind, 0, len(r.events))
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

// StaticRoleMapper maps a single group name per staff role, mirroring the
// production mapper's shape for tests that need custom group wiring.
type StaticRoleMapper struct {
	AdminGroup string
}

var _ ports.RoleMapper = StaticRoleMapper{}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	return domainauth.RoleUnknown
}
