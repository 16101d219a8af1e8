package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
	"github.com/Dipk2003/itm-portal-gateway/internal/ports"
)

const (
	// DefaultSessionTTL bounds how long a verified session is served from
	// cache before the stored token is re-verified against the backend.
	DefaultSessionTTL = 5 * time.Minute

	// DefaultPendingTTL bounds how long an OTP challenge stays answerable.
	DefaultPendingTTL = 10 * time.Minute
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Backend    ports.BackendGateway
	Vault      ports.TokenVault
	Cache      ports.SessionCache
	Staff      ports.StaffProvider // optional, enables staff SSO
	StaffRoles ports.RoleMapper    // required when Staff is set
	Audit      ports.AuditRecorder // optional
	Logger     *slog.Logger
	SessionTTL time.Duration // default DefaultSessionTTL
	PendingTTL time.Duration // default DefaultPendingTTL
}

// SessionService orchestrates credential submission, role resolution, token
// persistence, and session rehydration for browser contexts.
type SessionService struct {
	backend    ports.BackendGateway
	vault      ports.TokenVault
	cache      ports.SessionCache
	staff      ports.StaffProvider
	staffRoles ports.RoleMapper
	audit      ports.AuditRecorder
	logger     *slog.Logger
	sessionTTL time.Duration
	pendingTTL time.Duration

	// rehydrations collapses concurrent rehydrate calls for the same
	// browser context into a single backend verification.
	rehydrations singleflight.Group

	mu      sync.Mutex
	pending map[string]pendingChallenge // keyed by context ID
	epochs  map[string]uint64           // bumped on logout, keyed by context ID
}

// pendingChallenge remembers the identifier that triggered an OTP challenge
// so verification can proceed without the client resubmitting it. It lives
// in memory only and is never written to the vault.
type pendingChallenge struct {
	identifier string
	expiresAt  time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessionTTL := opts.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	pendingTTL := opts.PendingTTL
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	return &SessionService{
		backend:    opts.Backend,
		vault:      opts.Vault,
		cache:      opts.Cache,
		staff:      opts.Staff,
		staffRoles: opts.StaffRoles,
		audit:      opts.Audit,
		logger:     logger,
		sessionTTL: sessionTTL,
		pendingTTL: pendingTTL,
		pending:    make(map[string]pendingChallenge),
		epochs:     make(map[string]uint64),
	}
}

// Login submits a credential pair for the given browser context. When the
// backend demands a second factor the returned session carries the
// otp-pending stage and no tokens are persisted.
func (s *SessionService) Login(ctx context.Context, contextID string, creds domainauth.Credentials) (domainauth.Session, error) {
	if contextID == "" {
		return domainauth.Session{}, errors.New("context ID is required")
	}
	if err := creds.Validate(); err != nil {
		return domainauth.Session{}, err
	}

	epoch := s.currentEpoch(contextID)
	outcome, err := s.backend.Login(ctx, creds)
	if err != nil {
		if apperrors.IsAuthRejected(err) {
			s.record(ctx, contextID, domainauth.EventLoginFailed, domainauth.RoleUnknown, creds.Identifier)
		}
		return domainauth.Session{}, err
	}

	if outcome.OTPPending {
		s.savePending(contextID, creds.Identifier)
		return domainauth.Session{Stage: domainauth.StageOTPPending}, nil
	}

	return s.establish(ctx, establishParams{ContextID: contextID, Epoch: epoch, Outcome: outcome, Kind: domainauth.EventLogin})
}

// RegisterBuyer creates a buyer account. Most deployments answer with an OTP
// challenge rather than immediate tokens.
func (s *SessionService) RegisterBuyer(ctx context.Context, contextID string, in domainauth.BuyerRegistration) (domainauth.Session, error) {
	if contextID == "" {
		return domainauth.Session{}, errors.New("context ID is required")
	}
	if err := in.Validate(); err != nil {
		return domainauth.Session{}, err
	}

	epoch := s.currentEpoch(contextID)
	outcome, err := s.backend.RegisterBuyer(ctx, in)
	if err != nil {
		return domainauth.Session{}, err
	}

	if outcome.OTPPending {
		s.savePending(contextID, in.Identifier())
		return domainauth.Session{Stage: domainauth.StageOTPPending}, nil
	}

	return s.establish(ctx, establishParams{ContextID: contextID, Epoch: epoch, Outcome: outcome, Kind: domainauth.EventRegistered})
}

// RegisterVendor creates a vendor account with its business profile.
func (s *SessionService) RegisterVendor(ctx context.Context, contextID string, in domainauth.VendorRegistration) (domainauth.Session, error) {
	if contextID == "" {
		return domainauth.Session{}, errors.New("context ID is required")
	}
	if err := in.Validate(); err != nil {
		return domainauth.Session{}, err
	}

	epoch := s.currentEpoch(contextID)
	outcome, err := s.backend.RegisterVendor(ctx, in)
	if err != nil {
		return domainauth.Session{}, err
	}

	if outcome.OTPPending {
		s.savePending(contextID, in.Identifier())
		return domainauth.Session{Stage: domainauth.StageOTPPending}, nil
	}

	return s.establish(ctx, establishParams{ContextID: contextID, Epoch: epoch, Outcome: outcome, Kind: domainauth.EventRegistered})
}

// VerifyOTP answers a pending two-factor challenge. The identifier may be
// omitted when a challenge is pending for the context.
func (s *SessionService) VerifyOTP(ctx context.Context, contextID string, in ports.OTPVerification) (domainauth.Session, error) {
	if contextID == "" {
		return domainauth.Session{}, errors.New("context ID is required")
	}
	if in.Code == "" {
		return domainauth.Session{}, apperrors.ValidationField("otp", "code is required")
	}
	if in.Identifier == "" {
		identifier, ok := s.pendingIdentifier(contextID)
		if !ok {
			return domainauth.Session{}, apperrors.ValidationField("identifier", "identifier is required")
		}
		in.Identifier = identifier
	}

	epoch := s.currentEpoch(contextID)
	outcome, err := s.backend.VerifyOTP(ctx, in)
	if err != nil {
		if apperrors.IsAuthRejected(err) {
			s.record(ctx, contextID, domainauth.EventLoginFailed, domainauth.RoleUnknown, in.Identifier)
		}
		return domainauth.Session{}, err
	}

	s.clearPending(contextID)
	return s.establish(ctx, establishParams{ContextID: contextID, Epoch: epoch, Outcome: outcome, Kind: domainauth.EventOTPVerified})
}

// Logout tears down the context's session: the backend is notified best
// effort, then every token partition and the cached session are cleared.
func (s *SessionService) Logout(ctx context.Context, contextID string) error {
	if contextID == "" {
		return errors.New("context ID is required")
	}

	s.bumpEpoch(contextID)
	s.clearPending(contextID)

	store := s.vault.ForContext(contextID)

	// Find any stored access token for the backend call. Failing to read
	// must not stop the teardown.
	var access string
	var announcedRole domainauth.Role
	for _, role := range domainauth.PartitionOrder() {
		pair, ok, err := store.Read(ctx, role)
		if err != nil {
			s.logger.WarnContext(ctx, "logout: token read failed", "role", string(role), "error", err)
			break
		}
		if ok && pair.Access != "" {
			access = pair.Access
			announcedRole = role
			break
		}
	}
	if access != "" {
		if err := s.backend.Logout(ctx, access); err != nil {
			s.logger.WarnContext(ctx, "logout: backend notification failed", "error", err)
		}
	}

	if err := store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	if err := s.cache.Delete(ctx, contextID); err != nil {
		s.logger.WarnContext(ctx, "logout: session cache delete failed", "error", err)
	}

	s.record(ctx, contextID, domainauth.EventLogout, announcedRole, "")
	return nil
}

// Rehydrate restores the context's session from stored tokens. Concurrent
// calls for the same context share one verification. A rejected token clears
// every partition and yields an empty session; an unreachable backend yields
// a Network error with tokens kept intact.
func (s *SessionService) Rehydrate(ctx context.Context, contextID string) (domainauth.Session, error) {
	if contextID == "" {
		return domainauth.Session{}, errors.New("context ID is required")
	}

	v, err, _ := s.rehydrations.Do(contextID, func() (any, error) {
		return s.rehydrate(ctx, contextID)
	})
	if err != nil {
		return domainauth.Session{}, err
	}
	sess, _ := v.(domainauth.Session)
	return sess, nil
}

func (s *SessionService) rehydrate(ctx context.Context, contextID string) (domainauth.Session, error) {
	if cached, ok, err := s.cache.Get(ctx, contextID); err != nil {
		s.logger.WarnContext(ctx, "rehydrate: session cache read failed", "error", err)
	} else if ok {
		return cached, nil
	}

	epoch := s.currentEpoch(contextID)
	store := s.vault.ForContext(contextID)

	for _, role := range domainauth.PartitionOrder() {
		pair, ok, err := store.Read(ctx, role)
		if err != nil {
			return domainauth.Session{}, fmt.Errorf("read %s partition: %w", role, err)
		}
		if !ok || pair.Access == "" {
			continue
		}

		principal, verifyErr := s.backend.VerifyToken(ctx, pair.Access)
		if verifyErr != nil {
			if apperrors.IsAuthRejected(verifyErr) {
				// Fail closed: one rejected partition invalidates them all.
				if clearErr := store.ClearAll(ctx); clearErr != nil {
					return domainauth.Session{}, fmt.Errorf("clear rejected tokens: %w", clearErr)
				}
				if delErr := s.cache.Delete(ctx, contextID); delErr != nil {
					s.logger.WarnContext(ctx, "rehydrate: session cache delete failed", "error", delErr)
				}
				s.record(ctx, contextID, domainauth.EventTokenRejected, role, "")
				return domainauth.Session{}, nil
			}
			// Unreachable backend proves nothing about the token. Keep it.
			return domainauth.Session{}, verifyErr
		}

		if !principal.Role.Valid() {
			principal.Role = role
		}

		sess := domainauth.Session{
			Principal:     &principal,
			Tokens:        pair,
			Authenticated: true,
			ExpiresAt:     time.Now().Add(s.sessionTTL),
		}

		// A logout that raced this verification wins.
		if s.currentEpoch(contextID) != epoch {
			return domainauth.Session{}, nil
		}

		if saveErr := s.cache.Save(ctx, contextID, sess, s.sessionTTL); saveErr != nil {
			s.logger.WarnContext(ctx, "rehydrate: session cache save failed", "error", saveErr)
		}
		return sess, nil
	}

	return domainauth.Session{}, nil
}

// StaffLoginStart contains the result of beginning a staff SSO flow.
type StaffLoginStart struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginStaffLogin initiates the staff SSO flow and returns the provider auth
// URL with state and nonce.
func (s *SessionService) BeginStaffLogin(ctx context.Context, redirectURL string) (*StaffLoginStart, error) {
	if s.staff == nil {
		return nil, apperrors.AuthRejected("single sign-on is not enabled")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.staff.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin staff login: %w", err)
	}
	return &StaffLoginStart{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteStaffLoginInput groups parameters for the staff SSO callback.
type CompleteStaffLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteStaffLogin exchanges the SSO code for an identity, maps directory
// groups to a portal role, and caches the resulting session. Identities
// whose groups map to no portal role are rejected.
func (s *SessionService) CompleteStaffLogin(ctx context.Context, contextID string, in CompleteStaffLoginInput) (domainauth.Session, error) {
	if s.staff == nil {
		return domainauth.Session{}, apperrors.AuthRejected("single sign-on is not enabled")
	}
	if contextID == "" {
		return domainauth.Session{}, errors.New("context ID is required")
	}
	if in.Code == "" {
		return domainauth.Session{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Session{}, errors.New("state parameter is required")
	}
	if in.Nonce == "" {
		return domainauth.Session{}, errors.New("nonce parameter is required")
	}

	epoch := s.currentEpoch(contextID)
	identity, err := s.staff.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: in.Nonce})
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("exchange authorization code: %w", err)
	}

	role := s.staffRoles.Map(identity.Groups)
	if !role.IsStaff() {
		s.record(ctx, contextID, domainauth.EventLoginFailed, domainauth.RoleUnknown, identity.Email)
		return domainauth.Session{}, apperrors.AuthRejected("account has no portal access")
	}

	principal := domainauth.Principal{
		ID:       identity.UserID,
		Name:     identity.FirstName + " " + identity.LastName,
		Email:    identity.Email,
		Role:     role,
		Verified: true,
	}
	sess := domainauth.Session{
		Principal:     &principal,
		Authenticated: true,
		ExpiresAt:     identity.ExpiresAt,
	}

	// A logout that raced the code exchange wins.
	if s.currentEpoch(contextID) != epoch {
		return domainauth.Session{}, nil
	}

	// Staff sessions live in the session cache for their full SSO lifetime;
	// there is no backend token to re-verify.
	if err := s.cache.Save(ctx, contextID, sess, time.Until(identity.ExpiresAt)); err != nil {
		return domainauth.Session{}, fmt.Errorf("save staff session: %w", err)
	}

	s.record(ctx, contextID, domainauth.EventLogin, role, identity.Email)
	return sess, nil
}

// establishParams groups inputs for establish. Epoch is the context's epoch
// as observed before the backend call that produced the outcome.
type establishParams struct {
	ContextID string
	Epoch     uint64
	Outcome   ports.AuthOutcome
	Kind      domainauth.AuthEventKind
}

// establish resolves the outcome's role, persists tokens and profile under
// the role's partition, and caches the verified session. An outcome whose
// epoch is stale is discarded without touching storage.
func (s *SessionService) establish(ctx context.Context, p establishParams) (domainauth.Session, error) {
	outcome := p.Outcome
	role := outcome.Principal.Role
	if !role.Valid() {
		s.record(ctx, p.ContextID, domainauth.EventLoginFailed, domainauth.RoleUnknown, outcome.Principal.Email)
		return domainauth.Session{}, apperrors.AuthRejected("account role is not recognized")
	}
	if !outcome.Tokens.Present() {
		return domainauth.Session{}, apperrors.AuthRejected("backend issued no tokens")
	}

	// A logout that raced the backend call wins; the response belongs to a
	// session that no longer exists.
	if s.currentEpoch(p.ContextID) != p.Epoch {
		return domainauth.Session{}, nil
	}

	store := s.vault.ForContext(p.ContextID)
	if err := store.Write(ctx, role, outcome.Tokens); err != nil {
		return domainauth.Session{}, fmt.Errorf("persist tokens: %w", err)
	}
	if err := store.SaveProfile(ctx, outcome.Principal); err != nil {
		s.logger.WarnContext(ctx, "profile snapshot save failed", "error", err)
	}

	sess := domainauth.Session{
		Principal:     &outcome.Principal,
		Tokens:        outcome.Tokens,
		Authenticated: true,
		ExpiresAt:     time.Now().Add(s.sessionTTL),
	}
	if err := s.cache.Save(ctx, p.ContextID, sess, s.sessionTTL); err != nil {
		s.logger.WarnContext(ctx, "session cache save failed", "error", err)
	}

	s.record(ctx, p.ContextID, p.Kind, role, outcome.Principal.Email)
	return sess, nil
}

// record appends an audit entry best effort.
func (s *SessionService) record(ctx context.Context, contextID string, kind domainauth.AuthEventKind, role domainauth.Role, identifier string) {
	if s.audit == nil {
		return
	}
	ev := domainauth.AuthEvent{
		ContextID:  contextID,
		Kind:       kind,
		Role:       role,
		Identifier: identifier,
		CreatedAt:  time.Now(),
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "kind", string(kind), "error", err)
	}
}

func (s *SessionService) savePending(contextID, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prunePendingLocked()
	s.pending[contextID] = pendingChallenge{
		identifier: identifier,
		expiresAt:  time.Now().Add(s.pendingTTL),
	}
}

func (s *SessionService) pendingIdentifier(contextID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[contextID]
	if !ok || time.Now().After(p.expiresAt) {
		delete(s.pending, contextID)
		return "", false
	}
	return p.identifier, true
}

func (s *SessionService) clearPending(contextID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, contextID)
}

func (s *SessionService) prunePendingLocked() {
	now := time.Now()
	for id, p := range s.pending {
		if now.After(p.expiresAt) {
			delete(s.pending, id)
		}
	}
}

func (s *SessionService) currentEpoch(contextID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epochs[contextID]
}

func (s *SessionService) bumpEpoch(contextID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epochs[contextID]++
}
