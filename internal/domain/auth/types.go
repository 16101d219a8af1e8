package auth

// Package auth contains domain-level types for sessions, roles, and
// credential flows. It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"

	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
)

// Principal is the authenticated identity as reported by the marketplace
// backend. Role is immutable for a given identifier after registration.
type Principal struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Role     Role             `json:"role"`
	Verified bool             `json:"verified"`
	Business *BusinessProfile `json:"business,omitempty"`
}

// BusinessProfile carries the vendor-specific registration attributes.
type BusinessProfile struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	GSTIN   string `json:"gstin"`
	PAN     string `json:"pan"`
}

// TokenPair is a stored (access, refresh) token record for one role
// partition. Both values travel together; a partial record is never written.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Present reports whether the record holds an access token.
func (p TokenPair) Present() bool { return p.Access != "" }

// WorkflowStage tracks the pending step of a multi-stage credential flow.
type WorkflowStage string

const (
	StageNone       WorkflowStage = ""
	StageOTPPending WorkflowStage = "otp-pending"
)

// Session is the gateway's belief about the principal behind one browser
// context. Authenticated implies a non-nil Principal and a present access
// token.
type Session struct {
	Principal     *Principal    `json:"principal,omitempty"`
	Tokens        TokenPair     `json:"tokens"`
	Authenticated bool          `json:"authenticated"`
	Stage         WorkflowStage `json:"stage,omitempty"`
	ExpiresAt     time.Time     `json:"expires_at"`
}

// Empty reports whether the session carries no principal and no pending
// workflow. An empty session is the normal logged-out state, not an error.
func (s Session) Empty() bool {
	return !s.Authenticated && s.Principal == nil && s.Stage == StageNone
}

// Identity is the principal returned by a corporate SSO provider for the
// staff portals. Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string
	FirstName string
	LastName  string
	Email     string
	Groups    []string
	ExpiresAt time.Time
}

// Credentials is the transient (email-or-phone, password) pair submitted at
// login. It is held in process memory only while an OTP challenge is
// outstanding and must never reach durable storage.
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Validate checks the pair before any network call is made.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Identifier) == "" {
		return apperrors.ValidationField("identifier", "email or phone is required")
	}
	if c.Password == "" {
		return apperrors.ValidationField("password", "password is required")
	}
	return nil
}

// BuyerRegistration is the input for buyer-portal registration.
type BuyerRegistration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Validate checks required buyer fields before any network call.
func (r BuyerRegistration) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperrors.ValidationField("name", "name is required")
	}
	if strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.Phone) == "" {
		return apperrors.ValidationField("email", "email or phone is required")
	}
	if r.Password == "" {
		return apperrors.ValidationField("password", "password is required")
	}
	return nil
}

// Identifier returns the contact field an OTP challenge would be sent to,
// preferring email.
func (r BuyerRegistration) Identifier() string {
	if strings.TrimSpace(r.Email) != "" {
		return r.Email
	}
	return r.Phone
}

// VendorRegistration is the input for vendor-portal registration. Vendors
// additionally require business identification fields.
type VendorRegistration struct {
	BuyerRegistration

	BusinessName    string `json:"businessName"`
	BusinessAddress string `json:"businessAddress"`
	City            string `json:"city"`
	State           string `json:"state"`
	GSTIN           string `json:"gstin"`
	PAN             string `json:"pan"`
}

// Validate checks required vendor fields before any network call.
func (r VendorRegistration) Validate() error {
	if err := r.BuyerRegistration.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.BusinessName) == "" {
		return apperrors.ValidationField("businessName", "business name is required")
	}
	if strings.TrimSpace(r.BusinessAddress) == "" {
		return apperrors.ValidationField("businessAddress", "business address is required")
	}
	if strings.TrimSpace(r.GSTIN) == "" && strings.TrimSpace(r.PAN) == "" {
		return apperrors.ValidationField("gstin", "a tax identifier (GSTIN or PAN) is required")
	}
	return nil
}

// AuthEventKind labels entries in the auth audit trail.
type AuthEventKind string

const (
	EventLogin         AuthEventKind = "login"
	EventLoginFailed   AuthEventKind = "login_failed"
	EventRegistered    AuthEventKind = "registered"
	EventOTPVerified   AuthEventKind = "otp_verified"
	EventLogout        AuthEventKind = "logout"
	EventTokenRejected AuthEventKind = "token_rejected"
)

// AuthEvent is one recorded auth-trail entry. Identifier is the submitted
// email/phone (never the password) or the principal ID once known.
type AuthEvent struct {
	ID         string        `json:"id"         db:"id"`
	ContextID  string        `json:"context_id" db:"context_id"`
	Kind       AuthEventKind `json:"kind"       db:"kind"`
	Role       Role          `json:"role"       db:"role"`
	Identifier string        `json:"identifier" db:"identifier"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}
