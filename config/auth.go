package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the staff SSO mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for staff authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
	// AuthModeDisabled disables the staff portals entirely.
	AuthModeDisabled AuthMode = "disabled"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock", "disabled":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock, disabled)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration for staff SSO.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"itm-portal"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"itm-portal"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/sso/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Email  string   `env:"EMAIL"   envDefault:"dev@example.com"`
	Groups []string `env:"GROUPS"  envDefault:"admins"          envSeparator:";"`
}

// AuthConfig groups the staff SSO configuration. Buyer and vendor
// authentication goes through the marketplace backend and needs no
// configuration here.
type AuthConfig struct {
	// Mode determines which staff SSO provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"disabled"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Directory group names mapped to portal roles. Empty groups grant
	// nobody that role.
	AdminGroup     string `env:"ADMIN_GROUP"      envDefault:"admins"`
	SupportGroup   string `env:"SUPPORT_GROUP"    envDefault:"support"`
	CTOGroup       string `env:"CTO_GROUP"        envDefault:"cto"`
	DataEntryGroup string `env:"DATA_ENTRY_GROUP" envDefault:"data-entry"`
}

// Enabled reports whether staff SSO is configured at all.
func (a AuthConfig) Enabled() bool {
	return a.Mode != AuthModeDisabled
}
