package config

import "time"

// BackendConfig contains the marketplace backend connection settings.
type BackendConfig struct {
	// BaseURL is the backend's REST API root (e.g. "https://api.example.com").
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3001"`

	// Timeout bounds each backend call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`

	// TypePaths and RolePaths override the JSON locations the role resolver
	// probes in backend auth responses. Empty uses the built-in defaults.
	TypePaths []string `env:"TYPE_PATHS" envSeparator:";"`
	RolePaths []string `env:"ROLE_PATHS" envSeparator:";"`

	// PortalUpstream, when set, is the URL the guarded portal trees
	// reverse-proxy to. Empty serves JSON portal summaries instead.
	PortalUpstream string `env:"PORTAL_UPSTREAM" envDefault:""`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	if b.Timeout <= 0 {
		b.Timeout = 15 * time.Second
	}
}
