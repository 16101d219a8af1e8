package config

import "time"

// SessionConfig contains session and token lifetime configuration.
type SessionConfig struct {
	// TTL is how long a verified session is served from cache before the
	// stored token is re-verified against the backend.
	TTL time.Duration `env:"TTL" envDefault:"5m"`

	// PendingTTL is how long an OTP challenge stays answerable.
	PendingTTL time.Duration `env:"PENDING_TTL" envDefault:"10m"`

	// TokenTTL is how long stored token partitions live without use.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"720h"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.TTL <= 0 {
		s.TTL = 5 * time.Minute
	}
	if s.PendingTTL <= 0 {
		s.PendingTTL = 10 * time.Minute
	}
	if s.TokenTTL <= 0 {
		s.TokenTTL = 720 * time.Hour
	}
}
