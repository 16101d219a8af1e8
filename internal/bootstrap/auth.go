package bootstrap

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Dipk2003/itm-portal-gateway/config"
	"github.com/Dipk2003/itm-portal-gateway/internal/adapters/authroles"
	"github.com/Dipk2003/itm-portal-gateway/internal/adapters/backend"
	"github.com/Dipk2003/itm-portal-gateway/internal/adapters/devauth"
	"github.com/Dipk2003/itm-portal-gateway/internal/adapters/oidc"
	redisadapter "github.com/Dipk2003/itm-portal-gateway/internal/adapters/redis"
	"github.com/Dipk2003/itm-portal-gateway/internal/ports"
	"github.com/Dipk2003/itm-portal-gateway/internal/service"
)

// SessionConfig contains everything needed to build the session service.
type SessionConfig struct {
	Backend     config.BackendConfig
	Auth        config.AuthConfig
	Session     config.SessionConfig
	RedisClient redis.UniversalClient
	Audit       ports.AuditRecorder // optional, nil disables the audit trail
	Logger      *slog.Logger
}

// BuildSessionService wires the marketplace backend gateway, the Redis token
// vault and session cache, and the optional staff SSO provider into a session
// service. Returns an error when required pieces cannot be constructed.
func BuildSessionService(cfg SessionConfig) (*service.SessionService, error) {
	gateway, err := backend.New(backend.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout,
		TypePaths: cfg.Backend.TypePaths,
		RolePaths: cfg.Backend.RolePaths,
		Logger:    cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	staff := buildStaffProvider(cfg)
	var staffRoles ports.RoleMapper
	if staff != nil {
		staffRoles = authroles.StaticRoleMapper{
			AdminGroup:     cfg.Auth.AdminGroup,
			SupportGroup:   cfg.Auth.SupportGroup,
			CTOGroup:       cfg.Auth.CTOGroup,
			DataEntryGroup: cfg.Auth.DataEntryGroup,
		}
	}

	return service.NewSessionService(service.SessionServiceOptions{
		Backend:    gateway,
		Vault:      redisadapter.NewTokenVaultWithTTL(cfg.RedisClient, cfg.Session.TokenTTL),
		Cache:      redisadapter.NewSessionCache(cfg.RedisClient),
		Staff:      staff,
		StaffRoles: staffRoles,
		Audit:      cfg.Audit,
		Logger:     cfg.Logger,
		SessionTTL: cfg.Session.TTL,
		PendingTTL: cfg.Session.PendingTTL,
	}), nil
}

// buildStaffProvider returns the staff SSO provider for the configured auth
// mode, or nil when staff SSO is disabled or misconfigured.
//
//nolint:ireturn // provider selection happens at runtime.
func buildStaffProvider(cfg SessionConfig) ports.StaffProvider {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID: cfg.Auth.DevAuth.UserID,
			Email:  cfg.Auth.DevAuth.Email,
			Groups: cfg.Auth.DevAuth.Groups,
		})
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("failed to create dev auth provider, staff SSO disabled", "error", err)
			}
			return nil
		}
		return prov

	case config.AuthModeOAuth:
		oauth := cfg.Auth.OAuth
		if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
			if cfg.Logger != nil {
				cfg.Logger.Warn("AuthModeOAuth selected but required config missing; staff SSO disabled",
					"discovery_url_empty", oauth.DiscoveryURL == "",
					"client_id_empty", oauth.ClientID == "",
					"client_secret_empty", oauth.ClientSecret == "",
				)
			}
			return nil
		}

		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
		})
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("failed to create OIDC provider, staff SSO disabled", "error", err)
			}
			return nil
		}
		return prov

	default:
		return nil
	}
}
