package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Dipk2003/itm-portal-gateway/config"
	httpx "github.com/Dipk2003/itm-portal-gateway/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Sessions httpx.SessionAPI
	Audit    httpx.AuditLister
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Sessions:     cfg.Sessions,
		Audit:        cfg.Audit,
		Portal:       parsePortalUpstream(appCfg.Backend.PortalUpstream, logger),
		CookieDomain: appCfg.HTTP.CookieDomain,
		SSORedirect:  appCfg.Auth.OAuth.RedirectURL,
		Logger:       logger,
	}

	router := httpx.NewRouter(services)
	h := httpx.Logging(logger)(router)
	h = httpx.Recover(logger)(h)

	server := startServer(logger, h, appCfg.HTTP.Addr)

	return server
}

func parsePortalUpstream(raw string, logger *slog.Logger) *url.URL {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		logger.Warn("invalid portal upstream URL, serving portal summaries instead", "url", raw)
		return nil
	}
	return u
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(cfg.Context, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
