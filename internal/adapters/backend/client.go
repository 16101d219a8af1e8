package backend

// Package backend is the REST client for the marketplace backend's auth
// surface. It owns error translation: transport failures become Network
// errors, 4xx auth responses become AuthRejected, and no raw transport
// error ever reaches the service layer.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
	"github.com/Dipk2003/itm-portal-gateway/internal/ports"
)

const defaultTimeout = 15 * time.Second

// Config holds configuration for the backend client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	TypePaths  []string     // JMESPath expressions for the explicit user-type field
	RolePaths  []string     // JMESPath expressions for the raw role string
	HTTPClient *http.Client // optional; a jar-equipped client is built when nil
	Logger     *slog.Logger
}

// Client implements ports.BackendGateway over HTTP.
type Client struct {
	baseURL   string
	http      *http.Client
	extractor *RoleExtractor
	logger    *slog.Logger
}

// New creates a backend client from Config.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend: base URL is required")
	}

	extractor, err := NewRoleExtractor(cfg.TypePaths, cfg.RolePaths)
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar, jarErr := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if jarErr != nil {
			return nil, fmt.Errorf("backend: cookie jar: %w", jarErr)
		}
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout, Jar: jar}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		http:      httpClient,
		extractor: extractor,
		logger:    logger,
	}, nil
}

var _ ports.BackendGateway = (*Client)(nil)

// authEnvelope is the union of auth response shapes the backend emits.
// Role indicators are extracted separately via JMESPath over the raw body.
type authEnvelope struct {
	Token        string          `json:"token"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	OTPRequired  bool            `json:"otpRequired"`
	OTPSent      bool            `json:"otpSent"`
	Message      string          `json:"message"`
	User         json.RawMessage `json:"user"`
	Data         json.RawMessage `json:"data"`
}

type userPayload struct {
	ID       json.Number      `json:"id"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Verified bool             `json:"verified"`
	Business *businessPayload `json:"business"`
}

type businessPayload struct {
	Name    string `json:"businessName"`
	Address string `json:"businessAddress"`
	City    string `json:"city"`
	State   string `json:"state"`
	GSTIN   string `json:"gstin"`
	PAN     string `json:"pan"`
}

func (c *Client) RegisterBuyer(ctx context.Context, in domainauth.BuyerRegistration) (ports.AuthOutcome, error) {
	body := map[string]any{
		"name":     in.Name,
		"email":    in.Email,
		"phone":    in.Phone,
		"password": in.Password,
		// The endpoint path already implies the role; the body repeats it
		// as defense in depth.
		"role": string(domainauth.RoleBuyer),
	}
	return c.authCall(ctx, http.MethodPost, "/auth/register", body)
}

func (c *Client) RegisterVendor(ctx context.Context, in domainauth.VendorRegistration) (ports.AuthOutcome, error) {
	body := map[string]any{
		"name":            in.Name,
		"email":           in.Email,
		"phone":           in.Phone,
		"password":        in.Password,
		"businessName":    in.BusinessName,
		"businessAddress": in.BusinessAddress,
		"city":            in.City,
		"state":           in.State,
		"gstin":           in.GSTIN,
		"pan":             in.PAN,
		"role":            string(domainauth.RoleVendor),
	}
	return c.authCall(ctx, http.MethodPost, "/auth/vendor/register", body)
}

func (c *Client) Login(ctx context.Context, creds domainauth.Credentials) (ports.AuthOutcome, error) {
	body := map[string]any{
		"identifier": creds.Identifier,
		"password":   creds.Password,
	}
	return c.authCall(ctx, http.MethodPost, "/auth/login", body)
}

func (c *Client) VerifyOTP(ctx context.Context, in ports.OTPVerification) (ports.AuthOutcome, error) {
	body := map[string]any{
		"identifier": in.Identifier,
		"otp":        in.Code,
	}
	return c.authCall(ctx, http.MethodPost, "/auth/verify-otp", body)
}

func (c *Client) VerifyToken(ctx context.Context, accessToken string) (domainauth.Principal, error) {
	raw, err := c.do(ctx, requestParams{
		Method: http.MethodGet,
		Path:   "/auth/verify-token",
		Bearer: accessToken,
	})
	if err != nil {
		return domainauth.Principal{}, err
	}
	outcome, err := c.parseOutcome(raw)
	if err != nil {
		return domainauth.Principal{}, err
	}
	return outcome.Principal, nil
}

func (c *Client) Logout(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, requestParams{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Bearer: accessToken,
	})
	return err
}

// authCall performs a credential-flow POST and parses the outcome.
func (c *Client) authCall(ctx context.Context, method, path string, body map[string]any) (ports.AuthOutcome, error) {
	raw, err := c.do(ctx, requestParams{Method: method, Path: path, Body: body})
	if err != nil {
		return ports.AuthOutcome{}, err
	}
	return c.parseOutcome(raw)
}

// requestParams groups arguments for do to keep the parameter count low.
type requestParams struct {
	Method string
	Path   string
	Body   map[string]any
	Bearer string
}

// do executes one request and returns the response body for 2xx statuses.
// Everything else is translated into the application error taxonomy.
func (c *Client) do(ctx context.Context, p requestParams) ([]byte, error) {
	var reqBody io.Reader
	if p.Body != nil {
		data, err := json.Marshal(p.Body)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, p.Method, c.baseURL+p.Path, reqBody)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	if p.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+p.Bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNetwork, "backend unreachable")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.WarnContext(ctx, "close response body failed", "error", cerr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNetwork, "read response")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, apperrors.AuthRejected(rejectionMessage(data, resp.StatusCode))
	default:
		return nil, apperrors.Wrapf(
			fmt.Errorf("status %d", resp.StatusCode),
			apperrors.ErrCodeNetwork,
			"backend error on %s", p.Path,
		)
	}
}

// rejectionMessage pulls a human-readable message out of a 4xx body.
func rejectionMessage(data []byte, status int) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return fmt.Sprintf("request rejected (status %d)", status)
}

// parseOutcome decodes an auth envelope and resolves the principal's role.
func (c *Client) parseOutcome(raw []byte) (ports.AuthOutcome, error) {
	var env authEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ports.AuthOutcome{}, apperrors.Wrap(err, apperrors.ErrCodeNetwork, "decode auth response")
	}

	// Some endpoints nest the whole envelope under "data".
	if env.Token == "" && env.AccessToken == "" && env.User == nil && env.Data != nil {
		var nested authEnvelope
		if err := json.Unmarshal(env.Data, &nested); err == nil {
			nested.Data = nil
			env = nested
		}
	}

	outcome := ports.AuthOutcome{
		Tokens: domainauth.TokenPair{
			Access:  env.Token,
			Refresh: env.RefreshToken,
		},
		OTPPending: env.OTPRequired || env.OTPSent,
	}
	if outcome.Tokens.Access == "" {
		outcome.Tokens.Access = env.AccessToken
	}

	if env.User != nil {
		var u userPayload
		if err := json.Unmarshal(env.User, &u); err != nil {
			return ports.AuthOutcome{}, apperrors.Wrap(err, apperrors.ErrCodeNetwork, "decode user payload")
		}
		outcome.Principal = domainauth.Principal{
			ID:       u.ID.String(),
			Name:     u.Name,
			Email:    u.Email,
			Phone:    u.Phone,
			Verified: u.Verified,
		}
		if u.Business != nil {
			outcome.Principal.Business = &domainauth.BusinessProfile{
				Name:    u.Business.Name,
				Address: u.Business.Address,
				City:    u.Business.City,
				State:   u.Business.State,
				GSTIN:   u.Business.GSTIN,
				PAN:     u.Business.PAN,
			}
		}
	}

	// Role resolution runs over the whole decoded document so any of the
	// known shapes can carry the indicator.
	var doc any
	if err := json.Unmarshal(raw, &doc); err == nil {
		outcome.Principal.Role = c.extractor.Resolve(doc)
	} else {
		outcome.Principal.Role = domainauth.RoleUnknown
	}

	return outcome, nil
}
