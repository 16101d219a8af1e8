package redis

// Package redis provides Redis-based adapters for the portal gateway.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
	"github.com/Dipk2003/itm-portal-gateway/internal/ports"
)

// DefaultTokenTTL bounds how long an untouched context keeps its tokens.
// Every write refreshes the clock, so active contexts never expire.
const DefaultTokenTTL = 30 * 24 * time.Hour

// TokenVault hands out token stores scoped to a browser context. All keys
// for a context live under one prefix so ClearAll is a bounded operation.
type TokenVault struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewTokenVault creates a Redis-backed token vault with default prefix and TTL.
func NewTokenVault(client redis.UniversalClient) *TokenVault {
	return &TokenVault{client: client, prefix: "ctx:", ttl: DefaultTokenTTL}
}

// NewTokenVaultWithPrefix creates a token vault with a custom key prefix.
func NewTokenVaultWithPrefix(client redis.UniversalClient, prefix string) *TokenVault {
	return &TokenVault{client: client, prefix: prefix, ttl: DefaultTokenTTL}
}

// NewTokenVaultWithTTL creates a token vault with a custom idle TTL.
func NewTokenVaultWithTTL(client redis.UniversalClient, ttl time.Duration) *TokenVault {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenVault{client: client, prefix: "ctx:", ttl: ttl}
}

// ForContext returns the token store for one browser context.
//
//nolint:ireturn // satisfies ports.TokenVault; callers program against the port.
func (v *TokenVault) ForContext(contextID string) ports.TokenStore {
	return &TokenStore{
		client:     v.client,
		tokensKey:  v.prefix + contextID + ":tokens",
		profileKey: v.prefix + contextID + ":userData",
		ttl:        v.ttl,
	}
}

// TokenStore is the role-partitioned token record for a single context,
// kept in one Redis hash with `{role}Token` / `{role}RefreshToken` fields.
// Both fields of a partition are written in a single HSET so a partial
// record is never observable.
type TokenStore struct {
	client     redis.UniversalClient
	tokensKey  string
	profileKey string
	ttl        time.Duration
}

func accessField(role domainauth.Role) string  { return string(role) + "Token" }
func refreshField(role domainauth.Role) string { return string(role) + "RefreshToken" }

func (s *TokenStore) Write(ctx context.Context, role domainauth.Role, pair domainauth.TokenPair) error {
	if !role.Valid() {
		return apperrors.Validationf("cannot store tokens for role %q", role)
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.tokensKey, accessField(role), pair.Access, refreshField(role), pair.Refresh)
	pipe.Expire(ctx, s.tokensKey, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageUnavailable, "write token partition")
	}
	return nil
}

func (s *TokenStore) Read(ctx context.Context, role domainauth.Role) (domainauth.TokenPair, bool, error) {
	vals, err := s.client.HMGet(ctx, s.tokensKey, accessField(role), refreshField(role)).Result()
	if err != nil {
		return domainauth.TokenPair{}, false, apperrors.Wrap(err, apperrors.ErrCodeStorageUnavailable, "read token partition")
	}
	pair := domainauth.TokenPair{}
	if v, ok := vals[0].(string); ok {
		pair.Access = v
	}
	if v, ok := vals[1].(string); ok {
		pair.Refresh = v
	}
	if !pair.Present() {
		return domainauth.TokenPair{}, false, nil
	}
	return pair, true, nil
}

func (s *TokenStore) Clear(ctx context.Context, role domainauth.Role) error {
	if err := s.client.HDel(ctx, s.tokensKey, accessField(role), refreshField(role)).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageUnavailable, "clear token partition")
	}
	return nil
}

func (s *TokenStore) ClearAll(ctx context.Context) error {
	if err := s.client.Del(ctx, s.tokensKey, s.profileKey).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageUnavailable, "clear token partitions")
	}
	return nil
}

func (s *TokenStore) SaveProfile(ctx context.Context, p domainauth.Principal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal profile snapshot")
	}
	if err := s.client.Set(ctx, s.profileKey, data, s.ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageUnavailable, "save profile snapshot")
	}
	return nil
}

func (s *TokenStore) Profile(ctx context.Context) (domainauth.Principal, bool, error) {
	data, err := s.client.Get(ctx, s.profileKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Principal{}, false, nil
		}
		return domainauth.Principal{}, false, apperrors.Wrap(err, apperrors.ErrCodeStorageUnavailable, "read profile snapshot")
	}
	var p domainauth.Principal
	if unmarshalErr := json.Unmarshal([]byte(data), &p); unmarshalErr != nil {
		return domainauth.Principal{}, false, apperrors.Wrap(unmarshalErr, apperrors.ErrCodeInternal, "unmarshal profile snapshot")
	}
	return p, true, nil
}
