package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
)

// SessionCache keeps verified sessions for a short window so the route
// guard does not hit the backend verify endpoint on every request. Entries
// are keyed by browser context ID.
type SessionCache struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionCache creates a Redis-based session cache.
func NewSessionCache(client redis.UniversalClient) *SessionCache {
	return &SessionCache{client: client, prefix: "session:"}
}

// NewSessionCacheWithPrefix creates a session cache with a custom key prefix.
func NewSessionCacheWithPrefix(client redis.UniversalClient, prefix string) *SessionCache {
	return &SessionCache{client: client, prefix: prefix}
}

func (c *SessionCache) Save(ctx context.Context, contextID string, sess domainauth.Session, ttl time.Duration) error {
	if contextID == "" {
		return errors.New("context ID cannot be empty")
	}

	// SSO sessions carry an absolute expiry from the provider; never cache
	// past it.
	if !sess.ExpiresAt.IsZero() {
		if until := time.Until(sess.ExpiresAt); until < ttl {
			ttl = until
		}
	}
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal session")
	}
	if err := c.client.Set(ctx, c.prefix+contextID, data, ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageUnavailable, "save session")
	}
	return nil
}

func (c *SessionCache) Get(ctx context.Context, contextID string) (domainauth.Session, bool, error) {
	if contextID == "" {
		return domainauth.Session{}, false, nil
	}

	data, err := c.client.Get(ctx, c.prefix+contextID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, false, nil
		}
		return domainauth.Session{}, false, apperrors.Wrap(err, apperrors.ErrCodeStorageUnavailable, "get session")
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return domainauth.Session{}, false, apperrors.Wrap(unmarshalErr, apperrors.ErrCodeInternal, "unmarshal session")
	}

	// Redis TTL should handle expiry, but double-check the absolute bound.
	if !sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt) {
		if deleteErr := c.Delete(ctx, contextID); deleteErr != nil {
			return domainauth.Session{}, false, deleteErr
		}
		return domainauth.Session{}, false, nil
	}

	return sess, true, nil
}

func (c *SessionCache) Delete(ctx context.Context, contextID string) error {
	if contextID == "" {
		return nil
	}
	if err := c.client.Del(ctx, c.prefix+contextID).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageUnavailable, "delete session")
	}
	return nil
}
