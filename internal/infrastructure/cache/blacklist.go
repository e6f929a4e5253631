package cache

import (
	"context"
	"time"

	"account-service/internal/domain/token"
	"account-service/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const blacklistKeyPrefix = "auth:blacklist:"

// BlacklistCache decorates a token.SessionRepository with a Redis read-through
// cache of blacklisted jtis. Only positive answers are cached: a blacklisted
// token never becomes valid again. Redis failures fall through to the store.
type BlacklistCache struct {
	token.SessionRepository
	client redis.UniversalClient
	ttl    time.Duration
}

func NewBlacklistCache(repo token.SessionRepository, client redis.UniversalClient, ttl time.Duration) *BlacklistCache {
	return &BlacklistCache{SessionRepository: repo, client: client, ttl: ttl}
}

func blacklistKey(jti string) string {
	return blacklistKeyPrefix + jti
}

func (c *BlacklistCache) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.client.Exists(ctx, blacklistKey(jti)).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	if err != nil {
		logger.Warn("Blacklist cache lookup failed", zap.String("jti", jti), zap.Error(err))
	}

	blacklisted, err := c.SessionRepository.IsBlacklisted(ctx, jti)
	if err != nil {
		return false, err
	}
	if blacklisted {
		c.remember(ctx, jti, c.ttl)
	}
	return blacklisted, nil
}

func (c *BlacklistCache) Blacklist(ctx context.Context, t *token.OutstandingToken) error {
	if err := c.SessionRepository.Blacklist(ctx, t); err != nil {
		return err
	}

	ttl := c.ttl
	if !t.ExpiresAt.IsZero() {
		if remaining := time.Until(t.ExpiresAt); remaining > 0 && remaining < ttl {
			ttl = remaining
		}
	}
	c.remember(ctx, t.JTI, ttl)
	return nil
}

func (c *BlacklistCache) remember(ctx context.Context, jti string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, blacklistKey(jti), 1, ttl).Err(); err != nil {
		logger.Warn("Blacklist cache write failed", zap.String("jti", jti), zap.Error(err))
	}
}
