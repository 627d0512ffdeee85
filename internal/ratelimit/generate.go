package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/reelgate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyGenerateUser = "generate:user:%s"

// GenerateLimiter throttles generation submissions per user. Disabled
// when no redis address is configured; a nil limiter allows everything.
type GenerateLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func NewGenerateLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*GenerateLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, fmt.Errorf("rate limit enabled without redis address")
	}
	if limitCfg.GenerateRate <= 0 || limitCfg.GenerateBurst <= 0 {
		return nil, fmt.Errorf("rate limit rate and burst must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: limitCfg.RedisPassword,
		DB:       limitCfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return client.Ping(pingCtx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return &GenerateLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.GenerateRate,
		burst:  limitCfg.GenerateBurst,
		log:    log.Named("ratelimit.generate"),
	}, nil
}

func (l *GenerateLimiter) Allow(ctx context.Context, userID string) (*RateLimitResult, error) {
	if l == nil {
		return &RateLimitResult{Allowed: true}, nil
	}

	key := fmt.Sprintf(keyGenerateUser, userID)
	result, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		// Limiter trouble must not take the endpoint down.
		l.log.Warn("rate limit check failed, allowing request", zap.Error(err))
		return &RateLimitResult{Allowed: true}, nil
	}
	return result, nil
}
