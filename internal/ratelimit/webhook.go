package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/churnlabs/churnguard/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyWebhookSource   = "webhook:src:%s"
	keyWebhookBusiness = "webhook:business:%s"
)

// WebhookLimiter throttles inbound webhook deliveries per source address and
// dashboard reads per business. A nil limiter means rate limiting is off.
type WebhookLimiter struct {
	enabled bool

	bucket *TokenBucket
	log    *zap.Logger

	rate  float64
	burst int
}

func NewWebhookLimiter(cfg config.Config, log *zap.Logger) (*WebhookLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.WebhookRate <= 0 || limitCfg.WebhookBurst <= 0 {
		return nil, errors.New("webhook rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	return &WebhookLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		log:     log.Named("ratelimit"),
		rate:    limitCfg.WebhookRate,
		burst:   limitCfg.WebhookBurst,
	}, nil
}

func (l *WebhookLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowSource limits webhook deliveries per sender address. Fail open: a
// Redis outage must never drop webhooks, the upstream sender would retry
// them all anyway.
func (l *WebhookLimiter) AllowSource(ctx context.Context, sourceIP string) bool {
	return l.allow(ctx, fmt.Sprintf(keyWebhookSource, strings.TrimSpace(sourceIP)))
}

// AllowBusiness limits dashboard reads per business identifier.
func (l *WebhookLimiter) AllowBusiness(ctx context.Context, businessID string) bool {
	return l.allow(ctx, fmt.Sprintf(keyWebhookBusiness, strings.TrimSpace(businessID)))
}

func (l *WebhookLimiter) allow(ctx context.Context, key string) bool {
	if !l.Enabled() {
		return true
	}
	allowed, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limiter unavailable, allowing request",
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}
	return allowed
}
