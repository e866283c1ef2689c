package redis_fx

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"resteasy/internal/config"
	"resteasy/pkg/ratelimit"
)

var Module = fx.Provide(
	provideRedis, provideLimiter)

func provideRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
}

func provideLimiter(client *redis.Client, cfg *config.Config, logger *zap.Logger) *ratelimit.Limiter {
	return ratelimit.NewLimiter(client, cfg.RateLimitPerMinute, logger)
}
