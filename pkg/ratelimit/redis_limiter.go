package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter enforces a per-subject rolling 60-second message budget backed by a
// redis sorted set. A redis outage fails open: chat availability is worth more
// than strict limiting.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

func NewLimiter(client *redis.Client, limitPerMinute int, logger *zap.Logger) *Limiter {
	if limitPerMinute <= 0 {
		limitPerMinute = 8
	}
	return &Limiter{
		client: client,
		limit:  limitPerMinute,
		window: time.Minute,
		logger: logger,
	}
}

// Allow records this attempt and reports whether it fits the rolling window.
func (l *Limiter) Allow(ctx context.Context, subjectID uuid.UUID) bool {
	if l.client == nil {
		return true
	}

	key := "remy:rate:" + subjectID.String()
	now := time.Now()
	windowStart := now.Add(-l.window)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("rate limiter unavailable, failing open", zap.Error(err))
		return true
	}

	if countCmd.Val() >= int64(l.limit) {
		return false
	}

	member := fmt.Sprintf("%d:%s", now.UnixNano(), uuid.NewString())
	record := l.client.TxPipeline()
	record.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
	record.Expire(ctx, key, l.window+10*time.Second)
	if _, err := record.Exec(ctx); err != nil {
		l.logger.Warn("rate limiter record failed", zap.Error(err))
	}
	return true
}
