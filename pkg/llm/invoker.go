package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Invoker runs a provider call with a per-attempt deadline and a bounded
// retry budget. On exhaustion it returns (nil, lastFailure) so the caller can
// fall back to the deterministic builder.
type Invoker struct {
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	logger      *zap.Logger
}

func NewInvoker(timeout time.Duration, maxAttempts int, backoffBase, backoffCap time.Duration, logger *zap.Logger) *Invoker {
	if timeout <= 0 {
		timeout = 2800 * time.Millisecond
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoffBase <= 0 {
		backoffBase = 250 * time.Millisecond
	}
	if backoffCap <= 0 {
		backoffCap = 2500 * time.Millisecond
	}
	return &Invoker{
		timeout:     timeout,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		backoffCap:  backoffCap,
		logger:      logger,
	}
}

func (i *Invoker) Invoke(ctx context.Context, client ChatModelClient, systemPrompt, userPrompt string) (map[string]any, *Failure) {
	var lastFailure *Failure
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, i.timeout)
		result, failure := client.GenerateChatTurn(attemptCtx, systemPrompt, userPrompt)
		cancel()
		if failure == nil {
			return result, nil
		}

		lastFailure = failure
		i.logger.Warn("provider attempt failed",
			zap.String("protocol", string(client.Protocol())),
			zap.Int("attempt", attempt),
			zap.String("code", string(failure.Code)),
			zap.Bool("retryable", failure.Retryable))

		if !failure.Retryable || attempt == i.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, lastFailure
		case <-time.After(BackoffDelay(attempt, i.backoffBase, i.backoffCap)):
		}
	}
	return nil, lastFailure
}
