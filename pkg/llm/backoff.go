package llm

import (
	"math/rand"
	"time"
)

// BackoffDelay computes the wait before retry attempt n (1-based):
// base * 2^(n-1) plus up to one base of jitter, capped at maxDelay.
func BackoffDelay(attempt int, base, maxDelay time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base << uint(attempt-1)
	if base > 0 {
		delay += time.Duration(rand.Int63n(int64(base)))
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
