package llm

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

// scriptedClient returns queued failures in order, then succeeds.
type scriptedClient struct {
	failures []*Failure
	calls    int
	result   map[string]any
}

func (c *scriptedClient) Protocol() Protocol { return ProtocolChatCompletions }

func (c *scriptedClient) GenerateChatTurn(ctx context.Context, systemPrompt, userPrompt string) (map[string]any, *Failure) {
	c.calls++
	if len(c.failures) > 0 {
		failure := c.failures[0]
		c.failures = c.failures[1:]
		return nil, failure
	}
	return c.result, nil
}

func testInvoker(maxAttempts int) *Invoker {
	return NewInvoker(100*time.Millisecond, maxAttempts, time.Millisecond, 2*time.Millisecond, zap.NewNop())
}

func TestInvokeRetriesRetryableFailure(t *testing.T) {
	client := &scriptedClient{
		failures: []*Failure{ClassifyHTTPStatus(500, "upstream hiccup")},
		result:   map[string]any{"assistant_message": "ok"},
	}

	result, failure := testInvoker(3).Invoke(context.Background(), client, "sys", "user")
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if result["assistant_message"] != "ok" {
		t.Fatalf("result: got %v", result)
	}
	if client.calls != 2 {
		t.Fatalf("expected success on the second attempt, got %d calls", client.calls)
	}
}

func TestInvokeStopsOnNonRetryableFailure(t *testing.T) {
	client := &scriptedClient{
		failures: []*Failure{
			ClassifyHTTPStatus(401, "bad key"),
			ClassifyHTTPStatus(401, "bad key"),
		},
	}

	result, failure := testInvoker(3).Invoke(context.Background(), client, "sys", "user")
	if result != nil {
		t.Fatalf("result should be nil, got %v", result)
	}
	if failure == nil || failure.Code != CodeAuthError {
		t.Fatalf("failure: got %+v", failure)
	}
	if client.calls != 1 {
		t.Fatalf("auth errors must not retry, got %d calls", client.calls)
	}
}

func TestInvokeExhaustsRetryBudget(t *testing.T) {
	client := &scriptedClient{
		failures: []*Failure{
			ClassifyHTTPStatus(429, "slow down"),
			ClassifyHTTPStatus(429, "slow down"),
			ClassifyHTTPStatus(429, "slow down"),
		},
	}

	result, failure := testInvoker(2).Invoke(context.Background(), client, "sys", "user")
	if result != nil {
		t.Fatalf("result should be nil, got %v", result)
	}
	if failure == nil || failure.Code != CodeRateLimit {
		t.Fatalf("failure: got %+v", failure)
	}
	if client.calls != 2 {
		t.Fatalf("budget of 2 attempts, got %d calls", client.calls)
	}
}

func TestInvokeHonorsCancelledContext(t *testing.T) {
	client := &scriptedClient{
		failures: []*Failure{
			ClassifyHTTPStatus(500, "upstream hiccup"),
			ClassifyHTTPStatus(500, "upstream hiccup"),
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, failure := testInvoker(3).Invoke(ctx, client, "sys", "user")
	if failure == nil {
		t.Fatal("cancelled context should surface the last failure")
	}
	if client.calls != 1 {
		t.Fatalf("no retries after cancellation, got %d calls", client.calls)
	}
}
