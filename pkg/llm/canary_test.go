package llm

import "testing"

func TestCanaryBucketRangeAndStability(t *testing.T) {
	keys := []string{"", "conv-1|dashboard", "conv-2|results", "a very long conversation identifier"}
	for _, key := range keys {
		bucket := CanaryBucket(key)
		if bucket < 0 || bucket > 99 {
			t.Fatalf("%q: bucket %d out of range", key, bucket)
		}
		for i := 0; i < 5; i++ {
			if CanaryBucket(key) != bucket {
				t.Fatalf("%q: bucket drifted", key)
			}
		}
	}
}

func TestShouldUseResponsesBounds(t *testing.T) {
	if ShouldUseResponses("conv", "dashboard", 0) {
		t.Fatal("zero percent must never route to responses")
	}
	if ShouldUseResponses("conv", "dashboard", -5) {
		t.Fatal("negative percent must never route to responses")
	}
	if !ShouldUseResponses("conv", "dashboard", 100) {
		t.Fatal("full rollout must always route to responses")
	}
	if !ShouldUseResponses("conv", "dashboard", 250) {
		t.Fatal("over-100 percent must always route to responses")
	}
}

func TestShouldUseResponsesIsStablePerConversation(t *testing.T) {
	first := ShouldUseResponses("conv-42", "chat", 35)
	for i := 0; i < 10; i++ {
		if ShouldUseResponses("conv-42", "chat", 35) != first {
			t.Fatal("routing decision must be stable for a conversation")
		}
	}
}
