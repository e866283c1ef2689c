package llm

import "hash/fnv"

// CanaryBucket assigns a stable 0..99 bucket to a key. The same key always
// lands in the same bucket for the lifetime of a rollout.
func CanaryBucket(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % 100)
}

// ShouldUseResponses decides whether the conversation routes to the
// responses-style protocol given the configured canary percent.
func ShouldUseResponses(conversationID, surface string, canaryPercent int) bool {
	if canaryPercent <= 0 {
		return false
	}
	if canaryPercent >= 100 {
		return true
	}
	return CanaryBucket(conversationID+"|"+surface) < canaryPercent
}
