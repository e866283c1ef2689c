package llm

// Mode forces one protocol or enables hybrid canary routing between the two.
const (
	ModeChatCompletions = "chat_completions"
	ModeResponses       = "responses"
	ModeHybrid          = "hybrid"
)

// Selector picks the wire protocol for a conversation. In hybrid mode the
// choice is a stable hash-based canary; otherwise the configured protocol is
// forced. A nil client on the selected side falls back to the other.
type Selector struct {
	mode          string
	canaryPercent int
	chat          ChatModelClient
	responses     ChatModelClient
}

func NewSelector(mode string, canaryPercent int, chat, responses ChatModelClient) *Selector {
	return &Selector{
		mode:          mode,
		canaryPercent: canaryPercent,
		chat:          chat,
		responses:     responses,
	}
}

// Pick returns the client for this conversation, or nil when no provider is
// configured at all.
func (s *Selector) Pick(conversationID, surface string) ChatModelClient {
	var preferred, fallback ChatModelClient
	switch s.mode {
	case ModeResponses:
		preferred, fallback = s.responses, s.chat
	case ModeChatCompletions:
		preferred, fallback = s.chat, s.responses
	default:
		if ShouldUseResponses(conversationID, surface, s.canaryPercent) {
			preferred, fallback = s.responses, s.chat
		} else {
			preferred, fallback = s.chat, s.responses
		}
	}
	if preferred != nil {
		return preferred
	}
	return fallback
}
