package llm

import "context"

// Protocol names one of the two interchangeable wire protocols.
type Protocol string

const (
	ProtocolChatCompletions Protocol = "chat_completions"
	ProtocolResponses       Protocol = "responses"
)

// ChatModelClient is one provider wire protocol. A successful call returns the
// decoded JSON object the model produced; everything else is a Failure.
type ChatModelClient interface {
	Protocol() Protocol
	GenerateChatTurn(ctx context.Context, systemPrompt, userPrompt string) (map[string]any, *Failure)
}
