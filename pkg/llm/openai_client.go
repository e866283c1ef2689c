package llm

import (
	"context"
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient speaks the chat-completions protocol with JSON-mode output.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *OpenAIClient) Protocol() Protocol { return ProtocolChatCompletions }

func (c *OpenAIClient) GenerateChatTurn(ctx context.Context, systemPrompt, userPrompt string) (map[string]any, *Failure) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.3,
		MaxTokens:   700,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return nil, ClassifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, SchemaInvalid("no choices returned")
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &decoded); err != nil {
		return nil, SchemaInvalid("response is not a JSON object: " + err.Error())
	}
	return decoded, nil
}
