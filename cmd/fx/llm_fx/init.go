package llm_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"resteasy/internal/config"
	"resteasy/pkg/llm"
)

var Module = fx.Provide(
	provideSelector, provideInvoker)

// provideSelector builds one client per configured provider key. Missing keys
// leave that side nil; the selector falls back to whichever side exists.
func provideSelector(cfg *config.Config, logger *zap.Logger) *llm.Selector {
	var chat, responses llm.ChatModelClient

	if cfg.OpenAIKey != "" {
		chat = llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel)
	}
	if cfg.GeminiKey != "" {
		client, err := llm.NewGeminiClient(context.Background(), cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini client unavailable", zap.Error(err))
		} else {
			responses = client
		}
	}

	return llm.NewSelector(string(cfg.ProviderMode), cfg.CanaryPercent, chat, responses)
}

func provideInvoker(cfg *config.Config, logger *zap.Logger) *llm.Invoker {
	return llm.NewInvoker(cfg.RequestTimeout, cfg.MaxAttempts, cfg.BackoffBase, cfg.BackoffCap, logger)
}
