package insight

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"onboardgo/internal/config"
)

var defaultKeyEnv = map[string]string{
	SourceOpenAI: "OPENAI_API_KEY",
	SourceClaude: "ANTHROPIC_API_KEY",
	SourceGemini: "GEMINI_API_KEY",
}

// New selects the generator named by cfg.Provider. External providers are
// wrapped with a rules fallback; a provider that cannot be built falls back to
// rules entirely.
func New(ctx context.Context, cfg config.InsightsConfig, logger *zap.Logger) Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch provider {
	case "", SourceRules:
		return Rules{}
	case SourceOllama:
		return WithFallback(NewOllama(cfg.BaseURL, cfg.Model, timeout, logger), Rules{}, logger)
	case SourceOpenAI, SourceClaude, SourceGemini:
		keyEnv := cfg.APIKeyEnv
		if keyEnv == "" {
			keyEnv = defaultKeyEnv[provider]
		}
		apiKey := os.Getenv(keyEnv)
		if apiKey == "" {
			logger.Warn("insight provider key missing, using rules", zap.String("provider", provider), zap.String("env", keyEnv))
			return Rules{}
		}
		chatModel, err := BuildChatModel(ctx, provider, cfg.BaseURL, cfg.Model, apiKey)
		if err != nil {
			logger.Warn("insight provider init failed, using rules", zap.String("provider", provider), zap.Error(err))
			return Rules{}
		}
		return WithFallback(NewChatModel(provider, chatModel, timeout, logger), Rules{}, logger)
	default:
		logger.Warn("unknown insight provider, using rules", zap.String("provider", provider))
		return Rules{}
	}
}
