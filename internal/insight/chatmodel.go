package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"onboardgo/internal/models"
)

const emptyAnalysis = "AI analysis completed."

var defaultModels = map[string]string{
	SourceOpenAI: "gpt-3.5-turbo",
	SourceClaude: "claude-3-5-haiku-latest",
	SourceGemini: "gemini-2.0-flash",
}

// ChatModel asks a hosted LLM, through an eino chat model, for insights.
type ChatModel struct {
	provider  string
	chatModel model.BaseChatModel
	timeout   time.Duration
	logger    *zap.Logger
}

// NewChatModel wraps an already built eino chat model.
func NewChatModel(provider string, chatModel model.BaseChatModel, timeout time.Duration, logger *zap.Logger) *ChatModel {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatModel{provider: provider, chatModel: chatModel, timeout: timeout, logger: logger}
}

// BuildChatModel creates the eino chat model for openai, claude or gemini.
func BuildChatModel(ctx context.Context, provider, baseURL, modelName, apiKey string) (model.BaseChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	if modelName == "" {
		modelName = defaultModels[provider]
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch provider {
	case SourceOpenAI:
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: baseURL,
			Model:   modelName,
			APIKey:  apiKey,
		})
	case SourceGemini:
		client, cerr := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: apiKey,
		})
		if cerr != nil {
			return nil, fmt.Errorf("create gemini client: %w", cerr)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
	case SourceClaude:
		var baseURLPtr *string
		if baseURL != "" {
			baseURLPtr = &baseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    apiKey,
			Model:     modelName,
			BaseURL:   baseURLPtr,
			MaxTokens: 500,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}
	return chatModel, nil
}

func (m *ChatModel) Generate(ctx context.Context, sessions []models.Session, _ models.Analysis) Result {
	content, err := m.generate(ctx, sessions)
	if err != nil {
		m.logger.Warn("chat model insights failed", zap.String("provider", m.provider), zap.Error(err))
		return Result{Insights: []string{Unavailable}, Source: m.provider}
	}
	if content == "" {
		return Result{Insights: []string{emptyAnalysis}, Source: m.provider}
	}
	return Result{Insights: strings.Split(content, "\n"), Source: m.provider}
}

func (m *ChatModel) generate(ctx context.Context, sessions []models.Session) (string, error) {
	if m.chatModel == nil {
		return "", errors.New("chat model not initialized")
	}
	prompt, err := buildPrompt(sessions)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: analystSystemPrompt},
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("generate insights: %w", err)
	}
	if resp == nil {
		return "", errors.New("empty response")
	}
	return resp.Content, nil
}
