package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"onboardgo/internal/models"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama2"
	DefaultTimeout     = 30 * time.Second
)

// Ollama asks a local or hosted Ollama server for insights.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOllama(baseURL, model string, timeout time.Duration, logger *zap.Logger) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response *string `json:"response"`
}

func (o *Ollama) Generate(ctx context.Context, sessions []models.Session, _ models.Analysis) Result {
	lines, err := o.generate(ctx, sessions)
	if err != nil {
		o.logger.Warn("ollama insights failed", zap.Error(err))
		return Result{Insights: []string{Unavailable}, Source: SourceOllama}
	}
	return Result{Insights: lines, Source: SourceOllama}
}

func (o *Ollama) generate(ctx context.Context, sessions []models.Session) ([]string, error) {
	prompt, err := buildPrompt(sessions)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(ollamaRequest{Model: o.model, Prompt: prompt, Stream: false})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Response == nil {
		return nil, fmt.Errorf("response field missing")
	}
	return strings.Split(*out.Response, "\n"), nil
}
