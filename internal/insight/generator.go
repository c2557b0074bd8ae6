// Package insight turns funnel statistics into human-readable recommendations.
package insight

import (
	"context"

	"onboardgo/internal/models"
)

// Unavailable is returned by external generators on any failure.
const Unavailable = "AI service temporarily unavailable. Using built-in analysis."

// MaxInsights caps the rule-based output.
const MaxInsights = 5

const (
	SourceRules  = "rules"
	SourceOllama = "ollama"
	SourceOpenAI = "openai"
	SourceClaude = "claude"
	SourceGemini = "gemini"
)

// Result is the output of a Generator and the strategy that produced it.
type Result struct {
	Insights []string `json:"insights"`
	Source   string   `json:"source"`
}

// Generator produces insights for a dataset. Implementations never fail; an
// external generator degrades to the Unavailable sentinel instead.
type Generator interface {
	Generate(ctx context.Context, sessions []models.Session, analysis models.Analysis) Result
}

func isUnavailable(r Result) bool {
	return len(r.Insights) == 1 && r.Insights[0] == Unavailable
}
