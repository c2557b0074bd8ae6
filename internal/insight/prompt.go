package insight

import (
	"encoding/json"
	"fmt"

	"onboardgo/internal/models"
)

const analystSystemPrompt = "You are an expert UX analyst specializing in onboarding optimization."

// buildPrompt embeds the full dataset as indented JSON.
func buildPrompt(sessions []models.Session) (string, error) {
	if sessions == nil {
		sessions = []models.Session{}
	}
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode sessions: %w", err)
	}
	return fmt.Sprintf(`Analyze this onboarding funnel data and provide actionable insights:

Data: %s

Please provide 3-5 specific, actionable insights about:
1. Drop-off patterns
2. User behavior clusters
3. UX improvement recommendations
4. Conversion optimization strategies

Format each insight as a bullet point with an emoji and keep them concise.`, data), nil
}
