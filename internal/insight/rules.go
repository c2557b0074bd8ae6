package insight

import (
	"context"
	"fmt"

	"onboardgo/internal/funnel"
	"onboardgo/internal/models"
)

const (
	uploadIDAdvice = "📁 High drop-off at ID Upload suggests friction. Recommendations: Add file format examples, implement drag-and-drop, provide clear privacy assurance, or make this step optional initially."
	paymentAdvice  = "💳 Payment step shows significant abandonment. Consider: offering a free trial period, displaying security badges, providing multiple payment options, or implementing guest checkout."
	emailAdvice    = "📧 Email verification drop-off is high. Improvements: implement magic links, reduce verification time, provide clear next steps, or allow users to continue while verification is pending."
	generalAdvice  = "💡 Recommended optimizations: Add a progress bar showing completion percentage, implement auto-save for partially completed forms, and provide clear value propositions at each step."
	smartDefaults  = "🎯 User behavior analysis suggests implementing smart defaults and conditional logic to reduce form fields based on user type selection in the profile setup step."
)

// stepAdvice is checked in step order; each fires when the step's drop-off
// rate exceeds its threshold.
var stepAdvice = []struct {
	step      int
	threshold float64
	message   string
}{
	{step: 2, threshold: 20, message: emailAdvice},
	{step: 4, threshold: 15, message: uploadIDAdvice},
	{step: 5, threshold: 25, message: paymentAdvice},
}

// Rules is the deterministic threshold-based generator.
type Rules struct{}

func (Rules) Generate(_ context.Context, _ []models.Session, analysis models.Analysis) Result {
	return Result{Insights: RuleInsights(analysis), Source: SourceRules}
}

// RuleInsights applies the threshold rules in priority order and keeps at most
// MaxInsights entries.
func RuleInsights(analysis models.Analysis) []string {
	insights := make([]string, 0, 8)
	rate := analysis.CompletionRate
	switch {
	case rate < 30:
		insights = append(insights, fmt.Sprintf("⚠️ Critical: Only %.1f%% of users complete onboarding. Consider simplifying the process or reducing the number of required steps.", rate))
	case rate < 60:
		insights = append(insights, fmt.Sprintf("📊 Your completion rate of %.1f%% has room for improvement. Focus on the steps with highest drop-off rates.", rate))
	default:
		insights = append(insights, fmt.Sprintf("✅ Great! Your completion rate of %.1f%% is above average. Continue optimizing for even better results.", rate))
	}

	if len(analysis.DropOffRates) > 0 {
		step, highest := funnel.HighestDropOff(analysis.DropOffRates)
		if highest > 20 {
			insights = append(insights, fmt.Sprintf("🔍 Step %d (%s) has the highest drop-off rate at %.1f%%. Consider adding progress indicators, clearer instructions, or reducing form complexity.",
				step, models.StepName(step), highest))
		}
	}

	for _, advice := range stepAdvice {
		if analysis.DropOffRates[advice.step] > advice.threshold {
			insights = append(insights, advice.message)
		}
	}

	insights = append(insights, generalAdvice)
	if analysis.TotalSessions > 10 {
		insights = append(insights, smartDefaults)
	}

	if len(insights) > MaxInsights {
		insights = insights[:MaxInsights]
	}
	return insights
}
