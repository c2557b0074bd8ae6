package models

// FunnelSteps is the fixed number of steps in the onboarding funnel.
const FunnelSteps = 5

// StepNames maps step index 1..5 (offset by one) to its display name.
var StepNames = [FunnelSteps]string{
	"Sign Up",
	"Email Verification",
	"Profile Setup",
	"Upload ID",
	"Payment",
}

// StepName returns the display name of a 1-based step index, or "" when out of range.
func StepName(step int) string {
	if step < 1 || step > FunnelSteps {
		return ""
	}
	return StepNames[step-1]
}

// Analysis holds aggregate funnel statistics.
type Analysis struct {
	TotalSessions     int             `json:"totalSessions"`
	CompletionRate    float64         `json:"completionRate"`
	DropOffRates      map[int]float64 `json:"dropOffRates"`
	MostCommonDropOff int             `json:"mostCommonDropOff"`
}
