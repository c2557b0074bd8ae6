// Package funnel computes aggregate statistics over onboarding sessions.
package funnel

import "onboardgo/internal/models"

// Analyze computes total sessions, completion rate and per-step drop-off rates.
// An empty input yields a zero result with MostCommonDropOff = 1.
func Analyze(sessions []models.Session) models.Analysis {
	total := len(sessions)
	if total == 0 {
		return models.Analysis{
			DropOffRates:      map[int]float64{},
			MostCommonDropOff: 1,
		}
	}

	completed := 0
	dropOffs := make([]int, models.FunnelSteps+1)
	for i := range sessions {
		if sessions[i].CompletedSteps() == models.FunnelSteps {
			completed++
		}
		if d := sessions[i].DropOffStep; d != nil && *d >= 1 && *d <= models.FunnelSteps {
			dropOffs[*d]++
		}
	}

	rates := make(map[int]float64, models.FunnelSteps)
	for step := 1; step <= models.FunnelSteps; step++ {
		rates[step] = percent(dropOffs[step], total)
	}
	mostCommon, _ := HighestDropOff(rates)

	return models.Analysis{
		TotalSessions:     total,
		CompletionRate:    percent(completed, total),
		DropOffRates:      rates,
		MostCommonDropOff: mostCommon,
	}
}

// HighestDropOff returns the step with the largest rate, scanning steps 1..5 in
// order so ties go to the lowest step. Returns (1, 0) for an empty map.
func HighestDropOff(rates map[int]float64) (int, float64) {
	best, bestRate := 1, 0.0
	found := false
	for step := 1; step <= models.FunnelSteps; step++ {
		rate, ok := rates[step]
		if !ok {
			continue
		}
		if !found || rate > bestRate {
			best, bestRate, found = step, rate, true
		}
	}
	return best, bestRate
}

func percent(n, total int) float64 {
	return 100 * float64(n) / float64(total)
}
