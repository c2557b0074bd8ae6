package funnel

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"onboardgo/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func intPtr(v int) *int { return &v }

func session(id string, completed int, dropOff *int) models.Session {
	steps := make([]models.Step, 0, models.FunnelSteps)
	for i := 1; i <= models.FunnelSteps; i++ {
		steps = append(steps, models.NewStep(i, models.StepName(i), i <= completed))
	}
	return models.Session{ID: id, UserID: "u" + id, Steps: steps, DropOffStep: dropOff}
}

func TestAnalyzeEmpty(t *testing.T) {
	got := Analyze(nil)
	assert.Equal(t, 0, got.TotalSessions)
	assert.Equal(t, 0.0, got.CompletionRate)
	assert.NotNil(t, got.DropOffRates)
	assert.Empty(t, got.DropOffRates)
	assert.Equal(t, 1, got.MostCommonDropOff)
}

func TestAnalyzeSingleCompletedSession(t *testing.T) {
	got := Analyze([]models.Session{session("1", 5, nil)})
	assert.Equal(t, 1, got.TotalSessions)
	assert.Equal(t, 100.0, got.CompletionRate)
	require.Len(t, got.DropOffRates, models.FunnelSteps)
	for step := 1; step <= models.FunnelSteps; step++ {
		assert.Equal(t, 0.0, got.DropOffRates[step], "step %d", step)
	}
	assert.Equal(t, 1, got.MostCommonDropOff)
}

func TestAnalyzeDropOffRates(t *testing.T) {
	var sessions []models.Session
	for i := 0; i < 3; i++ {
		sessions = append(sessions, session(fmt.Sprintf("d%d", i), 3, intPtr(4)))
	}
	for i := 0; i < 7; i++ {
		sessions = append(sessions, session(fmt.Sprintf("c%d", i), 5, nil))
	}

	got := Analyze(sessions)
	assert.Equal(t, 10, got.TotalSessions)
	assert.Equal(t, 70.0, got.CompletionRate)
	assert.Equal(t, 30.0, got.DropOffRates[4])
	assert.Equal(t, 4, got.MostCommonDropOff)
	for step, rate := range got.DropOffRates {
		assert.GreaterOrEqual(t, rate, 0.0, "step %d", step)
		assert.LessOrEqual(t, rate, 100.0, "step %d", step)
	}
}

func TestAnalyzeTieGoesToLowestStep(t *testing.T) {
	var sessions []models.Session
	for i := 0; i < 8; i++ {
		sessions = append(sessions, session(fmt.Sprintf("c%d", i), 5, nil))
	}
	sessions = append(sessions, session("x", 4, intPtr(5)), session("y", 3, intPtr(4)))

	got := Analyze(sessions)
	if diff := cmp.Diff(map[int]float64{1: 0, 2: 0, 3: 0, 4: 10, 5: 10}, got.DropOffRates); diff != "" {
		t.Errorf("drop-off rates mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, got.MostCommonDropOff)
}

func TestAnalyzeIgnoresOutOfRangeDropOff(t *testing.T) {
	got := Analyze([]models.Session{session("1", 0, intPtr(9))})
	require.Len(t, got.DropOffRates, models.FunnelSteps)
	assert.Equal(t, 0.0, got.CompletionRate)
	assert.Equal(t, 1, got.MostCommonDropOff)
}

func TestHighestDropOff(t *testing.T) {
	step, rate := HighestDropOff(map[int]float64{})
	assert.Equal(t, 1, step)
	assert.Equal(t, 0.0, rate)

	step, rate = HighestDropOff(map[int]float64{1: 5, 2: 25, 3: 25, 4: 1, 5: 0})
	assert.Equal(t, 2, step)
	assert.Equal(t, 25.0, rate)
}
