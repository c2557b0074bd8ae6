package backup

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"onboardgo/internal/models"
)

func intPtr(v int) *int { return &v }

func sampleSession(id string, completed int, dropOff *int) *models.Session {
	steps := make([]models.Step, 0, models.FunnelSteps)
	for i := 1; i <= models.FunnelSteps; i++ {
		steps = append(steps, models.NewStep(i, models.StepName(i), i <= completed))
	}
	return &models.Session{ID: id, UserID: "user_" + id, Steps: steps, CompletedAt: "2024-01-01T00:00:00Z", DropOffStep: dropOff}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "backup.csv")
	w := NewCSVWriter(path)

	require.NoError(t, w.Append(sampleSession("1", 2, intPtr(3))))
	require.NoError(t, w.Append(sampleSession("2", 5, nil)))

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"1", "user_1", "2024-01-01T00:00:00Z", "3", "2", "5"}, records[1])
	assert.Equal(t, []string{"2", "user_2", "2024-01-01T00:00:00Z", "", "5", "5"}, records[2])
}

func TestResetRemovesFileAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.csv")
	w := NewCSVWriter(path)
	require.NoError(t, w.Append(sampleSession("1", 1, intPtr(2))))

	require.NoError(t, w.Reset())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, w.Reset())

	// header comes back after a reset
	require.NoError(t, w.Append(sampleSession("9", 0, intPtr(1))))
	records := readCSV(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, Header, records[0])
}

func TestAppendNilSession(t *testing.T) {
	w := NewCSVWriter(filepath.Join(t.TempDir(), "b.csv"))
	require.Error(t, w.Append(nil))
}

func TestExportXLSX(t *testing.T) {
	sessions := []models.Session{
		*sampleSession("1", 3, intPtr(4)),
		*sampleSession("2", 5, nil),
	}
	analysis := models.Analysis{
		TotalSessions:     2,
		CompletionRate:    50,
		DropOffRates:      map[int]float64{1: 0, 2: 0, 3: 0, 4: 50, 5: 0},
		MostCommonDropOff: 4,
	}
	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, sessions, analysis))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sessionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "4", rows[1][3])

	funnel, err := f.GetRows(funnelSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(funnel), 6)
	assert.Equal(t, []string{"4", "Upload ID", "1", "50"}, funnel[4])
}
