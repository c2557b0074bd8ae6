package backup

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"onboardgo/internal/models"
)

const (
	sessionsSheet = "Sessions"
	funnelSheet   = "Funnel"
)

// ExportXLSX writes a workbook with the session summaries and the per-step funnel.
func ExportXLSX(w io.Writer, sessions []models.Session, analysis models.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sessionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, sessionsSheet, 1, toCells(Header)); err != nil {
		return err
	}
	for i := range sessions {
		row := Row(&sessions[i])
		cells := []interface{}{row[0], row[1], row[2], row[3], sessions[i].CompletedSteps(), len(sessions[i].Steps)}
		if sessions[i].DropOffStep != nil {
			cells[3] = *sessions[i].DropOffStep
		}
		if err := setRow(f, sessionsSheet, i+2, cells); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(funnelSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := setRow(f, funnelSheet, 1, []interface{}{"step", "name", "dropOffs", "dropOffRate"}); err != nil {
		return err
	}
	for step := 1; step <= models.FunnelSteps; step++ {
		count := 0
		for _, s := range sessions {
			if s.DropOffStep != nil && *s.DropOffStep == step {
				count++
			}
		}
		cells := []interface{}{step, models.StepName(step), count, analysis.DropOffRates[step]}
		if err := setRow(f, funnelSheet, step+1, cells); err != nil {
			return err
		}
	}
	summary := []interface{}{"completionRate", analysis.CompletionRate, "totalSessions", analysis.TotalSessions}
	if err := setRow(f, funnelSheet, models.FunnelSteps+3, summary); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
