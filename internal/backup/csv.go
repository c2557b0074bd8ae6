package backup

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"onboardgo/internal/models"
)

// Header is the first row of every backup file.
var Header = []string{"id", "userId", "completedAt", "dropOffStep", "steps_completed", "total_steps"}

// CSVWriter appends a summary row per saved session to a flat CSV file.
type CSVWriter struct {
	path string
	mu   sync.Mutex
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the backup file location.
func (w *CSVWriter) Path() string {
	return w.path
}

// Append writes the session summary, creating the file and its header on first use.
func (w *CSVWriter) Append(session *models.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := os.Stat(w.path)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stat backup: %w", err)
	}
	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create backup dir: %w", err)
		}
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if !exists {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("write backup header: %w", err)
		}
	}
	if err := cw.Write(Row(session)); err != nil {
		return fmt.Errorf("write backup row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush backup: %w", err)
	}
	return nil
}

// Reset deletes the backup file. A missing file is not an error.
func (w *CSVWriter) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove backup: %w", err)
	}
	return nil
}

// Row renders the summary columns for one session.
func Row(session *models.Session) []string {
	dropOff := ""
	if session.DropOffStep != nil {
		dropOff = strconv.Itoa(*session.DropOffStep)
	}
	return []string{
		session.ID,
		session.UserID,
		session.CompletedAt,
		dropOff,
		strconv.Itoa(session.CompletedSteps()),
		strconv.Itoa(len(session.Steps)),
	}
}
