package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Session records one user's progress through the onboarding funnel.
type Session struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Steps       []Step `json:"steps"`
	CompletedAt string `json:"completedAt"`
	DropOffStep *int   `json:"dropOffStep"`
}

var (
	ErrStepNotObject        = errors.New("must be an object")
	ErrStepCompletedMissing = errors.New("completed is required")
	ErrStepCompletedType    = errors.New("completed must be a boolean")
)

// Step is one funnel step as reported by the client. Only completed is
// interpreted; the object itself is kept byte for byte and written back out
// unchanged.
type Step struct {
	Completed bool
	raw       json.RawMessage
}

// NewStep builds a step in the shape the bundled web client submits.
func NewStep(number int, name string, completed bool) Step {
	raw, _ := json.Marshal(struct {
		StepNumber int    `json:"stepNumber"`
		StepName   string `json:"stepName"`
		Completed  bool   `json:"completed"`
	}{number, name, completed})
	return Step{Completed: completed, raw: raw}
}

func (s Step) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	return json.Marshal(struct {
		Completed bool `json:"completed"`
	}{s.Completed})
}

func (s *Step) UnmarshalJSON(data []byte) error {
	var fields struct {
		Completed json.RawMessage `json:"completed"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return ErrStepNotObject
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) || len(fields.Completed) == 0 || bytes.Equal(fields.Completed, []byte("null")) {
		return ErrStepCompletedMissing
	}
	if err := json.Unmarshal(fields.Completed, &s.Completed); err != nil {
		return ErrStepCompletedType
	}
	s.raw = append(json.RawMessage(nil), data...)
	return nil
}

// CompletedSteps counts the steps marked completed.
func (s *Session) CompletedSteps() int {
	n := 0
	for _, step := range s.Steps {
		if step.Completed {
			n++
		}
	}
	return n
}
