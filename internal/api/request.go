package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"onboardgo/internal/models"
)

// ValidationError reports a user-correctable problem with a submission.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("Missing required field: %s", e.Field)
	}
	return fmt.Sprintf("Invalid field %s: %s", e.Field, e.Reason)
}

// submitStepRequest keeps every field optional so presence can be checked explicitly.
type submitStepRequest struct {
	ID          *string            `json:"id"`
	UserID      *string            `json:"userId"`
	Steps       *[]json.RawMessage `json:"steps"`
	CompletedAt *string            `json:"completedAt"`
	DropOffStep *int               `json:"dropOffStep"`
}

// toSession validates the request and converts it into a Session.
func (r *submitStepRequest) toSession() (*models.Session, error) {
	switch {
	case r.ID == nil:
		return nil, &ValidationError{Field: "id"}
	case r.UserID == nil:
		return nil, &ValidationError{Field: "userId"}
	case r.Steps == nil:
		return nil, &ValidationError{Field: "steps"}
	case r.CompletedAt == nil:
		return nil, &ValidationError{Field: "completedAt"}
	}
	if *r.ID == "" {
		return nil, &ValidationError{Field: "id", Reason: "must not be empty"}
	}

	steps := make([]models.Step, 0, len(*r.Steps))
	for i, raw := range *r.Steps {
		var step models.Step
		if err := json.Unmarshal(raw, &step); err != nil {
			switch {
			case errors.Is(err, models.ErrStepCompletedMissing):
				return nil, &ValidationError{Field: fmt.Sprintf("steps[%d].completed", i)}
			case errors.Is(err, models.ErrStepCompletedType):
				return nil, &ValidationError{Field: fmt.Sprintf("steps[%d].completed", i), Reason: "must be a boolean"}
			default:
				return nil, &ValidationError{Field: fmt.Sprintf("steps[%d]", i), Reason: "must be an object"}
			}
		}
		steps = append(steps, step)
	}
	if r.DropOffStep != nil && (*r.DropOffStep < 1 || *r.DropOffStep > models.FunnelSteps) {
		return nil, &ValidationError{Field: "dropOffStep", Reason: fmt.Sprintf("must be between 1 and %d", models.FunnelSteps)}
	}

	return &models.Session{
		ID:          *r.ID,
		UserID:      *r.UserID,
		Steps:       steps,
		CompletedAt: *r.CompletedAt,
		DropOffStep: r.DropOffStep,
	}, nil
}
