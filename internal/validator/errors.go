package validator

import (
	"fmt"

	"github.com/appforge/ai-engine/internal/models"
)

// Error is a hard validation failure: at least one error-level finding
// that blocks downstream use of the artifact.
type Error struct {
	Subject  string
	Findings []models.ValidationWarning
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed validation with %d errors",
		e.Subject, models.CountLevel(e.Findings, models.LevelError))
}
