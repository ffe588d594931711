package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run identifies one processing pass over an observation batch. Sinks attach
// it to every series they persist.
type Run struct {
	ID          string
	Source      string
	ProcessedAt time.Time
}

// NewRun stamps a run for the named source.
func NewRun(source string) Run {
	return Run{
		ID:          uuid.NewString(),
		Source:      source,
		ProcessedAt: clock.Now().UTC(),
	}
}
