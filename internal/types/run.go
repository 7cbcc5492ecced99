package types

import (
	"time"

	"github.com/google/uuid"
)

// RunReport is the append-only audit record for one reconciliation pass.
type RunReport struct {
	RunID      uuid.UUID `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`

	Published int `json:"published"`
	Sold      int `json:"sold"`
	Restored  int `json:"restored"`
	Repriced  int `json:"repriced"`
	Forced    int `json:"forced"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Deferred  int `json:"deferred"`
	Failed    int `json:"failed"`
	Rebuilt   int `json:"rebuilt"`

	Errors []string `json:"errors,omitempty"`
}

// Applied returns the total number of events that resulted in a post mutation
// (or would have, for a dry run).
func (r *RunReport) Applied() int {
	return r.Published + r.Sold + r.Restored + r.Repriced + r.Forced
}
