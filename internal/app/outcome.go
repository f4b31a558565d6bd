package app

import (
	"gamewatch/internal/changes"
	"gamewatch/internal/notifier"
)

// Outcome describes a finished (or aborted) run.
type Outcome struct {
	Mode    string
	Policy  changes.Policy
	Changes changes.ChangeSet
	// Report is empty in report mode.
	Report notifier.Report
	// BaselineWritten is true when the current dataset replaced the baseline.
	BaselineWritten bool
}

func (o Outcome) NoChanges() bool { return len(o.Changes) == 0 }
