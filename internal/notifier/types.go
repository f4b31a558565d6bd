package notifier

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gamewatch/internal/changes"
)

// ErrSkipped marks a record that was deliberately not sent.
var ErrSkipped = errors.New("record skipped")

// ErrorPolicy decides what a failed delivery does to the rest of the run.
type ErrorPolicy int

const (
	Abort ErrorPolicy = iota
	Continue
)

func (p ErrorPolicy) String() string {
	if p == Continue {
		return "continue"
	}
	return "abort"
}

func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort", "stop":
		return Abort, nil
	case "continue":
		return Continue, nil
	default:
		return Abort, fmt.Errorf("unknown error policy %q (use abort or continue)", s)
	}
}

// Branding decorates every notification.
type Branding struct {
	Username      string
	AvatarURL     string
	AuthorName    string
	AuthorURL     string
	AuthorIconURL string
	FooterText    string
	FooterIconURL string
	// LinkBase + record id is the title link.
	LinkBase string
	// NSFWText is drawn over obscured artwork.
	NSFWText string
}

type Config struct {
	Branding Branding
	OnError  ErrorPolicy
	// RatePerSec paces sends across all records; 0 disables pacing.
	RatePerSec float64
	// DedupWindow is how long a delivered revision stays marked.
	DedupWindow time.Duration
	// Policy is the detector's change policy; it decides what counts as a
	// revision in the journal.
	Policy changes.Policy
	// DryRun builds every notification but sends nothing.
	DryRun bool
}

// Outcome is what happened to one record.
type Outcome string

const (
	OutcomeSent      Outcome = "sent"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
	OutcomeDryRun    Outcome = "dry-run"
)

// Item is the report line for one record.
type Item struct {
	ID      string
	Name    string
	Kind    changes.Kind
	Outcome Outcome
	// Err is set for skipped and failed records.
	Err error
	// MirrorErrs holds failures of secondary sinks; they do not fail the record.
	MirrorErrs []error
}

// Report summarises a Dispatch call. Records after an abort are absent.
type Report struct {
	Items []Item
}

func (r *Report) add(it Item) { r.Items = append(r.Items, it) }

func (r Report) Count(o Outcome) int {
	n := 0
	for _, it := range r.Items {
		if it.Outcome == o {
			n++
		}
	}
	return n
}

func (r Report) Sent() int      { return r.Count(OutcomeSent) }
func (r Report) Skipped() int   { return r.Count(OutcomeSkipped) }
func (r Report) Duplicate() int { return r.Count(OutcomeDuplicate) }
func (r Report) Failed() int    { return r.Count(OutcomeFailed) }

// OK reports whether no record failed.
func (r Report) OK() bool { return r.Failed() == 0 }
