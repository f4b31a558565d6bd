// Package changes compares two catalog snapshots.
package changes

import (
	"fmt"
	"strings"

	"gamewatch/internal/catalog"
)

// Kind classifies why a record is part of a ChangeSet.
type Kind string

const (
	KindNew     Kind = "new"
	KindChanged Kind = "changed"
)

// Policy selects how a record present in both snapshots is compared.
type Policy int

const (
	// PolicyTimestamp flags a record when dateUpdated differs. This is the
	// default: upstream bumps dateUpdated on every meaningful edit.
	PolicyTimestamp Policy = iota
	// PolicyWholeRecord flags a record when any field differs, including
	// keys the catalog model does not interpret.
	PolicyWholeRecord
)

func (p Policy) String() string {
	switch p {
	case PolicyTimestamp:
		return "timestamp"
	case PolicyWholeRecord:
		return "whole-record"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts "timestamp" (or "") and "whole-record"/"record".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "timestamp", "date", "dateupdated":
		return PolicyTimestamp, nil
	case "whole-record", "whole_record", "record", "deep":
		return PolicyWholeRecord, nil
	default:
		return 0, fmt.Errorf("unknown change policy %q (use timestamp or whole-record)", s)
	}
}

// Change is one record of a ChangeSet.
type Change struct {
	Kind   Kind           `json:"kind"`
	Record catalog.Record `json:"record"`
}

// ChangeSet lists new or modified records in current-snapshot order.
type ChangeSet []Change

// Records returns the records without classification.
func (cs ChangeSet) Records() []catalog.Record {
	out := make([]catalog.Record, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Record)
	}
	return out
}

// Count returns how many entries have kind k.
func (cs ChangeSet) Count(k Kind) int {
	n := 0
	for _, c := range cs {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// Detector compares snapshots under a fixed policy.
type Detector struct {
	Policy Policy
}

// Detect uses the default timestamp policy.
func Detect(current, previous catalog.Dataset) ChangeSet {
	return Detector{}.Detect(current, previous)
}

// DetectNewOnly returns only records whose id is absent from previous.
func DetectNewOnly(current, previous catalog.Dataset) ChangeSet {
	return Detector{}.DetectNewOnly(current, previous)
}

// Detect returns records of current that are absent from previous or that
// differ from their previous version under d.Policy.
func (d Detector) Detect(current, previous catalog.Dataset) ChangeSet {
	return d.scan(current, previous, true)
}

// DetectNewOnly ignores modifications.
func (d Detector) DetectNewOnly(current, previous catalog.Dataset) ChangeSet {
	return d.scan(current, previous, false)
}

func (d Detector) scan(current, previous catalog.Dataset, withChanged bool) ChangeSet {
	prev := previous.Index()
	var out ChangeSet
	for _, r := range unique(current) {
		old, ok := prev[r.ID.String()]
		switch {
		case !ok:
			out = append(out, Change{Kind: KindNew, Record: r})
		case withChanged && d.differs(old, r):
			out = append(out, Change{Kind: KindChanged, Record: r})
		}
	}
	return out
}

func (d Detector) differs(old, cur catalog.Record) bool {
	if d.Policy == PolicyWholeRecord {
		return !old.Equal(cur)
	}
	return old.DateUpdated != cur.DateUpdated
}

// unique collapses repeated ids: the first occurrence keeps its position and
// the last occurrence provides the content.
func unique(ds catalog.Dataset) catalog.Dataset {
	pos := make(map[string]int, len(ds))
	out := make(catalog.Dataset, 0, len(ds))
	for _, r := range ds {
		k := r.ID.String()
		if i, ok := pos[k]; ok {
			out[i] = r
			continue
		}
		pos[k] = len(out)
		out = append(out, r)
	}
	return out
}
