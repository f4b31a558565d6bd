package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": jsonl audit log + dedup snapshot/journal
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// AuditEntry records one delivery attempt.
// Keep it compact and schema-stable.
type AuditEntry struct {
	At          time.Time `json:"at"`
	Sink        string    `json:"sink"`
	RecordID    string    `json:"record_id"`
	Name        string    `json:"name,omitempty"`
	DateUpdated string    `json:"date_updated,omitempty"`
	Kind        string    `json:"kind,omitempty"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	TookMS      int64     `json:"took_ms"`
}
