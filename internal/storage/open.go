package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "gamewatch/pkg/logx"
)

// Store is the journal API used by the dispatcher.
type Store interface {
	AppendAudit(ctx context.Context, e AuditEntry) error
	PutDedup(ctx context.Context, key string, until time.Time) error
	GetDedup(ctx context.Context, key string) (until time.Time, ok bool, err error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "storage"), logx.String("driver", driver))

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

// Active reports whether a dedup mark is present and not yet expired.
func Active(ctx context.Context, s Store, key string, now time.Time) (bool, error) {
	if s == nil {
		return false, nil
	}
	until, ok, err := s.GetDedup(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return until.After(now), nil
}
