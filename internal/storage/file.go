package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "gamewatch/pkg/logx"
)

const compactEvery = 200

// fileStore keeps the journal in plain files sharing one prefix:
//
//	<prefix>.deliveries.jsonl  audit entries, append-only
//	<prefix>.dedup.json        dedup snapshot
//	<prefix>.dedup.log         dedup marks written since the last snapshot
//
// The log is folded into the snapshot every compactEvery marks and on Close.
type fileStore struct {
	log logx.Logger

	mu       sync.Mutex
	audit    *os.File
	marks    *os.File
	snapPath string
	dedup    map[string]int64 // unix milli
	pending  int
}

type dedupMark struct {
	Key   string `json:"key"`
	Until int64  `json:"until"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	prefix := strings.TrimSuffix(path, filepath.Ext(path))
	if err := os.MkdirAll(filepath.Dir(prefix), 0o755); err != nil {
		return nil, err
	}

	st := &fileStore{
		log:      log,
		snapPath: prefix + ".dedup.json",
		dedup:    map[string]int64{},
	}
	if err := readSnapshot(st.snapPath, st.dedup); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("dedup snapshot unreadable; starting empty", logx.Err(err))
	}
	if err := replayMarks(prefix+".dedup.log", st.dedup); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("dedup log unreadable", logx.Err(err))
	}
	dropExpired(st.dedup, time.Now())

	var err error
	if st.audit, err = os.OpenFile(prefix+".deliveries.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err != nil {
		return nil, err
	}
	if st.marks, err = os.OpenFile(prefix+".dedup.log", os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600); err != nil {
		_ = st.audit.Close()
		return nil, err
	}
	log.Debug("journal opened", logx.String("prefix", prefix), logx.Int("dedup_keys", len(st.dedup)))
	return st, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audit == nil {
		return nil
	}
	var errs []error
	if s.pending > 0 {
		errs = append(errs, s.compactLocked())
	}
	errs = append(errs, s.audit.Close(), s.marks.Close())
	s.audit, s.marks = nil, nil
	return errors.Join(errs...)
}

func (s *fileStore) AppendAudit(_ context.Context, e AuditEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audit == nil {
		return ErrDisabled
	}
	return json.NewEncoder(s.audit).Encode(e)
}

func (s *fileStore) PutDedup(_ context.Context, key string, until time.Time) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	m := dedupMark{Key: key, Until: until.UnixMilli()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marks == nil {
		return ErrDisabled
	}
	if err := json.NewEncoder(s.marks).Encode(m); err != nil {
		return err
	}
	s.dedup[key] = m.Until
	s.pending++
	if s.pending >= compactEvery {
		if err := s.compactLocked(); err != nil {
			s.log.Debug("dedup compact failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) GetDedup(_ context.Context, key string) (time.Time, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return time.Time{}, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.dedup[key]
	if !ok {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (s *fileStore) compactLocked() error {
	dropExpired(s.dedup, time.Now())
	b, err := json.Marshal(s.dedup)
	if err != nil {
		return err
	}
	tmp := s.snapPath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.snapPath); err != nil {
		return fmt.Errorf("replace dedup snapshot: %w", err)
	}
	if err := s.marks.Truncate(0); err != nil {
		return err
	}
	if _, err := s.marks.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	s.pending = 0
	return nil
}

func readSnapshot(path string, out map[string]int64) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var m map[string]int64
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	for k, v := range m {
		out[k] = v
	}
	return nil
}

// replayMarks applies logged marks over the snapshot. A torn last line from
// a crash mid-write is ignored.
func replayMarks(path string, out map[string]int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m dedupMark
		if json.Unmarshal(sc.Bytes(), &m) != nil || m.Key == "" {
			continue
		}
		out[m.Key] = m.Until
	}
	return sc.Err()
}

func dropExpired(m map[string]int64, now time.Time) {
	cut := now.UnixMilli()
	for k, v := range m {
		if v < cut {
			delete(m, k)
		}
	}
}
