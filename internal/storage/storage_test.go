package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "gamewatch/pkg/logx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDisabled(t *testing.T) {
	for _, d := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: d}, logx.Nop())
		require.NoError(t, err)
		assert.Nil(t, st)
	}
	_, err := Open(Config{Driver: "redis"}, logx.Nop())
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestActiveNilStore(t *testing.T) {
	ok, err := Active(context.Background(), nil, "k", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func testStoreContract(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	_, ok, err := st.GetDedup(ctx, "1@2024-01-01")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.PutDedup(ctx, "1@2024-01-01", now.Add(time.Hour)))
	require.NoError(t, st.PutDedup(ctx, "2@2024-01-01", now.Add(-time.Hour)))
	require.NoError(t, st.PutDedup(ctx, "", now.Add(time.Hour)))

	until, ok, err := st.GetDedup(ctx, "1@2024-01-01")
	require.NoError(t, err)
	require.True(t, ok)
	assert.WithinDuration(t, now.Add(time.Hour), until, time.Second)

	active, err := Active(ctx, st, "1@2024-01-01", now)
	require.NoError(t, err)
	assert.True(t, active)
	active, err = Active(ctx, st, "2@2024-01-01", now)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, st.AppendAudit(ctx, AuditEntry{Sink: "discord", RecordID: "1", Outcome: "sent", TookMS: 12}))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "gamewatch.db")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	require.NoError(t, err)
	testStoreContract(t, st)
	require.NoError(t, st.Close())
	require.NoError(t, st.Close())

	prefix := filepath.Join(filepath.Dir(path), "gamewatch")
	f, err := os.Open(prefix + ".deliveries.jsonl")
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	var e AuditEntry
	require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
	assert.Equal(t, "discord", e.Sink)
	assert.Equal(t, "sent", e.Outcome)
	assert.False(t, e.At.IsZero())

	// Marks survive a reopen (folded into the snapshot on Close).
	st, err = Open(Config{Driver: "file", Path: path}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()
	_, ok, err := st.GetDedup(context.Background(), "1@2024-01-01")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = st.GetDedup(context.Background(), "2@2024-01-01")
	require.NoError(t, err)
	assert.False(t, ok, "expired marks are dropped on load")
}

func TestFileStoreReplaysLogAfterCrash(t *testing.T) {
	dir := t.TempDir()
	until := time.Now().Add(time.Hour).UnixMilli()
	line, _ := json.Marshal(dedupMark{Key: "7@x", Until: until})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "j.dedup.log"), append(append(line, '\n'), []byte(`{"key":"tor`)...), 0o600))

	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "j.json")}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()
	got, ok, err := st.GetDedup(context.Background(), "7@x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, until, got.UnixMilli())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.sqlite")
	st, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	require.NoError(t, err)
	defer st.Close()
	testStoreContract(t, st)

	var n int
	require.NoError(t, st.(*sqliteStore).db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM audit WHERE record_id = ?`, "1").Scan(&n))
	assert.Equal(t, 1, n)

	_, err = Open(Config{Driver: "sqlite"}, logx.Nop())
	assert.Error(t, err)
}
