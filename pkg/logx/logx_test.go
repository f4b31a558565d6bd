package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger
	require.True(t, l.IsZero())
	// Must not panic.
	l.Info("nothing", String("k", "v"))
	assert.False(t, Nop().IsZero())
}

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug").With(String("comp", "dispatcher"))
	l.Warn("send failed", Int("attempt", 1), Err(errors.New("boom")))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "warn", m["level"])
	assert.Equal(t, "send failed", m["message"])
	assert.Equal(t, "dispatcher", m["comp"])
	assert.EqualValues(t, 1, m["attempt"])
	assert.NotEmpty(t, m["caller"])
}

func TestWriterLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")
	l.Info("hidden")
	assert.Zero(t, buf.Len())
	assert.False(t, l.Enabled(LevelDebug))
	assert.True(t, l.Enabled(LevelError))
}

func TestServiceFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gamewatch.log")
	svc, log := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}, Stderr: io.Discard})
	log.Info("run finished", String("mode", "changed"))
	require.NoError(t, svc.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(b))
	require.NotEmpty(t, line)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &m))
	assert.Equal(t, "changed", m["mode"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel(" debug "))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestRedactMasksTokens(t *testing.T) {
	in := `Post "https://discord.com/api/webhooks/123456/abc-DEF_ghi?wait=true": dial tcp: refused`
	out := Redact(in)
	assert.Contains(t, out, "https://discord.com/api/webhooks/123456/***?wait=true")
	assert.NotContains(t, out, "abc-DEF_ghi")

	tg := Redact("Post https://api.telegram.org/bot123:AA-bb_cc/sendPhoto: timeout")
	assert.Equal(t, "Post https://api.telegram.org/bot***/sendPhoto: timeout", tg)

	assert.Equal(t, "https://img.test/a.png", Redact("https://img.test/a.png"))
}

func TestErrFieldIsRedacted(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info")
	l.Error("send failed",
		Err(errors.New("get https://discord.com/api/v10/webhooks/1/secret: eof")),
		URL("webhook", "https://discord.com/api/webhooks/1/secret"),
	)
	assert.NotContains(t, buf.String(), "secret")

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "get https://discord.com/api/v10/webhooks/1/***: eof", m["err"])
}

func TestApplyChangesLevelForExistingLoggers(t *testing.T) {
	var console bytes.Buffer
	svc, log := New(Config{Level: "warn", Console: true, Stderr: &console})
	defer svc.Close()

	log.Info("hidden")
	assert.Zero(t, console.Len())

	svc.Apply(Config{Level: "debug", Console: true, Stderr: &console})
	log.With(String("comp", "watch")).Debug("now visible")
	assert.Contains(t, console.String(), "now visible")
}
