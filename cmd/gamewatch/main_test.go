package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	prevJSON = `[{"id":1,"name":"Alpha","subName":"","description":"","thumbnail":"http://127.0.0.1:1/1.png","dateUpdated":"2024-01-01","genres":[]}]`
	curJSON  = `[{"id":1,"name":"Alpha","subName":"","description":"","thumbnail":"http://127.0.0.1:1/1.png","dateUpdated":"2024-02-01","genres":[]},
{"id":"2","name":"Beta","subName":"","description":"","thumbnail":"http://127.0.0.1:1/2.png","dateUpdated":"2024-01-01","genres":["NSFW"]}]`
)

func fixtures(t *testing.T) (dir, cur, prev string) {
	t.Helper()
	dir = t.TempDir()
	cur = filepath.Join(dir, "games.json")
	prev = filepath.Join(dir, "previous_games.json")
	require.NoError(t, os.WriteFile(cur, []byte(curJSON), 0o644))
	require.NoError(t, os.WriteFile(prev, []byte(prevJSON), 0o644))
	return dir, cur, prev
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	t.Setenv("AUTHOR_ICON_URL", "")
	t.Setenv("GAMEWATCH_MODE", "")
	var out, errOut bytes.Buffer
	code := execute(context.Background(), append(args, "--log-level", "error"), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunReportMode(t *testing.T) {
	_, cur, prev := fixtures(t)
	code, out, _ := run(t, "run", "--mode", "report", "--current", cur, "--previous", prev)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "5 Alpha\n4 Beta\n", out)

	b, err := os.ReadFile(prev)
	require.NoError(t, err)
	assert.Equal(t, prevJSON, string(b))
}

func TestRunNoChangesExitsZero(t *testing.T) {
	_, cur, _ := fixtures(t)
	code, out, _ := run(t, "run", "--mode", "report", "--current", cur, "--previous", cur)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "No changes detected.\n", out)
}

func TestDiffPrintsJSON(t *testing.T) {
	_, cur, prev := fixtures(t)
	code, out, _ := run(t, "diff", "--current", cur, "--previous", prev)
	require.Equal(t, exitOK, code)

	var got []struct {
		Kind   string         `json:"kind"`
		Record map[string]any `json:"record"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "changed", got[0].Kind)
	assert.Equal(t, "new", got[1].Kind)
	assert.Equal(t, "2", got[1].Record["id"])
}

func TestConfigErrorsAreUsageErrors(t *testing.T) {
	_, cur, prev := fixtures(t)

	// changed mode without a webhook
	code, _, errOut := run(t, "run", "--current", cur, "--previous", prev)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "webhook_url")

	code, _, _ = run(t, "run", "--mode", "loud")
	assert.Equal(t, exitUsage, code)

	code, _, _ = run(t, "run", "--bogus")
	assert.Equal(t, exitUsage, code)

	code, _, _ = run(t, "run", "extra-arg")
	assert.Equal(t, exitUsage, code)
}

func TestMissingInputIsRunFailure(t *testing.T) {
	dir, _, prev := fixtures(t)
	code, _, errOut := run(t, "run", "--mode", "report", "--current", filepath.Join(dir, "nope.json"), "--previous", prev)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, "load current")
}

func TestConfigFile(t *testing.T) {
	dir, cur, prev := fixtures(t)
	cfgPath := filepath.Join(dir, "gamewatch.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"mode: report\nfiles:\n  current: "+cur+"\n  previous: "+prev+"\n"), 0o644))

	code, out, _ := run(t, "run", "--config", cfgPath)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "5 Alpha\n4 Beta\n", out)

	// flags beat the file
	code, out, _ = run(t, "run", "--config", cfgPath, "--mode", "new", "--dry-run")
	assert.Equal(t, exitOK, code)
	assert.Empty(t, out)
}
