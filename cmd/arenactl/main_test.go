package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arena "github.com/pavanmanishd/stackarena"
)

// clearEnv unsets every ARENACTL_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ARENACTL_CONFIG", "ARENACTL_LOG_LEVEL", "ARENACTL_BACKING"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// execute runs arenactl with args and returns what it wrote to stdout and
// stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arenas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const dumpReport = `[DumpTest Arena]
Capacity: 1,024
Free: 1,019
Used: 5
Frames:
    5

`

func TestDumpCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"heap", []string{"dump"}},
		{"mmap", []string{"dump", "--backing", "mmap"}},
		{"explicit arena", []string{"dump", "--arena", "DumpTest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			out, _, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, dumpReport, out)
		})
	}
}

func TestDumpCommandUnknownArena(t *testing.T) {
	clearEnv(t)
	_, _, err := execute(t, "dump", "--arena", "Missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no arena named "Missing"`)
}

func TestDumpCommandExhausted(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "arenas:\n  - name: DumpTest\n    capacity: 16\n")
	_, _, err := execute(t, "dump", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
}

func TestRecurseCommand(t *testing.T) {
	clearEnv(t)
	out, _, err := execute(t, "recurse")
	require.NoError(t, err)
	assert.Equal(t, "result: 255\npeak: 150\n", out)
}

func TestRecurseCommandJSON(t *testing.T) {
	clearEnv(t)
	out, _, err := execute(t, "recurse", "--depth", "3", "--json")
	require.NoError(t, err)

	var res recurseResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, recurseResult{
		Arena:  "RecursiveTest",
		Depth:  3,
		Result: 15,
		Peak:   30,
		Used:   0,
	}, res)
}

func TestRecurseCommandNegativeDepth(t *testing.T) {
	clearEnv(t)
	_, _, err := execute(t, "recurse", "--depth", "-1")
	require.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	clearEnv(t)
	out, _, err := execute(t, "stats")
	require.NoError(t, err)
	for _, want := range []string{"DumpTest", "RecursiveTest", "1,024", "262,144", "263,168", "backing: heap"} {
		assert.Contains(t, out, want)
	}
}

func TestStatsCommandWorkloadJSON(t *testing.T) {
	clearEnv(t)
	out, _, err := execute(t, "stats", "--workload", "--json")
	require.NoError(t, err)

	var report statsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "heap", report.Backing)
	assert.Equal(t, 263168, report.Capacity)
	assert.Zero(t, report.Used)
	require.Len(t, report.Regions, 2)

	dump, recurse := report.Regions[0], report.Regions[1]
	assert.Equal(t, "DumpTest", dump.Name)
	assert.Equal(t, 1024, dump.Free)
	assert.Positive(t, dump.Peak)
	assert.Equal(t, "RecursiveTest", recurse.Name)
	assert.Equal(t, 150, recurse.Peak)
	assert.Zero(t, recurse.Depth)
}

func TestConfigFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARENACTL_CONFIG", writeConfig(t, "backing: mmap\narenas:\n  - name: Scratch\n    capacity: 4KiB\n"))

	out, _, err := execute(t, "dump", "--arena", "Scratch")
	require.NoError(t, err)
	assert.Contains(t, out, "[Scratch Arena]\nCapacity: 4,096\n")

	out, _, err = execute(t, "stats", "--json")
	require.NoError(t, err)
	var report statsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 4096, report.Capacity)
	require.Len(t, report.Regions, 1)
	assert.Equal(t, "Scratch", report.Regions[0].Name)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARENACTL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("ARENACTL_BACKING", "shm")

	path := writeConfig(t, "arenas:\n  - name: DumpTest\n    capacity: 1KiB\n")
	out, _, err := execute(t, "dump", "--config", path, "--backing", "heap")
	require.NoError(t, err)
	assert.Equal(t, dumpReport, out)
}

func TestSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"bad log level flag", nil, []string{"dump", "--log-level", "loud"}},
		{"bad log level env", map[string]string{"ARENACTL_LOG_LEVEL": "loud"}, []string{"dump"}},
		{"bad backing", nil, []string{"dump", "--backing", "shm"}},
		{"missing config", nil, []string{"dump", "--config", "/nonexistent/arenas.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			out, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestInvalidConfigFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "arenas:\n  - name: A\n    capacity: 0\n  - name: A\n    capacity: 8\n")
	_, _, err := execute(t, "stats", "--config", path)
	require.ErrorIs(t, err, arena.ErrInvalidConfig)
}

func TestLogging(t *testing.T) {
	clearEnv(t)
	_, logs, err := execute(t, "dump", "--log-level", "info")
	require.NoError(t, err)
	assert.Contains(t, logs, "arena registry initialized")
	assert.Contains(t, logs, "arena registry released")

	_, logs, err = execute(t, "dump")
	require.NoError(t, err)
	assert.Empty(t, logs)
}
