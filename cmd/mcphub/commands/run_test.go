package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/registry"
)

func TestRun_UnknownServer(t *testing.T) {
	isolate(t)
	writeServers(t, sleeperServers)

	_, err := execute(t, "run", "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrServerNotFound))
	assert.Equal(t, errors.ExitUser, errors.FromError(err).Code)
}

func TestRun_NoServersConfig(t *testing.T) {
	isolate(t)

	_, err := execute(t, "run", "demo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRun_DetachRecordsInstance(t *testing.T) {
	requirePOSIX(t)
	dataDir := isolate(t)
	writeServers(t, sleeperServers)

	out, err := execute(t, "run", "demo", "-d", "--port", "4555")
	require.NoError(t, err)
	pid := startedPIDFrom(t, out)
	t.Cleanup(func() {
		if p, err := os.FindProcess(pid); err == nil {
			_ = p.Kill()
		}
	})

	assert.Contains(t, out, "Started demo (pid "+strconv.Itoa(pid)+") on port 4555")
	assert.Contains(t, out, "Warning: Port 4555 is not available")
	assert.Contains(t, out, "mcphub kill "+strconv.Itoa(pid))

	store := registry.NewFileStore(filepath.Join(dataDir, "processes.json"))
	reg, err := store.Load()
	require.NoError(t, err)
	inst, ok := reg["demo:4555"]
	require.True(t, ok, "registry: %v", reg.IDs())
	assert.Equal(t, pid, inst.PID)
	assert.Equal(t, []string{"sh", "-c", "exec sleep 100", "--port", "4555"}, inst.Command)
	assert.Equal(t, "ghp_abcdef123456", inst.Env["GITHUB_TOKEN"])
	assert.FileExists(t, inst.LogFile)
}

func TestRun_ForegroundStopsOnCancel(t *testing.T) {
	requirePOSIX(t)
	isolate(t)
	writeServers(t, sleeperServers)

	ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
	defer cancel()

	resetFlags(rootCmd)
	resetContexts(rootCmd, ctx)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "demo"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	start := time.Now()
	require.NoError(t, rootCmd.ExecuteContext(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond, "ran until the context expired")

	assert.Contains(t, out.String(), "Server is running")
	assert.Contains(t, out.String(), "Server stopped")

	psOut, err := execute(t, "ps")
	require.NoError(t, err)
	assert.Empty(t, psOut)
}

func TestRun_ForegroundReportsExit(t *testing.T) {
	requirePOSIX(t)
	dataDir := isolate(t)
	writeServers(t, sleeperServers)

	out, err := execute(t, "run", "quick")
	require.NoError(t, err)
	assert.Contains(t, out, "Server exited")

	data, err := os.ReadFile(filepath.Join(dataDir, "processes.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(data))
}

func startedPIDFrom(t *testing.T, out string) int {
	t.Helper()
	m := startedPID.FindStringSubmatch(out)
	require.Len(t, m, 2, "output: %s", out)
	pid, err := strconv.Atoi(m[1])
	require.NoError(t, err)
	return pid
}
