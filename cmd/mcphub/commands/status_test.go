package commands

import (
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

func TestStatus_NotRunning(t *testing.T) {
	isolate(t)
	writeServers(t, sleeperServers)

	out, err := execute(t, "status", "demo")
	require.NoError(t, err)

	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "sh -c exec sleep 100")
	assert.Contains(t, out, "Working Directory:")
	assert.Contains(t, out, "GITHUB_TOKEN=****3456")
	assert.NotContains(t, out, "ghp_abcdef123456")
	assert.Contains(t, out, "Status: Not Running")
}

func TestStatus_UnknownServer(t *testing.T) {
	isolate(t)
	writeServers(t, sleeperServers)

	_, err := execute(t, "status", "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrServerNotFound))
}

func TestStatus_RunningInstanceWithProbe(t *testing.T) {
	requirePOSIX(t)
	isolate(t)
	writeServers(t, sleeperServers)

	pid := startDetached(t, "demo")
	t.Cleanup(func() {
		if p, err := os.FindProcess(pid); err == nil {
			_ = p.Kill()
		}
	})

	out, err := execute(t, "status", "demo", "--probe")
	require.NoError(t, err)

	assert.Contains(t, out, "Status: Running (1 instance(s))")
	assert.Contains(t, out, "pid "+strconv.Itoa(pid))
	assert.Contains(t, out, "probe: skipped (not an SSE instance)")
}
