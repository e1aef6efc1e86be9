package commands

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/lifecycle"
)

var startedPID = regexp.MustCompile(`\(pid (\d+)\)`)

// startDetached runs `mcphub run <name> -d` and returns the new pid.
func startDetached(t *testing.T, name string) int {
	t.Helper()
	out, err := execute(t, "run", name, "-d")
	require.NoError(t, err)
	return startedPIDFrom(t, out)
}

func TestKill_UnknownPID(t *testing.T) {
	isolate(t)

	_, err := execute(t, "kill", "999999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProcessNotFound))
	assert.Contains(t, err.Error(), "Process 999999 not found or not an MCP server")
	assert.Equal(t, errors.ExitUser, errors.FromError(err).Code)
}

func TestKill_InvalidPID(t *testing.T) {
	isolate(t)

	_, err := execute(t, "kill", "abc")
	require.Error(t, err)
	assert.Equal(t, errors.ExitUser, errors.FromError(err).Code)
}

func TestKill_NeedsExactlyOneSelector(t *testing.T) {
	isolate(t)

	_, err := execute(t, "kill")
	assert.Error(t, err)

	_, err = execute(t, "kill", "123", "--all")
	assert.Error(t, err)
}

func TestKill_StopsRunningInstance(t *testing.T) {
	requirePOSIX(t)
	isolate(t)
	writeServers(t, sleeperServers)

	pid := startDetached(t, "demo")

	out, err := execute(t, "ps")
	require.NoError(t, err)
	assert.Contains(t, out, strconv.Itoa(pid))
	assert.Contains(t, out, "Running: 1 server(s)")

	out, err = execute(t, "kill", strconv.Itoa(pid))
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully stopped MCP server process "+strconv.Itoa(pid))
	assert.Contains(t, out, "Server 'demo' is no longer running")

	out, err = execute(t, "ps")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = execute(t, "kill", strconv.Itoa(pid))
	assert.True(t, errors.Is(err, errors.ErrProcessNotFound))
}

func TestKill_Force(t *testing.T) {
	requirePOSIX(t)
	isolate(t)
	writeServers(t, sleeperServers)

	pid := startDetached(t, "demo")

	out, err := execute(t, "kill", strconv.Itoa(pid), "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Process "+strconv.Itoa(pid)+" killed forcefully")

	out, err = execute(t, "ps")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestKill_All(t *testing.T) {
	requirePOSIX(t)
	isolate(t)
	writeServers(t, sleeperServers)

	startDetached(t, "demo")
	startDetached(t, "demo")

	out, err := execute(t, "kill", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Stopped 2 instance(s)")
}

func TestKill_AllConfirmation(t *testing.T) {
	requirePOSIX(t)
	isolate(t)
	writeServers(t, sleeperServers)

	orig := stdinIsTerminal
	defer func() { stdinIsTerminal = orig }()
	stdinIsTerminal = func(any) bool { return true }

	startDetached(t, "demo")

	out, err := executeWithInput(t, "n\n", "kill", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Stop 1 instance(s)? [y/N]")
	assert.Contains(t, out, "Aborted")
	assert.NotContains(t, out, "Stopped")

	out, err = executeWithInput(t, "", "kill", "--all")
	require.NoError(t, err)
	assert.NotContains(t, out, "Stopped", "EOF cancels")

	out, err = executeWithInput(t, "y\n", "kill", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Stopped 1 instance(s)")
}

func TestKill_AllYesSkipsPrompt(t *testing.T) {
	requirePOSIX(t)
	isolate(t)

	orig := stdinIsTerminal
	defer func() { stdinIsTerminal = orig }()
	stdinIsTerminal = func(any) bool { return true }

	out, err := execute(t, "kill", "--all", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Stopped 0 instance(s)\n", out)
}

func TestKill_InteractiveAbort(t *testing.T) {
	requirePOSIX(t)
	isolate(t)
	writeServers(t, sleeperServers)

	pid := startDetached(t, "demo")

	orig := pickInstance
	defer func() { pickInstance = orig }()
	pickInstance = func([]lifecycle.Info) (int, error) { return 0, fuzzyfinder.ErrAbort }

	_, err := execute(t, "kill", "-i")
	require.NoError(t, err)

	pickInstance = func(infos []lifecycle.Info) (int, error) {
		require.Len(t, infos, 1)
		assert.Equal(t, pid, infos[0].Instance.PID)
		return 0, nil
	}
	out, err := execute(t, "kill", "-i")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully stopped MCP server process "+strconv.Itoa(pid))
}

func TestKill_InteractiveNothingRunning(t *testing.T) {
	isolate(t)

	out, err := execute(t, "kill", "-i")
	require.NoError(t, err)
	assert.Contains(t, out, "No MCP servers running")
}
