package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every mcphub location at temp dirs and makes the
// lifecycle timings short.
func isolate(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	dataDir := filepath.Join(home, ".mcphub")
	t.Setenv("MCPHUB_DATA_DIR", dataDir)
	t.Setenv("MCPHUB_SETTLE_DELAY", "10ms")
	t.Setenv("MCPHUB_GRACE_PERIOD", "2s")
	t.Setenv("MCPHUB_DEBUG", "")

	t.Chdir(t.TempDir())
	return dataDir
}

// execute runs the root command with args and returns what it wrote to
// stdout. Flag values from earlier runs are reset first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

// executeWithInput is execute with stdin reading from input.
func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	resetContexts(rootCmd, t.Context())
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// resetContexts hands ctx to every subcommand. cobra only fills in a
// subcommand context that is still nil, so one from an earlier run would
// otherwise stick.
func resetContexts(c *cobra.Command, ctx context.Context) {
	for _, sub := range c.Commands() {
		sub.SetContext(ctx)
		resetContexts(sub, ctx)
	}
}

// writeServers writes a .mcphub.json into the working directory.
func writeServers(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(".mcphub.json", []byte(content), 0o644))
}

const sleeperServers = `{
  "mcpServers": {
    "demo": {
      "command": "sh",
      "args": ["-c", "exec sleep 100"],
      "env": {"GITHUB_TOKEN": "ghp_abcdef123456"}
    },
    "quick": {
      "command": "sh",
      "args": ["-c", "exit 0"]
    }
  }
}`

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func TestExecute_ReplacesStaleContext(t *testing.T) {
	isolate(t)

	stale, cancel := context.WithCancel(context.Background())
	cancel()
	runCmd.SetContext(stale)
	versionCmd.SetContext(stale)

	_, err := execute(t, "version")
	require.NoError(t, err)
	assert.NoError(t, runCmd.Context().Err())
	assert.NoError(t, versionCmd.Context().Err())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func TestJoinPorts(t *testing.T) {
	assert.Equal(t, "-", joinPorts(nil))
	assert.Equal(t, "3000, 3001", joinPorts([]int{3000, 3001}))
}

func TestSplitHints(t *testing.T) {
	assert.Nil(t, splitHints(""))
	assert.Equal(t, []string{"first", "second"}, splitHints("first\n--\nsecond"))
}
