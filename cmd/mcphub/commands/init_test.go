package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_CreatesConfigInWorkingDir(t *testing.T) {
	isolate(t)

	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	data, err := os.ReadFile(".mcphub.json")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{}, got["mcpServers"])

	out, err = execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No MCP servers configured in")
}

func TestInit_RefusesToOverwrite(t *testing.T) {
	isolate(t)
	writeServers(t, sleeperServers)

	_, err := execute(t, "init")
	require.Error(t, err)

	data, err := os.ReadFile(".mcphub.json")
	require.NoError(t, err)
	assert.Equal(t, sleeperServers, string(data))
}

func TestInit_GlobalTOML(t *testing.T) {
	dataDir := isolate(t)

	_, err := execute(t, "init", "--global", "--toml")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dataDir, ".mcphub.toml"))
	assert.NoFileExists(t, ".mcphub.json")
}
