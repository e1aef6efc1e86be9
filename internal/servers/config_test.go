package servers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

const sampleJSON = `{
  "mcpServers": {
    "github": {
      "package_name": "@modelcontextprotocol/server-github",
      "repo_url": "https://github.com/modelcontextprotocol/servers",
      "env": {"GITHUB_PERSONAL_ACCESS_TOKEN": "${MCPHUB_TEST_TOKEN}"}
    },
    "fs": {
      "command": "npx",
      "args": ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"],
      "cwd": "/tmp"
    }
  }
}`

const sampleTOML = `
[mcpServers.time]
command = "uvx"
args = ["mcp-server-time"]
description = "Time and timezone tools"

[mcpServers.time.env]
TZ = "UTC"
`

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadFile_JSON(t *testing.T) {
	path := write(t, t.TempDir(), ".mcphub.json", sampleJSON)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"fs", "github"}, cfg.Names())
	assert.Equal(t, path, cfg.Path)

	gh, err := cfg.Get("github")
	require.NoError(t, err)
	assert.Equal(t, "github", gh.Name)
	assert.Equal(t, "@modelcontextprotocol/server-github", gh.PackageName)

	t.Setenv("MCPHUB_TEST_TOKEN", "ghp_example")
	assert.Equal(t, map[string]string{"GITHUB_PERSONAL_ACCESS_TOKEN": "ghp_example"}, gh.ResolvedEnv())
}

func TestLoadFile_TOML(t *testing.T) {
	path := write(t, t.TempDir(), ".mcphub.toml", sampleTOML)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	tm, err := cfg.Get("time")
	require.NoError(t, err)
	assert.Equal(t, "uvx", tm.Command)
	assert.Equal(t, []string{"mcp-server-time"}, tm.Args)
	assert.Equal(t, "UTC", tm.Env["TZ"])
	assert.Equal(t, "Time and timezone tools", tm.Description)
}

func TestLoadFile_Invalid(t *testing.T) {
	path := write(t, t.TempDir(), ".mcphub.json", `{"mcpServers": [}`)

	_, err := LoadFile(path)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig), "got %v", err)
}

func TestGet_Unknown(t *testing.T) {
	cfg := &Config{Servers: map[string]*Server{}}

	_, err := cfg.Get("missing")
	assert.True(t, errors.Is(err, errors.ErrServerNotFound))
	assert.NotEmpty(t, errors.FlattenHints(err))
}

func TestFind_SearchOrder(t *testing.T) {
	work := t.TempDir()
	data := t.TempDir()

	write(t, data, ".mcphub.json", `{"mcpServers": {"global": {"command": "a"}}}`)
	cfg, err := Find(work, data)
	require.NoError(t, err)
	assert.Equal(t, []string{"global"}, cfg.Names())

	write(t, work, ".mcphub.toml", "[mcpServers.local]\ncommand = \"b\"\n")
	cfg, err = Find(work, data)
	require.NoError(t, err)
	assert.Equal(t, []string{"local"}, cfg.Names(), "working directory wins")

	write(t, work, ".mcphub.json", `{"mcpServers": {"localjson": {"command": "c"}}}`)
	cfg, err = Find(work, data)
	require.NoError(t, err)
	assert.Equal(t, []string{"localjson"}, cfg.Names(), "json before toml")
}

func TestFind_NoneFound(t *testing.T) {
	_, err := Find(t.TempDir(), t.TempDir())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "nested", ".mcphub.json")
	require.NoError(t, WriteDefault(jsonPath))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mcpServers": {}}`, string(data))

	assert.Error(t, WriteDefault(jsonPath), "existing file is not overwritten")

	tomlPath := filepath.Join(dir, ".mcphub.toml")
	require.NoError(t, WriteDefault(tomlPath))
	cfg, err := LoadFile(tomlPath)
	require.NoError(t, err)
	assert.Empty(t, cfg.Servers)
}
