package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_NoConfig(t *testing.T) {
	isolate(t)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No MCP servers configured")
	assert.Contains(t, out, "mcphub init")
}

func TestList_Servers(t *testing.T) {
	isolate(t)
	writeServers(t, `{
  "mcpServers": {
    "github": {
      "package_name": "@modelcontextprotocol/server-github",
      "repo_url": "https://github.com/modelcontextprotocol/servers",
      "env": {"GITHUB_TOKEN": "x", "LOG_LEVEL": "debug"}
    },
    "local": {
      "command": "node",
      "args": ["build/index.js", "--some-really-long-argument-name", "value"]
    }
  }
}`)

	out, err := execute(t, "list")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "@modelcontextprotocol/server-github")
	assert.Contains(t, out, "node build/index.js --some-really-lon...")
	assert.Contains(t, out, "Total: 2 server(s)")
	assert.Contains(t, out, "Use 'mcphub ps' to see process details")
}

func TestList_InvalidConfig(t *testing.T) {
	isolate(t)
	writeServers(t, `{"mcpServers": [}`)

	_, err := execute(t, "list")
	assert.Error(t, err)
}
