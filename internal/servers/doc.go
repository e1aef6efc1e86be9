// Package servers reads the servers config that names the MCP servers
// mcphub can run, and turns an entry into a command line.
//
// The config is JSON (.mcphub.json) or TOML (.mcphub.toml) with a single
// top-level mcpServers table:
//
//	{
//	  "mcpServers": {
//	    "github": {
//	      "package_name": "@modelcontextprotocol/server-github",
//	      "env": {"GITHUB_PERSONAL_ACCESS_TOKEN": "${GITHUB_TOKEN}"}
//	    }
//	  }
//	}
//
// The working directory is searched before the data directory; the first
// file found wins.
package servers
