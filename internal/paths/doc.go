// Package paths resolves the per-user locations mcphub reads and writes.
//
// # Data Directory
//
// Runtime state lives in a single data directory, ~/.mcphub by default:
//
//	~/.mcphub/
//	├── processes.json   process registry (one entry per running instance)
//	├── .mcphub.json     global servers config (optional)
//	└── logs/            stdout/stderr of spawned servers
//
// The MCPHUB_DATA_DIR environment variable overrides the location, which
// keeps tests and parallel sandboxes isolated from the user's registry.
//
// # Configuration Directory
//
// The application config follows the XDG Base Directory Specification via
// github.com/adrg/xdg: $XDG_CONFIG_HOME/mcphub/config.yaml.
package paths
