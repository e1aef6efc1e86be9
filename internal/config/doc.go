// Package config provides configuration management for the mcphub CLI.
//
// This is the tool's own configuration, distinct from the servers config
// (.mcphub.json) that describes which MCP servers can be run.
//
// # Configuration File
//
// The default location is $XDG_CONFIG_HOME/mcphub/config.yaml; a
// config.yaml in the working directory takes precedence. Every key can be
// overridden from the environment with the MCPHUB_ prefix
// (MCPHUB_DEFAULT_PORT=4000).
//
//	data_dir: ~/.mcphub        # registry, logs, global servers config
//	default_port: 3000         # first port probed when none is given
//	max_port_attempts: 100     # probe budget before ErrPortExhausted
//	grace_period: 5s           # wait after SIGTERM before SIGKILL
//	settle_delay: 1s           # wait after spawn before port attribution
//
// # Loading Configuration
//
//	config.Init()
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
package config
