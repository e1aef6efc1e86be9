// Package lifecycle starts, stops and reports on MCP server processes.
//
// A [Manager] is built per CLI invocation from a registry.Store. It loads
// the registry once, reconciles it with live OS state through a
// procinfo.Inspector, and persists every mutation before returning.
//
//	mgr, err := lifecycle.New(registry.NewFileStore(cfg.RegistryFile()),
//	    lifecycle.WithLogDir(cfg.InstanceLogDir()),
//	    lifecycle.WithLogger(logger),
//	)
//	pid, err := mgr.Start(ctx, "github", argv, env)
//
// Processes started by one invocation are stopped by another: the only
// link between them is the pid stored in the registry.
package lifecycle
