// Package logging sets up structured logging for the mcphub CLI on top of
// [log/slog].
//
// Two output formats exist. Text goes through [Handler], one colored line per
// record on a terminal; JSON goes through [NewJSONHandler]. Both mask secrets
// (env overlays, argv flags such as --api-key, token-prefixed values), so an
// instance's environment can be logged as is:
//
//	logger := logging.New(logging.Config{Level: slog.LevelInfo, Format: logging.FormatText})
//	logger.Info("process started", "name", "demo", "pid", 4242, "env", inst.Env)
//
// --log-file adds a JSON sink next to the terminal handler via
// [NewMultiHandler].
//
// The CLI stores its logger in the command context; library code reads it
// back with [FromContext].
//
// Tests use [ForTest] so log lines show up with the test's own output.
package logging
