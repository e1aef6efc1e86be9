// Package errors provides error handling conventions for the mcphub CLI.
//
// It defines the sentinel errors of the process-management taxonomy, an
// ExitError type for CLI exit code handling, and re-exports the
// github.com/cockroachdb/errors helpers used throughout the module so that
// packages import a single errors package.
//
// # Taxonomy
//
//   - [ErrPortExhausted]: no free port in the bounded probe range
//   - [ErrSpawn]: the OS failed to create the process; the registry is untouched
//   - [ErrProcessNotFound]: the target pid has no live OS process
//   - [ErrPermissionDenied]: the OS refused signal delivery
//   - [ErrCorruptRegistry]: the registry file is unreadable; never reset silently
//
// Lower layers mark or wrap these sentinels; callers test with [Is]:
//
//	if errors.Is(err, errors.ErrProcessNotFound) {
//	    // report, don't crash
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (unknown pid, unknown server, bad flags)
//   - ExitSystem (2): System-related error (spawn, ports, permissions, registry)
//
// [FromError] maps taxonomy errors to an [ExitError] carrying the exit code
// and a suggestion for the user.
package errors
