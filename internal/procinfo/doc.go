// Package procinfo inspects and signals OS processes.
//
// The lifecycle manager only talks to processes through the [Inspector]
// interface; [System] is the real implementation backed by
// github.com/shirou/gopsutil/v4. Errors returned by System are marked with
// errors.ErrProcessNotFound when the process is gone and
// errors.ErrPermissionDenied when the OS refuses access.
package procinfo
