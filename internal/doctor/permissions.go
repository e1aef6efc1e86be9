package doctor

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// PathSpec names a path the permission check inspects.
type PathSpec struct {
	Path string
	Dir  bool
	// Private paths must not be accessible to group or others; the rest
	// must only not be writable by them.
	Private bool
}

func (p PathSpec) kind() string {
	if p.Dir {
		return "directory"
	}
	return "file"
}

// forbidden returns the permission bits p must not have.
func (p PathSpec) forbidden() os.FileMode {
	if p.Private {
		return 0o077
	}
	return 0o022
}

// target returns the mode --fix applies.
func (p PathSpec) target() os.FileMode {
	switch {
	case p.Private && p.Dir:
		return 0o700
	case p.Private:
		return 0o600
	case p.Dir:
		return 0o755
	default:
		return 0o644
	}
}

// PathPermissionCheck validates the permissions of mcphub's data files.
// The registry and instance logs carry server environments, so they are
// expected to be private to the user.
type PathPermissionCheck struct {
	PermissionFixer
	paths []PathSpec
}

var (
	_ Check = (*PathPermissionCheck)(nil)
	_ Fixer = (*PathPermissionCheck)(nil)
)

// NewPathPermissionCheck creates a permission check over paths. Missing
// paths are skipped.
func NewPathPermissionCheck(paths ...PathSpec) *PathPermissionCheck {
	return &PathPermissionCheck{paths: paths}
}

// Name returns the unique identifier for this check.
func (c *PathPermissionCheck) Name() string {
	return "path-permissions"
}

// Category returns the grouping for this check.
func (c *PathPermissionCheck) Category() string {
	return "filesystem"
}

// pathIssue represents a single path or permission problem.
type pathIssue struct {
	Path        string
	Type        string
	Problem     string
	Severity    Severity
	Permissions string
	Target      os.FileMode
	Fixable     bool
	FixHint     string
}

// Run executes the path and permission diagnostic check.
func (c *PathPermissionCheck) Run() *CheckResult {
	var issues []pathIssue
	checked := 0

	for _, spec := range c.paths {
		info, err := os.Stat(spec.Path)
		if os.IsNotExist(err) {
			continue
		}
		checked++
		if err != nil {
			issues = append(issues, pathIssue{
				Path:     spec.Path,
				Type:     spec.kind(),
				Problem:  fmt.Sprintf("cannot stat: %v", err),
				Severity: SeverityError,
			})
			continue
		}

		if info.IsDir() != spec.Dir {
			issues = append(issues, pathIssue{
				Path:     spec.Path,
				Type:     spec.kind(),
				Problem:  "expected a " + spec.kind(),
				Severity: SeverityError,
				FixHint:  "move " + spec.Path + " aside",
			})
			continue
		}

		// Unix permission bits don't apply on Windows
		if runtime.GOOS == "windows" {
			continue
		}
		if extra := info.Mode().Perm() & spec.forbidden(); extra != 0 {
			problem := "writable by group or others"
			if spec.Private {
				problem = "accessible by group or others"
			}
			issues = append(issues, pathIssue{
				Path:        spec.Path,
				Type:        spec.kind(),
				Problem:     problem,
				Severity:    SeverityWarning,
				Permissions: formatPermissions(info.Mode()),
				Target:      spec.target(),
				Fixable:     true,
				FixHint:     fmt.Sprintf("chmod %o %s", spec.target(), spec.Path),
			})
		}
	}

	c.setIssues(issues)
	return c.buildResult(issues, checked)
}

// buildResult constructs the final CheckResult from accumulated issues.
func (c *PathPermissionCheck) buildResult(issues []pathIssue, checked int) *CheckResult {
	if len(issues) == 0 {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityPass,
			Message:  fmt.Sprintf("all %d paths have valid permissions", checked),
		}
	}

	status := SeverityPass
	fixable := false
	var fixHints []string
	issueDetails := make([]map[string]any, 0, len(issues))
	for _, issue := range issues {
		status = worst(status, issue.Severity)

		detail := map[string]any{
			"path":     issue.Path,
			"type":     issue.Type,
			"problem":  issue.Problem,
			"severity": issue.Severity.String(),
		}
		if issue.Permissions != "" {
			detail["permissions"] = issue.Permissions
		}
		if issue.FixHint != "" {
			detail["fix_hint"] = issue.FixHint
			fixHints = append(fixHints, issue.FixHint)
		}
		if issue.Fixable {
			fixable = true
		}
		issueDetails = append(issueDetails, detail)
	}

	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   status,
		Message:  fmt.Sprintf("found %d permission issue(s) across %d paths", len(issues), checked),
		Details: map[string]any{
			"checked_paths": checked,
			"issue_count":   len(issues),
			"issues":        issueDetails,
		},
		Fixable: fixable,
		FixHint: strings.Join(fixHints, "; "),
	}
}

// formatPermissions returns a human-readable permission string (e.g., "0644").
func formatPermissions(mode os.FileMode) string {
	return fmt.Sprintf("%04o", mode.Perm())
}
