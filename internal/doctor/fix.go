package doctor

import (
	"fmt"
	"os"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// Fixer is implemented by checks that `mcphub doctor --fix` can repair.
// CanFix and Fix act on what the last Run found.
type Fixer interface {
	CanFix() bool
	Fix() []FixResult
}

// FixResult is the outcome of one repair.
type FixResult struct {
	// Check is the name of the check that made the repair. Set by Runner.Fix.
	Check       string `json:"check"`
	Path        string `json:"path"`
	Fixed       bool   `json:"fixed"`
	Description string `json:"description"`
	Error       error  `json:"-"`
}

// PermissionFixer chmods the paths PathPermissionCheck flagged.
type PermissionFixer struct {
	issues []pathIssue
}

// CanFix reports whether any flagged path can be chmodded.
func (f *PermissionFixer) CanFix() bool {
	return f.CountFixable() > 0
}

// Fix chmods every fixable path to its target mode.
func (f *PermissionFixer) Fix() []FixResult {
	var results []FixResult
	for _, issue := range f.issues {
		if !issue.Fixable {
			continue
		}
		fr := FixResult{Path: issue.Path}
		if err := os.Chmod(issue.Path, issue.Target); err != nil {
			fr.Description = fmt.Sprintf("chmod %04o failed: %v", issue.Target, err)
			fr.Error = errors.Wrapf(err, "chmod %04o %s", issue.Target, issue.Path)
		} else {
			fr.Fixed = true
			fr.Description = fmt.Sprintf("chmod %04o", issue.Target)
		}
		results = append(results, fr)
	}
	return results
}

// CountFixable returns how many flagged paths can be chmodded.
func (f *PermissionFixer) CountFixable() int {
	n := 0
	for _, issue := range f.issues {
		if issue.Fixable {
			n++
		}
	}
	return n
}

func (f *PermissionFixer) setIssues(issues []pathIssue) {
	f.issues = issues
}
