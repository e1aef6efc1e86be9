package doctor

import (
	"fmt"
	"time"
)

// Check is one diagnostic.
type Check interface {
	Name() string
	// Category groups checks in output: "filesystem", "registry", ...
	Category() string
	Run() *CheckResult
}

// Runner runs checks in registration order.
type Runner struct {
	checks []Check
	now    func() time.Time
}

// NewRunner returns a Runner with no checks.
func NewRunner() *Runner {
	return &Runner{now: time.Now}
}

// AddCheck registers c.
func (r *Runner) AddCheck(c Check) {
	r.checks = append(r.checks, c)
}

// Checks returns the registered checks.
func (r *Runner) Checks() []Check {
	return r.checks
}

// Run executes every check. A check that panics is reported as an error
// result instead of taking the command down.
func (r *Runner) Run() *Report {
	start := r.now()
	report := &Report{
		Timestamp: start.UTC(),
		Results:   make([]*CheckResult, 0, len(r.checks)),
	}

	for _, c := range r.checks {
		result := runCheck(c)
		report.Results = append(report.Results, result)
		report.Summary.add(result.Status)
	}

	report.Duration = r.now().Sub(start)
	return report
}

func runCheck(c Check) (result *CheckResult) {
	defer func() {
		if p := recover(); p != nil {
			result = &CheckResult{
				Name:     c.Name(),
				Category: c.Category(),
				Status:   SeverityError,
				Message:  fmt.Sprintf("check panicked: %v", p),
			}
		}
	}()

	result = c.Run()
	if result == nil {
		result = &CheckResult{Name: c.Name(), Category: c.Category(), Status: SeverityPass}
	}
	return result
}

// Fix calls Fix on every check that implements Fixer and reports something
// to fix. Run must have been called first.
func (r *Runner) Fix() []FixResult {
	var results []FixResult
	for _, c := range r.checks {
		f, ok := c.(Fixer)
		if !ok || !f.CanFix() {
			continue
		}
		for _, fr := range f.Fix() {
			fr.Check = c.Name()
			results = append(results, fr)
		}
	}
	return results
}

// Report is the outcome of one Run.
type Report struct {
	Timestamp time.Time      `json:"timestamp"`
	Duration  time.Duration  `json:"duration_ns"`
	Results   []*CheckResult `json:"results"`
	Summary   Summary        `json:"summary"`
}

// HasErrors reports whether any check failed.
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// HasWarnings reports whether any check warned.
func (r *Report) HasWarnings() bool {
	return r.Summary.Warnings > 0
}
