package doctor

import (
	"fmt"
	"os/exec"
	"strings"
)

// ToolCheck verifies that the launchers servers depend on are on PATH.
// npx runs package_name servers and the supergateway SSE bridge.
type ToolCheck struct {
	tools    []string
	lookPath func(string) (string, error)
}

var _ Check = (*ToolCheck)(nil)

// NewToolCheck checks that each of tools resolves on PATH.
func NewToolCheck(tools ...string) *ToolCheck {
	return &ToolCheck{tools: tools, lookPath: exec.LookPath}
}

// Name returns the unique identifier for this check.
func (c *ToolCheck) Name() string {
	return "launchers"
}

// Category returns the grouping for this check.
func (c *ToolCheck) Category() string {
	return "environment"
}

// Run executes the tool lookup.
func (c *ToolCheck) Run() *CheckResult {
	found := make(map[string]any, len(c.tools))
	var missing []string
	for _, tool := range c.tools {
		path, err := c.lookPath(tool)
		if err != nil {
			missing = append(missing, tool)
			found[tool] = nil
			continue
		}
		found[tool] = path
	}

	if len(missing) == 0 {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityPass,
			Message:  fmt.Sprintf("%s found", strings.Join(c.tools, ", ")),
			Details:  map[string]any{"tools": found},
		}
	}

	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityWarning,
		Message:  fmt.Sprintf("not on PATH: %s", strings.Join(missing, ", ")),
		Details:  map[string]any{"tools": found},
		FixHint:  "install Node.js to run package_name servers and --sse",
	}
}
