package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/servers"
	"github.com/Cognitive-Stack/mcphub/pkg/fileutil"
)

// ConfigSyntaxCheck validates servers config files: JSON/TOML syntax with
// line and column on failure, then that every server has something to run.
type ConfigSyntaxCheck struct {
	paths []string
}

var _ Check = (*ConfigSyntaxCheck)(nil)

// NewConfigSyntaxCheck checks each existing file among paths.
func NewConfigSyntaxCheck(paths ...string) *ConfigSyntaxCheck {
	return &ConfigSyntaxCheck{paths: paths}
}

// Name returns the unique identifier for this check.
func (c *ConfigSyntaxCheck) Name() string {
	return "servers-config"
}

// Category returns the grouping for this check.
func (c *ConfigSyntaxCheck) Category() string {
	return "config"
}

type syntaxFileResult struct {
	Path     string   `json:"path"`
	Status   Severity `json:"status"`
	Message  string   `json:"message,omitempty"`
	Servers  int      `json:"servers"`
	Problems []string `json:"problems,omitempty"`
}

// Run executes the syntax check.
func (c *ConfigSyntaxCheck) Run() *CheckResult {
	var files []syntaxFileResult
	for _, p := range c.paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		files = append(files, c.validateFile(p))
	}

	if len(files) == 0 {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityInfo,
			Message:  "no servers config found",
			FixHint:  "run 'mcphub init' to create .mcphub.json",
		}
	}

	status := SeverityPass
	var bad []string
	for _, f := range files {
		status = worst(status, f.Status)
		if f.Status != SeverityPass {
			bad = append(bad, filepath.Base(f.Path))
		}
	}

	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   status,
		Details:  map[string]any{"files": files},
	}
	// the first file found is the one mcphub uses
	result.Details["active"] = files[0].Path

	if len(bad) == 0 {
		result.Message = fmt.Sprintf("%d config file(s) valid", len(files))
		return result
	}
	result.Message = fmt.Sprintf("problems in %s", strings.Join(bad, ", "))
	result.FixHint = "edit the file and rerun 'mcphub doctor'"
	return result
}

func (c *ConfigSyntaxCheck) validateFile(path string) syntaxFileResult {
	fr := syntaxFileResult{Path: path}

	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		fr.Status = SeverityError
		fr.Message = err.Error()
		return fr
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var v any
		if err := toml.Unmarshal(data, &v); err != nil {
			fr.Status = SeverityError
			fr.Message = formatTOMLError(err)
			return fr
		}
	} else {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			fr.Status = SeverityError
			fr.Message = formatJSONError(err, data)
			return fr
		}
	}

	cfg, err := servers.LoadFile(path)
	if err != nil {
		fr.Status = SeverityError
		fr.Message = err.Error()
		return fr
	}

	fr.Servers = len(cfg.Servers)
	for _, name := range cfg.Names() {
		if _, err := cfg.Servers[name].StdioCommand(); err != nil {
			fr.Problems = append(fr.Problems, err.Error())
		}
	}
	if len(fr.Problems) > 0 {
		fr.Status = SeverityWarning
		fr.Message = fmt.Sprintf("%d server(s) cannot be started", len(fr.Problems))
	}
	return fr
}

// formatJSONError extracts position information from JSON syntax errors.
func formatJSONError(err error, data []byte) string {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(data, int(syntaxErr.Offset))
		return fmt.Sprintf("JSON syntax error at line %d, column %d: %s", line, col, syntaxErr.Error())
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(data, int(typeErr.Offset))
		return fmt.Sprintf("JSON type error at line %d, column %d: %s", line, col, typeErr.Error())
	}

	return fmt.Sprintf("JSON error: %v", err)
}

// formatTOMLError extracts position information from TOML decode errors.
func formatTOMLError(err error) string {
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, col := decodeErr.Position()
		return fmt.Sprintf("TOML syntax error at line %d, column %d: %s", row, col, decodeErr.Error())
	}
	return fmt.Sprintf("TOML error: %v", err)
}

// offsetToLineCol converts a byte offset to 1-indexed line and column.
func offsetToLineCol(data []byte, offset int) (line, col int) {
	offset = min(max(offset, 0), len(data))

	line = 1
	lineStart := 0
	for i := range offset {
		if data[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, offset - lineStart + 1
}
