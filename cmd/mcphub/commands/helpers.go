package commands

import (
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Cognitive-Stack/mcphub/internal/lifecycle"
	"github.com/Cognitive-Stack/mcphub/internal/logging"
	"github.com/Cognitive-Stack/mcphub/internal/registry"
)

// Terminal styles. fatih/color disables them when stdout is not a TTY.
var (
	headerStyle  = color.New(color.Bold)
	nameStyle    = color.New(color.FgGreen)
	warnStyle    = color.New(color.FgYellow)
	mutedStyle   = color.New(color.FgHiBlack)
	stoppedStyle = color.New(color.FgRed)
	plainStyle   = color.New()
)

// newManager builds a lifecycle manager from the loaded configuration.
func newManager(cmd *cobra.Command) (*lifecycle.Manager, error) {
	cfg, err := loadedConfig()
	if err != nil {
		return nil, err
	}

	return lifecycle.New(
		registry.NewFileStore(cfg.RegistryFile()),
		lifecycle.WithLogger(logging.FromContext(cmd.Context())),
		lifecycle.WithDefaultPort(cfg.DefaultPort),
		lifecycle.WithMaxPortAttempts(cfg.MaxPortAttempts),
		lifecycle.WithGracePeriod(cfg.GracePeriod),
		lifecycle.WithSettleDelay(cfg.SettleDelay),
		lifecycle.WithLogDir(cfg.InstanceLogDir()),
	)
}

// statusStyle picks the color for a row or label of an instance with status s.
func statusStyle(s registry.Status) *color.Color {
	switch s {
	case registry.StatusZombie:
		return warnStyle
	case registry.StatusNotRunning:
		return stoppedStyle
	default:
		return plainStyle
	}
}

// joinPorts renders ports as "3000, 3001" or "-" when empty.
func joinPorts(ports []int) string {
	if len(ports) == 0 {
		return "-"
	}
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// splitHints undoes errors.FlattenHints.
func splitHints(flat string) []string {
	if flat == "" {
		return nil
	}
	var out []string
	for _, h := range strings.Split(flat, "\n--\n") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
