// Package commands implements the CLI commands for mcphub.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Cognitive-Stack/mcphub/cmd"
	"github.com/Cognitive-Stack/mcphub/internal/config"
	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/logging"
)

// debugEnv raises verbosity when no -v flag is given ("1"/"true" debug, "2" trace).
const debugEnv = "MCPHUB_DEBUG"

var (
	// verbosity holds the count of -v flags.
	verbosity int

	// quiet holds the value of the -q/--quiet flag.
	quiet bool

	// logFormat holds the value of the --log-format flag.
	logFormat string

	// logFile holds the path to the log file.
	logFile string

	// configFile holds an explicit --config path.
	configFile string

	// dataDirFlag overrides the configured data directory.
	dataDirFlag string
)

// appConfig is the loaded configuration; configLoadErr is reported by
// commands that need it.
var (
	appConfig     *config.Config
	configLoadErr error
)

// logFileHandle is closed when the command finishes.
var logFileHandle io.Closer

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: $XDG_CONFIG_HOME/mcphub/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "",
		"directory holding the process registry and instance logs (default: ~/.mcphub)")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("mcphub version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	appConfig, configLoadErr = config.Load(configFile)
	if configLoadErr == nil && dataDirFlag != "" {
		appConfig.DataDir = dataDirFlag
	}
}

var rootCmd = &cobra.Command{
	Use:   "mcphub",
	Short: "Run and track local MCP servers",
	Long: `mcphub starts MCP servers as background processes, assigns them ports,
and keeps track of them across invocations.

Servers are defined in .mcphub.json (or .mcphub.toml) in the current
directory or the data directory. Running instances are recorded in
<data-dir>/processes.json so that 'mcphub ps' and 'mcphub kill' work from
any shell.`,
	Example: `  # Create a servers config in the current directory
  mcphub init

  # Start a server in the background, exposed over SSE
  mcphub run github --sse -d

  # Show running servers
  mcphub ps

  # Stop one
  mcphub kill 12345

  See Also: mcphub list, mcphub status`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setupLogging(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logFileHandle != nil {
			_ = logFileHandle.Close()
			logFileHandle = nil
		}
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("conflicting flags"), "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv(debugEnv); ok {
				switch val {
				case "1", "true":
					v = 2
				case "2":
					v = 3
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	color.NoColor = !logging.SupportsColor(cmd.OutOrStdout())

	var primary slog.Handler
	switch logging.Format(logFormat) {
	case logging.FormatJSON:
		primary = logging.NewJSONHandler(cmd.ErrOrStderr(), level)
	case logging.FormatText:
		primary = logging.NewHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	default:
		return errors.NewUserError(errors.Newf("invalid log format %q", logFormat), "use --log-format text or json")
	}

	handlers := []slog.Handler{primary}
	if logFile != "" {
		h, f, err := logging.OpenFileHandler(logFile, level)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		logFileHandle = f
		handlers = append(handlers, h)
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// loadedConfig returns the configuration or the error that prevented
// loading it.
func loadedConfig() (*config.Config, error) {
	if configLoadErr != nil {
		return nil, errors.NewConfigError(configLoadErr)
	}
	if appConfig == nil {
		return nil, errors.NewConfigError(errors.New("configuration not initialized"))
	}
	return appConfig, nil
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// SIGINT/SIGTERM.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ReportError prints err with its hints to w and returns the exit code.
func ReportError(w io.Writer, err error) int {
	exitErr := errors.FromError(err)
	if exitErr == nil {
		return errors.ExitSuccess
	}

	msg := err.Error()
	if exitErr.Err != nil {
		msg = exitErr.Err.Error()
	}
	fmt.Fprintf(w, "Error: %s\n", msg)

	for _, hint := range uniqueHints(err, exitErr.Suggestion) {
		fmt.Fprintf(w, "  %s\n", hint)
	}
	return exitErr.Code
}

func uniqueHints(err error, suggestion string) []string {
	seen := map[string]bool{}
	var out []string
	for _, h := range append(splitHints(errors.FlattenHints(err)), suggestion) {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}
