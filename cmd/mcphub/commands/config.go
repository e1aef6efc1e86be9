package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Cognitive-Stack/mcphub/internal/backup"
	"github.com/Cognitive-Stack/mcphub/internal/config"
	"github.com/Cognitive-Stack/mcphub/internal/editor"
	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/paths"
	"github.com/Cognitive-Stack/mcphub/pkg/fileutil"
)

// configKeys are the keys config get and set accept.
var configKeys = []string{
	"data_dir",
	"log_dir",
	"default_port",
	"max_port_attempts",
	"grace_period",
	"settle_delay",
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mcphub configuration",
	Long: `Manage mcphub configuration stored in ~/.config/mcphub/config.yaml.

Every key can also be set through the environment with an MCPHUB_ prefix,
e.g. MCPHUB_DEFAULT_PORT=8000. Without a subcommand, lists all values.`,
	Example: `  # List all configuration
  mcphub config

  # Get a specific value
  mcphub config get default_port

  # Set a value
  mcphub config set grace_period 10s

See Also: mcphub init`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Example: `  mcphub config get data_dir

See Also: mcphub config set, mcphub config list`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and write it to the config file.

The previous file is saved first; see 'mcphub backup list'.
Durations take Go syntax such as 500ms, 5s or 1m.`,
	Example: `  mcphub config set default_port 8000
  mcphub config set settle_delay 2s

See Also: mcphub config get, mcphub config list`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Long:  `List all configuration values in YAML format.`,
	RunE:  runConfigList,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the configuration file in your editor.

Uses $MCPHUB_EDITOR, $EDITOR or $VISUAL, falling back to nano or vi.
The file is created with current values if it does not exist yet.`,
	RunE: runConfigEdit,
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !isConfigKey(key) {
		return unknownKeyError(key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), viper.GetString(key))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if !isConfigKey(key) {
		return unknownKeyError(key)
	}

	viper.Set(key, value)

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return errors.NewUserError(errors.Wrapf(err, "invalid value for %s", key), "")
	}
	if errs := config.Validate(&cfg); len(errs) > 0 {
		return errors.NewUserError(errs[0], "See 'mcphub config set --help'")
	}

	path := configPath()
	dataDir := cfg.DataDir
	if loaded, err := loadedConfig(); err == nil {
		dataDir = loaded.DataDir
	}
	backups := backup.NewManager(backup.Dir(dataDir))
	if err := backups.EnsureBackedUp(backup.KindConfig, "before config set "+key, path); err != nil {
		return err
	}
	if err := writeConfig(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	data, err := yaml.Marshal(configValues())
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path := configPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfig(path); err != nil {
			return err
		}
	}
	return editor.Open(path, cmd.OutOrStdout())
}

// configPath is the file config set writes: --config, the file viper
// loaded, or the XDG default.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(paths.ConfigDir(), "config.yaml")
}

func configValues() map[string]any {
	return map[string]any{
		"data_dir":          viper.GetString("data_dir"),
		"log_dir":           viper.GetString("log_dir"),
		"default_port":      viper.GetInt("default_port"),
		"max_port_attempts": viper.GetInt("max_port_attempts"),
		"grace_period":      viper.GetDuration("grace_period").String(),
		"settle_delay":      viper.GetDuration("settle_delay").String(),
	}
}

// writeConfig writes the current viper configuration to path.
func writeConfig(path string) error {
	if err := paths.EnsureDir(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	if err := fileutil.AtomicWriteYAML(path, configValues()); err != nil {
		return errors.Wrap(err, "writing config file")
	}
	return nil
}

func isConfigKey(key string) bool {
	return slices.Contains(configKeys, key)
}

func unknownKeyError(key string) error {
	return errors.NewUserError(
		errors.Newf("unknown config key %q", key),
		"Valid keys: "+strings.Join(configKeys, ", "),
	)
}
