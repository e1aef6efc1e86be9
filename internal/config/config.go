package config

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/paths"
)

// Defaults for the process manager.
const (
	DefaultPort            = 3000
	DefaultMaxPortAttempts = 100
	DefaultGracePeriod     = 5 * time.Second
	DefaultSettleDelay     = time.Second
)

// Config represents the top-level configuration structure.
type Config struct {
	DataDir         string        `mapstructure:"data_dir" yaml:"data_dir"`
	LogDir          string        `mapstructure:"log_dir" yaml:"log_dir,omitempty"`
	DefaultPort     int           `mapstructure:"default_port" yaml:"default_port"`
	MaxPortAttempts int           `mapstructure:"max_port_attempts" yaml:"max_port_attempts"`
	GracePeriod     time.Duration `mapstructure:"grace_period" yaml:"grace_period"`
	SettleDelay     time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
}

// RegistryFile returns the registry path for this configuration.
func (c *Config) RegistryFile() string {
	return paths.RegistryFile(c.DataDir)
}

// InstanceLogDir returns where spawned servers write stdout/stderr.
func (c *Config) InstanceLogDir() string {
	if c.LogDir != "" {
		return c.LogDir
	}
	return paths.LogDir(c.DataDir)
}

// Init resets Viper and registers search paths, env binding and defaults.
// Call this once at application startup before accessing config values.
func Init() {
	viper.Reset()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix("MCPHUB")
	viper.AutomaticEnv()

	dataDir, err := paths.DefaultDataDir()
	if err != nil {
		dataDir = "." + paths.AppName
	}
	viper.SetDefault("data_dir", dataDir)
	viper.SetDefault("log_dir", "")
	viper.SetDefault("default_port", DefaultPort)
	viper.SetDefault("max_port_attempts", DefaultMaxPortAttempts)
	viper.SetDefault("grace_period", DefaultGracePeriod)
	viper.SetDefault("settle_delay", DefaultSettleDelay)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations and falls back to
// defaults when no file exists.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, errors.Wrap(err, "reading config file")
		}
		// implicit load without a file: defaults apply
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.LogDir = expandHome(cfg.LogDir)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Mark(errors.Wrap(errs[0], "validating config"), errors.ErrInvalidConfig)
	}

	return &cfg, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if len(p) < 2 || p[:2] != "~/" {
		return p
	}
	home, err := paths.ResolveHome()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
