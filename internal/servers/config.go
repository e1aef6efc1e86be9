package servers

import (
	"encoding/json"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/paths"
	"github.com/Cognitive-Stack/mcphub/pkg/fileutil"
)

// Server is one entry of the servers config.
type Server struct {
	// Name is filled from the map key.
	Name        string            `json:"-" toml:"-"`
	Command     string            `json:"command,omitempty" toml:"command,omitempty"`
	Args        []string          `json:"args,omitempty" toml:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty" toml:"env,omitempty"`
	PackageName string            `json:"package_name,omitempty" toml:"package_name,omitempty"`
	RepoURL     string            `json:"repo_url,omitempty" toml:"repo_url,omitempty"`
	Cwd         string            `json:"cwd,omitempty" toml:"cwd,omitempty"`
	Description string            `json:"description,omitempty" toml:"description,omitempty"`
}

// ResolvedEnv returns Env with ${VAR} references expanded from the current
// environment.
func (s *Server) ResolvedEnv() map[string]string {
	out := make(map[string]string, len(s.Env))
	for k, v := range s.Env {
		out[k] = os.ExpandEnv(v)
	}
	return out
}

// Config is a parsed servers config file.
type Config struct {
	Servers map[string]*Server `json:"mcpServers" toml:"mcpServers"`

	// Path is the file the config was read from.
	Path string `json:"-" toml:"-"`
}

// Names returns the configured server names sorted.
func (c *Config) Names() []string {
	return slices.Sorted(maps.Keys(c.Servers))
}

// Get returns the named server or an error marked errors.ErrServerNotFound.
func (c *Config) Get(name string) (*Server, error) {
	s, ok := c.Servers[name]
	if !ok {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrServerNotFound, "%q in %s", name, c.Path),
			"use 'mcphub list' to see available servers",
		)
	}
	return s, nil
}

// Find loads the first servers config among
// paths.ServersConfigCandidates(workDir, dataDir). It returns an error
// marked errors.ErrNotFound when none exists.
func Find(workDir, dataDir string) (*Config, error) {
	candidates := paths.ServersConfigCandidates(workDir, dataDir)
	for _, p := range candidates {
		cfg, err := LoadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return nil, errors.WithHint(
		errors.Wrapf(errors.ErrNotFound, "no servers config in %s", strings.Join(candidates, ", ")),
		"run 'mcphub init' to create one",
	)
}

// LoadFile parses a servers config; the format follows the file extension.
func LoadFile(path string) (*Config, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Path: path}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parsing %s", path), errors.ErrInvalidConfig)
	}

	if cfg.Servers == nil {
		cfg.Servers = map[string]*Server{}
	}
	for name, s := range cfg.Servers {
		if s == nil {
			s = &Server{}
			cfg.Servers[name] = s
		}
		s.Name = name
	}
	return cfg, nil
}

// WriteDefault creates an empty servers config at path. An existing file is
// never overwritten.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("%s already exists", path)
	}
	if err := paths.EnsureDir(filepath.Dir(path), 0); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	empty := &Config{Servers: map[string]*Server{}}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err := toml.Marshal(empty)
		if err != nil {
			return errors.Wrap(err, "encoding TOML")
		}
		return fileutil.AtomicWriteFile(path, data, 0o644)
	}
	return fileutil.AtomicWriteJSONWithPerm(path, empty, 0o644)
}
