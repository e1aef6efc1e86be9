package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// AppName is the directory name used under the XDG config home.
const AppName = "mcphub"

// DataDirEnv overrides the default data directory when set.
const DataDirEnv = "MCPHUB_DATA_DIR"

// File and directory names inside the data directory.
const (
	RegistryFileName = "processes.json"
	LogDirName       = "logs"
)

// ServersConfigNames are the servers config file names, in lookup order.
var ServersConfigNames = []string{".mcphub.json", ".mcphub.toml"}

// ErrHomeDirNotFound indicates the user's home directory could not be determined.
var ErrHomeDirNotFound = errors.New("home directory not found")

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", errors.Wrap(ErrHomeDirNotFound, "resolving home")
	}
	return home, nil
}

// DefaultDataDir returns $MCPHUB_DATA_DIR if set, otherwise ~/.mcphub.
func DefaultDataDir() (string, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, nil
	}
	home, err := ResolveHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "."+AppName), nil
}

// RegistryFile returns the process registry path inside dataDir.
func RegistryFile(dataDir string) string {
	return filepath.Join(dataDir, RegistryFileName)
}

// LogDir returns the instance log directory inside dataDir.
func LogDir(dataDir string) string {
	return filepath.Join(dataDir, LogDirName)
}

// ConfigDir returns the XDG config directory for mcphub.
// On Linux: ~/.config/mcphub
// On macOS: ~/Library/Application Support/mcphub
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ServersConfigCandidates returns the servers config paths to try, in order:
// the working directory first, then the data directory.
func ServersConfigCandidates(workDir, dataDir string) []string {
	candidates := make([]string, 0, 2*len(ServersConfigNames))
	for _, dir := range []string{workDir, dataDir} {
		if dir == "" {
			continue
		}
		for _, name := range ServersConfigNames {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	return candidates
}
