package backup

import (
	"io/fs"
	"path/filepath"
	"time"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// ManifestVersion is the manifest format version.
const ManifestVersion = 1

// DefaultRetentionCount is the number of snapshots kept per kind.
const DefaultRetentionCount = 5

// DirName is the backups directory inside the data directory.
const DirName = "backups"

// Snapshot kinds.
const (
	KindRegistry = "registry"
	KindConfig   = "config"
)

// Version is recorded in every manifest. The CLI sets it at startup.
var Version = "dev"

var (
	// ErrNoBackupsFound indicates no snapshots exist for the kind.
	ErrNoBackupsFound = errors.New("no backups found")

	// ErrBackupCorrupted indicates a stored file no longer matches its hash.
	ErrBackupCorrupted = errors.New("backup corrupted")
)

// Manifest describes one snapshot. It is stored as manifest.json.
type Manifest struct {
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	Kind          string    `json:"kind"`
	Files         []File    `json:"files"`
	MCPHubVersion string    `json:"mcphub_version"`

	// Reason is a short note such as "before config set".
	Reason string `json:"reason,omitempty"`

	// ID is the snapshot directory name. Populated on load.
	ID string `json:"-"`
}

// File describes one file inside a snapshot.
type File struct {
	OriginalPath string      `json:"original_path"`
	RelPath      string      `json:"rel_path"`
	SHA256Hash   string      `json:"sha256_hash"`
	Mode         fs.FileMode `json:"mode"`
}

// Dir returns the backups directory inside dataDir.
func Dir(dataDir string) string {
	return filepath.Join(dataDir, DirName)
}
