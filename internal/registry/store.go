package registry

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/paths"
	"github.com/Cognitive-Stack/mcphub/pkg/fileutil"
)

// Store loads and saves the whole registry.
type Store interface {
	Load() (Registry, error)
	Save(Registry) error
	// Path describes where the registry lives, for messages.
	Path() string
}

// FileStore keeps the registry as a JSON object in a single file.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store for the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the registry file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the registry. A missing file is created empty. A file that
// cannot be parsed fails with errors.ErrCorruptRegistry and is left as is.
func (s *FileStore) Load() (Registry, error) {
	data, err := fileutil.ReadFileWithLimit(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		reg := Registry{}
		if err := s.Save(reg); err != nil {
			return nil, err
		}
		return reg, nil
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "reading %s", s.path), errors.ErrCorruptRegistry)
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, errors.WithHintf(
			errors.Mark(errors.Wrapf(err, "parsing %s", s.path), errors.ErrCorruptRegistry),
			"inspect or remove %s; running servers will no longer be tracked if it is removed", s.path,
		)
	}
	if reg == nil {
		reg = Registry{}
	}
	for id, inst := range reg {
		if inst == nil {
			delete(reg, id)
		}
	}
	return reg, nil
}

// Save atomically replaces the registry file, creating its directory.
func (s *FileStore) Save(reg Registry) error {
	if err := paths.EnsureDir(filepath.Dir(s.path), 0); err != nil {
		return errors.Wrap(err, "creating data directory")
	}
	if reg == nil {
		reg = Registry{}
	}
	if err := fileutil.AtomicWriteJSONWithPerm(s.path, reg, fileutil.PrivatePerm); err != nil {
		return errors.Wrapf(err, "saving %s", s.path)
	}
	return nil
}

// MemoryStore keeps the registry in memory.
type MemoryStore struct {
	mu    sync.Mutex
	reg   Registry
	Saves int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with a copy of reg.
func NewMemoryStore(reg Registry) *MemoryStore {
	if reg == nil {
		reg = Registry{}
	}
	return &MemoryStore{reg: reg.Clone()}
}

// Load returns a copy of the stored registry.
func (m *MemoryStore) Load() (Registry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reg.Clone(), nil
}

// Save stores a copy of reg.
func (m *MemoryStore) Save(reg Registry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reg = reg.Clone()
	m.Saves++
	return nil
}

// Path returns a fixed description.
func (m *MemoryStore) Path() string { return "memory" }
