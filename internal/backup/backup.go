package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/pkg/fileutil"
)

const manifestName = "manifest.json"

// idLayout is the timestamp layout of snapshot IDs.
const idLayout = "20060102T150405"

// ErrNothingToBackUp indicates none of the requested paths exist.
var ErrNothingToBackUp = errors.New("no files to back up")

// Manager creates, lists, restores and prunes snapshots under one root.
type Manager struct {
	rootDir        string
	retentionCount int
	now            func() time.Time

	mu   sync.Mutex
	once map[string]*sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetentionCount sets how many snapshots are kept per kind.
func WithRetentionCount(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retentionCount = n
		}
	}
}

// WithClock overrides the time source used for IDs and timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager returns a Manager storing snapshots under rootDir, usually
// [Dir] of the data directory.
func NewManager(rootDir string, opts ...Option) *Manager {
	m := &Manager{
		rootDir:        rootDir,
		retentionCount: DefaultRetentionCount,
		now:            time.Now,
		once:           make(map[string]*sync.Once),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the directory snapshots are stored under.
func (m *Manager) Root() string {
	return m.rootDir
}

// Backup copies the existing files among paths into a new snapshot of kind
// and prunes the kind down to the retention count. Missing paths are
// skipped; if none exist it returns ErrNothingToBackUp.
func (m *Manager) Backup(kind, reason string, paths ...string) (*Manifest, error) {
	if kind == "" {
		return nil, errors.New("backup kind is required")
	}
	if len(paths) == 0 {
		return nil, errors.New("at least one path is required")
	}

	var sources []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "stat %s", p)
		}
		if info.IsDir() {
			return nil, errors.Newf("%s is a directory", p)
		}
		sources = append(sources, p)
	}
	if len(sources) == 0 {
		return nil, ErrNothingToBackUp
	}

	created := m.now()
	id, dir, err := m.createSnapshotDir(kind, created)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(sources))
	for _, src := range sources {
		f, err := backupFile(src, dir)
		if err != nil {
			os.RemoveAll(dir)
			return nil, errors.Wrapf(err, "backing up %s", src)
		}
		files = append(files, *f)
	}

	manifest := &Manifest{
		Version:       ManifestVersion,
		CreatedAt:     created.UTC(),
		Kind:          kind,
		Files:         files,
		MCPHubVersion: Version,
		Reason:        reason,
		ID:            id,
	}
	if err := fileutil.AtomicWriteJSON(filepath.Join(dir, manifestName), manifest); err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrap(err, "writing manifest")
	}

	if err := m.Prune(kind, m.retentionCount); err != nil {
		return manifest, errors.Wrap(err, "pruning old backups")
	}
	return manifest, nil
}

// EnsureBackedUp snapshots paths at most once per kind for the lifetime of
// the Manager. A failed attempt can be retried; nothing to back up is not an
// error.
func (m *Manager) EnsureBackedUp(kind, reason string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	m.mu.Lock()
	once, ok := m.once[kind]
	if !ok {
		once = &sync.Once{}
		m.once[kind] = once
	}
	m.mu.Unlock()

	var backupErr error
	once.Do(func() {
		_, backupErr = m.Backup(kind, reason, paths...)
		if errors.Is(backupErr, ErrNothingToBackUp) {
			backupErr = nil
		}
		if backupErr != nil {
			m.mu.Lock()
			delete(m.once, kind)
			m.mu.Unlock()
		}
	})
	if backupErr != nil {
		return errors.Wrapf(backupErr, "creating %s backup", kind)
	}
	return nil
}

// Quarantine snapshots path and then removes it, so the next writer starts
// from scratch while the original bytes stay recoverable.
func (m *Manager) Quarantine(kind, reason, path string) (*Manifest, error) {
	manifest, err := m.Backup(kind, reason, path)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return manifest, errors.Wrapf(err, "removing %s", path)
	}
	return manifest, nil
}

// Restore copies every file of a snapshot back to its original location
// after verifying its hash.
func (m *Manager) Restore(kind, id string) error {
	manifest, err := m.Get(kind, id)
	if err != nil {
		return err
	}

	dir := m.snapshotDir(kind, id)
	for _, f := range manifest.Files {
		src := filepath.Join(dir, f.RelPath)

		hash, err := hashFile(src)
		if err != nil {
			return errors.Wrapf(err, "reading backup file %s", f.RelPath)
		}
		if hash != f.SHA256Hash {
			return errors.Wrapf(ErrBackupCorrupted, "file %s hash mismatch", f.RelPath)
		}

		if err := os.MkdirAll(filepath.Dir(f.OriginalPath), 0o700); err != nil {
			return errors.Wrapf(err, "creating directory for %s", f.OriginalPath)
		}
		if _, _, err := copyFile(src, f.OriginalPath); err != nil {
			return errors.Wrapf(err, "restoring %s", f.OriginalPath)
		}
		if err := os.Chmod(f.OriginalPath, f.Mode.Perm()); err != nil {
			return errors.Wrapf(err, "setting permissions for %s", f.OriginalPath)
		}
	}
	return nil
}

// List returns the snapshots of kind, newest first.
func (m *Manager) List(kind string) ([]Manifest, error) {
	if kind == "" {
		return nil, errors.New("backup kind is required")
	}

	entries, err := os.ReadDir(filepath.Join(m.rootDir, kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBackupsFound
		}
		return nil, errors.Wrap(err, "reading backup directory")
	}

	manifests := make([]Manifest, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, err := m.Get(kind, entry.Name())
		if err != nil {
			// half-written or foreign directory
			continue
		}
		manifests = append(manifests, *manifest)
	}
	if len(manifests) == 0 {
		return nil, ErrNoBackupsFound
	}

	slices.SortFunc(manifests, func(a, b Manifest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})
	return manifests, nil
}

// Latest returns the newest snapshot of kind.
func (m *Manager) Latest(kind string) (*Manifest, error) {
	manifests, err := m.List(kind)
	if err != nil {
		return nil, err
	}
	return &manifests[0], nil
}

// Prune removes all but the newest keep snapshots of kind.
func (m *Manager) Prune(kind string, keep int) error {
	if keep < 0 {
		return errors.New("keep must be non-negative")
	}

	manifests, err := m.List(kind)
	if err != nil {
		if errors.Is(err, ErrNoBackupsFound) {
			return nil
		}
		return err
	}

	for i := keep; i < len(manifests); i++ {
		if err := os.RemoveAll(m.snapshotDir(kind, manifests[i].ID)); err != nil {
			return errors.Wrapf(err, "removing backup %s", manifests[i].ID)
		}
	}
	return nil
}

// Get returns the manifest of one snapshot.
func (m *Manager) Get(kind, id string) (*Manifest, error) {
	if kind == "" {
		return nil, errors.New("backup kind is required")
	}
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, errors.Newf("invalid backup ID %q", id)
	}

	data, err := os.ReadFile(filepath.Join(m.snapshotDir(kind, id), manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNoBackupsFound, "backup %s not found", id)
		}
		return nil, errors.Wrap(err, "reading manifest")
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}
	manifest.ID = id
	return &manifest, nil
}

func (m *Manager) snapshotDir(kind, id string) string {
	return filepath.Join(m.rootDir, kind, id)
}

// createSnapshotDir creates a fresh snapshot directory named after t,
// suffixing -2, -3, ... when a snapshot already exists for that second.
func (m *Manager) createSnapshotDir(kind string, t time.Time) (id, dir string, err error) {
	kindDir := filepath.Join(m.rootDir, kind)
	if err := os.MkdirAll(kindDir, 0o700); err != nil {
		return "", "", errors.Wrap(err, "creating backup directory")
	}

	base := t.Format(idLayout)
	for n := 1; ; n++ {
		id = base
		if n > 1 {
			id = base + "-" + strconv.Itoa(n)
		}
		dir = filepath.Join(kindDir, id)
		err := os.Mkdir(dir, 0o700)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", errors.Wrap(err, "creating backup directory")
		}
	}
}

// compareIDs orders IDs by timestamp and then numeric suffix.
func compareIDs(a, b string) int {
	aBase, aSuffix := splitID(a)
	bBase, bSuffix := splitID(b)
	if c := strings.Compare(aBase, bBase); c != 0 {
		return c
	}
	return aSuffix - bSuffix
}

func splitID(id string) (string, int) {
	base, suffix, ok := strings.Cut(id, "-")
	if !ok {
		return id, 1
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return id, 1
	}
	return base, n
}

func backupFile(src, dir string) (*File, error) {
	rel := relPath(src)
	dst := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return nil, errors.Wrap(err, "creating parent directory")
	}

	hash, mode, err := copyFile(src, dst)
	if err != nil {
		return nil, err
	}
	return &File{
		OriginalPath: src,
		RelPath:      rel,
		SHA256Hash:   hash,
		Mode:         mode,
	}, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening file")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "reading file")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// copyFile copies src to dst, returning the content hash and src's
// permission bits. dst ends up with the same permissions as src.
func copyFile(src, dst string) (hash string, mode fs.FileMode, err error) {
	in, err := os.Open(src)
	if err != nil {
		return "", 0, errors.Wrap(err, "opening source file")
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", 0, errors.Wrap(err, "stat source file")
	}
	mode = info.Mode().Perm()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", 0, errors.Wrap(err, "creating destination file")
	}

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, h), in); err != nil {
		out.Close()
		return "", 0, errors.Wrap(err, "copying file")
	}
	if err := out.Close(); err != nil {
		return "", 0, errors.Wrap(err, "closing destination file")
	}
	if err := os.Chmod(dst, mode); err != nil {
		return "", 0, errors.Wrap(err, "setting permissions")
	}
	return hex.EncodeToString(h.Sum(nil)), mode, nil
}

// relPath maps an absolute path to a relative storage path inside a
// snapshot. Volume names and colons are dropped.
func relPath(p string) string {
	clean := filepath.Clean(p)
	clean = strings.TrimPrefix(clean, filepath.VolumeName(clean))
	clean = strings.TrimLeft(clean, `/\`)
	return strings.ReplaceAll(clean, ":", "")
}
