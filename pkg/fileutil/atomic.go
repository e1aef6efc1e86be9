// Package fileutil provides file system helpers for the state mcphub keeps
// on disk: atomic replacement of whole files and bounded reads.
package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// PrivatePerm is the permission used for state files by default.
const PrivatePerm os.FileMode = 0o600

// AtomicWriteFile replaces path with data using a temp file + rename, so a
// reader never observes a partially written file. The temp file is synced
// before the rename.
//
// The caller is responsible for ensuring the parent directory exists.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	// same directory: rename must not cross filesystems
	tmp, err := os.CreateTemp(filepath.Dir(path), ".mcphub-atomic-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrap(err, "writing temp file")
	}
	if err := tmp.Chmod(perm); err != nil {
		return errors.Wrap(err, "setting file permissions")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "syncing temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "replacing %s", path)
	}

	committed = true
	return nil
}

// AtomicWriteJSONWithPerm writes v as 2-space indented JSON with a trailing
// newline.
func AtomicWriteJSONWithPerm(path string, v any, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling JSON")
	}
	return AtomicWriteFile(path, append(data, '\n'), perm)
}

// AtomicWriteJSON writes v as indented JSON with PrivatePerm.
func AtomicWriteJSON(path string, v any) error {
	return AtomicWriteJSONWithPerm(path, v, PrivatePerm)
}

// AtomicWriteYAML writes v as YAML with PrivatePerm.
func AtomicWriteYAML(path string, v any) (err error) {
	// yaml.Marshal panics on unmarshalable types
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("marshaling YAML: %v", r)
		}
	}()

	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshaling YAML")
	}
	return AtomicWriteFile(path, data, PrivatePerm)
}
