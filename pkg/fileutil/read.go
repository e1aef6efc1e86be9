package fileutil

import (
	"io"
	"os"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// MaxFileSize is the largest state or config file mcphub will read (1MB).
const MaxFileSize = 1024 * 1024

// ErrFileTooLarge indicates that a file exceeded the read limit.
var ErrFileTooLarge = errors.New("file exceeds maximum size")

// ReadFileWithLimit reads a file of at most MaxFileSize bytes.
// A missing file yields an error satisfying errors.Is(err, fs.ErrNotExist).
func ReadFileWithLimit(path string) ([]byte, error) {
	return ReadFileLimited(path, MaxFileSize)
}

// ReadFileLimited reads a file of at most limit bytes.
func ReadFileLimited(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s is %d bytes, limit %d", path, info.Size(), limit)
	}

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}
	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s exceeds limit %d", path, limit)
	}

	return data, nil
}
