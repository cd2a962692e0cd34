package logger

import (
	"os"
	"path/filepath"

	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/zerr"
)

// OpenFile opens the log file at path for appending. A file larger than
// maxSize is truncated first so the log never grows without bound.
func OpenFile(path string, maxSize int64) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLogOpenFailed.Error()), "path", path)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if info, err := os.Stat(path); err == nil && info.Size() > maxSize {
		flags |= os.O_TRUNC
	}

	//nolint:gosec // path is derived from the base directory
	f, err := os.OpenFile(path, flags, domain.FilePerm)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLogOpenFailed.Error()), "path", path)
	}
	return f, nil
}
