package file

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// DefaultFileType is announced when a file's MIME type cannot be determined.
const DefaultFileType = "application/octet-stream"

// Source is a file queued for sending. Reads happen through ReadAt so a
// chunk can be sliced at any offset.
type Source interface {
	ReadAt(p []byte, off int64) (n int, err error)
	Name() string
	Type() string
	Size() int64
}

// FileSource is a Source backed by a file on local storage.
type FileSource struct {
	f        *os.File
	name     string
	fileType string
	size     int64
}

// OpenFile opens path for sending. The announced name is the base name of
// the path and the type is derived from its extension.
func OpenFile(path string) (*FileSource, error) {
	safePath, err := ValidatePath(path)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "OpenFile",
			"path":     path,
			"error":    err.Error(),
		}).Error("File path validation failed")
		return nil, err
	}

	f, err := os.Open(safePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrReadFailed, safePath)
	}

	fileType := mime.TypeByExtension(filepath.Ext(safePath))
	if fileType == "" {
		fileType = DefaultFileType
	}

	logrus.WithFields(logrus.Fields{
		"function":  "OpenFile",
		"path":      safePath,
		"file_size": info.Size(),
		"file_type": fileType,
	}).Debug("Opened file for sending")

	return &FileSource{
		f:        f,
		name:     filepath.Base(safePath),
		fileType: fileType,
		size:     info.Size(),
	}, nil
}

// ReadAt implements Source.
func (s *FileSource) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }

// Name implements Source.
func (s *FileSource) Name() string { return s.name }

// Type implements Source.
func (s *FileSource) Type() string { return s.fileType }

// Size implements Source.
func (s *FileSource) Size() int64 { return s.size }

// Close releases the file handle.
func (s *FileSource) Close() error { return s.f.Close() }

// BytesSource is an in-memory Source.
type BytesSource struct {
	r        *bytes.Reader
	name     string
	fileType string
}

// NewBytesSource returns a Source serving data under the given name and type.
func NewBytesSource(name, fileType string, data []byte) *BytesSource {
	if fileType == "" {
		fileType = DefaultFileType
	}
	return &BytesSource{r: bytes.NewReader(data), name: name, fileType: fileType}
}

// ReadAt implements Source.
func (s *BytesSource) ReadAt(p []byte, off int64) (int, error) { return s.r.ReadAt(p, off) }

// Name implements Source.
func (s *BytesSource) Name() string { return s.name }

// Type implements Source.
func (s *BytesSource) Type() string { return s.fileType }

// Size implements Source.
func (s *BytesSource) Size() int64 { return s.r.Size() }

// CloseAll closes every source that implements io.Closer.
func CloseAll(sources []Source) error {
	var errs []error
	for _, src := range sources {
		if c, ok := src.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
