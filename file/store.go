package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// fallbackName replaces a received name that sanitizes to nothing.
const fallbackName = "received.bin"

// maxNameAttempts bounds the " (n)" suffixes tried before giving up.
const maxNameAttempts = 1000

// SanitizeName reduces a remote-supplied file name to a single safe path element.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == ".." || name == "" {
		return fallbackName
	}
	return name
}

// Save writes f into dir under its sanitized name, adding " (n)" before the
// extension instead of overwriting an existing file. It returns the path written.
func Save(dir string, f ReceivedFile) (string, error) {
	safeDir, err := ValidatePath(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(safeDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	name := SanitizeName(f.Name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxNameAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(safeDir, candidate)

		out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}

		if _, err := out.Write(f.Data); err != nil {
			out.Close()
			os.Remove(path)
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if err := out.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", path, err)
		}

		logrus.WithFields(logrus.Fields{
			"function":    "Save",
			"transfer_id": f.TransferID,
			"path":        path,
			"file_size":   len(f.Data),
		}).Info("Received file saved")
		return path, nil
	}

	return "", fmt.Errorf("no free name for %s in %s", name, safeDir)
}
