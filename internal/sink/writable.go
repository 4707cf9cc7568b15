package sink

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CheckWritable reports ErrFileLocked when the workbook at path is open
// in a spreadsheet program. A missing file is writable.
//
// Office keeps an owner file named "~$<name>" next to open documents, and
// on some platforms the document itself cannot be opened for writing.
// Both are treated as a lock.
func CheckWritable(path string) error {
	owner := filepath.Join(filepath.Dir(path), "~$"+filepath.Base(path))
	if _, err := os.Stat(owner); err == nil {
		return fmt.Errorf("%w: %s", ErrFileLocked, path)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0) //nolint:gosec // path comes from the command line
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %s", ErrFileLocked, path)
		}
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f.Close()
}
