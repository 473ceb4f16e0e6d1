//go:build !windows

package fsutil

import (
	"os"

	"github.com/google/renameio/v2"
)

// atomicWriteFile writes data to a temp file and renames it into place.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}
