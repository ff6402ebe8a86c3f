package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Yunitra/AnyDownloadManager/internal/engine/types"
)

// DefaultDownloadDir resolves where downloads land when the caller does not
// choose: the OS downloads directory, else the home directory, else the
// working directory, else ".".
func DefaultDownloadDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		downloads := filepath.Join(home, "Downloads")
		if st, err := os.Stat(downloads); err == nil && st.IsDir() {
			return downloads
		}
		return home
	}
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	return "."
}

// planPaths resolves the final and working paths for a download. The
// directory is created if missing; failure to create it is fatal.
func planPaths(dir, filename string) (dest, temp string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create download dir: %w", err)
	}
	dest = filepath.Join(dir, filename)
	temp = partPath(dest)
	return dest, temp, nil
}

// partPath swaps the destination's extension for the working-file extension,
// appending it when the name has none.
func partPath(dest string) string {
	return strings.TrimSuffix(dest, filepath.Ext(dest)) + types.PartExtension
}
