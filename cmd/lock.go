package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/Yunitra/AnyDownloadManager/internal/config"
)

// instanceLock guards against two daemons fighting over the bridge port and
// the history database.
var instanceLock *flock.Flock

// AcquireLock attempts to take the single-instance lock. It returns true
// when this process is the master instance, false when another instance
// already holds the lock.
func AcquireLock() (bool, error) {
	if err := config.EnsureDirs(); err != nil {
		return false, fmt.Errorf("ensure app dirs: %w", err)
	}

	fileLock := flock.New(filepath.Join(config.GetAppDir(), "adm.lock"))
	locked, err := fileLock.TryLock()
	if err != nil {
		return false, fmt.Errorf("try lock: %w", err)
	}
	if locked {
		instanceLock = fileLock
		return true, nil
	}
	return false, nil
}

// ReleaseLock releases the lock if this instance holds it.
func ReleaseLock() error {
	if instanceLock != nil {
		return instanceLock.Unlock()
	}
	return nil
}
