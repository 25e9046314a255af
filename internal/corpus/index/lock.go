package index

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockPollInterval = 200 * time.Millisecond

// LockPath returns the build lock file guarding indexDir. It lives beside the
// directory because the directory itself is replaced on every build.
func LockPath(indexDir string) string {
	return filepath.Clean(indexDir) + ".lock"
}

// AcquireLock obtains the build lock for indexDir, waiting up to timeout.
// The returned func releases it.
func AcquireLock(indexDir string, timeout time.Duration) (func(), error) {
	lockPath := LockPath(indexDir)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return func() {}, fmt.Errorf("cannot create lock dir: %w", err)
	}
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire index lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("%w (lock: %s)", ErrLocked, lockPath)
		}
		time.Sleep(lockPollInterval)
	}
}
