package filerepo

import (
	"os"
	"path/filepath"
	"time"

	"github.com/nightlyone/lockfile"

	"dev/bravebird/workflow-engine/pkg/errs"
)

const (
	lockRetryInterval = 20 * time.Millisecond
	lockTimeout       = 5 * time.Second
)

// withLock serializes writers to path across processes using an
// advisory lock file at path+".lock", then runs fn. Readers do not take
// the lock (spec.md §5: "Reads are safe without locks").
func withLock(path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &errs.RepositoryError{Op: "lock", Cause: err}
	}
	lock, err := lockfile.New(path + ".lock")
	if err != nil {
		return &errs.RepositoryError{Op: "lock", Cause: err}
	}

	deadline := time.Now().Add(lockTimeout)
	for {
		err = lock.TryLock()
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return &errs.RepositoryError{Op: "lock", Cause: err}
		}
		time.Sleep(lockRetryInterval)
	}
	defer lock.Unlock()
	return fn()
}

// atomicWrite writes data to path by writing to a temp file in the same
// directory and renaming over the destination, so readers never observe
// a partial write.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &errs.RepositoryError{Op: "mkdir", Cause: err}
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return &errs.RepositoryError{Op: "write", Cause: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &errs.RepositoryError{Op: "write", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &errs.RepositoryError{Op: "write", Cause: err}
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return &errs.RepositoryError{Op: "write", Cause: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &errs.RepositoryError{Op: "rename", Cause: err}
	}
	return nil
}
