// Unix/Darwin history locking using flock(2).

//go:build !windows

package history

import (
	"fmt"
	"os"
	"syscall"
)

// lockFile blocks until it holds an exclusive advisory lock on f.
func lockFile(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock file %s: %w", f.Name(), err)
	}
	return nil
}

// unlockFile releases the lock taken by lockFile. Closing f also releases it.
func unlockFile(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		return fmt.Errorf("unlock file %s: %w", f.Name(), err)
	}
	return nil
}
