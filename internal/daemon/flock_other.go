//go:build !unix && !windows

package daemon

// AcquireLock does not lock on platforms without flock or LockFileEx; only
// the PID file guards against a second instance there.
func AcquireLock(path string) (*FileLock, error) {
	return &FileLock{path: path}, nil
}

// Release is a no-op on these platforms.
func (l *FileLock) Release() error {
	return nil
}

// IsLocked always returns false on these platforms.
func IsLocked(path string) bool {
	return false
}
