//go:build !(darwin && cgo)

package watcher

// PlatformSource returns the OS termination source. Only macOS has one.
func PlatformSource() (TerminationSource, error) {
	return nil, ErrNotificationsUnsupported
}
