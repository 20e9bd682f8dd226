//go:build !windows

package service

import (
	"fmt"
	"os"
	"runtime"
)

func newPlatform(opts Options) (Manager, error) {
	switch runtime.GOOS {
	case "linux":
		return NewSystemd(opts), nil
	case "darwin":
		return NewLaunchd(opts, os.Getuid()), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, runtime.GOOS)
}
