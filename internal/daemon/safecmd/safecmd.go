// Package safecmd runs external service-manager commands with a timeout.
package safecmd

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// DefaultTimeout bounds every command started through Run.
const DefaultTimeout = 10 * time.Second

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Exec is the Runner backed by os/exec.
type Exec struct {
	Timeout time.Duration
}

// Run runs name with args. The command is killed when the timeout expires
// or ctx is canceled.
func (e Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Run(ctx, timeout, name, args...)
}

// Run runs a command with the given timeout.
// All service-manager calls (systemctl, launchctl) must use this instead of exec.Command.
func Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // G204 - fixed service-manager binaries
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %v: %w (output: %s)", name, args, err, out)
	}
	return out, nil
}
