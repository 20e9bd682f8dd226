//go:build darwin && cgo

package watcher

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework AppKit -framework Foundation
#include <stdint.h>

void ech_observe_terminations(uintptr_t handle);
void ech_stop_observing(void);
*/
import "C"

import (
	"context"
	"runtime/cgo"
	"sync"
)

// appKitSource observes NSWorkspaceDidTerminateApplicationNotification. It
// runs the main run loop, so Observe must be called from the main OS thread.
type appKitSource struct{}

var observeMu sync.Mutex

// PlatformSource returns the AppKit termination source.
func PlatformSource() (TerminationSource, error) {
	return appKitSource{}, nil
}

func (appKitSource) Observe(ctx context.Context, handler TerminationHandler) error {
	observeMu.Lock()
	defer observeMu.Unlock()

	h := cgo.NewHandle(handler)
	defer h.Delete()

	stop := context.AfterFunc(ctx, func() { C.ech_stop_observing() })
	defer stop()

	if ctx.Err() != nil {
		return nil
	}
	C.ech_observe_terminations(C.uintptr_t(h))
	return nil
}

//export echAppTerminated
func echAppTerminated(handle C.uintptr_t, bundleID *C.char) {
	handler, ok := cgo.Handle(handle).Value().(TerminationHandler)
	if !ok {
		return
	}
	handler(C.GoString(bundleID))
}
