package main

import "runtime"

// AppKit notifications are delivered on the main run loop, which must be
// driven from the main OS thread. Pinning here keeps the main goroutine there.
func init() {
	runtime.LockOSThread()
}
