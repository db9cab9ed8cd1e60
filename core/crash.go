// Package core holds process-wide crash handling
package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"sync"
)

var (
	crashMu      sync.Mutex
	crashCleanup func()
	crashOutput  io.Writer = os.Stderr
	crashExit              = os.Exit
)

// SetCrashCleanup registers the hook run before the crash report is printed
// The terminal host uses it to restore the screen; nil clears it
func SetCrashCleanup(fn func()) {
	crashMu.Lock()
	crashCleanup = fn
	crashMu.Unlock()
}

// HandleCrash restores the host, reports the panic with its stack and exits the process
// Physics assertions (coincident bodies) surface here
func HandleCrash(r any) {
	if r == nil {
		return
	}

	crashMu.Lock()
	cleanup, out, exit := crashCleanup, crashOutput, crashExit
	crashMu.Unlock()

	if cleanup != nil {
		cleanup()
	}

	log.Printf("[CRASH] %v", r)
	fmt.Fprintf(out, "\nCRASH DETECTED: %v\nStack Trace:\n%s\n", r, debug.Stack())
	exit(1)
}

// Go runs fn on a new goroutine with panic recovery
// Use instead of the 'go' keyword so a crash restores the terminal
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
