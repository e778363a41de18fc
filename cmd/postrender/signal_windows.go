//go:build windows

package main

import "os"

// syscall.SIGTERM is not delivered on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
