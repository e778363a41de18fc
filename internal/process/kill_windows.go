//go:build windows

// Package process terminates headless browser process trees.
package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup kills pid and its children with taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best-effort; the launcher's own Kill runs afterwards
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is numeric
}
