//go:build windows

package cli

import (
	"os"
	"os/exec"
)

// configureProcAttr is a no-op on Windows (Setpgid not supported).
func configureProcAttr(_ *exec.Cmd) {}

// terminateProcessGroup falls back to Process.Kill; Windows has no SIGTERM.
func terminateProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// killProcessGroup falls back to Process.Kill.
func killProcessGroup(cmd *exec.Cmd) error {
	return terminateProcessGroup(cmd)
}

// exitSignal always reports false; Windows processes only have exit codes.
func exitSignal(_ *os.ProcessState) (string, bool) {
	return "", false
}
