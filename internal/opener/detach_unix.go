//go:build !windows

package opener

import (
	"os/exec"
	"syscall"
)

// setProcAttr starts the handler in its own session so it outlives the plugin.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
