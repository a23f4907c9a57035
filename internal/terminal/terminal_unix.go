//go:build !windows

package terminal

import (
	"os"
	"syscall"
)

// resizeSignals are delivered when the controlling terminal is resized.
func resizeSignals() []os.Signal {
	return []os.Signal{syscall.SIGWINCH}
}
