//go:build windows

package terminal

import "os"

// Windows consoles raise no resize signal; sizes are polled only.
func resizeSignals() []os.Signal {
	return nil
}
