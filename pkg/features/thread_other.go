//go:build !linux && !windows

package features

import "os"

// No portable thread id outside linux and windows; fall back to the pid.
func threadID() int {
	return os.Getpid()
}
