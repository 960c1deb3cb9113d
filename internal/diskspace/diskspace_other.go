//go:build !linux && !darwin && !freebsd && !windows

package diskspace

// Available is not implemented on this platform.
func Available(string) (uint64, error) {
	return 0, ErrUnsupported
}
