// Package diskspace reports free space on the filesystem holding a path.
package diskspace

import (
	"github.com/pkg/errors"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// ErrUnsupported is returned on platforms without a free-space probe.
var ErrUnsupported = errors.New("free space probe not supported on this platform")

// Check returns types.ErrInsufficientSpace when fewer than min bytes are
// available to the current user at path. A min of zero disables the check.
// Platforms without a probe pass the check.
func Check(path string, min uint64) error {
	if min == 0 {
		return nil
	}
	free, err := Available(path)
	if errors.Is(err, ErrUnsupported) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "probe free space at %s", path)
	}
	if free < min {
		return errors.Wrapf(types.ErrInsufficientSpace, "%s: %d bytes free, %d required", path, free, min)
	}
	return nil
}
