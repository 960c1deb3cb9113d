package types

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// ErrorKind classifies failures raised while logging.
type ErrorKind int

const (
	// KindConfiguration covers invalid rotation specs, log names, levels.
	KindConfiguration ErrorKind = iota + 1
	// KindIOTransient covers lock contention and temporary unavailability; retried.
	KindIOTransient
	// KindIOPermanent covers disk full, permission and missing path errors.
	KindIOPermanent
	// KindRotation covers archive merge and rename failures during rotation.
	KindRotation
	// KindDestination covers a single destination failing to emit.
	KindDestination
	// KindBuffer covers write buffer flush and overflow problems.
	KindBuffer
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindIOTransient:
		return "io-transient"
	case KindIOPermanent:
		return "io-permanent"
	case KindRotation:
		return "rotation"
	case KindDestination:
		return "destination"
	case KindBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// ErrInsufficientSpace is returned when the free-space pre-check fails.
var ErrInsufficientSpace = errors.New("insufficient free disk space")

// IsPermanentIOError reports whether err is an I/O failure that retrying
// will not fix.
func IsPermanentIOError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInsufficientSpace) || errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrNotExist) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOSPC, syscall.EROFS, syscall.EACCES, syscall.EPERM, syscall.ENOENT, syscall.ENOTDIR, syscall.EISDIR:
			return true
		}
	}
	return false
}

// ClassifyIOError maps an I/O error to KindIOPermanent or KindIOTransient.
func ClassifyIOError(err error) ErrorKind {
	if IsPermanentIOError(err) {
		return KindIOPermanent
	}
	return KindIOTransient
}
