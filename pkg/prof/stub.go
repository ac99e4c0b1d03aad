//go:build !profile

package prof

import (
	"errors"
	"io"

	"github.com/ardnew/usbtap/pkg"
)

// ErrActive indicates a profiling session is already running. Never
// returned without the "profile" build tag.
var ErrActive = errors.New("profiling session already active")

// Enabled reports whether the binary was built with profiling support.
func Enabled() bool { return false }

// Session is a no-op without the "profile" build tag.
type Session struct{}

// Start logs a warning if a profile was requested and returns a no-op
// session.
func Start(cpuPath, heapPath string) (*Session, error) {
	if cpuPath != "" || heapPath != "" {
		pkg.LogWarn(pkg.ComponentProf, "profiling requested but not built in; rebuild with -tags profile")
	}
	return &Session{}, nil
}

// Stop does nothing.
func (*Session) Stop() error { return nil }

// WriteHeap does nothing.
func WriteHeap(_ io.Writer) error { return nil }
