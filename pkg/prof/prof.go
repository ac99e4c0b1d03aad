//go:build profile

package prof

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"

	"github.com/ardnew/usbtap/pkg"
)

// ErrActive indicates a profiling session is already running.
var ErrActive = errors.New("profiling session already active")

var (
	mutex  sync.Mutex
	active bool
)

// Enabled reports whether the binary was built with profiling support.
func Enabled() bool { return true }

// Session is a running profiling session.
type Session struct {
	cpu  *os.File
	heap string
}

// Start begins a session. A non-empty cpuPath streams a CPU profile there
// until Stop; a non-empty heapPath receives a heap snapshot at Stop. Only
// one session may run at a time.
func Start(cpuPath, heapPath string) (*Session, error) {
	mutex.Lock()
	defer mutex.Unlock()

	if active {
		return nil, ErrActive
	}

	s := &Session{heap: heapPath}
	if cpuPath != "" {
		f, err := os.Create(cpuPath)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpu = f
	}
	active = true
	pkg.LogDebug(pkg.ComponentProf, "profiling started", "cpu", cpuPath, "heap", heapPath)
	return s, nil
}

// Stop ends the session and writes the heap snapshot. Calling Stop more
// than once is harmless.
func (s *Session) Stop() error {
	mutex.Lock()
	defer mutex.Unlock()

	if s == nil || !active {
		return nil
	}
	active = false

	var errs []error
	if s.cpu != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpu.Close())
		s.cpu = nil
	}
	if s.heap != "" {
		errs = append(errs, writeFile(s.heap))
		s.heap = ""
	}
	pkg.LogDebug(pkg.ComponentProf, "profiling stopped")
	return errors.Join(errs...)
}

func writeFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer f.Close()
	runtime.GC()
	return WriteHeap(f)
}

// WriteHeap writes a heap profile to w in pprof format.
func WriteHeap(w io.Writer) error {
	return pprof.Lookup("heap").WriteTo(w, 0)
}
