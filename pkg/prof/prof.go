package prof

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"
)

// Profiling errors.
var (
	// ErrCPUProfileActive indicates a session is already profiling the CPU.
	ErrCPUProfileActive = errors.New("cpu profile already active")

	// ErrInvalidProfile indicates an invalid or unsupported profile type.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Profile names a pprof profile.
type Profile string

// Profiles written by a session.
const (
	ProfileCPU       Profile = "cpu"
	ProfileHeap      Profile = "heap"
	ProfileGoroutine Profile = "goroutine"
	ProfileBlock     Profile = "block"
	ProfileMutex     Profile = "mutex"
)

// Snapshots are written by Stop, in order.
var Snapshots = []Profile{ProfileHeap, ProfileGoroutine, ProfileBlock, ProfileMutex}

// Sampling rates while a session is active.
const (
	BlockProfileRate     = int(10 * time.Microsecond)
	MutexProfileFraction = 10
)

var (
	cpuMutex  sync.Mutex
	cpuActive bool
)

// Session profiles the process into a directory.
type Session struct {
	dir     string
	cpuFile *os.File
	once    sync.Once
	err     error
}

// Start creates dir if needed and begins profiling into it. Only one
// session may run at a time.
func Start(dir string) (*Session, error) {
	cpuMutex.Lock()
	defer cpuMutex.Unlock()
	if cpuActive {
		return nil, ErrCPUProfileActive
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	f, err := os.Create(path(dir, ProfileCPU))
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}
	runtime.SetBlockProfileRate(BlockProfileRate)
	runtime.SetMutexProfileFraction(MutexProfileFraction)

	cpuActive = true
	return &Session{dir: dir, cpuFile: f}, nil
}

// Dir returns the directory profiles are written to.
func (s *Session) Dir() string { return s.dir }

// Stop ends CPU profiling, writes the snapshot profiles and disables
// sampling. Later calls return the first call's result.
func (s *Session) Stop() error {
	s.once.Do(func() {
		cpuMutex.Lock()
		defer cpuMutex.Unlock()

		pprof.StopCPUProfile()
		errs := []error{s.cpuFile.Close()}
		for _, p := range Snapshots {
			errs = append(errs, writeFile(path(s.dir, p), p))
		}
		runtime.SetBlockProfileRate(0)
		runtime.SetMutexProfileFraction(0)

		cpuActive = false
		s.err = errors.Join(errs...)
	})
	return s.err
}

// WriteTo writes a snapshot profile to w. Debug level 0 is the binary
// format read by go tool pprof; 1 is human-readable text.
func WriteTo(p Profile, w io.Writer, debug int) error {
	if p == ProfileCPU {
		return fmt.Errorf("%s is streamed by a session: %w", p, ErrInvalidProfile)
	}
	prof := pprof.Lookup(string(p))
	if prof == nil {
		return fmt.Errorf("%q: %w", p, ErrInvalidProfile)
	}
	return prof.WriteTo(w, debug)
}

func writeFile(name string, p Profile) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := WriteTo(p, f, 0); err != nil {
		f.Close()
		return fmt.Errorf("write %s profile: %w", p, err)
	}
	return f.Close()
}

// path returns the file a session writes p to.
func path(dir string, p Profile) string {
	return filepath.Join(dir, string(p)+".prof")
}
