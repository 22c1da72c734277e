// Package prof captures runtime profiles of a simulated keyboard half.
//
// A [Session] streams a CPU profile while the half runs and, when stopped,
// snapshots the heap, goroutine, block and mutex profiles into the same
// directory. Block and mutex sampling are enabled for the life of the
// session so contention between the tick, serial receive and USB poll
// contexts shows up:
//
//	s, err := prof.Start("profiles")
//	if err != nil {
//	    return err
//	}
//	defer s.Stop()
//
// Profiles are read with go tool pprof.
package prof
