// Package trace records and replays raw matrix scans.
//
// A trace is a short fixed preamble followed by a stream of CBOR data
// items, optionally compressed with zstd or LZ4. The first item is a
// [Header]; each following item is a [Record] holding the grid that became
// current at a given tick. Unchanged scans are not recorded.
//
// A [Player] replays a trace as a matrix.Scanner, so a keyboard half can
// run without hardware. A [Recorder] wraps a live scanner and writes what
// it sees.
package trace
