// Package fifo emulates the inter-half serial line with named pipes.
//
// Two processes, one per keyboard half, share a link directory:
//
//	/tmp/splitkb-link/
//	├── left_tx     # bytes sent by the left half
//	└── right_tx    # bytes sent by the right half
//
// [Create] makes the pipes once; each half then calls [Open] with its side.
// The returned [Port] implements io.ByteWriter and io.ByteReader with the
// non-blocking semantics of a UART data register: a full or empty pipe
// reports pkg.ErrBusy instead of blocking, which is what link.Transmitter
// expects.
package fifo
