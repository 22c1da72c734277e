// Package link implements the serial protocol between the two keyboard
// halves.
//
// Every key transition is sent as one fixed 4-byte frame:
//
//	[tag, row, col, '\n']
//
// where tag is 'P' for a press and 'R' for a release. There is no
// acknowledgment or retransmission.
//
// # Mirroring
//
// The right half's physical columns run in reverse. A [Codec] built with
// [NewMirroredCodec] reflects every decoded column (col' = maxCol - col) so
// events from the mirrored half land in the shared logical grid. [Mirror]
// exposes the same pure transform for events that never cross the link.
//
// # Receiving
//
// [Receiver] is fed one byte at a time from the serial receive handler and
// resynchronizes on malformed input by continuing to shift.
//
// # Sending
//
// [Transmitter] writes frames through an [io.ByteWriter] and retries while
// the writer reports pkg.ErrBusy.
package link
