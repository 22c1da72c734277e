// Package fifo emulates a USB HID keyboard interface with named pipes, so
// a simulated keyboard half can deliver reports to a monitor process.
//
// A device directory holds:
//
//	report_descriptor   HID report descriptor, written by the device
//	reports             8-byte input reports, device to host
//	connection          configuration signals, host to device
//
// The host writes 0x01 to configure the device and 0x00 to deconfigure
// it. Reports are written whole; a pipe write of fewer than PIPE_BUF bytes
// is atomic, so the host never sees a torn report.
package fifo
