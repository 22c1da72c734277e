// Package firmware ties the scanner, debouncer, half link, layout engine
// and USB report delivery into one keyboard half.
//
// Three execution contexts drive a [Keyboard]:
//
//   - the tick, at a fixed rate: [Keyboard.Tick]
//   - the serial receive handler, once per byte: [Keyboard.ReceiveByte]
//   - the USB bus handler: [Keyboard.PollUSB]
//
// The layout engine and the USB transport are each shared by two of
// these and live behind a [pkg.Exclusive]. Each tick reads whether the
// host has configured the device. A configured half is the primary and
// resolves events into reports; an unconfigured half is the secondary and
// forwards its events over the link.
package firmware
