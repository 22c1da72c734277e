// Package layout turns key press and release events into the set of
// active keycodes.
//
// A [Layers] table maps (layer, row, col) to an [Action]. The [Layout]
// engine keeps a stack of active layers, resolves each press against the
// topmost layer that does not bind the coordinate as transparent, and
// disambiguates hold-tap keys by time and by what else happens while they
// are held.
//
// The engine counts time in ticks. The caller queues events with
// [Layout.Event] and advances time with [Layout.Tick]; each tick processes
// at most one queued event. A pending hold-tap stops the queue until it
// resolves, so that keys pressed while it is pending see the correct
// layer and modifiers.
package layout
