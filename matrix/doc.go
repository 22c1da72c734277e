// Package matrix implements the switch scanner for the splitkb firmware.
//
// A scan reads the instantaneous electrical level of every switch and
// produces a [Grid]. Grids are fixed-size values (at most [MaxRows] by
// [MaxCols]) so scanning never allocates.
//
// # Direct pin wiring
//
// [DirectPinMatrix] handles switches wired one-to-one to input pins. Each
// row of the pin table may contain nil entries for positions that have no
// switch; those positions always read inactive:
//
//	m, _ := matrix.NewDirectPinMatrix([][]matrix.Pin{
//	    {p0, p1, p2},
//	    {nil, p3, p4},
//	}, true)
//
//	var grid matrix.Grid
//	if err := m.Scan(&grid); err != nil {
//	    // Skip this tick; grid still holds the previous scan
//	}
//
// On TinyGo targets, InputPullup configures and wraps a machine.Pin for an
// active-low matrix:
//
//	m, _ := matrix.NewDirectPinMatrix([][]matrix.Pin{
//	    {matrix.InputPullup(machine.D2), matrix.InputPullup(machine.D3)},
//	}, true)
package matrix
