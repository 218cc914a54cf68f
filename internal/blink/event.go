// Package blink turns a simulation config into a table of synthetic
// localizations: it schedules blink events over the simulated frames and
// fills every event with a position and measurement values.
package blink

import (
	"strconv"
	"strings"
)

// Header is the first line of every localization table.
const Header = "id, frame, x [nm], y [nm], sigma [nm], intensity [photon], offset [photon], bkgstd [photon], chi2, uncertainty [nm]"

// Columns are the header column names in order.
var Columns = []string{
	"id", "frame", "x [nm]", "y [nm]", "sigma [nm]", "intensity [photon]",
	"offset [photon]", "bkgstd [photon]", "chi2", "uncertainty [nm]",
}

// Event is one simulated localization. It is never modified after creation.
type Event struct {
	ID            int
	Frame         int
	X             float64
	Y             float64
	Sigma         float64
	Intensity     float64
	Offset        float64
	BackgroundStd float64
	ChiSquared    float64
	Uncertainty   float64
}

// Measurements returns the eight real-valued fields in column order.
func (e Event) Measurements() [8]float64 {
	return [8]float64{e.X, e.Y, e.Sigma, e.Intensity, e.Offset, e.BackgroundStd, e.ChiSquared, e.Uncertainty}
}

// Format renders e as a comma-joined row. Precision follows
// strconv.FormatFloat: -1 selects the shortest representation that parses
// back to the same value.
func (e Event) Format(precision int) string {
	var b strings.Builder
	b.Grow(128)
	b.WriteString(strconv.Itoa(e.ID))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(e.Frame))
	for _, v := range e.Measurements() {
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(v, 'f', precision, 64))
	}
	return b.String()
}
