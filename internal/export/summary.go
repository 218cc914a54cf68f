package export

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"gonum.org/v1/gonum/stat"

	"github.com/mrsinham/blinkforge/internal/blink"
	"github.com/mrsinham/blinkforge/internal/sampling"
)

// uniformityRings is the number of equal-area rings used for the radial
// uniformity statistic.
const uniformityRings = 10

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FieldStats summarizes one measured column.
type FieldStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Summary describes a finished run.
type Summary struct {
	RunID          string                `json:"run_id"`
	Seed           int64                 `json:"seed"`
	Frames         int                   `json:"frames"`
	Blinks         int                   `json:"blinks"`
	FramesPerBlink int                   `json:"frames_per_blink"`
	Events         int                   `json:"events"`
	FirstFrame     int                   `json:"first_frame,omitempty"`
	LastFrame      int                   `json:"last_frame,omitempty"`
	Fields         map[string]FieldStats `json:"fields"`
	RingCounts     []int                 `json:"ring_counts"`
	RingChiSquare  float64               `json:"ring_chi_square"`
	Outputs        []string              `json:"outputs,omitempty"`
}

// Summarize computes per-field statistics and the radial uniformity of the
// positions over disk.
func Summarize(run RunInfo, events []blink.Event, disk sampling.Disk) Summary {
	s := Summary{
		RunID:          run.RunID.String(),
		Seed:           run.Seed,
		Frames:         run.Frames,
		Blinks:         run.Blinks,
		FramesPerBlink: run.FramesPerBlink,
		Events:         len(events),
		Fields:         FieldStatistics(events),
	}

	if len(events) > 0 {
		s.FirstFrame = events[0].Frame
		s.LastFrame = events[len(events)-1].Frame
	}

	xs := make([]float64, len(events))
	ys := make([]float64, len(events))
	for i, e := range events {
		xs[i], ys[i] = e.X, e.Y
	}
	s.RingCounts = disk.RingCounts(xs, ys, uniformityRings)
	s.RingChiSquare = sampling.ChiSquare(s.RingCounts)
	return s
}

// FieldStatistics returns min/max/mean/stddev for every measured column,
// keyed by its machine name.
func FieldStatistics(events []blink.Event) map[string]FieldStats {
	out := make(map[string]FieldStats, 8)
	if len(events) == 0 {
		return out
	}

	cols := make([][]float64, 8)
	for c := range cols {
		cols[c] = make([]float64, len(events))
	}
	for i, e := range events {
		for c, v := range e.Measurements() {
			cols[c][i] = v
		}
	}

	for c, values := range cols {
		fs := FieldStats{Min: values[0], Max: values[0]}
		for _, v := range values[1:] {
			fs.Min = min(fs.Min, v)
			fs.Max = max(fs.Max, v)
		}
		if len(values) > 1 {
			fs.Mean, fs.StdDev = stat.MeanStdDev(values, nil)
		} else {
			fs.Mean = values[0]
		}
		out[FieldNames[c+2]] = fs
	}
	return out
}

// EncodeSummary writes s as indented JSON.
func EncodeSummary(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteSummary writes s to path.
func WriteSummary(path string, s Summary) error {
	err := writeFile(path, func(f *os.File) error {
		return EncodeSummary(f, s)
	})
	if err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}

// ReadSummary decodes a summary file.
func ReadSummary(path string) (Summary, error) {
	var s Summary
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read summary %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode summary %s: %w", path, err)
	}
	return s, nil
}
