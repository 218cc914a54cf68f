package export

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/mrsinham/blinkforge/internal/blink"
)

// FieldNames are the machine-friendly column names used by the Arrow and SQL
// sinks, in table column order.
var FieldNames = []string{
	"id", "frame", "x_nm", "y_nm", "sigma_nm", "intensity_photon",
	"offset_photon", "bkgstd_photon", "chi2", "uncertainty_nm",
}

// ArrowSchema is the schema of an exported localization table.
func ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(FieldNames))
	for i, name := range FieldNames {
		typ := arrow.DataType(arrow.PrimitiveTypes.Float64)
		if i < 2 {
			typ = arrow.PrimitiveTypes.Int64
		}
		fields[i] = arrow.Field{Name: name, Type: typ}
	}
	md := arrow.NewMetadata([]string{"header"}, []string{blink.Header})
	return arrow.NewSchema(fields, &md)
}

// WriteArrow writes events as a single record batch to an Arrow IPC file.
// A failed write leaves path untouched.
func WriteArrow(path string, events []blink.Event) error {
	mem := memory.NewGoAllocator()
	schema := ArrowSchema()

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	ids := b.Field(0).(*array.Int64Builder)
	frames := b.Field(1).(*array.Int64Builder)
	values := make([]*array.Float64Builder, 8)
	for i := range values {
		values[i] = b.Field(i + 2).(*array.Float64Builder)
	}

	for _, e := range events {
		ids.Append(int64(e.ID))
		frames.Append(int64(e.Frame))
		for i, v := range e.Measurements() {
			values[i].Append(v)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	err := writeFile(path, func(f *os.File) error {
		w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
		if err != nil {
			return err
		}
		if err := w.Write(rec); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	})
	if err != nil {
		return fmt.Errorf("write arrow %s: %w", path, err)
	}
	return nil
}

// ReadArrow reads the events of an Arrow IPC file written by WriteArrow.
func ReadArrow(path string) ([]blink.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open arrow %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("read arrow %s: %w", path, err)
	}
	defer func() { _ = r.Close() }()

	if !r.Schema().Equal(ArrowSchema()) {
		return nil, fmt.Errorf("read arrow %s: unexpected schema %s", path, r.Schema())
	}

	var events []blink.Event
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, fmt.Errorf("read arrow %s: record %d: %w", path, i, err)
		}

		ids := rec.Column(0).(*array.Int64).Int64Values()
		frames := rec.Column(1).(*array.Int64).Int64Values()
		cols := make([][]float64, 8)
		for c := range cols {
			cols[c] = rec.Column(c + 2).(*array.Float64).Float64Values()
		}

		for row := range ids {
			events = append(events, blink.Event{
				ID:            int(ids[row]),
				Frame:         int(frames[row]),
				X:             cols[0][row],
				Y:             cols[1][row],
				Sigma:         cols[2][row],
				Intensity:     cols[3][row],
				Offset:        cols[4][row],
				BackgroundStd: cols[5][row],
				ChiSquared:    cols[6][row],
				Uncertainty:   cols[7][row],
			})
		}
	}
	return events, nil
}
