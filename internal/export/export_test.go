package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mrsinham/blinkforge/internal/blink"
	"github.com/mrsinham/blinkforge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulate(t *testing.T, frames int, rate float64) *blink.Result {
	t.Helper()
	cfg := config.Default()
	cfg.Frames = frames
	cfg.BlinksPerFrame = rate
	cfg.Seed = 42
	res, err := blink.Simulate(cfg, blink.Options{Workers: 2})
	require.NoError(t, err)
	return res
}

func runInfo(t *testing.T, res *blink.Result) RunInfo {
	t.Helper()
	run, err := NewRunInfo(res.Seed, res.Plan)
	require.NoError(t, err)
	return run
}

func TestCSV_RoundTrip(t *testing.T) {
	res := simulate(t, 2000, 0.05)
	path := filepath.Join(t.TempDir(), "sim.csv")

	require.NoError(t, WriteCSV(path, res.Table, -1))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, res.Table.Len())
	assert.Equal(t, blink.Header, lines[0])

	events, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, res.Table.Events(), events)
}

func TestCSV_RoundTripWithPrecision(t *testing.T) {
	res := simulate(t, 1000, 0.05)
	var buf bytes.Buffer
	require.NoError(t, WriteRows(&buf, res.Table.Rows(3)))

	events, err := ReadCSV(&buf)
	require.NoError(t, err)

	want := res.Table.Events()
	require.Len(t, events, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, events[i].ID)
		assert.Equal(t, want[i].Frame, events[i].Frame)
		got := events[i].Measurements()
		for c, v := range want[i].Measurements() {
			assert.InDelta(t, v, got[c], 5e-4)
		}
	}
}

func TestCSV_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "empty.csv")
	require.NoError(t, WriteCSV(path, blink.NewTable(0), -1))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, blink.Header+"\n", string(data))

	events, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCSV_SkipsUnassignedSlots(t *testing.T) {
	table := blink.NewTable(4)
	table.Set(blink.Event{ID: 1, Frame: 1})
	table.Set(blink.Event{ID: 2, Frame: 5})

	var buf bytes.Buffer
	require.NoError(t, WriteRows(&buf, table.Rows(-1)))
	assert.Equal(t, blink.Header+"\n1,1,0,0,0,0,0,0,0,0\n2,5,0,0,0,0,0,0,0,0\n", buf.String())
}

func TestWriteCSV_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sim.csv")
	require.NoError(t, os.Mkdir(target, 0755)) // rename onto a directory fails

	err := WriteCSV(target, blink.NewTable(0), -1)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file must be cleaned up")
	assert.True(t, entries[0].IsDir())
}

func TestWriteCSV_FileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.csv")
	require.NoError(t, WriteCSV(path, blink.NewTable(0), -1))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestWriteFile_FailureKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.arrow")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0644))

	errWrite := errors.New("disk full")
	err := writeFile(path, func(f *os.File) error {
		_, _ = f.WriteString("partial")
		return errWrite
	})
	require.ErrorIs(t, err, errWrite)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be cleaned up")
}

func TestWriteArrow_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sim.arrow")
	require.NoError(t, os.Mkdir(target, 0755))

	require.Error(t, WriteArrow(target, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsDir())
}

func TestWriteSummary_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "summary.json")
	require.NoError(t, os.Mkdir(target, 0755))

	require.Error(t, WriteSummary(target, Summary{Events: 1}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsDir())
}

func TestReadCSV_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", "id,frame\n"},
		{"too few fields", blink.Header + "\n1,2,3\n"},
		{"bad id", blink.Header + "\nx,1,0,0,0,0,0,0,0,0\n"},
		{"bad float", blink.Header + "\n1,1,0,abc,0,0,0,0,0,0\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRow), "got %v", err)
		})
	}
}

func TestParseRow_ToleratesSpaces(t *testing.T) {
	e, err := ParseRow("3, 49, 1.5, 2.5, 100, 700, 450, 30, 99, 21")
	require.NoError(t, err)
	assert.Equal(t, 3, e.ID)
	assert.Equal(t, 49, e.Frame)
	assert.Equal(t, 2.5, e.Y)
	assert.Equal(t, 21.0, e.Uncertainty)
}

func TestArrow_RoundTrip(t *testing.T) {
	res := simulate(t, 2000, 0.05)
	path := filepath.Join(t.TempDir(), "sim.arrow")

	require.NoError(t, WriteArrow(path, res.Table.Events()))

	events, err := ReadArrow(path)
	require.NoError(t, err)
	assert.Equal(t, res.Table.Events(), events)
}

func TestArrow_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.arrow")
	require.NoError(t, WriteArrow(path, nil))

	events, err := ReadArrow(path)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestArrowSchema(t *testing.T) {
	schema := ArrowSchema()
	require.Equal(t, len(FieldNames), schema.NumFields())
	assert.Equal(t, "id", schema.Field(0).Name)
	assert.Equal(t, "uncertainty_nm", schema.Field(9).Name)
	header, ok := schema.Metadata().GetValue("header")
	assert.True(t, ok)
	assert.Equal(t, blink.Header, header)
}

func TestSQLite_RoundTrip(t *testing.T) {
	res := simulate(t, 4000, 0.3) // more events than one insert batch
	run := runInfo(t, res)
	path := filepath.Join(t.TempDir(), "sim.db")

	sink, err := OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = sink.Close() }()

	ctx := context.Background()
	require.NoError(t, sink.Write(ctx, run, res.Table.Events()))

	events, err := sink.ReadRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Table.Events(), events)

	// A second run goes into the same tables.
	other := runInfo(t, res)
	require.NoError(t, sink.Write(ctx, other, res.Table.Events()[:10]))
	events, err = sink.ReadRun(ctx, other.RunID)
	require.NoError(t, err)
	assert.Len(t, events, 10)

	var runs int
	require.NoError(t, sink.db.GetContext(ctx, &runs, "SELECT COUNT(*) FROM runs"))
	assert.Equal(t, 2, runs)
}

func TestSQLite_DuplicateRunRollsBack(t *testing.T) {
	res := simulate(t, 200, 0.1)
	run := runInfo(t, res)

	sink, err := OpenSQLite(filepath.Join(t.TempDir(), "dup.db"))
	require.NoError(t, err)
	defer func() { _ = sink.Close() }()

	ctx := context.Background()
	require.NoError(t, sink.Write(ctx, run, res.Table.Events()))
	require.Error(t, sink.Write(ctx, run, res.Table.Events()))

	events, err := sink.ReadRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Len(t, events, len(res.Table.Events()))
}

func TestInsertStatements_Postgres(t *testing.T) {
	run := RunInfo{RunID: uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057"), Seed: 9, Frames: 10, Blinks: 3, FramesPerBlink: 3}
	events := []blink.Event{{ID: 1, Frame: 1}, {ID: 2, Frame: 4}, {ID: 3, Frame: 7}}

	queries, args, err := insertStatements(dialectPostgres, run, events, 2)
	require.NoError(t, err)
	require.Len(t, queries, 3, "run insert plus two batches")
	require.Len(t, args, 3)

	assert.Contains(t, queries[0], `INSERT INTO "runs"`)
	assert.Contains(t, queries[1], `INSERT INTO "localizations"`)
	assert.Contains(t, queries[1], "$1")
	assert.Len(t, args[1], 2*11)
	assert.Len(t, args[2], 11)
}

func TestSchema_Dialects(t *testing.T) {
	pg := strings.Join(schema(dialectPostgres), "\n")
	assert.Contains(t, pg, "DOUBLE PRECISION")

	lite := strings.Join(schema(dialectSQLite), "\n")
	assert.Contains(t, lite, "x_nm REAL NOT NULL")
	assert.Contains(t, lite, "PRIMARY KEY (run_id, id)")
}

func TestParseFormats(t *testing.T) {
	formats, err := ParseFormats("csv,arrow", "SQLite", "csv", "pg")
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatCSV, FormatArrow, FormatSQLite, FormatPostgres}, formats)

	formats, err = ParseFormats("")
	require.NoError(t, err)
	assert.Empty(t, formats)

	_, err = ParseFormats("parquet")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, "out/sim.csv", PathFor("out/sim.csv", FormatCSV))
	assert.Equal(t, "out/sim.arrow", PathFor("out/sim.csv", FormatArrow))
	assert.Equal(t, "out/sim.db", PathFor("out/sim", FormatSQLite))
	assert.Equal(t, "out.d/sim.db", PathFor("out.d/sim", FormatSQLite))
	assert.Equal(t, "dsn", PathFor("dsn", FormatPostgres))
}

func TestSummary(t *testing.T) {
	res := simulate(t, 20000, 0.041)
	run := runInfo(t, res)

	s := Summarize(run, res.Table.Events(), res.Disk)
	assert.Equal(t, 820, s.Events)
	assert.Equal(t, 24, s.FramesPerBlink)
	assert.Equal(t, 1, s.FirstFrame)
	assert.Equal(t, 19657, s.LastFrame)
	require.Len(t, s.RingCounts, 10)

	sum := 0
	for _, c := range s.RingCounts {
		sum += c
	}
	assert.Equal(t, 820, sum)

	cfg := config.Default()
	sigma := s.Fields["sigma_nm"]
	assert.GreaterOrEqual(t, sigma.Min, cfg.Sigma.Min)
	assert.LessOrEqual(t, sigma.Max, cfg.Sigma.Max)
	assert.InDelta(t, 110, sigma.Mean, 5)
	assert.Len(t, s.Fields, 8)

	path := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, WriteSummary(path, s))
	loaded, err := ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestFieldStatistics_SingleEvent(t *testing.T) {
	stats := FieldStatistics([]blink.Event{{ID: 1, Frame: 1, Sigma: 100}})
	assert.Equal(t, FieldStats{Min: 100, Max: 100, Mean: 100}, stats["sigma_nm"])
	assert.Empty(t, FieldStatistics(nil))
}

func TestExport_AllFileSinks(t *testing.T) {
	res := simulate(t, 1000, 0.05)
	run := runInfo(t, res)
	base := filepath.Join(t.TempDir(), "sim.csv")

	outputs, err := Export(context.Background(), res, run, Options{
		Formats:   []Format{FormatCSV, FormatArrow, FormatSQLite},
		Path:      base,
		Precision: -1,
	})
	require.NoError(t, err)
	require.Len(t, outputs, 3)

	for _, out := range outputs {
		_, err := os.Stat(out)
		assert.NoError(t, err, out)
	}

	events, err := ReadArrow(outputs[1])
	require.NoError(t, err)
	assert.Equal(t, res.Table.Events(), events)
}

func TestExport_PostgresNeedsDSN(t *testing.T) {
	res := simulate(t, 100, 0.1)
	base := filepath.Join(t.TempDir(), "sim.csv")

	outputs, err := Export(context.Background(), res, runInfo(t, res), Options{
		Formats: []Format{FormatPostgres, FormatCSV},
		Path:    base,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")
	assert.Equal(t, []string{base}, outputs, "remaining sinks still receive the table")
}
