package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrsinham/blinkforge/internal/blink"
	"github.com/mrsinham/blinkforge/internal/logging"
)

// Options selects the sinks a finished table is written to.
type Options struct {
	Formats   []Format
	Path      string // base path for file formats
	DSN       string // PostgreSQL connection string
	Precision int    // decimal places for CSV, -1 for shortest round-trip
	Logger    *slog.Logger
}

// Export writes res to every requested sink and returns the written
// locations. It keeps going after a failed sink so that the table reaches
// as many destinations as possible; all failures are returned together.
func Export(ctx context.Context, res *blink.Result, run RunInfo, opts Options) ([]string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	formats := opts.Formats
	if len(formats) == 0 {
		formats = []Format{FormatCSV}
	}

	events := res.Table.Events()
	var outputs []string
	var errs []error

	for _, f := range formats {
		var dest string
		var err error

		switch f {
		case FormatCSV:
			dest = PathFor(opts.Path, f)
			err = WriteCSV(dest, res.Table, opts.Precision)
		case FormatArrow:
			dest = PathFor(opts.Path, f)
			err = WriteArrow(dest, events)
		case FormatSQLite:
			dest = PathFor(opts.Path, f)
			err = writeSQL(ctx, func() (*SQLSink, error) { return OpenSQLite(dest) }, run, events)
		case FormatPostgres:
			dest = "postgres"
			if opts.DSN == "" {
				err = errors.New("postgres output requires a DSN")
				break
			}
			err = writeSQL(ctx, func() (*SQLSink, error) { return OpenPostgres(ctx, opts.DSN) }, run, events)
		default:
			err = fmt.Errorf("%w %q", ErrUnknownFormat, f)
		}

		if err != nil {
			logger.Error("export failed", "format", f, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
			continue
		}
		logger.Info("table exported", "format", f, "destination", dest, "events", len(events))
		outputs = append(outputs, dest)
	}
	return outputs, errors.Join(errs...)
}

func writeSQL(ctx context.Context, open func() (*SQLSink, error), run RunInfo, events []blink.Event) error {
	sink, err := open()
	if err != nil {
		return err
	}
	if err := sink.Write(ctx, run, events); err != nil {
		_ = sink.Close()
		return err
	}
	return sink.Close()
}
