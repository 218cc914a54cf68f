package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mrsinham/blinkforge/internal/blink"
)

const (
	tableRuns          = "runs"
	tableLocalizations = "localizations"
	colRunID           = "run_id"
	dialectSQLite      = "sqlite3"
	dialectPostgres    = "postgres"
	defaultBatchSize   = 500
)

// RunInfo identifies one simulation run in a database.
type RunInfo struct {
	RunID          uuid.UUID
	Seed           int64
	Frames         int
	Blinks         int
	FramesPerBlink int
	CreatedAt      time.Time
}

// NewRunInfo assigns a fresh time-ordered run id.
func NewRunInfo(seed int64, plan blink.Plan) (RunInfo, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return RunInfo{}, fmt.Errorf("generate run id: %w", err)
	}
	return RunInfo{
		RunID:          id,
		Seed:           seed,
		Frames:         plan.Frames,
		Blinks:         plan.Blinks,
		FramesPerBlink: plan.FramesPerBlink,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// localizationRow is the database shape of an event.
type localizationRow struct {
	RunID         string  `db:"run_id"`
	ID            int64   `db:"id"`
	Frame         int64   `db:"frame"`
	X             float64 `db:"x_nm"`
	Y             float64 `db:"y_nm"`
	Sigma         float64 `db:"sigma_nm"`
	Intensity     float64 `db:"intensity_photon"`
	Offset        float64 `db:"offset_photon"`
	BackgroundStd float64 `db:"bkgstd_photon"`
	ChiSquared    float64 `db:"chi2"`
	Uncertainty   float64 `db:"uncertainty_nm"`
}

func (r localizationRow) event() blink.Event {
	return blink.Event{
		ID: int(r.ID), Frame: int(r.Frame),
		X: r.X, Y: r.Y,
		Sigma: r.Sigma, Intensity: r.Intensity, Offset: r.Offset,
		BackgroundStd: r.BackgroundStd, ChiSquared: r.ChiSquared, Uncertainty: r.Uncertainty,
	}
}

// SQLSink stores localization tables in a SQL database.
type SQLSink struct {
	db        *sqlx.DB
	dialect   string
	batchSize int
}

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(path string) (*SQLSink, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer
	return NewSQLSink(db, dialectSQLite), nil
}

// OpenPostgres connects to PostgreSQL through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLSink, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewSQLSink(db, dialectPostgres), nil
}

// NewSQLSink wraps an open database. dialect is a goqu dialect name
// ("sqlite3" or "postgres").
func NewSQLSink(db *sqlx.DB, dialect string) *SQLSink {
	return &SQLSink{db: db, dialect: dialect, batchSize: defaultBatchSize}
}

// Close closes the database.
func (s *SQLSink) Close() error {
	return s.db.Close()
}

// schema returns the DDL for the sink's dialect.
func schema(dialect string) []string {
	floatType := "REAL"
	if dialect == dialectPostgres {
		floatType = "DOUBLE PRECISION"
	}
	cols := make([]string, 0, len(FieldNames))
	for i, name := range FieldNames {
		typ := floatType
		if i < 2 {
			typ = "BIGINT"
		}
		cols = append(cols, fmt.Sprintf("%s %s NOT NULL", name, typ))
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed BIGINT NOT NULL,
			frames BIGINT NOT NULL,
			blinks BIGINT NOT NULL,
			frames_per_blink BIGINT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS localizations (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			%s,
			PRIMARY KEY (run_id, id)
		)`, strings.Join(cols, ",\n\t\t\t")),
	}
}

// insertStatements builds the run row insert followed by batched event
// inserts.
func insertStatements(dialect string, run RunInfo, events []blink.Event, batchSize int) ([]string, [][]any, error) {
	builder := goqu.Dialect(dialect)
	var queries []string
	var args [][]any

	runStmt := builder.Insert(tableRuns).Prepared(true).Rows(goqu.Record{
		"run_id":           run.RunID.String(),
		"seed":             run.Seed,
		"frames":           run.Frames,
		"blinks":           run.Blinks,
		"frames_per_blink": run.FramesPerBlink,
		"created_at":       run.CreatedAt.Format(time.RFC3339Nano),
	})
	q, a, err := runStmt.ToSQL()
	if err != nil {
		return nil, nil, fmt.Errorf("build run insert: %w", err)
	}
	queries, args = append(queries, q), append(args, a)

	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	for start := 0; start < len(events); start += batchSize {
		end := min(start+batchSize, len(events))
		rows := make([]any, 0, end-start)
		for _, e := range events[start:end] {
			rows = append(rows, localizationRow{
				RunID: run.RunID.String(),
				ID:    int64(e.ID), Frame: int64(e.Frame),
				X: e.X, Y: e.Y,
				Sigma: e.Sigma, Intensity: e.Intensity, Offset: e.Offset,
				BackgroundStd: e.BackgroundStd, ChiSquared: e.ChiSquared, Uncertainty: e.Uncertainty,
			})
		}
		q, a, err := builder.Insert(tableLocalizations).Prepared(true).Rows(rows...).ToSQL()
		if err != nil {
			return nil, nil, fmt.Errorf("build localization insert: %w", err)
		}
		queries, args = append(queries, q), append(args, a)
	}
	return queries, args, nil
}

// Write creates the schema if needed and stores the run and its events in a
// single transaction.
func (s *SQLSink) Write(ctx context.Context, run RunInfo, events []blink.Event) (err error) {
	for _, ddl := range schema(s.dialect) {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	queries, args, err := insertStatements(s.dialect, run, events, s.batchSize)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	for i, q := range queries {
		if _, err := tx.ExecContext(ctx, q, args[i]...); err != nil {
			return fmt.Errorf("insert batch %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ReadRun loads the events of one run in id order.
func (s *SQLSink) ReadRun(ctx context.Context, runID uuid.UUID) ([]blink.Event, error) {
	q, a, err := goqu.Dialect(s.dialect).
		From(tableLocalizations).
		Prepared(true).
		Where(goqu.C(colRunID).Eq(runID.String())).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []localizationRow
	if err := s.db.SelectContext(ctx, &rows, q, a...); err != nil {
		return nil, fmt.Errorf("select run %s: %w", runID, err)
	}

	events := make([]blink.Event, len(rows))
	for i, r := range rows {
		events[i] = r.event()
	}
	return events, nil
}
