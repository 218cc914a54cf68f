// Package export persists localization tables: delimited text, Arrow IPC,
// SQL databases, and a JSON run summary.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mrsinham/blinkforge/internal/blink"
)

// ErrMalformedRow is returned when a table row cannot be parsed.
var ErrMalformedRow = errors.New("malformed row")

// WriteRows writes one line per row, in order.
func WriteRows(w io.Writer, rows []string) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		if _, err := bw.WriteString(row); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteCSV writes the table to path. The file is written next to its
// destination and renamed into place, so a failed write leaves nothing behind.
func WriteCSV(path string, table *blink.Table, precision int) error {
	err := writeFile(path, func(f *os.File) error {
		return WriteRows(f, table.Rows(precision))
	})
	if err != nil {
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	return nil
}

// ReadCSV parses a table written by WriteCSV. The header must match exactly.
func ReadCSV(r io.Reader) ([]blink.Event, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, fmt.Errorf("%w: missing header", ErrMalformedRow)
	}
	if header := strings.TrimRight(sc.Text(), "\r"); header != blink.Header {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrMalformedRow, header)
	}

	var events []blink.Event
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		e, err := ParseRow(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return events, nil
}

// ReadCSVFile opens and parses a table file.
func ReadCSVFile(path string) ([]blink.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

// ParseRow parses one comma-joined event row.
func ParseRow(row string) (blink.Event, error) {
	fields := strings.Split(row, ",")
	if len(fields) != len(blink.Columns) {
		return blink.Event{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRow, len(blink.Columns), len(fields))
	}

	var e blink.Event
	var err error
	if e.ID, err = strconv.Atoi(strings.TrimSpace(fields[0])); err != nil {
		return blink.Event{}, fmt.Errorf("%w: id: %v", ErrMalformedRow, err)
	}
	if e.Frame, err = strconv.Atoi(strings.TrimSpace(fields[1])); err != nil {
		return blink.Event{}, fmt.Errorf("%w: frame: %v", ErrMalformedRow, err)
	}

	targets := []*float64{&e.X, &e.Y, &e.Sigma, &e.Intensity, &e.Offset, &e.BackgroundStd, &e.ChiSquared, &e.Uncertainty}
	for i, dst := range targets {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i+2]), 64)
		if err != nil {
			return blink.Event{}, fmt.Errorf("%w: %s: %v", ErrMalformedRow, blink.Columns[i+2], err)
		}
		*dst = v
	}
	return e, nil
}
