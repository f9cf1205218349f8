package telemetry

import (
	"fmt"
	"slices"

	"github.com/tesenso/tb-import/internal/csvfile"
)

// SingleOptions controls the single-device transformation.
type SingleOptions struct {
	// Keys restricts which columns become telemetry keys. Empty means
	// all columns. The timestamp column is always retained.
	Keys []string

	// TimestampKey names the column holding the Unix timestamp.
	TimestampKey string

	// Milliseconds indicates the timestamp column is already in
	// milliseconds. When false, values are rescaled from seconds.
	Milliseconds bool
}

// DataKeys reports which header columns become telemetry keys under the
// key filter, and which are dropped. The timestamp column appears in
// neither list.
//
// Parameters:
//   - header: Column names from the input file
//   - opts: Transformation options
//
// Returns:
//   - kept: Columns that become telemetry keys, in header order
//   - dropped: Columns removed by the filter, in header order
func DataKeys(header []string, opts SingleOptions) (kept, dropped []string) {
	for _, name := range header {
		switch {
		case name == opts.TimestampKey:
		case len(opts.Keys) == 0 || slices.Contains(opts.Keys, name):
			kept = append(kept, name)
		default:
			dropped = append(dropped, name)
		}
	}
	return kept, dropped
}

// TransformSingle converts rows into one telemetry point each, for a
// single device.
//
// The timestamp column must be present in the header; if it is absent
// the transformation fails with a MissingColumnError before any numeric
// access. When opts.Milliseconds is false the timestamp is multiplied by
// 1000; truncation to an integer happens only at point construction.
// Every kept column except the timestamp lands in the point's values map
// verbatim.
//
// Parameters:
//   - rows: Input rows, in file order
//   - header: Column names from the input file
//   - opts: Transformation options
//
// Returns:
//   - []Point: One point per row, in file order
//   - error: MissingColumnError, or a non-numeric timestamp value
func TransformSingle(rows []csvfile.Row, header []string, opts SingleOptions) ([]Point, error) {
	if !slices.Contains(header, opts.TimestampKey) {
		return nil, &MissingColumnError{Columns: []string{opts.TimestampKey}}
	}

	kept, _ := DataKeys(header, opts)

	points := make([]Point, 0, len(rows))
	for i, row := range rows {
		ts, err := numeric(row[opts.TimestampKey])
		if err != nil {
			return nil, fmt.Errorf("row %d, column %s: %w", i+1, opts.TimestampKey, err)
		}
		if !opts.Milliseconds {
			ts *= 1000
		}

		values := make(map[string]any, len(kept))
		for _, name := range kept {
			values[name] = row[name]
		}

		points = append(points, Point{TS: int64(ts), Values: values})
	}

	return points, nil
}
