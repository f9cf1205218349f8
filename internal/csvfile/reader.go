// Package csvfile loads delimited text files into ordered rows.
//
// The first line of the file is a header naming the columns. Field values
// are type-inferred: integer if the text parses as one, floating point
// otherwise, string as the fallback. Rows whose field count differs from
// the header are an error (no null-padding) — that is the behavior of
// encoding/csv and this package surfaces it as ErrMalformedInput.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
)

// Row maps a column name to the value of one field.
// Values are string, int64, or float64 as inferred from the source text.
type Row map[string]any

// Sentinel errors for input loading.
//
// These can be checked with errors.Is() for specific handling:
//
//	if errors.Is(err, csvfile.ErrFileNotFound) {
//	    // Report cleanly instead of propagating
//	}
var (
	// ErrFileNotFound indicates the input path does not exist.
	ErrFileNotFound = errors.New("csvfile: file not found")

	// ErrMalformedInput indicates a row whose shape does not match the
	// header, or a file with no header line at all.
	ErrMalformedInput = errors.New("csvfile: malformed input")
)

// Read parses the file at path into ordered rows using sep as the field
// separator.
//
// Parameters:
//   - path: Path to the delimited text file
//   - sep: Field separator (e.g. ';' or ',')
//
// Returns:
//   - []Row: One Row per data line, in file order
//   - []string: Column names from the header line, in file order
//   - error: ErrFileNotFound, ErrMalformedInput, or an underlying I/O error
func Read(path string, sep rune) ([]Row, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, nil, fmt.Errorf("csvfile: opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = sep

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: %s has no header line", ErrMalformedInput, path)
		}
		return nil, nil, fmt.Errorf("csvfile: reading header of %s: %w", path, err)
	}

	var rows []Row
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				return nil, nil, fmt.Errorf("%w: %s: %v", ErrMalformedInput, path, err)
			}
			return nil, nil, fmt.Errorf("csvfile: reading %s: %w", path, err)
		}

		row := make(Row, len(header))
		for i, name := range header {
			row[name] = inferValue(record[i])
		}
		rows = append(rows, row)
	}

	return rows, header, nil
}

// inferValue converts a field's text into the narrowest matching scalar.
func inferValue(s string) any {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
