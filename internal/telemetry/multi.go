package telemetry

import (
	"fmt"
	"slices"

	"github.com/tesenso/tb-import/internal/csvfile"
)

// Fixed column names for multi-device input. The importer defines this
// file contract; the names never vary at runtime.
const (
	// ColumnValue holds the telemetry reading.
	ColumnValue = "value"

	// ColumnKey holds the telemetry key the reading is stored under.
	ColumnKey = "key"

	// ColumnTimestamp holds the Unix timestamp in seconds.
	ColumnTimestamp = "timestamp"

	// ColumnAccessToken holds the device access token.
	ColumnAccessToken = "access_token"
)

// requiredColumns is the full multi-device file contract, in reporting order.
var requiredColumns = []string{ColumnValue, ColumnKey, ColumnTimestamp, ColumnAccessToken}

// DeviceGroup pairs a device access token with the points destined for it.
type DeviceGroup struct {
	// Token is the device access token from the access_token column.
	Token string

	// Points holds the device's telemetry, preserving input file order.
	Points []Point
}

// TransformMulti partitions rows by access token and converts each row
// into a single-key telemetry point.
//
// All four required columns must be present in the header; otherwise the
// transformation fails with a MissingColumnError listing every absent
// name and nothing is converted. Groups are returned in sorted token
// order, which is stable within a run. Within a group, points preserve
// original file order. Every row lands in exactly one group.
//
// Parameters:
//   - rows: Input rows, in file order
//   - header: Column names from the input file
//
// Returns:
//   - []DeviceGroup: One group per distinct access token
//   - error: MissingColumnError, or a non-numeric timestamp value
func TransformMulti(rows []csvfile.Row, header []string) ([]DeviceGroup, error) {
	var missing []string
	for _, name := range requiredColumns {
		if !slices.Contains(header, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}

	byToken := make(map[string][]Point)
	for i, row := range rows {
		ts, err := numeric(row[ColumnTimestamp])
		if err != nil {
			return nil, fmt.Errorf("row %d, column %s: %w", i+1, ColumnTimestamp, err)
		}

		token := fieldString(row[ColumnAccessToken])
		point := Point{
			TS: int64(ts * 1000),
			Values: map[string]any{
				fieldString(row[ColumnKey]): row[ColumnValue],
			},
		}
		byToken[token] = append(byToken[token], point)
	}

	tokens := make([]string, 0, len(byToken))
	for token := range byToken {
		tokens = append(tokens, token)
	}
	slices.Sort(tokens)

	groups := make([]DeviceGroup, 0, len(tokens))
	for _, token := range tokens {
		groups = append(groups, DeviceGroup{Token: token, Points: byToken[token]})
	}

	return groups, nil
}
