package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is a single telemetry observation.
//
// Field order matters on the wire: ts first, then values.
type Point struct {
	// TS is the observation time in milliseconds since the Unix epoch.
	TS int64 `json:"ts"`

	// Values maps telemetry keys to scalar readings.
	Values map[string]any `json:"values"`
}

// MissingColumnError reports required columns absent from an input header.
type MissingColumnError struct {
	// Columns lists every missing column name.
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return "telemetry: missing required columns: " + strings.Join(e.Columns, ", ")
}

// numeric converts an inferred row value to float64.
//
// Returns an error for string values: a timestamp column that fails
// integer and float inference holds non-numeric text.
func numeric(v any) (float64, error) {
	switch t := v.(type) {
	case int64:
		return float64(t), nil
	case float64:
		return t, nil
	default:
		return 0, fmt.Errorf("telemetry: value %q is not numeric", fmt.Sprint(v))
	}
}

// fieldString renders an inferred row value as text, for use as a
// telemetry key or device token.
func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
