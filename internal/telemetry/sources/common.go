package sources

import (
	"fmt"
	"math"
	"time"
)

// DefaultTable is the readings table the drones write into.
const DefaultTable = "gps_data"

// timestampLayouts are the formats Postgres timestamps come back in over
// REST, with and without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp parses a database timestamp. Timestamps without a zone
// are taken as UTC. An empty string yields the zero time.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// float returns the value behind a nullable column. NULL, NaN and ±Inf
// all read as 0, the missing-value sentinel.
func float(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}
