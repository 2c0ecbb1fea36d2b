package telemetry

import (
	"fmt"
	"math"
	"time"
)

// Field selects one numeric column of a Reading.
type Field string

const (
	FieldLatitude        Field = "latitude"
	FieldLongitude       Field = "longitude"
	FieldAltitude        Field = "altitude"
	FieldHDOP            Field = "hdop"
	FieldTemperature     Field = "temperature"
	FieldPH              Field = "ph"
	FieldDissolvedSolids Field = "dissolvedsolids"
)

// Reading is one telemetry record reported by a drone or buoy.
// A zero numeric value means "not reported".
type Reading struct {
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Altitude        float64   `json:"altitude"`
	HDOP            float64   `json:"hdop"`
	Temperature     float64   `json:"temperature"`
	PH              float64   `json:"ph"`
	DissolvedSolids float64   `json:"dissolvedsolids"`
	Timestamp       time.Time `json:"timestamp"`
	Port            int       `json:"f_port"`
}

// Value returns the raw value of the selected field. The boolean is false
// only for an unknown field.
func (r Reading) Value(f Field) (float64, bool) {
	switch f {
	case FieldLatitude:
		return r.Latitude, true
	case FieldLongitude:
		return r.Longitude, true
	case FieldAltitude:
		return r.Altitude, true
	case FieldHDOP:
		return r.HDOP, true
	case FieldTemperature:
		return r.Temperature, true
	case FieldPH:
		return r.PH, true
	case FieldDissolvedSolids:
		return r.DissolvedSolids, true
	default:
		return 0, false
	}
}

// isValid reports whether v counts as a real measurement.
func isValid(v float64) bool {
	return v != 0 && !math.IsNaN(v)
}

// SampleWindow is the time-range selector shared by the map overlay and the
// readings endpoints.
type SampleWindow string

const (
	WindowCurrent  SampleWindow = "current"
	Window12Hours  SampleWindow = "12h"
	WindowOneDay   SampleWindow = "1d"
	WindowThreeDay SampleWindow = "3d"
	WindowOneWeek  SampleWindow = "1w"
)

// SampleWindows lists every window in increasing breadth.
var SampleWindows = []SampleWindow{WindowCurrent, Window12Hours, WindowOneDay, WindowThreeDay, WindowOneWeek}

// ParseSampleWindow validates s against the closed set of windows.
func ParseSampleWindow(s string) (SampleWindow, error) {
	w := SampleWindow(s)
	if !w.Valid() {
		return "", fmt.Errorf("%w: unknown sample window %q", ErrInvalidArgument, s)
	}
	return w, nil
}

func (w SampleWindow) Valid() bool {
	switch w {
	case WindowCurrent, Window12Hours, WindowOneDay, WindowThreeDay, WindowOneWeek:
		return true
	}
	return false
}

// Lookback is how far back readings are considered for the window.
// Zero means no lower bound.
func (w SampleWindow) Lookback() time.Duration {
	switch w {
	case Window12Hours:
		return 12 * time.Hour
	case WindowOneDay:
		return 24 * time.Hour
	case WindowThreeDay:
		return 3 * 24 * time.Hour
	case WindowOneWeek:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// GrowthPrediction is the heuristic growth outlook over the trailing readings.
type GrowthPrediction struct {
	GrowthProbability  float64 `json:"growthProbability"`
	AvgTemperature     float64 `json:"avgTemperature"`
	AvgPH              float64 `json:"avgPh"`
	AvgDissolvedSolids float64 `json:"avgDissolvedSolids"`

	TemperatureScore     float64 `json:"temperatureScore"`
	PHScore              float64 `json:"phScore"`
	DissolvedSolidsScore float64 `json:"dissolvedSolidsScore"`

	// SampleSize is the number of readings the averages were taken over.
	SampleSize int `json:"sampleSize"`
}
