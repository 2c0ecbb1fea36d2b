package telemetry

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// NotAvailable is rendered for any value that has no valid reading behind it.
const NotAvailable = "N/A"

// SortNewestFirst returns a copy of readings ordered by timestamp descending.
// Readings sharing a timestamp keep their input order.
func SortNewestFirst(readings []Reading) []Reading {
	out := make([]Reading, len(readings))
	copy(out, readings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// LatestValid scans from the most recent reading backwards and returns the
// first value of field that is neither zero nor NaN.
func LatestValid(readings []Reading, field Field) (float64, bool) {
	for _, r := range SortNewestFirst(readings) {
		v, ok := r.Value(field)
		if !ok {
			return 0, false
		}
		if isValid(v) {
			return v, true
		}
	}
	return 0, false
}

// Unit returns the display suffix for a field.
func Unit(field Field) string {
	switch field {
	case FieldTemperature:
		return "°C"
	case FieldPH, FieldDissolvedSolids:
		// dissolved solids are labelled mg/L by the caller
		return ""
	default:
		return "%"
	}
}

// FormatValue renders v with one decimal and the field's unit, or N/A.
func FormatValue(field Field, v float64, ok bool) string {
	if !ok || math.IsNaN(v) {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f%s", v, Unit(field))
}

// Measurements backs the "Latest Measurements" panel.
type Measurements struct {
	Temperature     string `json:"temperature"`
	PH              string `json:"ph"`
	DissolvedSolids string `json:"dissolvedSolids"`
	LastUpdate      string `json:"lastUpdate"`
}

// LatestMeasurements formats the latest valid water-quality values.
func LatestMeasurements(readings []Reading) Measurements {
	m := Measurements{LastUpdate: NotAvailable}
	for _, f := range []Field{FieldTemperature, FieldPH, FieldDissolvedSolids} {
		v, ok := LatestValid(readings, f)
		s := FormatValue(f, v, ok)
		switch f {
		case FieldTemperature:
			m.Temperature = s
		case FieldPH:
			m.PH = s
		case FieldDissolvedSolids:
			m.DissolvedSolids = s
		}
	}

	sorted := SortNewestFirst(readings)
	if len(sorted) > 0 && !sorted[0].Timestamp.IsZero() {
		m.LastUpdate = sorted[0].Timestamp.Format(time.TimeOnly)
	}
	return m
}

// cardsWindow is how far back the KPI cards look.
const cardsWindow = 20 * time.Minute

// KPICards are the dashboard headline figures. The coverage figures are
// proxies derived from the drone telemetry columns.
type KPICards struct {
	CurrentCoverage   string `json:"currentCoverage"`
	PreviousCoverage  string `json:"previousCoverage"`
	GrowthRate        string `json:"growthRate"`
	WaterQuality      string `json:"waterQuality"`
	PredictedCoverage string `json:"predictedCoverage"`
	Temperature       string `json:"temperature"`
	SampleSize        int    `json:"sampleSize"`
}

// Cards computes the KPI cards over the readings of the last 20 minutes
// before now.
func Cards(readings []Reading, now time.Time) KPICards {
	cutoff := now.Add(-cardsWindow)
	var recent []Reading
	for _, r := range SortNewestFirst(readings) {
		if !r.Timestamp.Before(cutoff) {
			recent = append(recent, r)
		}
	}

	if len(recent) == 0 {
		return KPICards{
			CurrentCoverage:   "0%",
			PreviousCoverage:  "0%",
			GrowthRate:        "0%",
			WaterQuality:      "0%",
			PredictedCoverage: "0%",
			Temperature:       "0°C",
		}
	}

	avgLat := average(recent, FieldLatitude)
	avgLng := average(recent, FieldLongitude)
	avgTemp := average(recent, FieldTemperature)
	avgPH := average(recent, FieldPH)
	newest := recent[0]

	return KPICards{
		CurrentCoverage:   fmt.Sprintf("%.1f%%", avgLat*0.1),
		PreviousCoverage:  fmt.Sprintf("%.1f%%", avgLng*0.1),
		GrowthRate:        fmt.Sprintf("%.1f%%", orZero(newest.HDOP)*0.1),
		WaterQuality:      fmt.Sprintf("%.1f%%", (avgPH-7)*10),
		PredictedCoverage: fmt.Sprintf("%.1f%%", orZero(newest.Altitude)*0.1),
		Temperature:       fmt.Sprintf("%.1f°C", avgTemp),
		SampleSize:        len(recent),
	}
}

// average is the arithmetic mean of field with missing values counted as 0.
func average(readings []Reading, field Field) float64 {
	if len(readings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range readings {
		v, _ := r.Value(field)
		sum += orZero(v)
	}
	return sum / float64(len(readings))
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
