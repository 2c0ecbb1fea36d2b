package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func at(min int) time.Time {
	return t0.Add(time.Duration(min) * time.Minute)
}

func TestLatestValidSkipsZeroAndNaN(t *testing.T) {
	readings := []Reading{
		{Temperature: 0, Timestamp: at(2)},
		{Temperature: math.NaN(), Timestamp: at(1)},
		{Temperature: 22, Timestamp: at(0)},
	}

	v, ok := LatestValid(readings, FieldTemperature)
	require.True(t, ok)
	assert.Equal(t, 22.0, v)
}

func TestLatestValidOrdersByTimestamp(t *testing.T) {
	// input order must not matter
	readings := []Reading{
		{PH: 6.5, Timestamp: at(0)},
		{PH: 7.4, Timestamp: at(5)},
	}

	v, ok := LatestValid(readings, FieldPH)
	require.True(t, ok)
	assert.Equal(t, 7.4, v)
}

func TestLatestValidTieKeepsInputOrder(t *testing.T) {
	readings := []Reading{
		{Temperature: 11, Timestamp: at(3)},
		{Temperature: 22, Timestamp: at(3)},
		{Temperature: 5, Timestamp: at(1)},
	}

	v, ok := LatestValid(readings, FieldTemperature)
	require.True(t, ok)
	assert.Equal(t, 11.0, v)

	sorted := SortNewestFirst(readings)
	assert.Equal(t, []float64{11, 22, 5}, []float64{sorted[0].Temperature, sorted[1].Temperature, sorted[2].Temperature})
}

func TestLatestValidNone(t *testing.T) {
	_, ok := LatestValid([]Reading{{Timestamp: at(0)}}, FieldDissolvedSolids)
	assert.False(t, ok)

	_, ok = LatestValid(nil, FieldTemperature)
	assert.False(t, ok)

	_, ok = LatestValid([]Reading{{Temperature: 1}}, Field("bogus"))
	assert.False(t, ok)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		field Field
		v     float64
		ok    bool
		want  string
	}{
		{FieldTemperature, 22.04, true, "22.0°C"},
		{FieldPH, 7.25, true, "7.2"},
		{FieldDissolvedSolids, 350, true, "350.0"},
		{FieldHDOP, 12.5, true, "12.5%"},
		{FieldTemperature, 0, false, NotAvailable},
		{FieldPH, math.NaN(), true, NotAvailable},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatValue(tc.field, tc.v, tc.ok), "field %s", tc.field)
	}
}

func TestLatestMeasurements(t *testing.T) {
	readings := []Reading{
		{Temperature: 24.3, PH: 0, DissolvedSolids: 410, Timestamp: at(10)},
		{Temperature: 23.9, PH: 7.1, DissolvedSolids: 0, Timestamp: at(5)},
	}

	m := LatestMeasurements(readings)
	assert.Equal(t, "24.3°C", m.Temperature)
	assert.Equal(t, "7.1", m.PH)
	assert.Equal(t, "410.0", m.DissolvedSolids)
	assert.Equal(t, "10:10:00", m.LastUpdate)
}

func TestLatestMeasurementsEmpty(t *testing.T) {
	m := LatestMeasurements(nil)
	assert.Equal(t, Measurements{
		Temperature:     NotAvailable,
		PH:              NotAvailable,
		DissolvedSolids: NotAvailable,
		LastUpdate:      NotAvailable,
	}, m)
}

func TestCards(t *testing.T) {
	now := at(30)
	readings := []Reading{
		{Latitude: 200, Longitude: 300, HDOP: 15, Altitude: 400, PH: 7.5, Temperature: 26, Timestamp: at(29)},
		{Latitude: 100, Longitude: 100, HDOP: 90, Altitude: 90, PH: 8.5, Temperature: 24, Timestamp: at(20)},
		// outside the 20 minute window
		{Latitude: 9000, Temperature: 90, Timestamp: at(5)},
	}

	c := Cards(readings, now)
	assert.Equal(t, 2, c.SampleSize)
	assert.Equal(t, "15.0%", c.CurrentCoverage)
	assert.Equal(t, "20.0%", c.PreviousCoverage)
	assert.Equal(t, "1.5%", c.GrowthRate)
	assert.Equal(t, "10.0%", c.WaterQuality)
	assert.Equal(t, "40.0%", c.PredictedCoverage)
	assert.Equal(t, "25.0°C", c.Temperature)
}

func TestCardsNoRecentReadings(t *testing.T) {
	c := Cards([]Reading{{Temperature: 20, Timestamp: at(0)}}, at(60))
	assert.Equal(t, "0%", c.CurrentCoverage)
	assert.Equal(t, "0°C", c.Temperature)
	assert.Zero(t, c.SampleSize)
}

func TestParseSampleWindow(t *testing.T) {
	for _, w := range SampleWindows {
		got, err := ParseSampleWindow(string(w))
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}

	_, err := ParseSampleWindow("2w")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
