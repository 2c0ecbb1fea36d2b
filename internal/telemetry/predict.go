package telemetry

import (
	"math"

	"github.com/i474232898/hyacinth-monitor/internal/common"
)

// PredictionWindow is the number of trailing readings the predictor averages.
const PredictionWindow = 5

// Optimal growth conditions for water hyacinth.
const (
	optimalTemperature = 25.0
	optimalPH          = 7.0
	saturatingTDS      = 1000.0
)

// Predict scores growth conditions over the last PredictionWindow readings
// in input order. Callers wanting "most recent" must pass readings oldest
// first. Missing values count as 0. It returns false for empty input.
func Predict(readings []Reading) (GrowthPrediction, bool) {
	if len(readings) == 0 {
		return GrowthPrediction{}, false
	}

	recent := readings
	if len(recent) > PredictionWindow {
		recent = recent[len(recent)-PredictionWindow:]
	}

	avgTemp := average(recent, FieldTemperature)
	avgPH := average(recent, FieldPH)
	avgTDS := average(recent, FieldDissolvedSolids)

	tempScore := common.Clamp(100-math.Abs(avgTemp-optimalTemperature)*5, 0, 100)
	phScore := common.Clamp(100-math.Abs(avgPH-optimalPH)*20, 0, 100)
	tdsScore := common.Clamp(avgTDS/saturatingTDS*100, 0, 100)

	return GrowthPrediction{
		GrowthProbability:    (tempScore + phScore + tdsScore) / 3,
		AvgTemperature:       avgTemp,
		AvgPH:                avgPH,
		AvgDissolvedSolids:   avgTDS,
		TemperatureScore:     tempScore,
		PHScore:              phScore,
		DissolvedSolidsScore: tdsScore,
		SampleSize:           len(recent),
	}, true
}
