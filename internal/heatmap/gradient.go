package heatmap

import (
	"fmt"

	"github.com/i474232898/hyacinth-monitor/internal/telemetry"
)

// GradientStop maps an intensity threshold to a colour.
type GradientStop struct {
	Threshold float64 `json:"threshold"`
	Color     string  `json:"color"`
}

var thresholds = [4]float64{0.2, 0.4, 0.6, 0.8}

// ramp is used for every window; the legend shows the same four swatches.
var ramp = [4]string{"#00ff00", "#ffff00", "#ff9900", "#ff0000"}

// GradientFor returns the four ordered colour stops for a window.
func GradientFor(w telemetry.SampleWindow) ([]GradientStop, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("%w: unknown sample window %q", telemetry.ErrInvalidArgument, w)
	}
	stops := make([]GradientStop, len(thresholds))
	for i, t := range thresholds {
		stops[i] = GradientStop{Threshold: t, Color: ramp[i]}
	}
	return stops, nil
}

// Legend is the caption shown next to the overlay.
type Legend struct {
	Title  string   `json:"title"`
	Levels []string `json:"levels"`
}

var predictionLevels = []string{"Low", "Medium", "High", "Very High"}

var legends = map[telemetry.SampleWindow]Legend{
	telemetry.WindowCurrent: {
		Title:  "Current Density",
		Levels: []string{"Low Coverage (0-25%)", "Medium Coverage (25-50%)", "High Coverage (50-75%)", "Very High Coverage (75-100%)"},
	},
	telemetry.Window12Hours:  {Title: "12-Hour Prediction", Levels: predictionLevels},
	telemetry.WindowOneDay:   {Title: "24-Hour Prediction", Levels: predictionLevels},
	telemetry.WindowThreeDay: {Title: "3-Day Prediction", Levels: predictionLevels},
	telemetry.WindowOneWeek:  {Title: "1-Week Prediction", Levels: predictionLevels},
}

// LegendFor returns the legend title and level labels for a window.
func LegendFor(w telemetry.SampleWindow) (Legend, error) {
	l, ok := legends[w]
	if !ok {
		return Legend{}, fmt.Errorf("%w: unknown sample window %q", telemetry.ErrInvalidArgument, w)
	}
	levels := make([]string, len(l.Levels))
	copy(levels, l.Levels)
	return Legend{Title: l.Title, Levels: levels}, nil
}

// Overlay bundles everything the map needs for one window.
type Overlay struct {
	Window   telemetry.SampleWindow `json:"window"`
	Bounds   Bounds                 `json:"bounds"`
	Points   []HeatPoint            `json:"points"`
	Gradient []GradientStop         `json:"gradient"`
	Legend   Legend                 `json:"legend"`
}

// Build generates a fresh overlay for the window.
func (s *Sampler) Build(w telemetry.SampleWindow) (Overlay, error) {
	points, err := s.Generate(w)
	if err != nil {
		return Overlay{}, err
	}
	gradient, err := GradientFor(w)
	if err != nil {
		return Overlay{}, err
	}
	legend, err := LegendFor(w)
	if err != nil {
		return Overlay{}, err
	}
	return Overlay{
		Window:   w,
		Bounds:   s.bounds,
		Points:   points,
		Gradient: gradient,
		Legend:   legend,
	}, nil
}
