// Package heatmap builds the decorative coverage overlay for the map view.
// The points are synthetic and do not depend on real readings.
package heatmap

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/i474232898/hyacinth-monitor/internal/telemetry"
)

// Bounds is a rectangular lat/lng box.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// Contains reports whether the coordinate lies inside the box (inclusive).
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// DamBounds encloses the monitored water body.
var DamBounds = Bounds{
	MinLat: -25.7687,
	MaxLat: -25.7287,
	MinLng: 27.8539,
	MaxLng: 27.8939,
}

// Intensity range of generated points.
const (
	MinIntensity = 0.3
	MaxIntensity = 1.0
)

var pointCounts = map[telemetry.SampleWindow]int{
	telemetry.WindowCurrent:  50,
	telemetry.Window12Hours:  75,
	telemetry.WindowOneDay:   100,
	telemetry.WindowThreeDay: 125,
	telemetry.WindowOneWeek:  150,
}

// PointCount returns how many points a window generates.
func PointCount(w telemetry.SampleWindow) (int, error) {
	n, ok := pointCounts[w]
	if !ok {
		return 0, fmt.Errorf("%w: unknown sample window %q", telemetry.ErrInvalidArgument, w)
	}
	return n, nil
}

// HeatPoint is one weighted coordinate of the overlay.
type HeatPoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensity"`
}

// Sampler draws heat points from an injectable random source.
// It is safe for concurrent use.
type Sampler struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	bounds Bounds
}

// NewSampler creates a Sampler over bounds. A nil src seeds from the clock.
func NewSampler(src rand.Source, bounds Bounds) *Sampler {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Sampler{rnd: rand.New(src), bounds: bounds}
}

// Bounds returns the box points are drawn from.
func (s *Sampler) Bounds() Bounds {
	return s.bounds
}

// Generate draws the window's point count uniformly within the bounds.
func (s *Sampler) Generate(w telemetry.SampleWindow) ([]HeatPoint, error) {
	n, err := PointCount(w)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	points := make([]HeatPoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, HeatPoint{
			Lat:       s.uniform(s.bounds.MinLat, s.bounds.MaxLat),
			Lng:       s.uniform(s.bounds.MinLng, s.bounds.MaxLng),
			Intensity: s.uniform(MinIntensity, MaxIntensity),
		})
	}
	return points, nil
}

func (s *Sampler) uniform(lo, hi float64) float64 {
	return lo + s.rnd.Float64()*(hi-lo)
}
