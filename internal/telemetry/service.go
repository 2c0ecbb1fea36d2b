package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Service polls the readings source into the store and serves the
// dashboard projections from the latest snapshot.
type Service struct {
	store    Store
	source   Source
	lookback time.Duration
	now      func() time.Time
}

// NewService creates a new Service. lookback bounds how much history each
// refresh pulls; zero pulls everything.
func NewService(store Store, source Source, lookback time.Duration) *Service {
	return &Service{
		store:    store,
		source:   source,
		lookback: lookback,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Refresh fetches the current readings and replaces the snapshot. When the
// source fails the snapshot is emptied so views degrade to their "no data"
// states, and the error is returned for logging.
func (s *Service) Refresh(ctx context.Context) error {
	if s.source == nil {
		return fmt.Errorf("%w: no readings source configured", ErrUpstreamUnavailable)
	}

	var since time.Time
	if s.lookback > 0 {
		since = s.now().Add(-s.lookback)
	}

	readings, err := s.source.Fetch(ctx, since)
	if err != nil {
		s.store.Replace(nil)
		return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, s.source.Name(), err)
	}

	log.Printf("DEBUG: fetched %d readings from %s", len(readings), s.source.Name())
	s.store.Replace(readings)
	return nil
}

// Readings returns the snapshot restricted to the window, newest first.
func (s *Service) Readings(window SampleWindow) ([]Reading, error) {
	if !window.Valid() {
		return nil, fmt.Errorf("%w: unknown sample window %q", ErrInvalidArgument, window)
	}
	var readings []Reading
	if lb := window.Lookback(); lb > 0 {
		readings = s.store.Since(s.now().Add(-lb))
	} else {
		readings = s.store.All()
	}
	return SortNewestFirst(readings), nil
}

// LatestMeasurements formats the latest valid values over the full snapshot.
func (s *Service) LatestMeasurements() Measurements {
	return LatestMeasurements(s.store.All())
}

// Cards computes the KPI cards relative to the current time.
func (s *Service) Cards() KPICards {
	return Cards(s.store.All(), s.now())
}

// Table renders the data table over the window.
func (s *Service) Table(window SampleWindow) (Table, error) {
	readings, err := s.Readings(window)
	if err != nil {
		return Table{}, err
	}
	return RenderTable(readings), nil
}

// Prediction runs the growth predictor over the most recent readings of
// the window.
func (s *Service) Prediction(window SampleWindow) (GrowthPrediction, bool, error) {
	readings, err := s.Readings(window)
	if err != nil {
		return GrowthPrediction{}, false, err
	}

	// oldest first, so the trailing readings are the most recent
	ascending := make([]Reading, len(readings))
	for i, r := range readings {
		ascending[len(readings)-1-i] = r
	}

	p, ok := Predict(ascending)
	return p, ok, nil
}
