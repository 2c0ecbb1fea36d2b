package store

import (
	"sync"
	"time"

	"github.com/i474232898/hyacinth-monitor/internal/telemetry"
)

// MemoryStore is a concurrency-safe in-memory holder of the latest readings
// snapshot.
type MemoryStore struct {
	mu sync.RWMutex

	readings []telemetry.Reading

	// retention configuration
	maxHistory int           // max number of readings kept
	maxAge     time.Duration // optional max age for readings

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Replace swaps in a new snapshot and enforces retention. The slice is
// copied, so callers may reuse it.
func (s *MemoryStore) Replace(readings []telemetry.Reading) {
	snapshot := telemetry.SortNewestFirst(readings)

	// Enforce retention by age. Readings without a timestamp are kept;
	// the formatters decide what to do with them.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		kept := snapshot[:0]
		for _, r := range snapshot {
			if r.Timestamp.IsZero() || !r.Timestamp.Before(cutoff) {
				kept = append(kept, r)
			}
		}
		snapshot = kept
	}

	// Enforce retention by count, dropping the oldest.
	if s.maxHistory > 0 && len(snapshot) > s.maxHistory {
		snapshot = snapshot[:s.maxHistory]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = snapshot
}

// All returns a copy of the snapshot, newest first.
func (s *MemoryStore) All() []telemetry.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]telemetry.Reading, len(s.readings))
	copy(out, s.readings)
	return out
}

// Since returns readings with a timestamp at or after t, newest first.
func (s *MemoryStore) Since(t time.Time) []telemetry.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []telemetry.Reading
	for _, r := range s.readings {
		if r.Timestamp.Equal(t) || r.Timestamp.After(t) {
			result = append(result, r)
		}
	}
	return result
}
